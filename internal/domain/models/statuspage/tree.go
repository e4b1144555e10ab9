package statuspage

// ItemType discriminates the two kinds of node a status page layout holds
type ItemType string

const (
	ItemTypeComponent ItemType = "COMPONENT"
	ItemTypeGroup     ItemType = "GROUP"
)

// ItemData is the tagged payload of a tree node.
// ID references the status page component or component group, not the item.
type ItemData struct {
	ItemType ItemType `json:"itemType" yaml:"itemType"`
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
}

// IsGroup reports whether the data describes a component group
func (d ItemData) IsGroup() bool {
	return d.ItemType == ItemTypeGroup
}

// TreeItem is a node of the nested layout tree.
// Only groups carry children, and only component children.
type TreeItem struct {
	ID        string     `json:"id" yaml:"id"`
	Data      ItemData   `json:"data" yaml:"data"`
	Children  []TreeItem `json:"children" yaml:"children,omitempty"`
	Collapsed bool       `json:"collapsed,omitempty" yaml:"-"` // UI-only, never persisted
}

// FlattenedItem is a TreeItem annotated with its position in the tree.
// ParentID is a lookup key, not ownership: the nested Children slices own structure.
type FlattenedItem struct {
	TreeItem
	ParentID *string `json:"parentId"`
	Depth    int     `json:"depth"`
	Index    int     `json:"index"`
}

// Projection is the candidate placement of a dragged item
type Projection struct {
	Depth    int     `json:"depth"`
	MinDepth int     `json:"minDepth"`
	MaxDepth int     `json:"maxDepth"`
	ParentID *string `json:"parentId"`
}

// Layout bundles both representations of a status page's items
type Layout struct {
	StatusPageID string          `json:"statusPageId"`
	Tree         []TreeItem      `json:"tree"`
	Flattened    []FlattenedItem `json:"flattened"`
}
