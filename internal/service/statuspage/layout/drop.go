package layout

import (
	"errors"
	"fmt"

	models "statusboard/internal/domain/models/statuspage"
)

// ErrItemNotFound is returned when a drag references an id missing from the tree
var ErrItemNotFound = errors.New("layout item not found")

// ApplyDrop moves activeID to overID's position with the projected depth and parent,
// returning the rebuilt tree. The input tree is not modified.
func ApplyDrop(tree []models.TreeItem, activeID, overID string, projection models.Projection) ([]models.TreeItem, error) {
	tree, _, err := ApplyDropReport(tree, activeID, overID, projection)
	return tree, err
}

// ApplyDropReport is ApplyDrop that also returns ids dropped while rebuilding
func ApplyDropReport(tree []models.TreeItem, activeID, overID string, projection models.Projection) ([]models.TreeItem, []string, error) {
	cloned := Flatten(CloneTree(tree))

	activeIndex := FindItem(cloned, activeID)
	if activeIndex < 0 {
		return nil, nil, fmt.Errorf("active item %s: %w", activeID, ErrItemNotFound)
	}
	overIndex := FindItem(cloned, overID)
	if overIndex < 0 {
		return nil, nil, fmt.Errorf("over item %s: %w", overID, ErrItemNotFound)
	}

	cloned[activeIndex].Depth = projection.Depth
	cloned[activeIndex].ParentID = copyID(projection.ParentID)

	sorted := ArrayMove(cloned, activeIndex, overIndex)
	rebuilt, orphans := BuildTreeReport(sorted)
	return rebuilt, orphans, nil
}

// IsDescendant reports whether id sits somewhere below ancestorID
func IsDescendant(tree []models.TreeItem, ancestorID, id string) bool {
	ancestor, ok := FindItemDeep(tree, ancestorID)
	if !ok {
		return false
	}
	_, found := FindItemDeep(ancestor.Children, id)
	return found
}
