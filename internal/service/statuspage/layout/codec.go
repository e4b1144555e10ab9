package layout

import (
	"sort"

	models "statusboard/internal/domain/models/statuspage"
)

// ToServerSideItems serializes a tree into the ordering payload.
// Rank is always recomputed from sibling position; Collapsed is dropped.
func ToServerSideItems(tree []models.TreeItem) []models.ServerSideItem {
	out := make([]models.ServerSideItem, 0, len(tree))
	for rank, item := range tree {
		serverItem := models.ServerSideItem{
			ID:   item.ID,
			Rank: rank,
		}
		ref := &models.Ref{ID: item.Data.ID, Name: item.Data.Name}
		if item.Data.IsGroup() {
			serverItem.StatusPageComponentGroup = ref
			serverItem.StatusPageItems = ToServerSideItems(item.Children)
		} else {
			serverItem.StatusPageComponent = ref
		}
		out = append(out, serverItem)
	}
	return out
}

// FromServerSideItems rebuilds the UI tree from the server's item list.
// Siblings are ordered by rank (ties keep their incoming order). Items carrying
// neither a component nor a group reference are skipped and returned as rejected,
// as are groups below the top level and anything nested under a component.
func FromServerSideItems(items []models.ServerSideItem) []models.TreeItem {
	tree, _ := FromServerSideItemsReport(items)
	return tree
}

// FromServerSideItemsReport is FromServerSideItems that also returns skipped ids
func FromServerSideItemsReport(items []models.ServerSideItem) ([]models.TreeItem, []string) {
	var rejected []string
	tree := fromServerSideItems(items, 0, &rejected)
	return tree, rejected
}

func fromServerSideItems(items []models.ServerSideItem, depth int, rejected *[]string) []models.TreeItem {
	ordered := make([]models.ServerSideItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	out := make([]models.TreeItem, 0, len(ordered))
	for _, item := range ordered {
		switch {
		case item.StatusPageComponentGroup != nil && depth > 0:
			rejectAll(item, rejected)
		case item.StatusPageComponentGroup != nil:
			out = append(out, models.TreeItem{
				ID: item.ID,
				Data: models.ItemData{
					ItemType: models.ItemTypeGroup,
					ID:       item.StatusPageComponentGroup.ID,
					Name:     item.StatusPageComponentGroup.Name,
				},
				Children: fromServerSideItems(item.StatusPageItems, depth+1, rejected),
			})
		case item.StatusPageComponent != nil:
			for _, child := range item.StatusPageItems {
				rejectAll(child, rejected)
			}
			out = append(out, models.TreeItem{
				ID: item.ID,
				Data: models.ItemData{
					ItemType: models.ItemTypeComponent,
					ID:       item.StatusPageComponent.ID,
					Name:     item.StatusPageComponent.Name,
				},
				Children: []models.TreeItem{},
			})
		default:
			rejectAll(item, rejected)
		}
	}
	return out
}

// rejectAll records item and everything below it
func rejectAll(item models.ServerSideItem, rejected *[]string) {
	*rejected = append(*rejected, item.ID)
	for _, child := range item.StatusPageItems {
		rejectAll(child, rejected)
	}
}
