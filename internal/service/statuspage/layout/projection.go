package layout

import (
	"math"

	models "statusboard/internal/domain/models/statuspage"
)

// DefaultIndentationWidth is the horizontal drag distance, in pixels, of one nesting level
const DefaultIndentationWidth = 50

// GetProjection computes where the active item would land if dropped over overID
// after a horizontal drag of dragOffsetX pixels.
//
// The projection is taken over a hypothetical reordering of flat in which the
// active item has been moved to the over item's index. The returned depth is
// clamped so that groups never nest and nothing nests under a component.
// ok is false when either id is not in flat.
func GetProjection(flat []models.FlattenedItem, activeID, overID string, dragOffsetX float64, indentationWidth int) (models.Projection, bool) {
	overIndex := FindItem(flat, overID)
	activeIndex := FindItem(flat, activeID)
	if overIndex < 0 || activeIndex < 0 {
		return models.Projection{}, false
	}
	if indentationWidth <= 0 {
		indentationWidth = DefaultIndentationWidth
	}

	activeItem := flat[activeIndex]
	newItems := ArrayMove(flat, activeIndex, overIndex)

	var previousItem, nextItem *models.FlattenedItem
	if overIndex > 0 {
		previousItem = &newItems[overIndex-1]
	}
	if overIndex+1 < len(newItems) {
		nextItem = &newItems[overIndex+1]
	}

	projectedDepth := activeItem.Depth + dragDepth(dragOffsetX, indentationWidth)
	maxDepth := getMaxDepth(activeItem, previousItem)
	minDepth := getMinDepth(nextItem)

	// maxDepth wins when the bounds cross: a group dropped between two
	// children must stay at the root.
	depth := projectedDepth
	if depth < minDepth {
		depth = minDepth
	}
	if depth > maxDepth {
		depth = maxDepth
	}

	return models.Projection{
		Depth:    depth,
		MinDepth: minDepth,
		MaxDepth: maxDepth,
		ParentID: projectedParentID(newItems, overIndex, depth, previousItem),
	}, true
}

// dragDepth rounds half towards positive infinity so that -0.5 levels is 0, not -1
func dragDepth(offset float64, indentationWidth int) int {
	return int(math.Floor(offset/float64(indentationWidth) + 0.5))
}

func getMaxDepth(active models.FlattenedItem, previous *models.FlattenedItem) int {
	switch {
	case previous == nil:
		return 0
	case active.Data.IsGroup():
		return 0
	case previous.Depth == 0 && !previous.Data.IsGroup():
		return 0
	default:
		return 1
	}
}

func getMinDepth(next *models.FlattenedItem) int {
	if next != nil {
		return next.Depth
	}
	return 0
}

func projectedParentID(newItems []models.FlattenedItem, overIndex, depth int, previous *models.FlattenedItem) *string {
	if depth == 0 || previous == nil {
		return nil
	}
	if depth == previous.Depth {
		return copyID(previous.ParentID)
	}
	if depth > previous.Depth {
		id := previous.ID
		return &id
	}
	for i := overIndex - 1; i >= 0; i-- {
		if newItems[i].Depth == depth {
			return copyID(newItems[i].ParentID)
		}
	}
	return nil
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
