package layout

import (
	"errors"
	"fmt"

	models "statusboard/internal/domain/models/statuspage"
)

var (
	// ErrNestingViolation marks a group inside a group or anything inside a component
	ErrNestingViolation = errors.New("invalid nesting")
	// ErrDuplicateItem marks an item id that occurs more than once
	ErrDuplicateItem = errors.New("duplicate layout item")
	// ErrUnknownItemType marks data with an item type other than COMPONENT or GROUP
	ErrUnknownItemType = errors.New("unknown item type")
)

// ValidateTree checks the one-level nesting rule and id uniqueness
func ValidateTree(tree []models.TreeItem) error {
	seen := make(map[string]bool)
	return validateLevel(tree, nil, seen)
}

func validateLevel(items []models.TreeItem, parent *models.TreeItem, seen map[string]bool) error {
	for _, item := range items {
		if seen[item.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, item.ID)
		}
		seen[item.ID] = true

		switch item.Data.ItemType {
		case models.ItemTypeComponent:
			if len(item.Children) > 0 {
				return fmt.Errorf("%w: component %s has children", ErrNestingViolation, item.ID)
			}
		case models.ItemTypeGroup:
			if parent != nil {
				return fmt.Errorf("%w: group %s is nested under %s", ErrNestingViolation, item.ID, parent.ID)
			}
		default:
			return fmt.Errorf("%w: %q on %s", ErrUnknownItemType, item.Data.ItemType, item.ID)
		}

		if err := validateLevel(item.Children, &item, seen); err != nil {
			return err
		}
	}
	return nil
}
