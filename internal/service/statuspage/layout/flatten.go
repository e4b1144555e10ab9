package layout

import (
	models "statusboard/internal/domain/models/statuspage"
)

// Flatten walks the tree in pre-order, emitting each node before its children.
// Index is the node's position within its parent's children.
func Flatten(tree []models.TreeItem) []models.FlattenedItem {
	out := make([]models.FlattenedItem, 0, countItems(tree))
	return flatten(out, tree, nil, 0)
}

func flatten(acc []models.FlattenedItem, items []models.TreeItem, parentID *string, depth int) []models.FlattenedItem {
	for i, item := range items {
		acc = append(acc, models.FlattenedItem{
			TreeItem: item,
			ParentID: parentID,
			Depth:    depth,
			Index:    i,
		})
		id := item.ID
		acc = flatten(acc, item.Children, &id, depth+1)
	}
	return acc
}

func countItems(tree []models.TreeItem) int {
	n := 0
	for _, item := range tree {
		n += 1 + countItems(item.Children)
	}
	return n
}

// BuildTree rebuilds the nested tree from parent references.
// Items whose parent never appears in the list are dropped; use BuildTreeReport to learn which.
func BuildTree(flat []models.FlattenedItem) []models.TreeItem {
	tree, _ := BuildTreeReport(flat)
	return tree
}

// BuildTreeReport is BuildTree that also returns the ids of dropped orphans.
//
// Children are attached in flat-list order, so a child listed before its
// parent still lands under it. Anything not reachable from the root (missing
// parent, parent cycle) is reported as an orphan.
func BuildTreeReport(flat []models.FlattenedItem) ([]models.TreeItem, []string) {
	const rootKey = ""

	nodes := make(map[string]models.TreeItem, len(flat))
	order := make([]string, 0, len(flat))
	for _, item := range flat {
		if _, seen := nodes[item.ID]; !seen {
			order = append(order, item.ID)
		}
		node := item.TreeItem
		node.Children = nil
		nodes[item.ID] = node
	}

	childIDs := make(map[string][]string, len(flat))
	for _, item := range flat {
		parent := rootKey
		if item.ParentID != nil {
			parent = *item.ParentID
		}
		childIDs[parent] = append(childIDs[parent], item.ID)
	}

	visited := make(map[string]bool, len(flat))
	var materialize func(parent string) []models.TreeItem
	materialize = func(parent string) []models.TreeItem {
		ids := childIDs[parent]
		if len(ids) == 0 {
			return []models.TreeItem{}
		}
		out := make([]models.TreeItem, 0, len(ids))
		for _, id := range ids {
			if visited[id] {
				continue
			}
			visited[id] = true
			node := nodes[id]
			node.Children = materialize(id)
			out = append(out, node)
		}
		return out
	}
	tree := materialize(rootKey)

	var orphans []string
	for _, id := range order {
		if !visited[id] {
			orphans = append(orphans, id)
		}
	}
	return tree, orphans
}

// RemoveChildrenOf hides the descendants of the given ids.
// The editor uses it to drop a dragged group's children and collapsed groups' children from the projection list.
func RemoveChildrenOf(flat []models.FlattenedItem, ids []string) []models.FlattenedItem {
	exclude := make(map[string]bool, len(ids))
	for _, id := range ids {
		exclude[id] = true
	}

	out := make([]models.FlattenedItem, 0, len(flat))
	for _, item := range flat {
		if item.ParentID != nil && exclude[*item.ParentID] {
			if len(item.Children) > 0 {
				exclude[item.ID] = true
			}
			continue
		}
		out = append(out, item)
	}
	return out
}

// FindItem returns the index of id in a flat list, or -1
func FindItem(flat []models.FlattenedItem, id string) int {
	for i := range flat {
		if flat[i].ID == id {
			return i
		}
	}
	return -1
}

// FindItemDeep looks id up anywhere in the nested tree
func FindItemDeep(tree []models.TreeItem, id string) (*models.TreeItem, bool) {
	for i := range tree {
		if tree[i].ID == id {
			return &tree[i], true
		}
		if found, ok := FindItemDeep(tree[i].Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// CountChildren counts all descendants of id
func CountChildren(tree []models.TreeItem, id string) int {
	item, ok := FindItemDeep(tree, id)
	if !ok {
		return 0
	}
	return countItems(item.Children)
}

// SetCollapsed returns a copy of the tree with the collapsed flag of id changed
func SetCollapsed(tree []models.TreeItem, id string, collapsed bool) []models.TreeItem {
	out := CloneTree(tree)
	if item, ok := FindItemDeep(out, id); ok {
		item.Collapsed = collapsed
	}
	return out
}

// CloneTree deep-copies a tree so callers can mutate it freely
func CloneTree(tree []models.TreeItem) []models.TreeItem {
	if tree == nil {
		return nil
	}
	out := make([]models.TreeItem, len(tree))
	for i, item := range tree {
		out[i] = item
		out[i].Children = CloneTree(item.Children)
	}
	return out
}

// ArrayMove removes the element at from and reinserts it at to.
// The input slice is left untouched.
func ArrayMove[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}
