package cli

import (
	"encoding/json"
	"fmt"
	"io"

	models "statusboard/internal/domain/models/statuspage"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	outputText = "text"
	outputYAML = "yaml"
	outputJSON = "json"
)

func checkOutput(format string) error {
	switch format {
	case outputText, outputYAML, outputJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, yaml or json)", format)
}

// writeStructured writes v as YAML or JSON. It reports false for text output.
func writeStructured(w io.Writer, format string, v interface{}) (bool, error) {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	}
	return false, nil
}

var (
	groupStyle = lipgloss.NewStyle().Bold(true)
	idStyle    = lipgloss.NewStyle().Faint(true)
)

// renderTree draws the layout as an indented tree headed by title
func renderTree(title string, items []models.TreeItem, showIDs bool) string {
	root := tree.Root(title)
	for _, item := range items {
		root.Child(treeNode(item, showIDs))
	}
	return root.String()
}

func treeNode(item models.TreeItem, showIDs bool) interface{} {
	label := item.Data.Name
	if item.Data.IsGroup() {
		label = groupStyle.Render(label)
	}
	if showIDs {
		label += " " + idStyle.Render(item.ID)
	}
	if !item.Data.IsGroup() {
		return label
	}

	node := tree.Root(label)
	for _, child := range item.Children {
		node.Child(treeNode(child, showIDs))
	}
	return node
}
