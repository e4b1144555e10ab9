package cli

import (
	"fmt"

	spSvc "statusboard/internal/domain/services/statuspage"
	"statusboard/internal/service/statuspage/layout"

	"github.com/spf13/cobra"
)

func newMoveCmd(a *app) *cobra.Command {
	var (
		indent int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "move <page> <item> <over>",
		Short: "Move a layout item to the position of another",
		Long: `Move <item> to the position currently held by <over>, as if it had been
dragged there. --indent shifts the drop right (positive) or left (negative)
by whole nesting levels; the server clamps the result so groups stay at the
top level and components nest at most one level deep.

Items are given by id or by component or group name.

Examples:
  statuspagectl move acme Website Billing            # into the API group
  statuspagectl move acme Billing Billing --indent=-1 # out of its group
  statuspagectl move acme Website Billing --dry-run`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			c := a.client()

			id, err := resolvePage(ctx, c, args[0])
			if err != nil {
				return err
			}
			current, err := c.GetLayout(ctx, id)
			if err != nil {
				return fmt.Errorf("get layout: %w", err)
			}
			activeID, err := resolveItem(current.Flattened, args[1])
			if err != nil {
				return err
			}
			overID, err := resolveItem(current.Flattened, args[2])
			if err != nil {
				return err
			}

			width := a.indentationWidth()
			req := &spSvc.DragRequest{
				ActiveID:         activeID,
				OverID:           overID,
				OffsetX:          float64(indent * width),
				IndentationWidth: width,
			}

			out := cmd.OutOrStdout()
			if dryRun {
				p, err := c.Project(ctx, id, req)
				if err != nil {
					return fmt.Errorf("project drop: %w", err)
				}
				parent := "top level"
				if p.ParentID != nil {
					parent = *p.ParentID
					if i := layout.FindItem(current.Flattened, parent); i >= 0 {
						parent = current.Flattened[i].Data.Name
					}
				}
				fmt.Fprintf(out, "depth %d (allowed %d-%d), parent %s\n", p.Depth, p.MinDepth, p.MaxDepth, parent)
				return nil
			}

			l, err := c.Drop(ctx, id, req)
			if err != nil {
				return fmt.Errorf("drop: %w", err)
			}
			fmt.Fprintln(out, renderTree(id, l.Tree, false))
			return nil
		},
	}

	cmd.Flags().IntVar(&indent, "indent", 0, "nesting levels to shift the drop by")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print where the item would land without moving it")
	return cmd
}
