package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"statusboard/internal/service/statuspage/layout"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List status pages",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			pages, err := a.client().ListStatusPages(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("list status pages: %w", err)
			}

			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, output, pages); done {
				return err
			}

			if len(pages) == 0 {
				fmt.Fprintln(out, "No status pages")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUBDOMAIN\tNAME\tUPDATED")
			for _, p := range pages {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Subdomain, p.Name, p.UpdatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, yaml or json")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	var (
		output  string
		showIDs bool
	)

	cmd := &cobra.Command{
		Use:   "tree <page>",
		Short: "Print the layout of a status page",
		Long: `Print the components and groups of a status page in display order.

<page> is a page id or subdomain. The yaml and json outputs are the ordering
payload accepted by "statuspagectl reorder".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			ctx := commandContext(cmd)
			c := a.client()

			id, err := resolvePage(ctx, c, args[0])
			if err != nil {
				return err
			}
			page, err := c.GetStatusPage(ctx, id)
			if err != nil {
				return fmt.Errorf("get status page: %w", err)
			}

			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, output, page.Items); done {
				return err
			}

			title := fmt.Sprintf("%s (%s)", page.Name, page.Subdomain)
			fmt.Fprintln(out, renderTree(title, layout.FromServerSideItems(page.Items), showIDs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, yaml or json")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show item ids")
	return cmd
}
