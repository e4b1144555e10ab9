package cli

import (
	"log/slog"

	"statusboard/internal/tui"

	"github.com/spf13/cobra"
)

func newEditCmd(a *app) *cobra.Command {
	var revert bool

	cmd := &cobra.Command{
		Use:   "edit <page>",
		Short: "Reorder a status page interactively",
		Long: `Open a terminal editor for the layout of a status page.

Select an item and press enter to pick it up. Up and down choose where it
goes, left and right change its nesting level, enter drops it and esc puts
it back. Each drop is saved in the background; if saving fails the error is
shown and, with --revert-on-failure, the previous layout is restored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			c := a.client()

			id, err := resolvePage(ctx, c, args[0])
			if err != nil {
				return err
			}

			// the editor owns the terminal, so logs only go to a file
			logger := slog.New(slog.DiscardHandler)
			if a.v.GetString(keyLogDir) != "" {
				l, closeLog, err := a.logger(cmd, "statuspagectl")
				if err != nil {
					return err
				}
				defer closeLog()
				logger = l
			}

			return tui.Run(ctx, c, tui.Config{
				StatusPageID:     id,
				IndentationWidth: a.indentationWidth(),
				RevertOnFailure:  revert,
				Logger:           logger.With(slog.String("status_page_id", id)),
			})
		},
	}

	cmd.Flags().BoolVar(&revert, "revert-on-failure", false, "restore the previous layout when saving a drop fails")
	return cmd
}
