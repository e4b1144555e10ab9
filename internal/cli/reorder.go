package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	models "statusboard/internal/domain/models/statuspage"
	"statusboard/internal/seed"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newReorderCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "reorder <page> -f <file>",
		Short: "Replace the ordering of a status page",
		Long: `Send a complete ordering payload, as printed by "statuspagectl tree -o yaml",
for a status page. The payload must contain every item of the page exactly
once. Use -f - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readItems(cmd, file)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			c := a.client()
			id, err := resolvePage(ctx, c, args[0])
			if err != nil {
				return err
			}
			if err := c.UpdateItems(ctx, id, items); err != nil {
				return fmt.Errorf("update items: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d top-level items\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON ordering payload (- for stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readItems decodes a payload file. YAML is a superset of JSON, so both are accepted.
func readItems(cmd *cobra.Command, file string) ([]models.ServerSideItem, error) {
	var r io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var items []models.ServerSideItem
	if err := yaml.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return items, nil
}

func newApplyCmd(a *app) *cobra.Command {
	var (
		file   string
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "apply -f <file>",
		Short: "Create status pages from a fixture file",
		Long: `Create the status pages described in a fixture file. Pages whose
subdomain already exists are left untouched. --sample uses the built-in
sample pages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				fixture *seed.Fixture
				err     error
			)
			switch {
			case sample:
				fixture, err = seed.DefaultFixture()
			case file == "-":
				fixture, err = seed.LoadFixture(cmd.InOrStdin())
			case file != "":
				f, openErr := os.Open(file)
				if openErr != nil {
					return openErr
				}
				defer f.Close()
				fixture, err = seed.LoadFixture(f)
			default:
				return fmt.Errorf("one of --file or --sample is required")
			}
			if err != nil {
				return err
			}

			logger, closeLog, err := a.logger(cmd, "statuspagectl")
			if err != nil {
				return err
			}
			defer closeLog()

			res := seed.NewSeeder(a.client(), logger.With(slog.String("command", "apply"))).Seed(commandContext(cmd), fixture)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d, skipped %d, failed %d\n", res.Created, res.Skipped, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d status pages could not be created", res.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (- for stdin)")
	cmd.Flags().BoolVar(&sample, "sample", false, "create the built-in sample pages")
	return cmd
}
