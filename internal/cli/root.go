// Package cli implements the statuspagectl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"statusboard/internal/client"
	"statusboard/internal/config"
	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	"statusboard/internal/service/statuspage/layout"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys. Each can be set by flag, by STATUSBOARD_* environment
// variable or in the config file.
const (
	keyServer           = "server"
	keyToken            = "token"
	keyTimeout          = "timeout"
	keyIndentationWidth = "indentation-width"
	keyLogDir           = "log-dir"
	keyVerbose          = "verbose"
)

const maxLogFiles = 10

// app carries what every command needs
type app struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the statuspagectl command tree
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "statuspagectl",
		Short: "Inspect and reorder status page layouts",
		Long: `statuspagectl talks to the status page API to list pages, print their
layouts and move components between groups.

Examples:
  statuspagectl list
  statuspagectl tree acme
  statuspagectl move acme Website Billing --indent 1
  statuspagectl edit acme`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/statusboard/config.yaml)")
	flags.String(keyServer, "http://localhost:8080", "API base URL")
	flags.String(keyToken, "", "bearer token sent to the API")
	flags.Duration(keyTimeout, client.DefaultTimeout, "request timeout")
	flags.Int(keyIndentationWidth, layout.DefaultIndentationWidth, "drag offset of one nesting level")
	flags.String(keyLogDir, "", "write logs to this directory")
	flags.BoolP(keyVerbose, "v", false, "log debug output")

	cmd.AddCommand(
		newListCmd(a),
		newTreeCmd(a),
		newMoveCmd(a),
		newReorderCmd(a),
		newApplyCmd(a),
		newEditCmd(a),
	)
	return cmd
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) initConfig(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "statusboard"))
		}
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
	}

	a.v.SetEnvPrefix("STATUSBOARD")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (a *app) client() *client.Client {
	opts := []client.Option{}
	if token := a.v.GetString(keyToken); token != "" {
		opts = append(opts, client.WithToken(token))
	}
	if timeout := a.v.GetDuration(keyTimeout); timeout > 0 {
		opts = append(opts, client.WithTimeout(timeout))
	}
	return client.New(a.v.GetString(keyServer), opts...)
}

func (a *app) indentationWidth() int {
	if w := a.v.GetInt(keyIndentationWidth); w > 0 {
		return w
	}
	return layout.DefaultIndentationWidth
}

// logger writes to stderr, or to a file when a log directory is configured.
// The returned close func must be called when done.
func (a *app) logger(cmd *cobra.Command, name string) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if a.v.GetBool(keyVerbose) {
		level = slog.LevelDebug
	}

	var out io.Writer = cmd.ErrOrStderr()
	closeFn := func() {}
	if dir := a.v.GetString(keyLogDir); dir != "" {
		f, err := config.SetupLogFile(dir, name, maxLogFiles)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})), closeFn, nil
}

// resolvePage accepts a page id or subdomain
func resolvePage(ctx context.Context, c *client.Client, ref string) (string, error) {
	if _, err := uuid.Parse(ref); err == nil {
		return ref, nil
	}
	pages, err := c.ListStatusPages(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range pages {
		if p.Subdomain == ref {
			return p.ID, nil
		}
	}
	return "", &domain.NotFoundError{Message: fmt.Sprintf("no status page with subdomain '%s'", ref)}
}

// resolveItem accepts an item id or the name of its component or group
func resolveItem(flat []models.FlattenedItem, ref string) (string, error) {
	if layout.FindItem(flat, ref) >= 0 {
		return ref, nil
	}
	var matches []string
	for _, item := range flat {
		if item.Data.Name == ref {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", &domain.NotFoundError{Message: fmt.Sprintf("no layout item named '%s'", ref)}
	case 1:
		return matches[0], nil
	default:
		return "", &domain.ValidationError{Message: fmt.Sprintf("'%s' names %d items, use an item id", ref, len(matches))}
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
