// Package commands implements the CLI commands for the kiln workspace
// manager.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// ErrPairsFailed signals that one or more pairs failed; the summary has
// already been printed, so the caller only sets the exit code.
var ErrPairsFailed = errors.New("one or more pairs failed")

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Lock(ctx context.Context, opts app.LockOptions) ([]app.PairReport, error)
	Sync(ctx context.Context, opts app.SyncOptions) ([]app.PairReport, error)
	List(envName string) (map[domain.PairKey][]domain.Package, error)
	Summary(reports []app.PairReport) string
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "A multi-environment package and workflow manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newLockCmd())
	rootCmd.AddCommand(c.newSyncCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// report prints the per-pair summary and converts pair failures into
// ErrPairsFailed.
func (c *CLI) report(cmd *cobra.Command, reports []app.PairReport) error {
	if summary := c.app.Summary(reports); summary != "" {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), summary)
	}
	if app.Failed(reports) {
		return ErrPairsFailed
	}
	return nil
}
