// Package cli implements the ne2keep command line.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/ne2keep/internal/config"
	"github.com/mrlokans/ne2keep/internal/logging"
)

// ErrReported marks errors whose message was already shown to the user.
var ErrReported = errors.New("error already reported")

type app struct {
	version  string
	cfgFile  string
	cfg      *config.Config
	out      io.Writer
	errOut   io.Writer
	prompter Prompter
	logClose io.Closer
}

func newApp(version string) *app {
	return &app{
		version:  version,
		out:      os.Stdout,
		errOut:   os.Stderr,
		prompter: newHuhPrompter(os.Stdin),
	}
}

// Execute runs the command line with os.Args.
func Execute(ctx context.Context, version string) error {
	return newApp(version).execute(ctx, os.Args[1:])
}

// execute runs one command. The log file is closed whether or not it fails.
func (a *app) execute(ctx context.Context, args []string) error {
	defer a.closeLog()

	root := newRootCommand(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) closeLog() {
	if a.logClose == nil {
		return
	}
	a.logClose.Close()
	a.logClose = nil
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ne2keep",
		Short: "Migrate notes from a SQLite note database into Google Keep",
		Long: `ne2keep reads notes, checklists and folders from a SQLite note database
and recreates them in Google Keep. Folders become labels, checklists keep
their order and check state, and pinned flags and colors are carried over.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./ne2keep.yaml or <user config dir>/ne2keep/ne2keep.yaml)")

	root.AddCommand(
		newConvertCommand(a),
		newHistoryCommand(a),
		newLogoutCommand(a),
		newVersionCommand(a),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewConfig(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Log.File != "" {
		if err := cfg.EnsureStateDir(); err != nil {
			return err
		}
	}
	a.logClose = logging.Setup(cfg.Log)
	return nil
}
