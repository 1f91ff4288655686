package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mrlokans/ne2keep/internal/audit"
	"github.com/mrlokans/ne2keep/internal/database"
	"github.com/mrlokans/ne2keep/internal/database/runs"
	"github.com/mrlokans/ne2keep/internal/entities"
)

var (
	statusStyles = map[entities.RunStatus]lipgloss.Style{
		entities.RunStatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		entities.RunStatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		entities.RunStatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
	dimStyle = lipgloss.NewStyle().Faint(true)
)

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent convert runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID != "" {
				return a.runShowRun(runID)
			}
			return a.runHistory(limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "id", "", "Show a single run by id")
	return cmd
}

func (a *app) runShowRun(id string) error {
	if err := a.cfg.EnsureStateDir(); err != nil {
		return err
	}
	state, err := database.NewDatabase(a.cfg.State.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer state.Close()

	run, err := audit.NewService(runs.NewRepository(state.DB)).Get(id)
	if errors.Is(err, runs.ErrNotFound) {
		return fmt.Errorf("no run with id %q", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	fmt.Fprintf(a.out, "Run %s\n", run.ID)
	a.printRun(*run)
	return nil
}

func (a *app) runHistory(limit int) error {
	if err := a.cfg.EnsureStateDir(); err != nil {
		return err
	}
	state, err := database.NewDatabase(a.cfg.State.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer state.Close()

	recent, err := audit.NewService(runs.NewRepository(state.DB)).Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(recent) == 0 {
		fmt.Fprintln(a.out, "No runs recorded")
		return nil
	}

	for _, run := range recent {
		a.printRun(run)
	}
	return nil
}

func (a *app) printRun(run entities.MigrationRun) {
	status := string(run.Status)
	if style, ok := statusStyles[run.Status]; ok {
		status = style.Render(status)
	}

	fmt.Fprintf(a.out, "%s  %-9s  %s  %s\n",
		run.StartedAt.Local().Format(time.DateTime),
		status,
		run.Account,
		run.SourcePath,
	)
	fmt.Fprintf(a.out, "    items %d/%d, labels created %d, rows %d, warnings %d",
		run.ItemsImported, run.ItemsTotal, run.LabelsCreated, run.RowsRead, run.Warnings)
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(a.out, ", took %s", d.Round(time.Millisecond))
	}
	fmt.Fprintln(a.out)

	if run.ErrorMsg != "" {
		fmt.Fprintf(a.out, "    %s\n", dimStyle.Render(run.ErrorMsg))
	}
}
