// Package audit keeps the run journal: one row per convert run with its
// outcome and counters. The journal is history only; it is never consulted
// to skip work on a later run.
package audit

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/ne2keep/internal/database/runs"
	"github.com/mrlokans/ne2keep/internal/entities"
)

// Totals are the counters recorded when a run ends.
type Totals struct {
	RowsRead      int
	LabelsCreated int
	ItemsTotal    int
	ItemsImported int
	Warnings      int
}

type Service struct {
	repo *runs.Repository
	now  func() time.Time
}

func NewService(repo *runs.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Start records a new running entry for sourcePath.
func (s *Service) Start(sourcePath, account string) (*entities.MigrationRun, error) {
	run := &entities.MigrationRun{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		Account:    account,
		Status:     entities.RunStatusRunning,
		StartedAt:  s.now(),
	}
	if err := s.repo.Create(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Finish closes run as completed, or failed when runErr is non-nil.
func (s *Service) Finish(run *entities.MigrationRun, totals Totals, runErr error) error {
	finished := s.now()
	run.FinishedAt = &finished
	run.RowsRead = totals.RowsRead
	run.LabelsCreated = totals.LabelsCreated
	run.ItemsTotal = totals.ItemsTotal
	run.ItemsImported = totals.ItemsImported
	run.Warnings = totals.Warnings
	run.Status = entities.RunStatusCompleted

	if runErr != nil {
		run.Status = entities.RunStatusFailed
		run.ErrorMsg = truncate(runErr.Error(), 500)
	}

	return s.repo.Save(run)
}

// FinishQuietly is Finish for deferred calls; a journal failure must not
// mask the run's own result.
func (s *Service) FinishQuietly(run *entities.MigrationRun, totals Totals, runErr error) {
	if run == nil {
		return
	}
	if err := s.Finish(run, totals, runErr); err != nil {
		log.Printf("Failed to record migration run %s: %v", run.ID, err)
	}
}

func (s *Service) Get(id string) (*entities.MigrationRun, error) {
	return s.repo.GetByID(id)
}

func (s *Service) Recent(limit int) ([]entities.MigrationRun, error) {
	return s.repo.GetRecent(limit)
}

// Prune removes runs older than retention. A non-positive retention keeps
// every run.
func (s *Service) Prune(retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(s.now().Add(-retention))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
