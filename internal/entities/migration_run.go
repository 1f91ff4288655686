package entities

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// MigrationRun is one invocation of the convert command. It records totals
// only; individual items are never tracked.
type MigrationRun struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	SourcePath    string     `gorm:"size:1024" json:"source_path"`
	Account       string     `gorm:"index;size:255" json:"account"`
	Status        RunStatus  `gorm:"index;size:20" json:"status"`
	RowsRead      int        `json:"rows_read"`
	LabelsCreated int        `json:"labels_created"`
	ItemsTotal    int        `json:"items_total"`
	ItemsImported int        `json:"items_imported"`
	Warnings      int        `json:"warnings"`
	ErrorMsg      string     `gorm:"size:500" json:"error_msg,omitempty"`
	StartedAt     time.Time  `gorm:"index" json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

func (MigrationRun) TableName() string {
	return "migration_runs"
}

// Duration returns how long the run took, or zero while it is still running.
func (r MigrationRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
