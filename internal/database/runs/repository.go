package runs

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/ne2keep/internal/entities"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("migration run not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(run *entities.MigrationRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return r.db.Create(run).Error
}

// Save writes every column of run, including zero counters.
func (r *Repository) Save(run *entities.MigrationRun) error {
	return r.db.Save(run).Error
}

func (r *Repository) GetByID(id string) (*entities.MigrationRun, error) {
	var run entities.MigrationRun
	err := r.db.Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRecent returns the latest runs, most recent first.
func (r *Repository) GetRecent(limit int) ([]entities.MigrationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []entities.MigrationRun
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// DeleteOlderThan removes runs started before the given time.
func (r *Repository) DeleteOlderThan(t time.Time) (int64, error) {
	result := r.db.Where("started_at < ?", t).Delete(&entities.MigrationRun{})
	return result.RowsAffected, result.Error
}
