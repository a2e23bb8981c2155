package repository

import (
	"github.com/ManuelReschke/PixelVault/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// syncStatRepository implements the SyncStatRepository interface
type syncStatRepository struct {
	db *gorm.DB
}

// NewSyncStatRepository creates a new sync stat repository instance
func NewSyncStatRepository(db *gorm.DB) SyncStatRepository {
	return &syncStatRepository{db: db}
}

// IncrementBy adds delta to the per-day outcome counter, creating the row on
// first use. Flushers call this with the drained Redis counter values.
func (r *syncStatRepository) IncrementBy(date, outcome string, delta int64) error {
	if delta == 0 {
		return nil
	}
	stat := &models.SyncStat{
		Date:    date,
		Outcome: outcome,
		Count:   delta,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "date"},
			{Name: "outcome"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("count + ?", delta),
		}),
	}).Create(stat).Error
}

// GetRange returns the counters between two YYYY-MM-DD dates (inclusive)
func (r *syncStatRepository) GetRange(startDate, endDate string) ([]models.SyncStat, error) {
	var stats []models.SyncStat
	err := r.db.Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC, outcome ASC").
		Find(&stats).Error
	return stats, err
}
