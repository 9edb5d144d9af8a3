package mysql

import (
	"context"
	"fmt"
	"time"

	"minerwatch/internal/model"
	"minerwatch/pkg/logger"
	dbmodel "minerwatch/pkg/store/mysql/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertColumns are overwritten when a cached worker row already exists
var upsertColumns = []string{
	"position", "hashrate", "cpu_model", "total_memory_mb", "free_memory_mb",
	"load_average", "cores", "threads", "pool", "status", "source_url",
	"last_seen", "updated_at",
}

// WorkerRepository handles cached worker database operations
type WorkerRepository struct {
	ds  *Datastore
	now func() time.Time
}

// NewWorkerRepository creates a new worker repository
func NewWorkerRepository(ds *Datastore) *WorkerRepository {
	return &WorkerRepository{ds: ds, now: time.Now}
}

// Name implements interfaces.CacheStore
func (r *WorkerRepository) Name() string {
	return "mysql:" + dbmodel.MinerWorker{}.TableName()
}

// AutoMigrate creates or updates the miner_workers table
func (r *WorkerRepository) AutoMigrate(ctx context.Context) error {
	if err := r.ds.DB(ctx).AutoMigrate(&dbmodel.MinerWorker{}); err != nil {
		return fmt.Errorf("failed to migrate miner_workers: %w", err)
	}
	return nil
}

// Load returns cached workers ordered by position
func (r *WorkerRepository) Load(ctx context.Context) ([]model.WorkerRecord, error) {
	var rows []*dbmodel.MinerWorker
	if err := r.ds.DB(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load workers: %w", err)
	}

	records := make([]model.WorkerRecord, 0, len(rows))
	for _, row := range rows {
		if row.WorkerID == "" {
			logger.WarnCtx(ctx, "skipping cached worker row %d without worker_id", row.ID)
			continue
		}
		records = append(records, ToWorkerDomain(row))
	}
	return records, nil
}

// Save replaces the cached workers: rows are upserted by worker_id and
// rows no longer in the cache are removed, all in one transaction.
func (r *WorkerRepository) Save(ctx context.Context, records []model.WorkerRecord) error {
	now := r.now().UTC()
	rows := make([]*dbmodel.MinerWorker, 0, len(records))
	ids := make([]string, 0, len(records))
	for i, record := range records {
		row := FromWorkerDomain(record, i)
		touch(row, now)
		rows = append(rows, row)
		ids = append(ids, record.WorkerID)
	}

	return r.ds.ExecTx(ctx, func(ctx context.Context) error {
		db := r.ds.DB(ctx)
		if len(rows) > 0 {
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "worker_id"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
			}).Create(&rows).Error
			if err != nil {
				return fmt.Errorf("failed to upsert workers: %w", err)
			}
		}

		stale := db.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(ids) > 0 {
			stale = stale.Where("worker_id NOT IN ?", ids)
		}
		if err := stale.Delete(&dbmodel.MinerWorker{}).Error; err != nil {
			return fmt.Errorf("failed to delete stale workers: %w", err)
		}
		return nil
	})
}
