package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"minerwatch/internal/model"
	"minerwatch/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const (
	workerHashKey  = "workers"       // Hash: worker_id -> record JSON
	workerOrderKey = "workers:order" // List: worker_ids in cache order
)

// WorkerRepository stores the worker cache in Redis.
// Records live in one hash; a list keeps cache order. Both are replaced
// together in a MULTI/EXEC transaction on every save.
type WorkerRepository struct {
	redis  *redis.Client
	prefix string
}

// NewWorkerRepository creates Worker repository
func NewWorkerRepository(client *redis.Client, prefix string) *WorkerRepository {
	return &WorkerRepository{
		redis:  client,
		prefix: prefix,
	}
}

// Name implements interfaces.CacheStore
func (r *WorkerRepository) Name() string {
	return "redis:" + r.prefix + workerHashKey
}

func (r *WorkerRepository) hashKey() string {
	return r.prefix + workerHashKey
}

func (r *WorkerRepository) orderKey() string {
	return r.prefix + workerOrderKey
}

// Load retrieves all cached workers in cache order.
// Malformed entries and ids missing from the hash are skipped.
func (r *WorkerRepository) Load(ctx context.Context) ([]model.WorkerRecord, error) {
	ids, err := r.redis.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get worker order: %w", err)
	}
	if len(ids) == 0 {
		return []model.WorkerRecord{}, nil
	}

	values, err := r.redis.HMGet(ctx, r.hashKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get workers: %w", err)
	}

	records := make([]model.WorkerRecord, 0, len(ids))
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}

		var record model.WorkerRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			logger.WarnCtx(ctx, "skipping malformed cached worker %s: %v", ids[i], err)
			continue
		}
		record.WorkerID = ids[i]
		records = append(records, record)
	}
	return records, nil
}

// Save replaces the cached workers
func (r *WorkerRepository) Save(ctx context.Context, records []model.WorkerRecord) error {
	ids := make([]interface{}, 0, len(records))
	fields := make([]interface{}, 0, len(records)*2)
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal worker: %w", err)
		}
		ids = append(ids, record.WorkerID)
		fields = append(fields, record.WorkerID, data)
	}

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.hashKey(), r.orderKey())
		if len(records) > 0 {
			pipe.HSet(ctx, r.hashKey(), fields...)
			pipe.RPush(ctx, r.orderKey(), ids...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workers: %w", err)
	}
	return nil
}
