package redis

import (
	"context"
	"testing"

	"minerwatch/internal/model"
	"minerwatch/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) (*miniredis.Miniredis, *WorkerRepository) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, NewWorkerRepository(client, "test:")
}

func worker(id string, hashrate float64) model.WorkerRecord {
	return model.WorkerRecord{
		WorkerID: id,
		Hashrate: model.Float64(hashrate),
		CPUModel: "X",
		Cores:    model.KnownCount(4),
		Pool:     "pool:3333",
		Liveness: model.LivenessOnline,
	}
}

func TestWorkerRepository_SaveAndLoad(t *testing.T) {
	mr, repo := setupRepository(t)
	ctx := context.Background()

	in := []model.WorkerRecord{worker("zeta", 3), worker("alpha", 1)}
	require.NoError(t, repo.Save(ctx, in))

	assert.True(t, mr.Exists("test:workers"))
	assert.True(t, mr.Exists("test:workers:order"))

	out, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWorkerRepository_LoadEmpty(t *testing.T) {
	_, repo := setupRepository(t)

	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWorkerRepository_SaveReplaces(t *testing.T) {
	_, repo := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []model.WorkerRecord{worker("a", 1), worker("b", 2)}))
	require.NoError(t, repo.Save(ctx, []model.WorkerRecord{worker("b", 9)}))

	records, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].WorkerID)
	assert.Equal(t, 9.0, *records[0].Hashrate)

	require.NoError(t, repo.Save(ctx, nil))
	records, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWorkerRepository_SkipsMalformedEntries(t *testing.T) {
	mr, repo := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []model.WorkerRecord{worker("a", 1), worker("b", 2)}))
	mr.HSet("test:workers", "a", "{broken")
	_, err := mr.Push("test:workers:order", "ghost")
	require.NoError(t, err)

	records, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].WorkerID)
}

func TestWorkerRepository_LoadWrongType(t *testing.T) {
	mr, repo := setupRepository(t)
	require.NoError(t, mr.Set("test:workers:order", "not-a-list"))

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	assert.NotNil(t, client.GetClient())
	assert.NoError(t, client.Close())

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
