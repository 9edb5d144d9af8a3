package aggregate

import (
	"context"
	"math"
	"testing"

	"minerwatch/internal/model"

	"github.com/stretchr/testify/assert"
)

func record(id string, hashrate *float64, pool string, liveness model.Liveness) model.WorkerRecord {
	return model.WorkerRecord{WorkerID: id, Hashrate: hashrate, Pool: pool, Liveness: liveness}
}

func TestAggregate_SingleOnlineWorker(t *testing.T) {
	fleet := Aggregate(context.Background(), []model.WorkerRecord{
		record("rig1", model.Float64(1000), "pool.example:3333", model.LivenessOnline),
	})

	assert.Equal(t, 1000.0, fleet.TotalHashrate)
	assert.Equal(t, []string{"pool.example:3333"}, fleet.ActivePools)
	assert.Equal(t, 1, fleet.Online)
	assert.Equal(t, 0, fleet.Offline)
}

func TestAggregate(t *testing.T) {
	testCases := []struct {
		name      string
		records   []model.WorkerRecord
		wantTotal float64
		wantPools []string
		wantSkip  int
	}{
		{
			name:      "empty",
			records:   nil,
			wantTotal: 0,
			wantPools: []string{},
		},
		{
			name: "offline workers count",
			records: []model.WorkerRecord{
				record("a", model.Float64(100), "p1", model.LivenessOnline),
				record("b", model.Float64(50), "p2", model.LivenessOffline),
			},
			wantTotal: 150,
			wantPools: []string{"p1", "p2"},
		},
		{
			name: "absent hashrate skipped",
			records: []model.WorkerRecord{
				record("a", nil, "p1", model.LivenessOnline),
				record("b", model.Float64(7), "p1", model.LivenessOnline),
			},
			wantTotal: 7,
			wantPools: []string{"p1"},
		},
		{
			name: "non-finite hashrate skipped and counted",
			records: []model.WorkerRecord{
				record("a", model.Float64(math.NaN()), "p1", model.LivenessOnline),
				record("b", model.Float64(math.Inf(1)), "p1", model.LivenessOnline),
				record("c", model.Float64(3), "p1", model.LivenessOnline),
			},
			wantTotal: 3,
			wantPools: []string{"p1"},
			wantSkip:  2,
		},
		{
			name: "unknown and empty pools excluded, duplicates collapse",
			records: []model.WorkerRecord{
				record("a", model.Float64(1), model.Unknown, model.LivenessOnline),
				record("b", model.Float64(1), "", model.LivenessOnline),
				record("c", model.Float64(1), "z", model.LivenessOnline),
				record("d", model.Float64(1), "z", model.LivenessOffline),
				record("e", model.Float64(1), "a", model.LivenessOnline),
			},
			wantTotal: 5,
			wantPools: []string{"a", "z"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fleet := Aggregate(context.Background(), tc.records)
			assert.Equal(t, tc.wantTotal, fleet.TotalHashrate)
			assert.Equal(t, tc.wantPools, fleet.ActivePools)
			assert.Equal(t, tc.wantSkip, fleet.SkippedHashrate)
			assert.Equal(t, len(tc.records), fleet.Online+fleet.Offline)
		})
	}
}

func TestNeumaierSum_Stable(t *testing.T) {
	var s neumaierSum
	s.add(1e16)
	s.add(1)
	s.add(-1e16)
	assert.Equal(t, 1.0, s.value())
}
