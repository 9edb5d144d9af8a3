package mysql

import (
	"testing"
	"time"

	"minerwatch/internal/model"
	dbmodel "minerwatch/pkg/store/mysql/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerConversion_RoundTrip(t *testing.T) {
	seen := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	tests := []struct {
		name   string
		record model.WorkerRecord
	}{
		{
			name: "fully known",
			record: model.WorkerRecord{
				WorkerID:      "rig1",
				Hashrate:      model.Float64(1234.5),
				CPUModel:      "AMD Ryzen 9",
				TotalMemoryMB: 32000,
				FreeMemoryMB:  1000.25,
				LoadAverage:   [3]float64{1, 2, 3},
				Cores:         model.KnownCount(16),
				Threads:       model.KnownCount(32),
				Pool:          "pool:3333",
				Liveness:      model.LivenessOnline,
				SourceURL:     "http://10.0.0.1/1/rig1",
				LastSeen:      seen,
			},
		},
		{
			name: "unknown values",
			record: model.WorkerRecord{
				WorkerID: "rig2",
				CPUModel: model.Unknown,
				Pool:     model.Unknown,
				Liveness: model.LivenessOffline,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := FromWorkerDomain(tt.record, 7)
			assert.Equal(t, 7, row.Position)
			assert.Equal(t, tt.record, ToWorkerDomain(row))
		})
	}
}

func TestFromWorkerDomain_Columns(t *testing.T) {
	row := FromWorkerDomain(model.WorkerRecord{WorkerID: "a", Cores: model.KnownCount(0)}, 0)

	assert.Equal(t, string(model.LivenessOffline), row.Status)
	require.NotNil(t, row.Cores)
	assert.Equal(t, 0, *row.Cores)
	assert.Nil(t, row.Threads)
	assert.Nil(t, row.Hashrate)
	assert.Nil(t, row.LastSeen)
	assert.Equal(t, dbmodel.JSONFloatArray{0, 0, 0}, row.LoadAverage)
}

func TestToWorkerDomain_ShortLoadAverage(t *testing.T) {
	record := ToWorkerDomain(&dbmodel.MinerWorker{
		WorkerID:    "a",
		LoadAverage: dbmodel.JSONFloatArray{0.5},
		Status:      "online",
	})
	assert.Equal(t, [3]float64{0.5, 0, 0}, record.LoadAverage)
	assert.True(t, record.Online())
}

func TestTouch(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	row := &dbmodel.MinerWorker{}
	touch(row, now)
	assert.Equal(t, now, row.CreatedAt)
	assert.Equal(t, now, row.UpdatedAt)

	row = &dbmodel.MinerWorker{CreatedAt: created}
	touch(row, now)
	assert.Equal(t, created, row.CreatedAt)
	assert.Equal(t, now, row.UpdatedAt)
}
