package source

import (
	"context"
	"testing"

	"minerwatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rig1Payload = `{
	"worker_id": "rig1",
	"hashrate": {"total": [1000, 990, 980]},
	"resources": {
		"memory": {"total": 8388608, "free": 4194304},
		"load_average": [0.1, 0.2, 0.3]
	},
	"cpu": {"brand": "X", "cores": 4, "threads": 8},
	"connection": {"pool": "pool.example:3333"}
}`

func TestDecodeStatus_FullPayload(t *testing.T) {
	record, err := DecodeStatus(context.Background(), []byte(rig1Payload))
	require.NoError(t, err)

	assert.Equal(t, "rig1", record.WorkerID)
	require.NotNil(t, record.Hashrate)
	assert.Equal(t, 1000.0, *record.Hashrate)
	assert.Equal(t, "X", record.CPUModel)
	assert.Equal(t, model.KnownCount(4), record.Cores)
	assert.Equal(t, model.KnownCount(8), record.Threads)
	assert.Equal(t, 8.0, record.TotalMemoryMB)
	assert.Equal(t, 4.0, record.FreeMemoryMB)
	assert.Equal(t, [3]float64{0.1, 0.2, 0.3}, record.LoadAverage)
	assert.Equal(t, "pool.example:3333", record.Pool)
	assert.Equal(t, model.LivenessOnline, record.Liveness)
}

func TestDecodeStatus_Defaults(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		check func(t *testing.T, r *model.WorkerRecord)
	}{
		{
			name: "only worker_id",
			body: `{"worker_id": "rig2"}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				require.NotNil(t, r.Hashrate)
				assert.Equal(t, 0.0, *r.Hashrate)
				assert.Equal(t, model.Unknown, r.CPUModel)
				assert.Equal(t, model.Unknown, r.Pool)
				assert.False(t, r.Cores.Known)
				assert.False(t, r.Threads.Known)
				assert.Equal(t, [3]float64{}, r.LoadAverage)
				assert.Zero(t, r.TotalMemoryMB)
			},
		},
		{
			name: "null first hashrate is absent",
			body: `{"worker_id": "rig2", "hashrate": {"total": [null, 5, 5]}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Nil(t, r.Hashrate)
			},
		},
		{
			name: "empty hashrate total defaults to zero",
			body: `{"worker_id": "rig2", "hashrate": {"total": []}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				require.NotNil(t, r.Hashrate)
				assert.Equal(t, 0.0, *r.Hashrate)
			},
		},
		{
			name: "null hashrate object defaults to zero",
			body: `{"worker_id": "rig2", "hashrate": null}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				require.NotNil(t, r.Hashrate)
				assert.Equal(t, 0.0, *r.Hashrate)
			},
		},
		{
			name: "short load average",
			body: `{"worker_id": "rig2", "resources": {"load_average": [1.5]}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Equal(t, [3]float64{1.5, 0, 0}, r.LoadAverage)
			},
		},
		{
			name: "string cores are unknown",
			body: `{"worker_id": "rig2", "cpu": {"cores": "many", "threads": null}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.False(t, r.Cores.Known)
				assert.False(t, r.Threads.Known)
			},
		},
		{
			name: "memory rounded to two decimals",
			body: `{"worker_id": "rig2", "resources": {"memory": {"total": 1234567, "free": 0}}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Equal(t, 1.18, r.TotalMemoryMB)
				assert.Equal(t, 0.0, r.FreeMemoryMB)
			},
		},
		{
			name: "string hashrate is absent and the worker stays online",
			body: `{"worker_id": "rig2", "hashrate": {"total": ["1000", 990]}, "connection": {"pool": "p:1"}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Nil(t, r.Hashrate)
				assert.Equal(t, model.LivenessOnline, r.Liveness)
				assert.Equal(t, "p:1", r.Pool)
			},
		},
		{
			name: "object hashrate entry is absent",
			body: `{"worker_id": "rig2", "hashrate": {"total": [{"h": 1}]}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Nil(t, r.Hashrate)
			},
		},
		{
			name: "non-array hashrate total is absent",
			body: `{"worker_id": "rig2", "hashrate": {"total": 1000}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Nil(t, r.Hashrate)
			},
		},
		{
			name: "wrong-typed brand and pool fall back to unknown",
			body: `{"worker_id": "rig2", "cpu": {"brand": 123, "cores": 4}, "connection": {"pool": ["p"]}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Equal(t, model.Unknown, r.CPUModel)
				assert.Equal(t, model.KnownCount(4), r.Cores)
				assert.Equal(t, model.Unknown, r.Pool)
			},
		},
		{
			name: "wrong-typed sections are ignored",
			body: `{"worker_id": "rig2", "cpu": "X", "connection": 7, "resources": {"memory": "lots", "load_average": [1, "high", 3]}}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Equal(t, model.Unknown, r.CPUModel)
				assert.Equal(t, model.Unknown, r.Pool)
				assert.Zero(t, r.TotalMemoryMB)
				assert.Equal(t, [3]float64{1, 0, 3}, r.LoadAverage)
			},
		},
		{
			name: "worker_id trimmed",
			body: `{"worker_id": "  rig3 "}`,
			check: func(t *testing.T, r *model.WorkerRecord) {
				assert.Equal(t, "rig3", r.WorkerID)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := DecodeStatus(context.Background(), []byte(tc.body))
			require.NoError(t, err)
			tc.check(t, record)
		})
	}
}

func TestDecodeStatus_Failures(t *testing.T) {
	testCases := []struct {
		name string
		body string
		err  error
	}{
		{name: "empty body", body: "", err: ErrInvalidPayload},
		{name: "html", body: "<html>502</html>", err: ErrInvalidPayload},
		{name: "array", body: "[1,2]", err: ErrInvalidPayload},
		{name: "truncated", body: `{"worker_id": "rig1"`, err: ErrInvalidPayload},
		{name: "no worker_id", body: `{"hashrate": {"total": [1]}}`, err: ErrMissingWorkerID},
		{name: "blank worker_id", body: `{"worker_id": "  "}`, err: ErrMissingWorkerID},
		{name: "numeric worker_id", body: `{"worker_id": 7}`, err: ErrMissingWorkerID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record, err := DecodeStatus(context.Background(), []byte(tc.body))
			assert.Nil(t, record)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestBytesToMB(t *testing.T) {
	assert.Equal(t, 8.0, BytesToMB(8388608))
	assert.Equal(t, 0.5, BytesToMB(524288))
	assert.Equal(t, 0.0, BytesToMB(-1))
	assert.Equal(t, 15.99, BytesToMB(16767000))
}
