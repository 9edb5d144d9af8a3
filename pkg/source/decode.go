// Package source fetches and decodes mining worker status endpoints
// (xmrig-compatible HTTP API summaries).
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"minerwatch/internal/model"
	"minerwatch/pkg/logger"
)

var (
	// ErrInvalidPayload the body is not a JSON object
	ErrInvalidPayload = errors.New("invalid status payload")
	// ErrMissingWorkerID the payload carries no usable worker_id
	ErrMissingWorkerID = errors.New("status payload has no worker_id")
)

const bytesPerMB = 1024 * 1024

// statusPayload is the subset of the worker API summary we read.
// Sections and leaves stay raw so a wrong-typed field only loses that
// field; defaults are applied in DecodeStatus.
type statusPayload struct {
	WorkerID   json.RawMessage `json:"worker_id"`
	Hashrate   json.RawMessage `json:"hashrate"`
	CPU        json.RawMessage `json:"cpu"`
	Resources  json.RawMessage `json:"resources"`
	Connection json.RawMessage `json:"connection"`
}

type hashrateSection struct {
	Total json.RawMessage `json:"total"`
}

type cpuSection struct {
	Brand   json.RawMessage `json:"brand"`
	Cores   json.RawMessage `json:"cores"`
	Threads json.RawMessage `json:"threads"`
}

type resourcesSection struct {
	Memory      json.RawMessage `json:"memory"`
	LoadAverage json.RawMessage `json:"load_average"`
}

type memorySection struct {
	Total json.RawMessage `json:"total"`
	Free  json.RawMessage `json:"free"`
}

type connectionSection struct {
	Pool json.RawMessage `json:"pool"`
}

// DecodeStatus turns a status body into an Online WorkerRecord.
//
// Only a body that is not a JSON object, or one without a string worker_id,
// is an error. Defaults: hashrate 0 when hashrate.total is missing or empty
// (a JSON null first element is kept as an absent hashrate, a non-numeric one
// is logged and also kept as absent); memory 0; load average zeros; cpu model,
// cores, threads and pool fall back to model.Unknown when missing or of the
// wrong type.
func DecodeStatus(ctx context.Context, data []byte) (*model.WorkerRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidPayload
	}

	var p statusPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	workerID, _ := asString(p.WorkerID)
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, ErrMissingWorkerID
	}

	record := &model.WorkerRecord{
		WorkerID: workerID,
		Hashrate: decodeHashrate(ctx, workerID, p.Hashrate),
		CPUModel: model.Unknown,
		Pool:     model.Unknown,
		Liveness: model.LivenessOnline,
	}

	var cpu cpuSection
	if asObject(p.CPU, &cpu) {
		if brand, ok := asString(cpu.Brand); ok && brand != "" {
			record.CPUModel = brand
		}
		record.Cores = asCount(cpu.Cores)
		record.Threads = asCount(cpu.Threads)
	}

	var resources resourcesSection
	if asObject(p.Resources, &resources) {
		var mem memorySection
		if asObject(resources.Memory, &mem) {
			if v, ok := asNumber(mem.Total); ok {
				record.TotalMemoryMB = BytesToMB(v)
			}
			if v, ok := asNumber(mem.Free); ok {
				record.FreeMemoryMB = BytesToMB(v)
			}
		}
		var loads []json.RawMessage
		if json.Unmarshal(resources.LoadAverage, &loads) == nil {
			for i := 0; i < len(record.LoadAverage) && i < len(loads); i++ {
				if v, ok := asNumber(loads[i]); ok {
					record.LoadAverage[i] = v
				}
			}
		}
	}

	var conn connectionSection
	if asObject(p.Connection, &conn) {
		if pool, ok := asString(conn.Pool); ok && pool != "" {
			record.Pool = pool
		}
	}

	return record, nil
}

// decodeHashrate reads hashrate.total[0]
func decodeHashrate(ctx context.Context, workerID string, raw json.RawMessage) *float64 {
	if isNull(raw) {
		return model.Float64(0)
	}
	var section hashrateSection
	if !asObject(raw, &section) {
		logger.WarnCtx(ctx, "worker %s reported a non-object hashrate %s, treating as absent", workerID, raw)
		return nil
	}
	if isNull(section.Total) {
		return model.Float64(0)
	}

	var total []json.RawMessage
	if err := json.Unmarshal(section.Total, &total); err != nil {
		logger.WarnCtx(ctx, "worker %s reported a non-array hashrate.total %s, treating as absent", workerID, section.Total)
		return nil
	}
	if len(total) == 0 {
		return model.Float64(0)
	}
	if isNull(total[0]) {
		return nil
	}
	v, ok := asNumber(total[0])
	if !ok {
		logger.WarnCtx(ctx, "worker %s reported a non-numeric hashrate %s, treating as absent", workerID, total[0])
		return nil
	}
	return model.Float64(v)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// asObject decodes raw into dst and reports whether raw was a JSON object
func asObject(raw json.RawMessage, dst interface{}) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Unmarshal(trimmed, dst) == nil
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func asNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if isNull(raw) || json.Unmarshal(raw, &f) != nil {
		return 0, false
	}
	return f, true
}

// asCount is lenient: anything that is not a count is unknown
func asCount(raw json.RawMessage) model.Count {
	var c model.Count
	if isNull(raw) || json.Unmarshal(raw, &c) != nil {
		return model.Count{}
	}
	return c
}

// BytesToMB converts bytes to megabytes rounded to 2 decimal places
func BytesToMB(b float64) float64 {
	if b <= 0 || math.IsNaN(b) || math.IsInf(b, 0) {
		return 0
	}
	return math.Round(b/bytesPerMB*100) / 100
}
