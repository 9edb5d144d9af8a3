package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Unknown is the sentinel stored for attributes a worker did not report
const Unknown = "N/A"

// Liveness worker liveness as observed by the last poll cycle
type Liveness string

const (
	LivenessOnline  Liveness = "online"  // Online - fresh data this cycle
	LivenessOffline Liveness = "offline" // Offline - last-known data, not refreshed
)

// Count a non-negative integer attribute that may be unknown (cores, threads)
type Count struct {
	Value int
	Known bool
}

// KnownCount builds a known Count
func KnownCount(v int) Count {
	return Count{Value: v, Known: true}
}

// String renders the count, or the unknown sentinel
func (c Count) String() string {
	if !c.Known {
		return Unknown
	}
	return strconv.Itoa(c.Value)
}

// MarshalJSON writes a number when known and "N/A" otherwise
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Known {
		return json.Marshal(Unknown)
	}
	return []byte(strconv.Itoa(c.Value)), nil
}

// UnmarshalJSON accepts a number, a numeric string, "N/A" or null
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Count{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			*c = Count{}
			return nil
		}
		*c = KnownCount(n)
		return nil
	}

	// Anything that is not a non-negative number is treated as unknown
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*c = Count{}
		return nil
	}
	if f < 0 {
		*c = Count{}
		return nil
	}
	*c = KnownCount(int(f))
	return nil
}

// WorkerRecord last observed state of one mining worker
type WorkerRecord struct {
	WorkerID      string     `json:"worker_id"`
	Hashrate      *float64   `json:"hashrate"` // Total H/s, nil when the worker reported null
	CPUModel      string     `json:"cpu_model"`
	TotalMemoryMB float64    `json:"total_memory"`
	FreeMemoryMB  float64    `json:"free_memory"`
	LoadAverage   [3]float64 `json:"load_average"` // 1m, 5m, 15m
	Cores         Count      `json:"cores"`
	Threads       Count      `json:"threads"`
	Pool          string     `json:"pool"`
	Liveness      Liveness   `json:"status,omitempty"`
	SourceURL     string     `json:"source_url,omitempty"` // Target the record was last fetched from
	LastSeen      time.Time  `json:"last_seen,omitempty"`
}

// Online reports whether the record was refreshed this cycle
func (w WorkerRecord) Online() bool {
	return w.Liveness == LivenessOnline
}

// WithLiveness returns a copy of the record with the given liveness
func (w WorkerRecord) WithLiveness(l Liveness) WorkerRecord {
	w.Liveness = l
	return w
}

// HashrateValue returns the hashrate and whether it was present
func (w WorkerRecord) HashrateValue() (float64, bool) {
	if w.Hashrate == nil {
		return 0, false
	}
	return *w.Hashrate, true
}

// Float64 returns a pointer to v, for building records with a present hashrate
func Float64(v float64) *float64 {
	return &v
}

// Target a configured worker status endpoint
type Target struct {
	URL      string `yaml:"url" json:"url"`
	WorkerID string `yaml:"worker_id,omitempty" json:"worker_id,omitempty"` // Explicit identity mapping (optional)
}
