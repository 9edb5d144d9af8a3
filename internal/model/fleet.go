package model

import "time"

// FleetAggregate fleet-wide statistics computed over one reconciled set
type FleetAggregate struct {
	TotalHashrate   float64  `json:"total_hashrate"`
	ActivePools     []string `json:"active_pools"` // Distinct pools, sorted, unknown excluded
	Online          int      `json:"online"`
	Offline         int      `json:"offline"`
	SkippedHashrate int      `json:"skipped_hashrate"` // Non-finite hashrate terms left out of the total
}

// Snapshot result of one poll cycle
type Snapshot struct {
	CycleID    string         `json:"cycle_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Workers    []WorkerRecord `json:"workers"`
	Fleet      FleetAggregate `json:"fleet"`
}

// Worker looks up a worker in the snapshot by identity
func (s *Snapshot) Worker(workerID string) (WorkerRecord, bool) {
	if s == nil {
		return WorkerRecord{}, false
	}
	for _, w := range s.Workers {
		if w.WorkerID == workerID {
			return w, true
		}
	}
	return WorkerRecord{}, false
}
