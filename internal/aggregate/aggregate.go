// Package aggregate reduces a reconciled worker set into fleet totals.
package aggregate

import (
	"context"
	"math"
	"sort"

	"minerwatch/internal/model"
	"minerwatch/pkg/logger"
)

// Aggregate computes fleet totals over records.
// Online and offline workers both count: offline records carry their last
// known hashrate and pool. Absent hashrates are skipped; non-finite ones are
// skipped with a warning and counted in SkippedHashrate.
func Aggregate(ctx context.Context, records []model.WorkerRecord) model.FleetAggregate {
	var (
		sum   neumaierSum
		fleet model.FleetAggregate
	)
	pools := make(map[string]struct{})

	for _, rec := range records {
		if rec.Online() {
			fleet.Online++
		} else {
			fleet.Offline++
		}

		if v, ok := rec.HashrateValue(); ok {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				fleet.SkippedHashrate++
				logger.WarnCtx(ctx, "error adding hashrate for worker %s: non-finite value %v", rec.WorkerID, v)
			} else {
				sum.add(v)
			}
		}

		if rec.Pool != "" && rec.Pool != model.Unknown {
			pools[rec.Pool] = struct{}{}
		}
	}

	fleet.TotalHashrate = sum.value()
	fleet.ActivePools = make([]string, 0, len(pools))
	for p := range pools {
		fleet.ActivePools = append(fleet.ActivePools, p)
	}
	sort.Strings(fleet.ActivePools)
	return fleet
}

// neumaierSum compensated summation, keeps error independent of term order
// for the magnitudes hashrates take
type neumaierSum struct {
	sum, c float64
}

func (s *neumaierSum) add(v float64) {
	t := s.sum + v
	if math.Abs(s.sum) >= math.Abs(v) {
		s.c += (s.sum - t) + v
	} else {
		s.c += (v - t) + s.sum
	}
	s.sum = t
}

func (s *neumaierSum) value() float64 {
	return s.sum + s.c
}
