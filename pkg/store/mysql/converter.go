package mysql

import (
	"time"

	"minerwatch/internal/model"
	dbmodel "minerwatch/pkg/store/mysql/model"
)

// ToWorkerDomain converts a MySQL row to a domain WorkerRecord
func ToWorkerDomain(row *dbmodel.MinerWorker) model.WorkerRecord {
	record := model.WorkerRecord{
		WorkerID:      row.WorkerID,
		Hashrate:      row.Hashrate,
		CPUModel:      row.CPUModel,
		TotalMemoryMB: row.TotalMemoryMB,
		FreeMemoryMB:  row.FreeMemoryMB,
		Cores:         toCount(row.Cores),
		Threads:       toCount(row.Threads),
		Pool:          row.Pool,
		Liveness:      model.Liveness(row.Status),
		SourceURL:     row.SourceURL,
	}
	copy(record.LoadAverage[:], row.LoadAverage)
	if row.LastSeen != nil {
		record.LastSeen = row.LastSeen.UTC()
	}
	return record
}

// FromWorkerDomain converts a domain WorkerRecord to a MySQL row at position
func FromWorkerDomain(record model.WorkerRecord, position int) *dbmodel.MinerWorker {
	row := &dbmodel.MinerWorker{
		WorkerID:      record.WorkerID,
		Position:      position,
		Hashrate:      record.Hashrate,
		CPUModel:      record.CPUModel,
		TotalMemoryMB: record.TotalMemoryMB,
		FreeMemoryMB:  record.FreeMemoryMB,
		LoadAverage:   dbmodel.JSONFloatArray(record.LoadAverage[:]),
		Cores:         fromCount(record.Cores),
		Threads:       fromCount(record.Threads),
		Pool:          record.Pool,
		Status:        string(record.Liveness),
		SourceURL:     record.SourceURL,
	}
	if row.Status == "" {
		row.Status = string(model.LivenessOffline)
	}
	if !record.LastSeen.IsZero() {
		lastSeen := record.LastSeen.UTC()
		row.LastSeen = &lastSeen
	}
	return row
}

func toCount(v *int) model.Count {
	if v == nil {
		return model.Count{}
	}
	return model.KnownCount(*v)
}

func fromCount(c model.Count) *int {
	if !c.Known {
		return nil
	}
	v := c.Value
	return &v
}

// touch stamps created/updated times on a row about to be written
func touch(row *dbmodel.MinerWorker, now time.Time) {
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
}
