package reconcile

import (
	"errors"

	"minerwatch/internal/model"
)

var errEmptyResult = errors.New("source returned no record")

// workingSet ordered, identity-keyed record list for one cycle
type workingSet struct {
	items []model.WorkerRecord
	index map[string]int
}

func newWorkingSet() *workingSet {
	return &workingSet{
		items: make([]model.WorkerRecord, 0),
		index: make(map[string]int),
	}
}

// merge replaces the record with the same worker_id or appends a new one.
// An Offline record never replaces one refreshed this cycle.
func (s *workingSet) merge(rec model.WorkerRecord) {
	if i, ok := s.index[rec.WorkerID]; ok {
		if !rec.Online() && s.items[i].Online() {
			return
		}
		s.items[i] = rec
		return
	}
	s.index[rec.WorkerID] = len(s.items)
	s.items = append(s.items, rec)
}

func (s *workingSet) records() []model.WorkerRecord {
	out := make([]model.WorkerRecord, len(s.items))
	copy(out, s.items)
	return out
}
