package sequence

import (
	"time"
)

// Record is the persistent state of one variant's numbering.
//
// LastID never decreases. PeriodTag is the period of the most recent issue
// and is informational only; numbering is continuous per variant regardless
// of period changes. Issued tracks every number ever handed out so that gap
// reports stay correct after explicit-start overrides skip numbers.
type Record struct {
	Key       Key       `json:"key"`
	LastID    int64     `json:"lastId"`
	PeriodTag string    `json:"periodTag"`
	Issued    RangeSet  `json:"issued"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord returns the initial record for a variant that has issued nothing.
func NewRecord(key Key) Record {
	return Record{Key: key}
}

// Gaps returns every unissued number in [1, LastID], ascending.
func (r Record) Gaps() []int64 {
	return r.Issued.Gaps(r.LastID)
}

// Clone returns a deep copy; the issued set does not share storage.
func (r Record) Clone() Record {
	out := r
	out.Issued = make(RangeSet, len(r.Issued))
	copy(out.Issued, r.Issued)
	return out
}
