package observability

import (
	"sync/atomic"
	"time"
)

// ReconcileStats are in-process counters for the reconcile worker, served on its health port.
type ReconcileStats struct {
	checked  atomic.Uint64
	paid     atomic.Uint64
	retried  atomic.Uint64
	flagged  atomic.Uint64
	failures atomic.Uint64

	lastRunUnix atomic.Int64
	maxCheckNs  atomic.Int64
}

func NewReconcileStats() *ReconcileStats {
	return &ReconcileStats{}
}

func (s *ReconcileStats) IncChecked() { s.checked.Add(1) }
func (s *ReconcileStats) IncPaid()    { s.paid.Add(1) }
func (s *ReconcileStats) IncRetried() { s.retried.Add(1) }
func (s *ReconcileStats) IncFlagged() { s.flagged.Add(1) }
func (s *ReconcileStats) IncFailure() { s.failures.Add(1) }

func (s *ReconcileStats) MarkRun(at time.Time) {
	s.lastRunUnix.Store(at.Unix())
}

func (s *ReconcileStats) ObserveCheck(d time.Duration) {
	ns := d.Nanoseconds()

	for {
		curr := s.maxCheckNs.Load()

		if ns <= curr {
			return
		}

		if s.maxCheckNs.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type ReconcileSnapshot struct {
	Checked      uint64        `json:"checked"`
	Paid         uint64        `json:"paid"`
	Retried      uint64        `json:"retried"`
	Flagged      uint64        `json:"flagged"`
	Failures     uint64        `json:"failures"`
	LastRun      time.Time     `json:"lastRun"`
	MaxCheckTime time.Duration `json:"maxCheckTimeNs"`
}

func (s *ReconcileStats) Snapshot() ReconcileSnapshot {
	var last time.Time
	if u := s.lastRunUnix.Load(); u > 0 {
		last = time.Unix(u, 0).UTC()
	}

	return ReconcileSnapshot{
		Checked:      s.checked.Load(),
		Paid:         s.paid.Load(),
		Retried:      s.retried.Load(),
		Flagged:      s.flagged.Load(),
		Failures:     s.failures.Load(),
		LastRun:      last,
		MaxCheckTime: time.Duration(s.maxCheckNs.Load()),
	}
}
