package pcb

import "sync/atomic"

// Accnt tracks per-process CPU-time accounting, adapted from
// accnt/accnt.go's Accnt_t. The kernel is single-threaded so the original's
// mutex is unnecessary, but the nanosecond counters stay atomic so
// kprofile's export can read them without coordinating with the running
// handler.
type Accnt struct {
	UserNs int64
	SysNs  int64
}

// Utadd adds delta nanoseconds of user time.
func (a *Accnt) Utadd(delta int64) { atomic.AddInt64(&a.UserNs, delta) }

// Systadd adds delta nanoseconds of system time.
func (a *Accnt) Systadd(delta int64) { atomic.AddInt64(&a.SysNs, delta) }

// Snapshot returns a copy safe to export (kernel.AccountingSnapshot reads
// this to feed kprofile).
func (a *Accnt) Snapshot() Accnt {
	return Accnt{UserNs: atomic.LoadInt64(&a.UserNs), SysNs: atomic.LoadInt64(&a.SysNs)}
}
