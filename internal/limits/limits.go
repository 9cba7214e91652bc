// Package limits collects the platform sizing constants from §6 and the
// soft resource caps that keep the kernel's tables finite, adapted from the
// teacher's limits/limits.go Syslimit_t.
package limits

import "sync/atomic"

// Platform sizing constants (§6 "Sizes"). A real platform would supply
// these; the teaching kernel fixes them at compile time like the source
// material does.
const (
	PAGESHIFT uint = 12
	PAGESIZE  int  = 1 << PAGESHIFT

	// KernelStackPages is K: the number of region-0 pages mapping a
	// process's private kernel stack.
	KernelStackPages = 2

	// Region1Pages is M: the length of a process's region-1 (user) page
	// table, in pages.
	Region1Pages = 512

	// TerminalMaxLine is the chunk size tty_write stages per TtyTransmit
	// call and the alignment unit for pipe ring capacity.
	TerminalMaxLine = 256

	// NumTerminals is the number of serial terminals the platform exposes.
	NumTerminals = 4

	// PipeCapacity is the fixed capacity of a pipe's byte ring, rounded to
	// TerminalMaxLine per §3 "Resource objects".
	PipeCapacity = TerminalMaxLine * 4

	// RedZonePages is the number of unmapped pages reserved between brk
	// and the user stack top (§4.I brk, GLOSSARY "Red zone").
	RedZonePages = 1

	// ScratchWindowPages is the size a scratch window for kc_copy and
	// fork's page-copy loop (§4.G, §4.I.3) would need — exactly K pages,
	// since it must hold a whole kernel stack. No code reads it: the
	// simulated machine copies frames directly (see DESIGN.md).
	ScratchWindowPages = KernelStackPages
)

// Per-resource-kind table sizes, encoded as an Err_t-free soft cap: an
// allocator returns EAGAIN once its kind's count hits the cap, before the
// dense id space itself is exhausted. Mirrors Syslimit_t's roomy but finite
// defaults.
const (
	MaxProcesses = 4096
	MaxPipes     = 1024
	MaxLocks     = 1024
	MaxCvars     = 1024
	MaxSems      = 1024
)

// Counter is an atomically adjustable soft limit, adapted from
// limits.Sysatomic_t. Take reports false without mutating state once the
// limit has been exhausted.
type Counter struct {
	remaining int64
}

// NewCounter returns a Counter initialized to hold n grants.
func NewCounter(n int64) *Counter {
	return &Counter{remaining: n}
}

// Take decrements the counter by one and reports whether it was available.
func (c *Counter) Take() bool {
	if atomic.AddInt64(&c.remaining, -1) >= 0 {
		return true
	}
	atomic.AddInt64(&c.remaining, 1)
	return false
}

// Give returns one grant to the counter, undoing a Take.
func (c *Counter) Give() {
	atomic.AddInt64(&c.remaining, 1)
}
