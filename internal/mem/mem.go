// Package mem implements the physical frame allocator (§4.A): a bitmap over
// physical frames with find_and_set/set/clear. Grounded on the teacher's
// mem/mem.go Physmem_t (PGSHIFT/PGSIZE constants, frame-indexed state) and
// the bitvec-scanning semantics of original_source/kernel/frame.c, but
// stripped of Biscuit's per-CPU free lists and reference counting: this
// kernel is single-threaded and a frame has at most one owner at a time
// (§3 "Physical frame table" invariant), so a flat bitmap suffices.
package mem

import (
	"oscore/internal/diag"
	"oscore/internal/errs"
	"oscore/internal/limits"
)

// PGSHIFT/PGSIZE mirror the platform's page size (§6 "Sizes"); re-exported
// here so callers that only need memory-layout constants need not import
// limits directly.
const (
	PGSHIFT = limits.PAGESHIFT
	PGSIZE  = limits.PAGESIZE
)

// Frame identifies a physical page by index, not address; callers that need
// a physical address multiply by PGSIZE.
type Frame int

// Allocator is the bitmap of length N (§3 "Physical frame table"). Bit i=1
// iff frame i is in use.
type Allocator struct {
	bits []bool
	n    int
}

// NewAllocator creates a bitmap sized to hold n frames, all initially free.
func NewAllocator(n int) *Allocator {
	return &Allocator{bits: make([]bool, n), n: n}
}

// NumFrames reports the bitmap length.
func (a *Allocator) NumFrames() int { return a.n }

// FindAndSet atomically (within the single-threaded kernel) returns the
// lowest-numbered free frame and marks it in use, or ENOMEM if none are
// free (§4.A).
func (a *Allocator) FindAndSet() (Frame, errs.Err_t) {
	for i := 0; i < a.n; i++ {
		if !a.bits[i] {
			a.bits[i] = true
			return Frame(i), 0
		}
	}
	return 0, errs.ENOMEM
}

// Set marks frame f in use. Setting an already-used frame warns but does
// not fail (§4.A "Double-set ... emit a diagnostic but do not fail").
func (a *Allocator) Set(f Frame) {
	if !a.valid(f) {
		diag.Warnf("mem: Set: invalid frame %d", f)
		return
	}
	if a.bits[f] {
		diag.Warnf("mem: Set: frame %d already in use", f)
	}
	a.bits[f] = true
}

// Clear marks frame f free. Clearing an already-free frame warns but does
// not fail.
func (a *Allocator) Clear(f Frame) {
	if !a.valid(f) {
		diag.Warnf("mem: Clear: invalid frame %d", f)
		return
	}
	if !a.bits[f] {
		diag.Warnf("mem: Clear: frame %d already free", f)
	}
	a.bits[f] = false
}

// InUse reports whether frame f is currently allocated.
func (a *Allocator) InUse(f Frame) bool {
	if !a.valid(f) {
		return false
	}
	return a.bits[f]
}

func (a *Allocator) valid(f Frame) bool {
	return f >= 0 && int(f) < a.n
}

// FreeCount returns the number of currently-free frames, used by
// diagnostics and tests (§8 "find_and_set returning one of them next").
func (a *Allocator) FreeCount() int {
	c := 0
	for _, b := range a.bits {
		if !b {
			c++
		}
	}
	return c
}

// PhysMem is the simulated machine's physical memory: an Allocator over
// frame numbers plus the byte storage those frames address. Real hardware
// would back frame bytes with actual RAM reached through the platform's
// direct map (vm/as.go's Dmap); the simulated machine models that map as a
// flat Go slice indexed by frame number.
type PhysMem struct {
	*Allocator
	bytes []byte
}

// NewPhysMem allocates a simulated physical memory of n frames.
func NewPhysMem(n int) *PhysMem {
	return &PhysMem{Allocator: NewAllocator(n), bytes: make([]byte, n*PGSIZE)}
}

// Page returns the PGSIZE-byte slice backing frame f. The slice aliases
// the underlying storage; callers must not retain it past a frame's free.
func (p *PhysMem) Page(f Frame) []byte {
	off := int(f) * PGSIZE
	return p.bytes[off : off+PGSIZE]
}

// Zero clears frame f's contents to zero, used when a freshly allocated
// frame must not leak a previous owner's data.
func (p *PhysMem) Zero(f Frame) {
	pg := p.Page(f)
	for i := range pg {
		pg[i] = 0
	}
}
