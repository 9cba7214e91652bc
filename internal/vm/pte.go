// Package vm implements page-table operations (§4.B): the per-region page
// tables, their set/clear/check operations, and the address-space helpers
// syscalls use to validate and copy user memory. Grounded on the teacher's
// vm/as.go (Vm_t, PTE protection bits, Userdmap8_inner-style range walks)
// and original_source/kernel/pte.c (PTESet/PTEClear normalize-on-clear
// semantics), adapted from x86 PTE bit layouts to the spec's abstract
// (valid, prot, pfn) tuple since the platform here is a simulated machine,
// not real hardware.
package vm

import (
	"oscore/internal/diag"
	"oscore/internal/errs"
	"oscore/internal/mem"
)

// Prot is a protection bitmask over {R, W, X} (§3 "Page-table entry").
type Prot uint8

const (
	ProtNone Prot = 0
	ProtR    Prot = 1 << 0
	ProtW    Prot = 1 << 1
	ProtX    Prot = 1 << 2
)

// Has reports whether p carries every bit in want.
func (p Prot) Has(want Prot) bool { return p&want == want }

// PTE is one page-table entry: (valid, prot, pfn). The normalized-zero
// invariant (§3: "if valid=0, prot=0 and pfn=0") is maintained by Clear and
// by never constructing a PTE any other way than through Set/Clear.
type PTE struct {
	Valid bool
	Prot  Prot
	PFN   mem.Frame
}

// PageTable is a fixed-length array of PTEs, used for both the region-0
// kernel-stack table (length K) and the region-1 user table (length M).
type PageTable struct {
	entries []PTE
}

// NewPageTable allocates a page table of the given length, all entries
// invalid.
func NewPageTable(length int) *PageTable {
	return &PageTable{entries: make([]PTE, length)}
}

// Len reports the number of page slots.
func (pt *PageTable) Len() int { return len(pt.entries) }

// Get returns the entry at page, or the zero PTE if out of range.
func (pt *PageTable) Get(page int) PTE {
	if page < 0 || page >= len(pt.entries) {
		return PTE{}
	}
	return pt.entries[page]
}

// Set installs (valid=1, prot, pfn) at page. Overwriting an already-valid
// entry warns but proceeds, per §4.B.
func (pt *PageTable) Set(page int, prot Prot, pfn mem.Frame) errs.Err_t {
	if page < 0 || page >= len(pt.entries) {
		return errs.EINVAL
	}
	if pt.entries[page].Valid {
		diag.Warnf("vm: Set: overwriting valid entry at page %d", page)
	}
	pt.entries[page] = PTE{Valid: true, Prot: prot, PFN: pfn}
	return 0
}

// Clear normalizes page to the zero PTE (§4.B).
func (pt *PageTable) Clear(page int) errs.Err_t {
	if page < 0 || page >= len(pt.entries) {
		return errs.EINVAL
	}
	pt.entries[page] = PTE{}
	return 0
}

// CheckUserRange validates that every page spanning [addr, addr+length) is
// valid and holds at least protReq, per §4.B. It returns EFAULT on any
// violation and does not mutate state.
func CheckUserRange(pt *PageTable, pagesize, addr, length int, protReq Prot) errs.Err_t {
	if length < 0 {
		return errs.EFAULT
	}
	if length == 0 {
		return 0
	}
	first := addr / pagesize
	last := (addr + length - 1) / pagesize
	for p := first; p <= last; p++ {
		e := pt.Get(p)
		if !e.Valid || !e.Prot.Has(protReq) {
			return errs.EFAULT
		}
	}
	return 0
}

// CopyPageTable duplicates every valid entry of src into a freshly
// allocated dst-compatible table, calling allocPage to obtain a frame for
// each entry and copyPage to fill it — used by fork's region-1 page copy
// (§4.I.3). It stops and returns the frame-exhaustion error from allocPage
// without leaving dst partially useful: the caller is expected to destroy
// a failed child outright.
func CopyPageTable(dst, src *PageTable, allocPage func() (mem.Frame, errs.Err_t), copyPage func(dstF, srcF mem.Frame)) errs.Err_t {
	for page := 0; page < src.Len(); page++ {
		e := src.Get(page)
		if !e.Valid {
			continue
		}
		f, err := allocPage()
		if err != 0 {
			return err
		}
		copyPage(f, e.PFN)
		if err := dst.Set(page, e.Prot, f); err != 0 {
			return err
		}
	}
	return 0
}
