// Package loader is a stand-in for the real user-program loader (§1 "The
// ELF-like user-program loader: treated as an opaque routine"). Linking
// and parsing a real executable format is out of scope for this kernel;
// what matters here is the contract the kernel depends on — given a
// filename and an argument vector, reset a PCB's region-1 mapping,
// allocate and fill frames for the program image, and report the initial
// program counter, stack pointer, and break.
//
// This implementation treats the "executable" as a flat file of raw
// instruction+data bytes loaded at virtual address 0, which is enough to
// drive cmd/oscore and its tests end to end without a real cross
// toolchain. A production embedder would swap this package out for one
// that actually parses the platform's executable format; nothing else in
// the kernel would need to change (§4.I.5 exec just calls through the
// Loader function value).
package loader

import (
	"os"

	"oscore/internal/errs"
	"oscore/internal/mem"
	"oscore/internal/vm"
)

// stackPages is how many pages at the top of region 1 are reserved for
// the initial user stack.
const stackPages = 1

// Load reads path as a flat binary image, maps it read/write/execute
// starting at virtual address 0, reserves a stack at the top of region 1,
// and reports an entry point of 0, a stack pointer at the top of the
// stack region (minus one word so SP starts pre-decremented, matching the
// platform's calling convention), and a break just past the loaded image.
// argv is accepted for signature compatibility with kernel.Loader but
// otherwise ignored, since the platform's argv-passing convention is out
// of scope here (§1).
func Load(as *vm.AddressSpace, path string, argv []string) (entry, sp, brk int, err error) {
	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return 0, 0, 0, rerr
	}

	npages := (len(data) + mem.PGSIZE - 1) / mem.PGSIZE
	if npages == 0 {
		npages = 1
	}
	total := as.Region1.Len()
	if npages+stackPages > total {
		return 0, 0, 0, errs.ENOMEM
	}

	for pg := 0; pg < npages; pg++ {
		f, aerr := as.Phys.FindAndSet()
		if aerr != 0 {
			return 0, 0, 0, aerr
		}
		as.Phys.Zero(f)
		off := pg * mem.PGSIZE
		end := off + mem.PGSIZE
		if end > len(data) {
			end = len(data)
		}
		copy(as.Phys.Page(f), data[off:end])
		if serr := as.Region1.Set(pg, vm.ProtR|vm.ProtW|vm.ProtX, f); serr != 0 {
			return 0, 0, 0, serr
		}
	}

	stackBase := total - stackPages
	for pg := stackBase; pg < total; pg++ {
		f, aerr := as.Phys.FindAndSet()
		if aerr != 0 {
			return 0, 0, 0, aerr
		}
		as.Phys.Zero(f)
		if serr := as.Region1.Set(pg, vm.ProtR|vm.ProtW, f); serr != 0 {
			return 0, 0, 0, serr
		}
	}

	entry = 0
	sp = total*mem.PGSIZE - 8
	brk = npages * mem.PGSIZE
	return entry, sp, brk, nil
}
