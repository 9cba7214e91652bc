package vm

import (
	"oscore/internal/errs"
	"oscore/internal/mem"
)

// AddressSpace bundles a region-1 (user) page table with the physical
// memory it maps into, giving syscalls a single handle for validating and
// copying user pointers (§5 "Syscall arguments pointing into user memory
// are validated and then copied into kernel memory before any dispatch
// point"). Grounded on vm.Vm_t's Userdmap8/Userstr/K2user/User2k family.
type AddressSpace struct {
	Region1 *PageTable
	Phys    *mem.PhysMem
}

func (as *AddressSpace) translate(va int, protReq Prot) ([]byte, errs.Err_t) {
	page := va / mem.PGSIZE
	off := va % mem.PGSIZE
	e := as.Region1.Get(page)
	if !e.Valid || !e.Prot.Has(protReq) {
		return nil, errs.EFAULT
	}
	return as.Phys.Page(e.PFN)[off:], 0
}

// CheckRange validates [addr, addr+length) against protReq without
// copying, for syscalls that only need to assert accessibility (e.g. a
// status pointer that will be filled in later on a different path).
func (as *AddressSpace) CheckRange(addr, length int, protReq Prot) errs.Err_t {
	return CheckUserRange(as.Region1, mem.PGSIZE, addr, length, protReq)
}

// CopyIn copies len(dst) bytes from user virtual address uva into dst,
// validating R permission first (User2k_inner).
func (as *AddressSpace) CopyIn(dst []byte, uva int) errs.Err_t {
	if err := as.CheckRange(uva, len(dst), ProtR); err != 0 {
		return err
	}
	cnt := 0
	for len(dst) != 0 {
		src, err := as.translate(uva+cnt, ProtR)
		if err != 0 {
			return err
		}
		n := copy(dst, src)
		dst = dst[n:]
		cnt += n
	}
	return 0
}

// CopyOut copies src into the user address space starting at uva,
// validating W permission first (K2user_inner).
func (as *AddressSpace) CopyOut(src []byte, uva int) errs.Err_t {
	if err := as.CheckRange(uva, len(src), ProtW); err != 0 {
		return err
	}
	cnt := 0
	for cnt != len(src) {
		dst, err := as.translate(uva+cnt, ProtW)
		if err != 0 {
			return err
		}
		n := copy(dst, src[cnt:])
		cnt += n
	}
	return 0
}

// CopyString copies a NUL-terminated string from user space, up to
// lenmax bytes, validating R permission page by page as it goes
// (Vm_t.Userstr).
func (as *AddressSpace) CopyString(uva, lenmax int) (string, errs.Err_t) {
	if lenmax < 0 {
		return "", 0
	}
	out := make([]byte, 0, 32)
	i := 0
	for {
		chunk, err := as.translate(uva+i, ProtR)
		if err != 0 {
			return "", err
		}
		for j, c := range chunk {
			if c == 0 {
				out = append(out, chunk[:j]...)
				return string(out), 0
			}
		}
		out = append(out, chunk...)
		i += len(chunk)
		if len(out) >= lenmax {
			return "", errs.ENAMETOOLONG
		}
	}
}
