// Package ustr adapts the teacher's ustr.go: a thin wrapper for copying
// NUL-terminated strings and argv-style string vectors out of user memory
// for exec (§4.I.5). The actual byte-level copy and bounds checking is
// vm.AddressSpace's job; this package only knows about the argv[] layout
// convention (a user-space array of pointers terminated by a nil entry).
package ustr

import (
	"oscore/internal/errs"
	"oscore/internal/vm"
)

// MaxArgv bounds how many argv entries exec will copy, guarding against a
// user program supplying a pointer array with no nil terminator.
const MaxArgv = 128

// MaxArgLen bounds an individual argv string's length.
const MaxArgLen = 4096

// CopyArgv copies a NUL-terminated vector of NUL-terminated strings from
// user memory starting at uva, where each slot is one machine word wide
// (matching AddressSpace.CopyIn's word size assumption of int).
func CopyArgv(as *vm.AddressSpace, uva int) ([]string, errs.Err_t) {
	var out []string
	wordSize := 8
	for i := 0; i < MaxArgv; i++ {
		var word [8]byte
		if err := as.CopyIn(word[:], uva+i*wordSize); err != 0 {
			return nil, err
		}
		ptr := bytesToInt(word[:])
		if ptr == 0 {
			return out, 0
		}
		s, err := as.CopyString(ptr, MaxArgLen)
		if err != 0 {
			return nil, err
		}
		out = append(out, s)
	}
	return nil, errs.ENAMETOOLONG
}

func bytesToInt(b []byte) int {
	v := 0
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int(b[i])
	}
	return v
}
