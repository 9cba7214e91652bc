// Package platform states the boundary (§6) between the kernel proper and
// the machine it runs on: the MMU region registers, the trap-delivery
// convention, and the tty byte path. The real hardware/bootloader side of
// that boundary is out of scope (§1 Non-goals); this package only declares
// the contract and carries the data shapes both sides agree on. simplatform
// gives the contract a deterministic in-process implementation for tests
// and cmd/oscore.
//
// Grounded on the teacher's runtime/runtime2.go-style separation of "the Go
// scheduler" from "the thing below it", and on original_source/kernel/
// trap.c + tty.c for the exact register/trap-kind shapes.
package platform

// UserContext is the saved user-mode register file plus trap metadata
// (§3 "User context"): general-purpose registers, program counter, stack
// pointer, and — when the context was saved because of a trap — which trap
// and its faulting address/code.
type UserContext struct {
	Regs [8]int
	PC   int
	SP   int

	TrapKind int
	TrapCode int
	TrapAddr int
}

// Trap kinds (§4.H).
const (
	TrapSyscall = iota
	TrapClock
	TrapTTYReceive
	TrapTTYTransmit
	TrapPageFault
	TrapIllegal
	TrapUnknown
)

// Syscall argument convention (§6): code plus up to three register args.
func (u *UserContext) SyscallCode() int   { return u.Regs[0] }
func (u *UserContext) SyscallArg(i int) int {
	return u.Regs[1+i]
}

// SetReturn installs a syscall's return value into the register the user
// program reads it from.
func (u *UserContext) SetReturn(v int) { u.Regs[0] = v }

// Region identifies one of the two MMU regions (§3 "Page-table entry"):
// region 0 is the process's kernel stack, region 1 is its user mapping.
type Region int

const (
	Region0 Region = iota
	Region1
)

// TLBFlushMode selects how much of the TLB a flush invalidates (§6).
type TLBFlushMode int

const (
	FlushAll TLBFlushMode = iota
	FlushRegion0
	FlushRegion1
	FlushAddr
)

// Platform is the contract the kernel expects from the machine it runs on
// (§6): installing page tables, flushing translations, and moving bytes to
// and from the terminal. Nothing in this package runs user instructions —
// that piece of the real machine (and the user-space library that traps
// into the kernel) is out of scope, so kernel code exercises Platform
// through direct calls representing "a trap has arrived" rather than by
// interpreting a user instruction stream.
type Platform interface {
	// SetRegionBase installs the physical frame backing a region's base
	// table for the currently-installed address space.
	SetRegionBase(r Region, frame int)
	// EnableVM turns on address translation; before this call physical
	// addresses are used directly (§4.M kernel_start).
	EnableVM()
	// FlushTLB invalidates cached translations per mode; addr is only
	// meaningful for FlushAddr.
	FlushTLB(mode TLBFlushMode, addr int)

	// TTYReceive returns the bytes the hardware has buffered for terminal
	// id since the last call (§4.L), possibly empty.
	TTYReceive(id int) []byte
	// TTYTransmit hands bytes to the hardware to display on terminal id.
	TTYTransmit(id int, data []byte)

	// Now returns a monotonic nanosecond clock reading, used for
	// accounting (pcb.Accnt) and diagnostics.
	Now() int64

	// Halt stops the machine (§6 "Halt/Pause primitives"): init or idle
	// exiting, or an unrecoverable kernel invariant violation (§7 "halt
	// when not recoverable"). reason is a human-readable diagnostic, not
	// parsed by callers.
	Halt(reason string)
}
