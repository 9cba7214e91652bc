// Package simplatform is a deterministic, in-process implementation of
// platform.Platform, standing in for the real machine (§1 Non-goals: "the
// platform itself ... is out of scope"). It exists so boot, the kernel's
// syscalls, and tests have something concrete to drive: terminal bytes are
// queued in memory rather than arriving from real hardware, and the clock
// advances only when the driver calls Advance.
package simplatform

import (
	"oscore/internal/limits"
	"oscore/internal/platform"
)

// Machine is the fake platform. Zero value is not usable; use New.
type Machine struct {
	regionBase [2]int
	vmEnabled  bool

	rx [limits.NumTerminals][]byte
	tx [limits.NumTerminals][]byte

	now int64

	Halted     bool
	HaltReason string
}

// New creates a fresh Machine with VM disabled and all terminals empty.
func New() *Machine {
	return &Machine{}
}

var _ platform.Platform = (*Machine)(nil)

func (m *Machine) SetRegionBase(r platform.Region, frame int) {
	m.regionBase[r] = frame
}

func (m *Machine) EnableVM() { m.vmEnabled = true }

func (m *Machine) FlushTLB(mode platform.TLBFlushMode, addr int) {
	// The simulated machine has no TLB to invalidate; this exists so
	// callers exercise the same call sequence real hardware would need.
}

// QueueInput appends bytes as if the user had typed them on terminal id,
// for tests and cmd/oscore to drive tty input.
func (m *Machine) QueueInput(id int, data []byte) {
	m.rx[id] = append(m.rx[id], data...)
}

func (m *Machine) TTYReceive(id int) []byte {
	got := m.rx[id]
	m.rx[id] = nil
	return got
}

func (m *Machine) TTYTransmit(id int, data []byte) {
	m.tx[id] = append(m.tx[id], data...)
}

// Transmitted returns everything written to terminal id so far, for tests
// to assert against.
func (m *Machine) Transmitted(id int) []byte { return m.tx[id] }

func (m *Machine) Now() int64 { return m.now }

// Advance moves the fake clock forward by delta nanoseconds. It does not
// deliver a clock trap; the driver does that separately through
// kernel.HandleTrap(platform.TrapClock).
func (m *Machine) Advance(delta int64) { m.now += delta }

// Halt records that the simulated machine has stopped; it does not tear
// down the host process (there is no hardware to power off), matching the
// rest of this package's "deterministic stand-in" role. Callers that
// drive the kernel in a loop (cmd/oscore, tests) check Halted after each
// trap and stop feeding it further traps once it is set.
func (m *Machine) Halt(reason string) {
	m.Halted = true
	m.HaltReason = reason
}
