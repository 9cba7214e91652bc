// Package kernel ties together every other internal package into the
// running system: process lifecycle, synchronization primitives, pipes,
// terminals, and trap dispatch all operate as methods on *Kernel so they
// can share the scheduler, the id allocator, and physical memory without
// import cycles. Grounded on the teacher's top-level kernel.go (the file
// that wires mem/vm/sched-equivalents together into one Kernel_t-style
// struct) and on original_source/kernel/kernel.c's analogous role in the
// C sources.
package kernel

import (
	"oscore/internal/ctxsw"
	"oscore/internal/diag"
	"oscore/internal/hashtable"
	"oscore/internal/ids"
	"oscore/internal/limits"
	"oscore/internal/mem"
	"oscore/internal/pcb"
	"oscore/internal/platform"
	"oscore/internal/sched"
	"oscore/internal/tty"
	"oscore/internal/vm"
)

// resourceBuckets sizes each resource kind's hashtable, roomy enough that
// a fully-loaded table (limits.MaxPipes etc.) stays a short chain per
// bucket.
const resourceBuckets = 256

// Pipe is one pipe's kernel state (§3 "Pipe"): a bounded byte ring plus
// the id it was allocated under.
type Pipe struct {
	ID  int
	Buf *tty.Circbuf
}

// Lock is one mutex's kernel state (§3 "Lock"): zero Owner means unheld.
type Lock struct {
	ID    int
	Owner int
}

// Cvar is one condition variable's kernel state. Condition variables carry
// no state of their own beyond their id and waiter queue (held in
// Scheduler), matching original_source/kernel/cvar.c.
type Cvar struct {
	ID int
}

// Sem is one counting semaphore's kernel state.
type Sem struct {
	ID    int
	Value int
}

// Loader loads a program image into an address space, returning the entry
// point, initial stack pointer, and initial break — standing in for the
// real ELF loader (out of scope, §1), which original_source's
// load_program.c implements against a real executable format.
type Loader func(as *vm.AddressSpace, path string, argv []string) (entry, sp, brk int, err error)

// Kernel is the whole machine's kernel-side state.
type Kernel struct {
	Phys  *mem.PhysMem
	IDs   *ids.Allocator
	Sched *sched.Scheduler
	Core  *ctxsw.Core
	Plat  platform.Platform
	Load  Loader

	Pipes *hashtable.Table[*Pipe]
	Locks *hashtable.Table[*Lock]
	Cvars *hashtable.Table[*Cvar]
	Sems  *hashtable.Table[*Sem]
	ttys  []*tty.Terminal

	Procs   map[int]*pcb.Process
	nextPid int

	// ProcCounter enforces the soft process-table cap (limits.MaxProcesses):
	// Fork takes one grant per child it creates and deleteProcess gives it
	// back, so a fork bomb fails with EAGAIN once the table is full instead
	// of growing Procs without bound.
	ProcCounter *limits.Counter

	// faults collapses repeated fatal traps from the same call site down
	// to one logged report (trap.go fatalTrap), so a process caught
	// faulting in a loop doesn't flood the log before it's killed.
	faults diag.DistinctCaller

	// Init is the first user process (§4.M), whose pid is always 1 and
	// whose exit halts the machine (§4.I.4). Boot sets this once it has
	// created the process; nothing reparents to it — orphans get a nil
	// Parent instead (§4.E).
	Init *pcb.Process
}

// New creates a Kernel with n physical frames, the given platform, and
// numTerminals terminals, with no processes yet (boot populates
// init/idle).
func New(nframes int, plat platform.Platform, numTerminals int) *Kernel {
	k := &Kernel{
		Phys:        mem.NewPhysMem(nframes),
		IDs:         ids.NewAllocator(),
		Sched:       sched.New(),
		Plat:        plat,
		Pipes:       hashtable.New[*Pipe](resourceBuckets),
		Locks:       hashtable.New[*Lock](resourceBuckets),
		Cvars:       hashtable.New[*Cvar](resourceBuckets),
		Sems:        hashtable.New[*Sem](resourceBuckets),
		Procs:       make(map[int]*pcb.Process),
		ProcCounter: limits.NewCounter(limits.MaxProcesses),
		faults:      diag.DistinctCaller{Enabled: true},
	}
	k.Core = ctxsw.NewCore(k.Sched)
	k.ttys = make([]*tty.Terminal, numTerminals)
	for i := range k.ttys {
		k.ttys[i] = tty.New(i)
	}
	return k
}

// TTY returns terminal id's kernel-side state.
func (k *Kernel) TTY(id int) *tty.Terminal { return k.ttys[id] }

// NumTTYs reports how many terminals this machine has.
func (k *Kernel) NumTTYs() int { return len(k.ttys) }

// AllocPid returns the next process id, starting at 1 (pid 0 is
// conventionally idle, per original_source/kernel/process.c).
func (k *Kernel) AllocPid() int {
	k.nextPid++
	return k.nextPid
}
