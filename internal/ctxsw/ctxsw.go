// Package ctxsw implements the kernel context-switch core (§4.G):
// kc_copy, kc_switch, and dispatch. The source's version of this primitive
// clones a live kernel stack so a blocked computation can be resumed
// mid-instruction later; under the Go runtime that primitive already
// exists as the goroutine, so this package's job is to drive goroutines
// as kernel stacks rather than to reimplement stack cloning by hand.
//
// A process that has never blocked has no pending computation at all —
// dispatching to it just means marking it running and letting whichever
// caller is driving the simulation proceed (there is nothing to resume
// until the next trap arrives for it, mirroring the source's empty
// kernel-context case after kc_copy). A process that blocked mid-syscall
// has a goroutine parked on pcb.Process.BlockCh; dispatching to it closes
// that channel, letting its goroutine continue exactly where it paused.
//
// Grounded on original_source/kernel/kernel.c's dispatch() (pop next,
// return immediately if it equals old_pcb, otherwise switch) and on the
// teacher's own use of one goroutine per simulated thread of control
// (runtime/proc.go's g/m/p model) as the idiomatic Go analogue of a
// hardware kernel stack.
package ctxsw

import (
	"sync"

	"oscore/internal/diag"
	"oscore/internal/pcb"
	"oscore/internal/sched"
)

// Core owns the scheduler and the bookkeeping needed to tell an external
// caller (the thing delivering traps) when control has moved on.
type Core struct {
	Sched  *sched.Scheduler
	ticket *ticket
}

type ticket struct {
	once sync.Once
	done chan struct{}
}

// NewCore wraps a scheduler with context-switch machinery.
func NewCore(s *sched.Scheduler) *Core {
	return &Core{Sched: s}
}

// Start installs p as the running process directly, bypassing TakeNext.
// Used once, by boot, to put init into the running slot before any trap
// has ever been delivered.
func (c *Core) Start(p *pcb.Process) {
	c.Sched.SetRunning(p)
}

// Enter simulates an external trap being delivered: job runs the trap's
// kernel-side handling, in its own goroutine so that if it blocks partway
// through, that goroutine can sit parked in the background while Enter
// itself returns as soon as the CPU has moved on to some other process
// (possibly still p, if job never blocks). Exactly one such call is ever
// in flight, since the kernel this drives is single-threaded; Enter must
// not be called again until it has returned.
func (c *Core) Enter(job func()) {
	t := &ticket{done: make(chan struct{})}
	c.ticket = t
	go func() {
		job()
		t.once.Do(func() { close(t.done) })
	}()
	<-t.done
}

// Dispatch implements dispatch()+kc_switch for a process that will run
// again later: it picks the next process to run, installs it as running,
// wakes its parked goroutine if it has one, tells Enter's caller the CPU
// has moved on, and then parks old's own goroutine until old is itself
// redispatched. If TakeNext returns old unchanged, Dispatch returns
// immediately without switching or parking anything, per dispatch()'s
// "equals old_pcb" shortcut.
func (c *Core) Dispatch(old *pcb.Process) {
	c.switchTo(old, true)
}

// DispatchFinal is Dispatch's counterpart for a process that will never
// run again (exit's final step, or a deleted orphan): it switches control
// away exactly like Dispatch but never parks old, since nothing will ever
// wake it.
func (c *Core) DispatchFinal(old *pcb.Process) {
	c.switchTo(old, false)
}

func (c *Core) switchTo(old *pcb.Process, park bool) {
	next := c.Sched.TakeNext()
	if next == old {
		return
	}
	diag.Global.Inc("ctxsw")
	oldPid := -1
	if old != nil {
		oldPid = old.Pid
	}
	diag.Tracef(2, "ctxsw: pid %d -> pid %d", oldPid, next.Pid)
	c.Sched.SetRunning(next)

	// kc_copy/kc_switch's install-new-context step: if next has a parked
	// goroutine (it blocked before), wake it; otherwise it has nothing
	// pending and simply becomes the running process.
	if next.BlockCh != nil {
		ch := next.BlockCh
		next.BlockCh = nil
		close(ch)
	}

	if c.ticket != nil {
		c.ticket.once.Do(func() { close(c.ticket.done) })
	}

	if park && old != nil {
		ch := make(chan struct{})
		old.BlockCh = ch
		<-ch
	}
}
