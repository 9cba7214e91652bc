package kernel

import (
	"fmt"

	"oscore/internal/diag"
	"oscore/internal/errs"
	"oscore/internal/limits"
	"oscore/internal/mem"
	"oscore/internal/pcb"
	"oscore/internal/vm"
)

// NewIdle creates the idle process (§4.M): pid 0, never scheduled except
// when the ready queue is empty, and never itself a target of fork/exec.
func (k *Kernel) NewIdle() *pcb.Process {
	p := pcb.New(0, limits.KernelStackPages, 0)
	p.Name = "idle"
	k.Procs[0] = p
	k.Sched.SetIdle(p)
	return p
}

// freeRegion1 releases every physical frame mapped in p's region-1 table
// and clears the table, used by both exec (replacing the image) and
// process teardown.
func (k *Kernel) freeRegion1(pt *vm.PageTable) {
	for page := 0; page < pt.Len(); page++ {
		e := pt.Get(page)
		if e.Valid {
			k.Phys.Clear(e.PFN)
			pt.Clear(page)
		}
	}
}

func (k *Kernel) freeKernelStack(pt *vm.PageTable) {
	for page := 0; page < pt.Len(); page++ {
		e := pt.Get(page)
		if e.Valid {
			k.Phys.Clear(e.PFN)
			pt.Clear(page)
		}
	}
}

// allocKernelStack reserves p's region-0 kernel-stack frames, for
// processes created outside of fork (boot's idle and init). Fork inlines
// the equivalent loop itself so it can roll the reservation back as part
// of one cleanup closure on failure.
func (k *Kernel) allocKernelStack(p *pcb.Process) errs.Err_t {
	for i := 0; i < p.KernelStackPT.Len(); i++ {
		f, err := k.Phys.FindAndSet()
		if err != 0 {
			return errs.ENOMEM
		}
		p.KernelStackPT.Set(i, vm.ProtR|vm.ProtW, f)
	}
	return 0
}

// Fork implements the fork syscall (§4.I.3): a new pid, a copy of the
// parent's kernel-stack frame reservation, a page-for-page copy of the
// parent's region-1 mapping, and a child UserCtx that will return 0 from
// this syscall once dispatched (see package ctxsw's doc comment — no
// kernel-stack cloning is needed to achieve that under the Go runtime).
func (k *Kernel) Fork(parent *pcb.Process) (*pcb.Process, errs.Err_t) {
	if !k.ProcCounter.Take() {
		diag.Tracef(0, "pid %d: fork: process table full", parent.Pid)
		return nil, errs.EAGAIN
	}

	child := pcb.New(k.AllocPid(), limits.KernelStackPages, parent.Region1PT.Len())

	var reserved []mem.Frame
	cleanup := func() {
		for _, f := range reserved {
			k.Phys.Clear(f)
		}
		k.freeRegion1(child.Region1PT)
		k.ProcCounter.Give()
	}

	for i := 0; i < child.KernelStackPT.Len(); i++ {
		f, err := k.Phys.FindAndSet()
		if err != 0 {
			cleanup()
			return nil, errs.ENOMEM
		}
		reserved = append(reserved, f)
		child.KernelStackPT.Set(i, vm.ProtR|vm.ProtW, f)
	}

	allocPage := func() (mem.Frame, errs.Err_t) { return k.Phys.FindAndSet() }
	copyPage := func(dst, src mem.Frame) { copy(k.Phys.Page(dst), k.Phys.Page(src)) }
	if err := vm.CopyPageTable(child.Region1PT, parent.Region1PT, allocPage, copyPage); err != 0 {
		cleanup()
		return nil, err
	}

	child.AS = &vm.AddressSpace{Region1: child.Region1PT, Phys: k.Phys}
	child.Brk = parent.Brk
	child.DataEnd = parent.DataEnd
	child.TextEnd = parent.TextEnd
	child.UserCtx = parent.UserCtx
	child.UserCtx.SetReturn(0)

	pcb.AddChild(parent, child)
	k.Procs[child.Pid] = child
	k.Sched.AddReady(child)
	return child, 0
}

// Exec implements the exec syscall (§4.I.5): discard the caller's current
// region-1 image and install a freshly loaded one. The actual image
// format is out of scope (§1); Load is supplied by the embedder (boot, or
// a test double).
func (k *Kernel) Exec(p *pcb.Process, path string, argv []string) errs.Err_t {
	if k.Load == nil {
		return errs.ENOSYS
	}
	newPT := vm.NewPageTable(p.Region1PT.Len())
	newAS := &vm.AddressSpace{Region1: newPT, Phys: k.Phys}
	entry, sp, brk, err := k.Load(newAS, path, argv)
	if err != nil {
		k.freeRegion1(newPT)
		return errs.EINVAL
	}
	k.freeRegion1(p.Region1PT)
	p.Region1PT = newPT
	p.AS = newAS
	p.Brk = brk
	// The opaque loader (§1) doesn't report a separate text/data boundary,
	// so DataEnd starts at 0: the conservative floor below which brk can
	// never retreat (§4.I "reject NULL or <= data_end").
	p.DataEnd = 0
	p.TextEnd = 0
	p.UserCtx.PC = entry
	p.UserCtx.SP = sp
	for i := range p.UserCtx.Regs {
		p.UserCtx.Regs[i] = 0
	}
	return 0
}

// Terminate implements process_terminate (§4.E): reclaim every resource
// the process still holds and free its frames, but leave the PCB itself
// in place — it still has a pid and a place on the terminated queue until
// something actually deletes it. It does NOT touch the process's
// children; orphaning only happens when the PCB is actually destroyed
// (deleteProcess), matching §4.E's process_terminate/process_delete split.
func (k *Kernel) Terminate(p *pcb.Process, status int) {
	for n := p.ResourceList.First(); n != nil; {
		next := n.Next()
		k.reclaim(p, n.Key)
		n = next
	}

	k.freeRegion1(p.Region1PT)
	k.freeKernelStack(p.KernelStackPT)

	p.Exited = true
	p.ExitStatus = status
}

// deleteProcess implements process_delete (§4.E): detach p from its
// parent's child list, orphan p's own children (their Parent becomes nil,
// so they are deleted outright rather than reaped when they next exit),
// retire its pid, and drop its PCB. Callers must already have removed p
// from whichever scheduler queue held it.
func (k *Kernel) deleteProcess(p *pcb.Process) {
	if p.Parent != nil {
		pcb.RemoveChild(p.Parent, p)
	}
	pcb.OrphanChildren(p)
	delete(k.Procs, p.Pid)
	k.ProcCounter.Give()
}

// reapTerminatedChildren implements update_terminated's delete half (§4.F):
// every child of p already flagged Exited is pulled off the terminated
// queue and fully deleted. Used by Exit's "no parent" branch, which must
// clean up its own children before deleting itself.
func (k *Kernel) reapTerminatedChildren(p *pcb.Process) {
	c := p.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Exited {
			k.Sched.RemoveTerminated(c.Pid)
			k.deleteProcess(c)
		}
		c = next
	}
}

// Exit implements the exit syscall (§4.I.4). Pid<=1 (idle or init) halts
// the system outright. Otherwise, a process with no living parent reaps
// its own zombies and deletes itself immediately (it will never be
// wait()ed for); a process with a living parent becomes a zombie on the
// terminated queue instead, waking its parent if it is blocked in wait().
func (k *Kernel) Exit(p *pcb.Process, status int) {
	if p.Pid <= 1 {
		k.Terminate(p, status)
		k.Plat.Halt(fmt.Sprintf("pid %d exited with status %d", p.Pid, status))
		return
	}

	if p.Parent == nil {
		k.reapTerminatedChildren(p)
		k.Terminate(p, status)
		k.deleteProcess(p)
		k.Core.DispatchFinal(p)
		return
	}

	k.Terminate(p, status)
	k.Sched.AddTerminated(p)
	k.Sched.UpdateWaitChild(p.Parent.Pid)
	k.Core.DispatchFinal(p)
}

// Wait implements the wait syscall (§4.I.4): block until some child has
// exited, then harvest its pid and status. It returns ESRCH if the caller
// has no children at all, matching original_source's "no children"
// immediate-error case.
func (k *Kernel) Wait(p *pcb.Process) (childPid int, status int, err errs.Err_t) {
	for {
		if !p.HasChildren() {
			return 0, 0, errs.ESRCH
		}
		if c := p.FindExitedChild(); c != nil {
			pid, status := c.Pid, c.ExitStatus
			k.Sched.RemoveTerminated(c.Pid)
			k.deleteProcess(c)
			return pid, status, 0
		}
		p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitChild}
		k.Sched.AddWaitChild(p)
		k.Core.Dispatch(p)
	}
}

// GetPid implements the getpid syscall.
func (k *Kernel) GetPid(p *pcb.Process) int { return p.Pid }

// Brk implements the brk syscall (§4.I): grows or shrinks the user heap
// break, mapping or unmapping whole pages as needed and refusing to
// encroach on the red-zone guard pages above the new break
// (limits.RedZonePages, SPEC_FULL §4 "Supplemented features").
func (k *Kernel) Brk(p *pcb.Process, newBrk int) errs.Err_t {
	if newBrk <= p.DataEnd {
		return errs.EINVAL
	}
	oldPage := p.Brk / mem.PGSIZE
	newPage := newBrk / mem.PGSIZE
	guard := newPage + limits.RedZonePages
	if guard >= p.Region1PT.Len() {
		return errs.ENOMEM
	}
	if newPage > oldPage {
		for pg := oldPage; pg < newPage; pg++ {
			f, err := k.Phys.FindAndSet()
			if err != 0 {
				for back := oldPage; back < pg; back++ {
					e := p.Region1PT.Get(back)
					k.Phys.Clear(e.PFN)
					p.Region1PT.Clear(back)
				}
				return errs.ENOMEM
			}
			k.Phys.Zero(f)
			p.Region1PT.Set(pg, vm.ProtR|vm.ProtW, f)
		}
	} else if newPage < oldPage {
		for pg := newPage; pg < oldPage; pg++ {
			e := p.Region1PT.Get(pg)
			if e.Valid {
				k.Phys.Clear(e.PFN)
				p.Region1PT.Clear(pg)
			}
		}
	}
	p.Brk = newBrk
	return 0
}

// Delay implements the delay syscall (§4.I): block the caller for the
// given number of clock ticks. A negative count is an argument error;
// zero returns immediately without touching the ready queue (§8 boundary
// behavior "delay(0) returns 0 without affecting the ready queue
// ordering").
func (k *Kernel) Delay(p *pcb.Process, ticks int) errs.Err_t {
	if ticks < 0 {
		return errs.EINVAL
	}
	if ticks == 0 {
		return 0
	}
	p.ClockTicksRemaining = ticks
	p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitDelay}
	k.Sched.AddDelay(p)
	k.Core.Dispatch(p)
	return 0
}
