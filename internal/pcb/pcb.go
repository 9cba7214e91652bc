// Package pcb implements the process control block and its lifecycle
// operations (§4.E): creation, parent/child/sibling bookkeeping, the
// waiting_on tagged union, and the resource list consulted on teardown.
// Grounded on the teacher's tinfo/tinfo.go (a per-entity state note holding
// an embedded accounting block) and original_source/kernel/process.c +
// proc_list.c for the exact sibling-list and orphaning semantics.
package pcb

import (
	"oscore/internal/dllist"
	"oscore/internal/ids"
	"oscore/internal/platform"
	"oscore/internal/vm"
)

// WaitTag names which condition a blocked process is waiting on (§3
// "waiting_on"), since a process can only ever be blocked for one reason
// at a time.
type WaitTag int

const (
	WaitNone WaitTag = iota
	WaitDelay
	WaitLock
	WaitCvar
	WaitSem
	WaitPipeRead
	WaitPipeWrite
	WaitChild
	WaitTTYRead
	WaitTTYWrite
)

// WaitReason is the waiting_on tagged union: a tag plus the resource id it
// applies to (ID is unused for WaitDelay and WaitChild-for-any-child).
type WaitReason struct {
	Tag WaitTag
	ID  int
}

// Process is one process control block (§3 "Process control block").
type Process struct {
	Pid int

	UserCtx platform.UserContext

	// BlockCh is owned entirely by package ctxsw: nil means this process
	// has no suspended kernel computation to resume, a non-nil channel
	// means a goroutine is parked waiting for it to be closed. pcb never
	// reads or writes it itself.
	BlockCh chan struct{}

	KernelStackPT *vm.PageTable
	Region1PT     *vm.PageTable
	AS            *vm.AddressSpace

	Brk int

	// TextEnd, DataEnd mark where the loaded program image ends (§3 PCB
	// fields); brk may never retreat to or below DataEnd (§4.I "brk").
	TextEnd int
	DataEnd int

	Parent      *Process
	FirstChild  *Process
	NextSibling *Process

	Exited     bool
	ExitStatus int

	ClockTicksRemaining int
	WaitingOn           WaitReason

	// ResourceList records every resource id (pipe/lock/cvar/sem) this
	// process currently holds open, keyed by id, so process teardown
	// (kernel.Terminate) can walk it and reclaim each one (§4.E, §4.K
	// "Reclaim").
	ResourceList *dllist.List[ids.Kind]

	Acct Accnt

	Name string
}

// New creates a process with the given page-table geometry, not yet linked
// to any parent and not yet holding any frames — callers (fork, boot)
// populate KernelStackPT/Region1PT's entries and AS separately once frames
// are allocated.
func New(pid int, kstPages, region1Pages int) *Process {
	p := &Process{
		Pid:          pid,
		ResourceList: dllist.New[ids.Kind](),
	}
	p.KernelStackPT = vm.NewPageTable(kstPages)
	p.Region1PT = vm.NewPageTable(region1Pages)
	return p
}

// AddChild links child under parent, at the head of parent's sibling chain
// (original_source's process.c prepends new children).
func AddChild(parent, child *Process) {
	child.Parent = parent
	child.NextSibling = parent.FirstChild
	parent.FirstChild = child
}

// RemoveChild unlinks child from parent's sibling chain. It is a no-op if
// child is not actually one of parent's children.
func RemoveChild(parent, child *Process) {
	if parent.FirstChild == child {
		parent.FirstChild = child.NextSibling
		child.NextSibling = nil
		return
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.NextSibling == child {
			c.NextSibling = child.NextSibling
			child.NextSibling = nil
			return
		}
	}
}

// OrphanChildren detaches every child of p, clearing each child's Parent
// pointer (§3 "parent (weak reference; cleared when parent exits)"). A
// child whose Parent is nil is deleted outright when it next exits rather
// than waiting on a parent's wait() (§4.E process_delete, §4.I.4).
func OrphanChildren(p *Process) {
	c := p.FirstChild
	p.FirstChild = nil
	for c != nil {
		next := c.NextSibling
		c.Parent = nil
		c.NextSibling = nil
		c = next
	}
}

// AddResource records that this process now owns resource id of kind k.
func (p *Process) AddResource(k ids.Kind, id int) {
	p.ResourceList.Append(id, k)
}

// RemoveResource forgets resource id, returning whether it had been
// recorded.
func (p *Process) RemoveResource(id int) bool {
	return p.ResourceList.DeleteKey(id)
}

// HasChildren reports whether p has any live child (used by wait()'s
// ECHILD-equivalent check).
func (p *Process) HasChildren() bool { return p.FirstChild != nil }

// FindExitedChild returns the first child already on the exited/zombie
// path (Exited=true), or nil.
func (p *Process) FindExitedChild() *Process {
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Exited {
			return c
		}
	}
	return nil
}
