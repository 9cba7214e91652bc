// Package sched implements the scheduler's named queues and wake logic
// (§4.F): one dllist per queue kind, a round-robin take_next over
// ready+idle, and the update_* functions that move a blocked process back
// to ready when its condition is satisfied. Grounded on
// original_source/kernel/scheduler.h's SCHEDULER_* queue constants and
// scheduler.c's linear update_* scans, translated onto pcb.Process and
// dllist.List.
package sched

import (
	"oscore/internal/diag"
	"oscore/internal/dllist"
	"oscore/internal/limits"
	"oscore/internal/pcb"
)

// Queue names a scheduler queue. The fixed queues mirror
// original_source/kernel/scheduler.h; TTY read/write are sharded one pair
// per terminal (§4.L) rather than a single shared queue, since a wakeup on
// terminal 2 must not disturb a process waiting on terminal 0.
type Queue int

const (
	QDelay Queue = iota
	QLock
	QCvar
	QSem
	QPipeRead
	QPipeWrite
	QWaitChild
	QReady
	QTerminated
	QIdle
	qTTYBase
)

func qTTYRead(term int) Queue  { return qTTYBase + Queue(term) }
func qTTYWrite(term int) Queue { return qTTYBase + Queue(limits.NumTerminals) + Queue(term) }

const numQueues = int(qTTYBase) + 2*limits.NumTerminals

// Scheduler owns every queue plus the currently running and idle
// processes. It is not safe for concurrent use — the kernel it belongs to
// is single-threaded by construction (§5 "no kernel-side preemption except
// at defined dispatch points").
type Scheduler struct {
	queues  [numQueues]*dllist.List[*pcb.Process]
	running *pcb.Process
	idle    *pcb.Process
}

// New creates an empty scheduler with every queue initialized.
func New() *Scheduler {
	s := &Scheduler{}
	for i := range s.queues {
		s.queues[i] = dllist.New[*pcb.Process]()
	}
	return s
}

// SetIdle records the idle process, scheduled whenever QReady is empty.
func (s *Scheduler) SetIdle(p *pcb.Process) { s.idle = p }

// Running returns the currently running process, or nil before boot sets
// one.
func (s *Scheduler) Running() *pcb.Process { return s.running }

// SetRunning marks p as running, pulling it out of whatever queue it was
// on first.
func (s *Scheduler) SetRunning(p *pcb.Process) {
	s.removeFromAll(p)
	s.running = p
}

func (s *Scheduler) removeFromAll(p *pcb.Process) {
	for _, q := range s.queues {
		q.DeleteKey(p.Pid)
	}
}

// Add places p onto queue q, keyed by pid.
func (s *Scheduler) Add(q Queue, p *pcb.Process) {
	diag.Tracef(3, "pid %d: enqueued on queue %d", p.Pid, q)
	s.queues[q].Append(p.Pid, p)
}

// AddReady places p on the ready queue (§4.F).
func (s *Scheduler) AddReady(p *pcb.Process) { s.Add(QReady, p) }

// AddTerminated places p on the terminated/zombie queue: it will never run
// again, and stays there only until its parent's wait() removes it.
func (s *Scheduler) AddTerminated(p *pcb.Process) { s.Add(QTerminated, p) }

// RemoveTerminated takes pid off the terminated/zombie queue, used once
// its parent's wait() (or a reaping ancestor) has harvested it.
func (s *Scheduler) RemoveTerminated(pid int) bool {
	return s.queues[QTerminated].DeleteKey(pid)
}

// AddDelay places p on the delay queue with ticks already set on
// p.ClockTicksRemaining.
func (s *Scheduler) AddDelay(p *pcb.Process) { s.Add(QDelay, p) }

// AddLockWait, AddCvarWait, AddSemWait place p on the respective
// contention queue; p.WaitingOn must already identify which resource id.
func (s *Scheduler) AddLockWait(p *pcb.Process) { s.Add(QLock, p) }
func (s *Scheduler) AddCvarWait(p *pcb.Process) { s.Add(QCvar, p) }
func (s *Scheduler) AddSemWait(p *pcb.Process)  { s.Add(QSem, p) }

// AddPipeReadWait, AddPipeWriteWait place p on the pipe contention queues.
func (s *Scheduler) AddPipeReadWait(p *pcb.Process)  { s.Add(QPipeRead, p) }
func (s *Scheduler) AddPipeWriteWait(p *pcb.Process) { s.Add(QPipeWrite, p) }

// AddWaitChild places p on the queue for "blocked in wait() with no
// exited child yet".
func (s *Scheduler) AddWaitChild(p *pcb.Process) { s.Add(QWaitChild, p) }

// AddTTYReadWait, AddTTYWriteWait place p on terminal-specific queues.
func (s *Scheduler) AddTTYReadWait(term int, p *pcb.Process)  { s.Add(qTTYRead(term), p) }
func (s *Scheduler) AddTTYWriteWait(term int, p *pcb.Process) { s.Add(qTTYWrite(term), p) }

// TakeNext pops the next process to run (§4.F "take_next"): round-robins
// the head of the ready queue, falling back to idle if ready is empty.
func (s *Scheduler) TakeNext() *pcb.Process {
	rq := s.queues[QReady]
	if n := rq.First(); n != nil {
		rq.Delete(n)
		diag.Tracef(3, "scheduler: dispatching pid %d", n.Data.Pid)
		return n.Data
	}
	diag.Tracef(3, "scheduler: ready queue empty, dispatching idle")
	return s.idle
}

// wake moves every process on queue q for which match returns true onto
// ready, clearing WaitingOn. It returns how many were woken.
func (s *Scheduler) wake(q Queue, match func(p *pcb.Process) bool) int {
	woken := 0
	list := s.queues[q]
	n := list.First()
	for n != nil {
		next := n.Next()
		if match(n.Data) {
			p := n.Data
			list.Delete(n)
			p.WaitingOn = pcb.WaitReason{}
			s.AddReady(p)
			woken++
			diag.Tracef(2, "pid %d: woken from queue %d", p.Pid, q)
		}
		n = next
	}
	return woken
}

// UpdateDelay decrements every delayed process's remaining ticks by one,
// waking those that reach zero (§4.F "update_delay", called first on
// every clock trap).
func (s *Scheduler) UpdateDelay() {
	list := s.queues[QDelay]
	n := list.First()
	for n != nil {
		next := n.Next()
		p := n.Data
		p.ClockTicksRemaining--
		if p.ClockTicksRemaining <= 0 {
			list.Delete(n)
			p.WaitingOn = pcb.WaitReason{}
			s.AddReady(p)
		}
		n = next
	}
}

// UpdateLock wakes every process waiting on lock id. Mutual exclusion is
// left to the caller: kernel/sync.go's Acquire re-checks the lock's owner
// after every wakeup, so the first woken waiter to run takes the lock and
// the others block again.
func (s *Scheduler) UpdateLock(id int) int {
	return s.wake(QLock, func(p *pcb.Process) bool {
		return p.WaitingOn.Tag == pcb.WaitLock && p.WaitingOn.ID == id
	})
}

// UpdateCvarBroadcast wakes every process waiting on cvar id.
func (s *Scheduler) UpdateCvarBroadcast(id int) int {
	return s.wake(QCvar, func(p *pcb.Process) bool {
		return p.WaitingOn.Tag == pcb.WaitCvar && p.WaitingOn.ID == id
	})
}

// UpdateCvarSignal wakes at most one process waiting on cvar id.
func (s *Scheduler) UpdateCvarSignal(id int) int {
	list := s.queues[QCvar]
	for n := list.First(); n != nil; n = n.Next() {
		p := n.Data
		if p.WaitingOn.Tag == pcb.WaitCvar && p.WaitingOn.ID == id {
			list.Delete(n)
			p.WaitingOn = pcb.WaitReason{}
			s.AddReady(p)
			return 1
		}
	}
	return 0
}

// UpdateSem wakes up to n processes waiting on semaphore id, one per unit
// of value the post added (§4.J).
func (s *Scheduler) UpdateSem(id int, n int) int {
	woken := 0
	for woken < n {
		got := 0
		list := s.queues[QSem]
		for node := list.First(); node != nil; node = node.Next() {
			p := node.Data
			if p.WaitingOn.Tag == pcb.WaitSem && p.WaitingOn.ID == id {
				list.Delete(node)
				p.WaitingOn = pcb.WaitReason{}
				s.AddReady(p)
				got = 1
				break
			}
		}
		if got == 0 {
			break
		}
		woken++
	}
	return woken
}

// WakeAllSemWaiters wakes every process waiting on semaphore id
// unconditionally, used when the semaphore itself is being reclaimed.
func (s *Scheduler) WakeAllSemWaiters(id int) int {
	return s.wake(QSem, func(p *pcb.Process) bool {
		return p.WaitingOn.Tag == pcb.WaitSem && p.WaitingOn.ID == id
	})
}

// UpdatePipeReaders, UpdatePipeWriters wake every process waiting to
// read/write pipe id.
func (s *Scheduler) UpdatePipeReaders(id int) int {
	return s.wake(QPipeRead, func(p *pcb.Process) bool {
		return p.WaitingOn.Tag == pcb.WaitPipeRead && p.WaitingOn.ID == id
	})
}

func (s *Scheduler) UpdatePipeWriters(id int) int {
	return s.wake(QPipeWrite, func(p *pcb.Process) bool {
		return p.WaitingOn.Tag == pcb.WaitPipeWrite && p.WaitingOn.ID == id
	})
}

// UpdateWaitChild wakes every process in wait() blocked on parent having
// no exited child yet, whenever child exits under parent.
func (s *Scheduler) UpdateWaitChild(parentPid int) int {
	return s.wake(QWaitChild, func(p *pcb.Process) bool {
		return p.Pid == parentPid
	})
}

// UpdateTTYRead, UpdateTTYWrite wake every process waiting on terminal
// term's read/write queue.
func (s *Scheduler) UpdateTTYRead(term int) int {
	return s.wake(qTTYRead(term), func(p *pcb.Process) bool {
		return p.WaitingOn.Tag == pcb.WaitTTYRead && p.WaitingOn.ID == term
	})
}

func (s *Scheduler) UpdateTTYWrite(term int) int {
	return s.wake(qTTYWrite(term), func(p *pcb.Process) bool {
		return p.WaitingOn.Tag == pcb.WaitTTYWrite && p.WaitingOn.ID == term
	})
}

// ReadyLen reports how many processes are ready to run, used by tests and
// diagnostics.
func (s *Scheduler) ReadyLen() int { return s.queues[QReady].Len() }
