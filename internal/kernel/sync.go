package kernel

import (
	"oscore/internal/errs"
	"oscore/internal/ids"
	"oscore/internal/pcb"
)

// LockInit implements the lock_init syscall (§4.J): allocate a lock id,
// record it as unheld, and attach it to the caller's resource list.
func (k *Kernel) LockInit(p *pcb.Process) (int, errs.Err_t) {
	id, err := k.IDs.FindAndSet(ids.Lock)
	if err != 0 {
		return 0, err
	}
	k.Locks.Set(id, &Lock{ID: id})
	p.AddResource(ids.Lock, id)
	return id, 0
}

// Acquire implements the lock-acquire syscall: block until owner==0, then
// take ownership. The per-queue UpdateLock wake only moves waiters to
// ready; mutual exclusion among simultaneously-woken waiters is enforced
// here by re-checking Owner after every wakeup (§4.J "on wakeup, recheck
// before assuming ownership").
func (k *Kernel) Acquire(p *pcb.Process, id int) errs.Err_t {
	l, ok := k.Locks.Get(id)
	if !ok {
		return errs.EINVAL
	}
	for l.Owner != 0 {
		p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitLock, ID: id}
		k.Sched.AddLockWait(p)
		k.Core.Dispatch(p)
	}
	l.Owner = p.Pid
	return 0
}

// Release implements the lock-release syscall.
func (k *Kernel) Release(p *pcb.Process, id int) errs.Err_t {
	l, ok := k.Locks.Get(id)
	if !ok {
		return errs.EINVAL
	}
	if l.Owner != p.Pid {
		return errs.EINVAL
	}
	l.Owner = 0
	k.Sched.UpdateLock(id)
	return 0
}

// CvarInit implements cvar_init (§4.J).
func (k *Kernel) CvarInit(p *pcb.Process) (int, errs.Err_t) {
	id, err := k.IDs.FindAndSet(ids.Cvar)
	if err != 0 {
		return 0, err
	}
	k.Cvars.Set(id, &Cvar{ID: id})
	p.AddResource(ids.Cvar, id)
	return id, 0
}

// CvarWait implements cvar_wait: atomically release lockID, block on
// cvarID, and reacquire lockID before returning (§4.J "Mesa-style
// semantics — a wakeup is not a guarantee the awaited condition holds").
func (k *Kernel) CvarWait(p *pcb.Process, cvarID, lockID int) errs.Err_t {
	if _, ok := k.Cvars.Get(cvarID); !ok {
		return errs.EINVAL
	}
	if err := k.Release(p, lockID); err != 0 {
		return err
	}
	p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitCvar, ID: cvarID}
	k.Sched.AddCvarWait(p)
	k.Core.Dispatch(p)
	return k.Acquire(p, lockID)
}

// CvarSignal, CvarBroadcast implement cvar_signal/cvar_broadcast.
func (k *Kernel) CvarSignal(cvarID int) errs.Err_t {
	if _, ok := k.Cvars.Get(cvarID); !ok {
		return errs.EINVAL
	}
	k.Sched.UpdateCvarSignal(cvarID)
	return 0
}

func (k *Kernel) CvarBroadcast(cvarID int) errs.Err_t {
	if _, ok := k.Cvars.Get(cvarID); !ok {
		return errs.EINVAL
	}
	k.Sched.UpdateCvarBroadcast(cvarID)
	return 0
}

// SemInit implements sem_init with the given initial value (§4.J).
func (k *Kernel) SemInit(p *pcb.Process, value int) (int, errs.Err_t) {
	if value < 0 {
		return 0, errs.EINVAL
	}
	id, err := k.IDs.FindAndSet(ids.Sem)
	if err != 0 {
		return 0, err
	}
	k.Sems.Set(id, &Sem{ID: id, Value: value})
	p.AddResource(ids.Sem, id)
	return id, 0
}

// SemWait implements the semaphore P (wait) operation.
func (k *Kernel) SemWait(p *pcb.Process, id int) errs.Err_t {
	s, ok := k.Sems.Get(id)
	if !ok {
		return errs.EINVAL
	}
	for s.Value == 0 {
		p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitSem, ID: id}
		k.Sched.AddSemWait(p)
		k.Core.Dispatch(p)
	}
	s.Value--
	return 0
}

// SemPost implements the semaphore V (post) operation, waking at most one
// waiter for the unit of value it adds (§4.J).
func (k *Kernel) SemPost(id int) errs.Err_t {
	s, ok := k.Sems.Get(id)
	if !ok {
		return errs.EINVAL
	}
	s.Value++
	k.Sched.UpdateSem(id, 1)
	return 0
}
