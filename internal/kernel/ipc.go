package kernel

import (
	"oscore/internal/errs"
	"oscore/internal/ids"
	"oscore/internal/pcb"
	"oscore/internal/tty"
)

// PipeInit implements the pipe_init syscall (§4.K): allocate a pipe id and
// its ring buffer, and attach it to the caller's resource list.
func (k *Kernel) PipeInit(p *pcb.Process, capacity int) (int, errs.Err_t) {
	id, err := k.IDs.FindAndSet(ids.Pipe)
	if err != 0 {
		return 0, err
	}
	k.Pipes.Set(id, &Pipe{ID: id, Buf: tty.NewCircbuf(capacity)})
	p.AddResource(ids.Pipe, id)
	return id, 0
}

// PipeRead implements the pipe_read syscall (§4.K): a request for zero
// bytes completes immediately without blocking (§5 boundary behavior);
// otherwise it blocks until at least one byte is available and returns up
// to maxlen of them without requiring the buffer to be full.
func (k *Kernel) PipeRead(p *pcb.Process, id, maxlen int) ([]byte, errs.Err_t) {
	if maxlen < 0 {
		return nil, errs.EINVAL
	}
	if maxlen == 0 {
		return nil, 0
	}
	for {
		pipe, ok := k.Pipes.Get(id)
		if !ok {
			return nil, errs.EINVAL
		}
		if pipe.Buf.Len() > 0 {
			out := pipe.Buf.Read(maxlen)
			k.Sched.UpdatePipeWriters(id)
			return out, 0
		}
		p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitPipeRead, ID: id}
		k.Sched.AddPipeReadWait(p)
		k.Core.Dispatch(p)
	}
}

// PipeWrite implements the pipe_write syscall: writes every byte of data,
// blocking and retrying in chunks whenever the ring fills, and waking
// blocked readers after each chunk (§4.K).
func (k *Kernel) PipeWrite(p *pcb.Process, id int, data []byte) errs.Err_t {
	for len(data) > 0 {
		pipe, ok := k.Pipes.Get(id)
		if !ok {
			return errs.EINVAL
		}
		if pipe.Buf.Free() == 0 {
			p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitPipeWrite, ID: id}
			k.Sched.AddPipeWriteWait(p)
			k.Core.Dispatch(p)
			continue
		}
		n := pipe.Buf.Write(data)
		data = data[n:]
		k.Sched.UpdatePipeReaders(id)
	}
	return 0
}

// Reclaim implements the reclaim syscall (SPEC_FULL §4 "Supplemented features" —
// the source frees resources only implicitly on process teardown; this
// kernel also exposes it directly so a process can give up a resource
// without exiting). It is also the mechanism process teardown itself uses
// internally via reclaim.
func (k *Kernel) Reclaim(p *pcb.Process, id int) errs.Err_t {
	if !p.RemoveResource(id) {
		return errs.EINVAL
	}
	return k.reclaim(p, id)
}

// reclaim does the actual per-kind teardown of id, without touching p's
// resource list (the caller — Reclaim or Terminate's sweep — already
// updated or is about to discard it).
func (k *Kernel) reclaim(p *pcb.Process, id int) errs.Err_t {
	kind, ok := ids.KindOf(id)
	if !ok {
		return errs.EINVAL
	}
	switch kind {
	case ids.Pipe:
		if _, ok := k.Pipes.Get(id); !ok {
			return errs.EINVAL
		}
		k.Pipes.Del(id)
		k.Sched.UpdatePipeReaders(id)
		k.Sched.UpdatePipeWriters(id)
	case ids.Lock:
		l, ok := k.Locks.Get(id)
		if !ok {
			return errs.EINVAL
		}
		if l.Owner == p.Pid {
			l.Owner = 0
		}
		k.Locks.Del(id)
		k.Sched.UpdateLock(id)
	case ids.Cvar:
		if _, ok := k.Cvars.Get(id); !ok {
			return errs.EINVAL
		}
		k.Cvars.Del(id)
		k.Sched.UpdateCvarBroadcast(id)
	case ids.Sem:
		if _, ok := k.Sems.Get(id); !ok {
			return errs.EINVAL
		}
		k.Sems.Del(id)
		k.Sched.WakeAllSemWaiters(id)
	default:
		return errs.EINVAL
	}
	k.IDs.Retire(kind, id)
	return 0
}
