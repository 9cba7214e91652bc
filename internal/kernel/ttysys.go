package kernel

import (
	"oscore/internal/errs"
	"oscore/internal/pcb"
	"golang.org/x/text/width"
)

// TtyRead implements the tty_read syscall (§4.L): a request for zero
// bytes completes immediately; otherwise it blocks until the terminal has
// at least one byte buffered and returns up to maxlen of them.
func (k *Kernel) TtyRead(p *pcb.Process, term, maxlen int) ([]byte, errs.Err_t) {
	if term < 0 || term >= k.NumTTYs() {
		return nil, errs.EINVAL
	}
	if maxlen < 0 {
		return nil, errs.EINVAL
	}
	if maxlen == 0 {
		return nil, 0
	}
	t := k.TTY(term)
	for t.ReadBuf.Len() == 0 {
		p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitTTYRead, ID: term}
		k.Sched.AddTTYReadWait(term, p)
		k.Core.Dispatch(p)
	}
	return t.ReadBuf.Read(maxlen), 0
}

// TtyWrite implements the tty_write syscall: only one writer may be
// transmitting to a given terminal at a time (§4.L), so concurrent
// writers serialize on Terminal.Writing the same way pipe/lock contenders
// do on their own queues. Bytes are normalized to their canonical
// (halfwidth/fullwidth-neutral) form with golang.org/x/text/width before
// being handed to the platform, since the simulated terminal is a plain
// byte sink rather than a real glass tty with its own line discipline.
func (k *Kernel) TtyWrite(p *pcb.Process, term int, data []byte) errs.Err_t {
	if term < 0 || term >= k.NumTTYs() {
		return errs.EINVAL
	}
	t := k.TTY(term)
	for t.Writing {
		p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitTTYWrite, ID: term}
		k.Sched.AddTTYWriteWait(term, p)
		k.Core.Dispatch(p)
	}
	t.Writing = true
	k.Plat.TTYTransmit(term, width.Fold.Bytes(data))
	t.Writing = false
	k.Sched.UpdateTTYWrite(term)
	return 0
}

// TTYReceiveTrap implements the tty-receive trap (§4.H/§4.L): pull
// whatever bytes the platform has buffered for term since the last call,
// append as many as fit into the terminal's line buffer (excess is
// dropped, matching a real line discipline's overflow behavior), and wake
// any blocked readers.
func (k *Kernel) TTYReceiveTrap(term int) {
	if term < 0 || term >= k.NumTTYs() {
		return
	}
	data := k.Plat.TTYReceive(term)
	if len(data) == 0 {
		return
	}
	t := k.TTY(term)
	t.ReadBuf.Write(data)
	k.Sched.UpdateTTYRead(term)
}
