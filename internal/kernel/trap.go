// trap.go implements the trap dispatch table (§4.H): the seven trap kinds
// and, for TrapSyscall, the further demultiplex into one of the syscalls
// implemented across process.go/sync.go/ipc.go/ttysys.go. Grounded on
// original_source/kernel/trap.c's switch-on-trap-kind structure and
// syscall.c's switch-on-code structure, and on the teacher's use of
// golang.org/x/arch/x86/x86asm to disassemble the faulting instruction
// when a trap cannot be handled (TrapIllegal/TrapPageFault with no
// resolution), matching how a real kernel's oops/panic path reports what
// the CPU was executing.
package kernel

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"oscore/internal/diag"
	"oscore/internal/errs"
	"oscore/internal/limits"
	"oscore/internal/pcb"
	"oscore/internal/platform"
	"oscore/internal/ustr"
)

// Syscall codes (§6 "code plus up to three register args").
const (
	SysFork = iota
	SysExec
	SysExit
	SysWait
	SysGetPid
	SysBrk
	SysDelay
	SysLockInit
	SysAcquire
	SysRelease
	SysCvarInit
	SysCvarWait
	SysCvarSignal
	SysCvarBroadcast
	SysSemInit
	SysSemWait
	SysSemPost
	SysPipeInit
	SysPipeRead
	SysPipeWrite
	SysReclaim
	SysTTYRead
	SysTTYWrite
)

// HandleTrap is the single entry point a driver (cmd/oscore's run loop, or
// a test) uses to simulate an external trap arriving for whichever process
// is currently running. It wraps the actual handling in Core.Enter so a
// blocking syscall can suspend its goroutine without hanging the caller
// (see package ctxsw).
func (k *Kernel) HandleTrap(kind int) {
	p := k.Sched.Running()
	if p == nil {
		diag.Fatalf("kernel: HandleTrap: no running process")
	}
	start := k.Plat.Now()
	k.Core.Enter(func() {
		k.dispatchTrap(p, kind)
	})
	if kind == platform.TrapSyscall {
		p.Acct.Systadd(k.Plat.Now() - start)
	} else {
		p.Acct.Utadd(k.Plat.Now() - start)
	}
}

func (k *Kernel) dispatchTrap(p *pcb.Process, kind int) {
	diag.Global.Inc("trap")
	switch kind {
	case platform.TrapSyscall:
		diag.Tracef(2, "pid %d: syscall trap", p.Pid)
		k.doSyscall(p)
	case platform.TrapClock:
		diag.Tracef(3, "pid %d: clock trap", p.Pid)
		k.Sched.UpdateDelay()
		k.Sched.AddReady(p)
		k.Core.Dispatch(p)
	case platform.TrapTTYReceive:
		diag.Tracef(2, "pid %d: tty receive trap on terminal %d", p.Pid, p.UserCtx.TrapAddr)
		k.TTYReceiveTrap(p.UserCtx.TrapAddr)
	case platform.TrapTTYTransmit:
		diag.Tracef(2, "pid %d: tty transmit trap", p.Pid)
		// Transmission in this kernel completes synchronously inside
		// TtyWrite; a transmit-complete trap has nothing further to do
		// beyond what UpdateTTYWrite already handled there.
	case platform.TrapPageFault, platform.TrapIllegal, platform.TrapUnknown:
		diag.Tracef(0, "pid %d: fatal trap kind %d", p.Pid, kind)
		k.fatalTrap(p, kind)
	default:
		diag.Tracef(0, "pid %d: unrecognized trap kind %d", p.Pid, kind)
		k.fatalTrap(p, kind)
	}
}

// fatalTrap implements the kill-on-unhandled-trap path: a process that
// faults with no recovery (§3 "errs.KillSentinel") is terminated instead
// of the kernel panicking, after a best-effort disassembly of the
// faulting instruction for diagnostics. k.faults collapses repeated faults
// from the same call site down to one logged report, so a process caught
// in a fault loop doesn't flood the log before it's killed.
func (k *Kernel) fatalTrap(p *pcb.Process, kind int) {
	distinct, stack := k.faults.Distinct()
	if !distinct {
		diag.Tracef(1, "pid %d: fatal trap %d at pc=%#x (repeat, suppressed)", p.Pid, kind, p.UserCtx.PC)
		k.Exit(p, int(errs.KillSentinel))
		return
	}
	if instr, ok := k.disassembleFault(p); ok {
		diag.Warnf("pid %d: fatal trap %d at pc=%#x: %s\n%s", p.Pid, kind, p.UserCtx.PC, instr, stack)
	} else {
		diag.Warnf("pid %d: fatal trap %d at pc=%#x\n%s", p.Pid, kind, p.UserCtx.PC, stack)
	}
	k.Exit(p, int(errs.KillSentinel))
}

// disassembleFault tries to read and decode the single x86-64 instruction
// at the process's faulting PC, for inclusion in the fatal-trap
// diagnostic. It fails soft (ok=false) whenever the bytes at PC cannot be
// read or decoded — a fatal trap's job is to terminate the process
// either way.
func (k *Kernel) disassembleFault(p *pcb.Process) (string, bool) {
	if p.AS == nil {
		return "", false
	}
	buf := make([]byte, 15) // x86-64 max instruction length
	if err := p.AS.CopyIn(buf, p.UserCtx.PC); err != 0 {
		return "", false
	}
	inst, err := x86asm.Decode(buf, 64)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s (%d bytes)", x86asm.GNUSyntax(inst, uint64(p.UserCtx.PC), nil), inst.Len), true
}

// doSyscall implements the code+args convention (§6) and installs the
// result in the user context's return register.
func (k *Kernel) doSyscall(p *pcb.Process) {
	u := &p.UserCtx
	ret := k.syscall(p, u.SyscallCode(), u.SyscallArg(0), u.SyscallArg(1), u.SyscallArg(2))
	u.SetReturn(ret)
}

func (k *Kernel) syscall(p *pcb.Process, code, a0, a1, a2 int) int {
	diag.Global.Inc("syscall")
	diag.Tracef(2, "pid %d: syscall %d args=(%d,%d,%d)", p.Pid, code, a0, a1, a2)
	switch code {
	case SysFork:
		child, err := k.Fork(p)
		if err != 0 {
			return int(err)
		}
		diag.Tracef(1, "pid %d: fork -> pid %d", p.Pid, child.Pid)
		return child.Pid
	case SysExec:
		path, err := p.AS.CopyString(a0, ustr.MaxArgLen)
		if err != 0 {
			return int(err)
		}
		argv, err := ustr.CopyArgv(p.AS, a1)
		if err != 0 {
			return int(err)
		}
		if err := k.Exec(p, path, argv); err != 0 {
			return int(err)
		}
		return 0
	case SysExit:
		diag.Tracef(1, "pid %d: exit status %d", p.Pid, a0)
		k.Exit(p, a0)
		return 0
	case SysWait:
		pid, status, err := k.Wait(p)
		if err != 0 {
			return int(err)
		}
		diag.Tracef(1, "pid %d: wait reaped pid %d status %d", p.Pid, pid, status)
		if err := p.AS.CopyOut(intToBytes(status), a0); err != 0 {
			return int(err)
		}
		return pid
	case SysGetPid:
		return k.GetPid(p)
	case SysBrk:
		return int(k.Brk(p, a0))
	case SysDelay:
		return int(k.Delay(p, a0))
	case SysLockInit:
		id, err := k.LockInit(p)
		if err != 0 {
			return int(err)
		}
		return id
	case SysAcquire:
		return int(k.Acquire(p, a0))
	case SysRelease:
		return int(k.Release(p, a0))
	case SysCvarInit:
		id, err := k.CvarInit(p)
		if err != 0 {
			return int(err)
		}
		return id
	case SysCvarWait:
		return int(k.CvarWait(p, a0, a1))
	case SysCvarSignal:
		return int(k.CvarSignal(a0))
	case SysCvarBroadcast:
		return int(k.CvarBroadcast(a0))
	case SysSemInit:
		id, err := k.SemInit(p, a0)
		if err != 0 {
			return int(err)
		}
		return id
	case SysSemWait:
		return int(k.SemWait(p, a0))
	case SysSemPost:
		return int(k.SemPost(a0))
	case SysPipeInit:
		id, err := k.PipeInit(p, limits.PipeCapacity)
		if err != 0 {
			return int(err)
		}
		return id
	case SysPipeRead:
		data, err := k.PipeRead(p, a0, a2)
		if err != 0 {
			return int(err)
		}
		if err := p.AS.CopyOut(data, a1); err != 0 {
			return int(err)
		}
		return len(data)
	case SysPipeWrite:
		if a2 < 0 {
			return int(errs.EINVAL)
		}
		buf := make([]byte, a2)
		if err := p.AS.CopyIn(buf, a1); err != 0 {
			return int(err)
		}
		if err := k.PipeWrite(p, a0, buf); err != 0 {
			return int(err)
		}
		return a2
	case SysReclaim:
		return int(k.Reclaim(p, a0))
	case SysTTYRead:
		data, err := k.TtyRead(p, a0, a2)
		if err != 0 {
			return int(err)
		}
		if err := p.AS.CopyOut(data, a1); err != 0 {
			return int(err)
		}
		return len(data)
	case SysTTYWrite:
		if a2 < 0 {
			return int(errs.EINVAL)
		}
		buf := make([]byte, a2)
		if err := p.AS.CopyIn(buf, a1); err != 0 {
			return int(err)
		}
		if err := k.TtyWrite(p, a0, buf); err != 0 {
			return int(err)
		}
		return a2
	default:
		return int(errs.ENOSYS)
	}
}

func intToBytes(v int) []byte {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	return b[:]
}
