package kernel

import (
	"testing"

	"oscore/internal/mem"
	"oscore/internal/pcb"
	"oscore/internal/platform"
	"oscore/internal/platform/simplatform"
	"oscore/internal/vm"
)

// testLoader is a minimal Loader: one RWX page at virtual address 0,
// entry point 0, stack pointer at the top of that page.
func testLoader(as *vm.AddressSpace, path string, argv []string) (int, int, int, error) {
	f, err := as.Phys.FindAndSet()
	if err != 0 {
		return 0, 0, 0, err
	}
	as.Phys.Zero(f)
	if err := as.Region1.Set(0, vm.ProtR|vm.ProtW|vm.ProtX, f); err != 0 {
		return 0, 0, 0, err
	}
	return 0, mem.PGSIZE - 8, mem.PGSIZE, nil
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	plat := simplatform.New()
	k, err := Boot(256, plat, 4, testLoader, "init", nil)
	if err != nil {
		t.Fatalf("boot: %v", err)
	}
	return k
}

// runSyscall forces p to be the running process and simulates a syscall
// trap for it, returning the value installed in its return register.
func runSyscall(k *Kernel, p *pcb.Process, code, a0, a1, a2 int) int {
	k.Sched.SetRunning(p)
	p.UserCtx.Regs[0] = code
	p.UserCtx.Regs[1] = a0
	p.UserCtx.Regs[2] = a1
	p.UserCtx.Regs[3] = a2
	k.HandleTrap(platform.TrapSyscall)
	return p.UserCtx.Regs[0]
}

func TestBootCreatesInitRunning(t *testing.T) {
	k := newTestKernel(t)
	if k.Sched.Running() != k.Init {
		t.Fatal("expected init to be the running process after boot")
	}
	if k.Init.UserCtx.PC != 0 {
		t.Fatalf("expected init's entry point 0, got %d", k.Init.UserCtx.PC)
	}
}

func TestForkGivesChildZeroReturn(t *testing.T) {
	k := newTestKernel(t)
	ret := runSyscall(k, k.Init, SysFork, 0, 0, 0)
	if ret <= 0 {
		t.Fatalf("expected fork to return a positive child pid, got %d", ret)
	}
	child := k.Procs[ret]
	if child == nil {
		t.Fatal("child not recorded in Procs")
	}
	if child.UserCtx.Regs[0] != 0 {
		t.Fatalf("expected child's return register to be 0, got %d", child.UserCtx.Regs[0])
	}
	if child.Parent != k.Init {
		t.Fatal("expected child's parent to be init")
	}
}

func TestExitThenWaitHarvestsStatus(t *testing.T) {
	k := newTestKernel(t)
	childRet := runSyscall(k, k.Init, SysFork, 0, 0, 0)
	child := k.Procs[childRet]

	runSyscall(k, child, SysExit, 42, 0, 0)

	if !child.Exited || child.ExitStatus != 42 {
		t.Fatalf("expected child exited with status 42, got exited=%v status=%d", child.Exited, child.ExitStatus)
	}

	// wait() writes the status out to a user pointer; give it a valid one
	// byte into init's single mapped page.
	statusPtr := 0
	pid := runSyscall(k, k.Init, SysWait, statusPtr, 0, 0)
	if pid != childRet {
		t.Fatalf("expected wait to return child pid %d, got %d", childRet, pid)
	}
}

// TestOrphanedGrandchildNeverAppearsOnTerminated exercises §8 scenario 5:
// a grandchild outlives its own parent (which exits while the grandchild
// is still running); once the top-level parent reaps the middle process,
// the grandchild is orphaned, and when it later exits itself it must be
// deleted outright rather than sitting on any terminated queue for
// nobody to reap.
func TestOrphanedGrandchildNeverAppearsOnTerminated(t *testing.T) {
	k := newTestKernel(t)
	childRet := runSyscall(k, k.Init, SysFork, 0, 0, 0)
	child := k.Procs[childRet]

	grandchildRet := runSyscall(k, child, SysFork, 0, 0, 0)
	grandchild := k.Procs[grandchildRet]

	runSyscall(k, child, SysExit, 7, 0, 0)

	statusPtr := 0
	pid := runSyscall(k, k.Init, SysWait, statusPtr, 0, 0)
	if pid != childRet {
		t.Fatalf("expected wait to return child pid %d, got %d", childRet, pid)
	}
	if grandchild.Parent != nil {
		t.Fatal("expected grandchild to be orphaned once its parent was reaped")
	}

	runSyscall(k, grandchild, SysExit, 9, 0, 0)
	if _, ok := k.Procs[grandchildRet]; ok {
		t.Fatal("expected orphaned grandchild to be deleted immediately on exit")
	}
	if k.Sched.RemoveTerminated(grandchildRet) {
		t.Fatal("orphaned grandchild must never land on the terminated queue")
	}
}

func TestWaitWithNoChildrenFails(t *testing.T) {
	k := newTestKernel(t)
	ret := runSyscall(k, k.Init, SysWait, 0, 0, 0)
	if ret >= 0 {
		t.Fatalf("expected negative error from wait with no children, got %d", ret)
	}
}
