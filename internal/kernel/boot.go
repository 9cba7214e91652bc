package kernel

import (
	"fmt"

	"oscore/internal/limits"
	"oscore/internal/pcb"
	"oscore/internal/platform"
)

// Boot implements kernel_start (§4.M): build the frame allocator and
// scheduler, create the idle and init processes, load the init program
// into init's address space, enable the MMU, and mark init running.
// Grounded on original_source/kernel/kernel.c's KernelStart — minus the
// hardware bring-up it does before any of that, which belongs to the
// platform (out of scope, §1).
func Boot(nframes int, plat platform.Platform, numTerminals int, load Loader, initPath string, initArgv []string) (*Kernel, error) {
	k := New(nframes, plat, numTerminals)
	k.Load = load

	idle := k.NewIdle()
	if err := k.allocKernelStack(idle); err != 0 {
		return nil, fmt.Errorf("kernel: boot: %w", err)
	}

	init := pcb.New(k.AllocPid(), limits.KernelStackPages, limits.Region1Pages)
	init.Name = "init"
	if err := k.allocKernelStack(init); err != 0 {
		return nil, fmt.Errorf("kernel: boot: %w", err)
	}
	k.Procs[init.Pid] = init
	k.Init = init

	if err := k.Exec(init, initPath, initArgv); err != 0 {
		return nil, fmt.Errorf("kernel: boot: loading init: %w", err)
	}

	k.Plat.EnableVM()
	k.Core.Start(init)
	return k, nil
}
