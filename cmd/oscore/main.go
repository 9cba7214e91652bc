// Command oscore boots the kernel against the deterministic simplatform
// machine and an init program image supplied on the command line,
// driving it forward one clock tick at a time until init or idle exits
// (§4.M "kernel_start", §6 "Bootstrap arguments: cmd_args[0] names the
// init executable"). It stands in for the real bootloader entry point,
// which would instead run on actual hardware (out of scope, §1).
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"oscore/internal/diag"
	"oscore/internal/kernel"
	"oscore/internal/limits"
	"oscore/internal/loader"
	"oscore/internal/platform"
	"oscore/internal/platform/simplatform"
)

func main() {
	nframes := flag.Int("frames", 8192, "number of simulated physical frames")
	tick := flag.Duration("tick", 10*time.Millisecond, "simulated clock-trap interval")
	traceLevel := flag.Int("trace", 0, "diag trace verbosity (overrides OSCORE_TRACE_LEVEL)")
	flag.Parse()

	if *traceLevel != 0 {
		diag.SetLevel(*traceLevel)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: oscore [flags] <init-image> [argv...]")
		os.Exit(2)
	}
	initPath := flag.Arg(0)
	argv := flag.Args()[1:]

	plat := simplatform.New()
	k, err := kernel.Boot(*nframes, plat, limits.NumTerminals, loader.Load, initPath, argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oscore: boot failed: %v\n", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()
	for !plat.Halted {
		<-ticker.C
		plat.Advance(tick.Nanoseconds())
		k.HandleTrap(platform.TrapClock)
	}

	fmt.Printf("oscore: halted: %s\n", plat.HaltReason)
	printCounters()
}

// printCounters dumps the syscall/trap/context-switch tallies diag.Global
// collected over the run, in a stable order so two runs of the same
// workload diff cleanly.
func printCounters() {
	counts := diag.Global.Snapshot()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("oscore: counter %s=%d\n", name, counts[name])
	}
}
