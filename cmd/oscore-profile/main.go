// Command oscore-profile boots the kernel exactly like cmd/oscore, runs it
// for a fixed number of clock ticks (or until it halts), and dumps a
// pprof-compatible profile of per-process accounting via internal/kprofile
// so `go tool pprof` can inspect scheduler fairness after the fact.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"oscore/internal/kernel"
	"oscore/internal/kprofile"
	"oscore/internal/limits"
	"oscore/internal/loader"
	"oscore/internal/platform"
	"oscore/internal/platform/simplatform"
)

func main() {
	nframes := flag.Int("frames", 8192, "number of simulated physical frames")
	ticks := flag.Int("ticks", 1000, "number of clock ticks to run before dumping a profile")
	out := flag.String("out", "oscore.pprof", "output path for the pprof profile")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: oscore-profile [flags] <init-image> [argv...]")
		os.Exit(2)
	}
	initPath := flag.Arg(0)
	argv := flag.Args()[1:]

	plat := simplatform.New()
	k, err := kernel.Boot(*nframes, plat, limits.NumTerminals, loader.Load, initPath, argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oscore-profile: boot failed: %v\n", err)
		os.Exit(1)
	}

	const quantum = time.Millisecond
	for i := 0; i < *ticks && !plat.Halted; i++ {
		plat.Advance(quantum.Nanoseconds())
		k.HandleTrap(platform.TrapClock)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oscore-profile: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := kprofile.Write(f, k.AccountingSnapshot()); err != nil {
		fmt.Fprintf(os.Stderr, "oscore-profile: writing profile: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("oscore-profile: wrote %s\n", *out)
}
