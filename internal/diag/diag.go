// Package diag carries the kernel's ambient diagnostics: a leveled trace
// log in the style of the source material's TracePrintf, a distinct-caller
// collapser adapted from caller/caller.go, and a small counters table
// adapted from stats/stats.go for syscall/trap/context-switch tallies.
package diag

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"sync"
)

// level is the package-wide trace verbosity, set once at boot from
// OSCORE_TRACE_LEVEL (SPEC_FULL §1). Zero means "only fatal/halt traces".
var level = readLevel()

func readLevel() int {
	v := os.Getenv("OSCORE_TRACE_LEVEL")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// SetLevel overrides the trace verbosity; used by bootstrap and tests.
func SetLevel(n int) { level = n }

// Tracef logs a message if the current verbosity is at least lvl, mirroring
// TracePrintf(level, fmt, ...) from the original kernel.
func Tracef(lvl int, format string, args ...interface{}) {
	if lvl > level {
		return
	}
	log.Printf(format, args...)
}

// Warnf always logs: it is used for the "double-free warns but proceeds"
// class of diagnostic §4.A/§4.B/§7 call for.
func Warnf(format string, args ...interface{}) {
	log.Printf("warning: "+format, args...)
}

// Fatalf logs and halts the process. Used only for invariant violations
// §7 says are unrecoverable ("halt the system when not").
func Fatalf(format string, args ...interface{}) {
	log.Panicf("fatal: "+format, args...)
}

// DistinctCaller collapses repeated fatal-trap call sites so a storm of
// identical faults produces one trace entry instead of thousands, adapted
// from caller.Distinct_caller_t.
type DistinctCaller struct {
	mu  sync.Mutex
	Enabled bool
	seen map[uintptr]bool
}

// Distinct reports whether the immediate caller chain has not been seen
// before, returning a formatted stack for the first occurrence.
func (dc *DistinctCaller) Distinct() (bool, string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if !dc.Enabled {
		return false, ""
	}
	if dc.seen == nil {
		dc.seen = make(map[uintptr]bool)
	}
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return true, ""
	}
	var h uintptr
	for _, pc := range pcs[:n] {
		h ^= pc*1103515245 + 12345
	}
	if dc.seen[h] {
		return false, ""
	}
	dc.seen[h] = true
	frames := runtime.CallersFrames(pcs[:n])
	s := ""
	for {
		fr, more := frames.Next()
		s += fmt.Sprintf("\t%s (%s:%d)\n", fr.Function, fr.File, fr.Line)
		if !more {
			break
		}
	}
	return true, s
}

// Counters tracks simple monotonically increasing tallies: syscalls, traps,
// context switches, and any other event the kernel wants to count, adapted
// from stats.Counter_t (here unconditionally enabled, since this kernel has
// no hot-path performance requirement the counters would threaten).
type Counters struct {
	mu   sync.Mutex
	vals map[string]int64
}

// Inc increments the named counter by one.
func (c *Counters) Inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vals == nil {
		c.vals = make(map[string]int64)
	}
	c.vals[name]++
}

// Snapshot returns a copy of the current counter values.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.vals))
	for k, v := range c.vals {
		out[k] = v
	}
	return out
}

// Global is the kernel-wide counters table, mutated only by the currently
// running handler per §5's no-preemption rule.
var Global Counters
