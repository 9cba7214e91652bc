package kernel

import "oscore/internal/kprofile"

// AccountingSnapshot gathers every live process's accounting counters into
// the shape kprofile.Build expects, for cmd/oscore-profile or a test to
// dump a pprof profile of a run.
func (k *Kernel) AccountingSnapshot() []kprofile.ProcSample {
	out := make([]kprofile.ProcSample, 0, len(k.Procs))
	for _, p := range k.Procs {
		a := p.Acct.Snapshot()
		out = append(out, kprofile.ProcSample{
			Pid:    p.Pid,
			Name:   p.Name,
			UserNs: a.UserNs,
			SysNs:  a.SysNs,
		})
	}
	return out
}
