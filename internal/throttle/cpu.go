package throttle

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// CPUGovernor samples process CPU time every K chunks and sleeps
// proportionally when usage exceeds the configured percentage. Best-effort: a sampling failure (process
// package unavailable on the platform) silently disables throttling
// rather than failing the job.
type CPUGovernor struct {
	proc       *process.Process
	targetPct  float64
	every      int
	calls      int
	lastSample time.Time
	maxSleep   time.Duration
}

// NewCPUGovernor builds a CPU throttle targeting targetPct (0 disables
// it), sampling every `every` chunks, never sleeping longer than
// maxSleep (one progress interval).
func NewCPUGovernor(targetPct float64, every int, maxSleep time.Duration) *CPUGovernor {
	if targetPct <= 0 || every < 1 {
		return nil
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	return &CPUGovernor{proc: proc, targetPct: targetPct, every: every, maxSleep: maxSleep, lastSample: time.Now()}
}

// Tick is called once per chunk; every `every` calls it samples CPU use
// and sleeps if the process is over budget.
func (g *CPUGovernor) Tick() {
	if g == nil {
		return
	}
	g.calls++
	if g.calls%g.every != 0 {
		return
	}
	pct, err := g.proc.Percent(0)
	if err != nil {
		return
	}
	if pct <= g.targetPct {
		return
	}
	over := (pct - g.targetPct) / 100
	sleep := time.Duration(over * float64(time.Since(g.lastSample)))
	if sleep > g.maxSleep {
		sleep = g.maxSleep
	}
	if sleep > 0 {
		time.Sleep(sleep)
	}
	g.lastSample = time.Now()
}
