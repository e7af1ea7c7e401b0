// Package sysmon samples the load generator's own resource usage so a
// saturated generator can be told apart from a saturated target.
package sysmon

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// Sample is one reading of host and process usage.
type Sample struct {
	HostCPUPercent    float64
	ProcessCPUPercent float64
	RSSBytes          uint64
	Goroutines        int
}

// Sampler reads usage for the current process.
type Sampler struct {
	proc *process.Process
}

func NewSampler() (*Sampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open process: %w", err)
	}
	// prime the cpu counters so the first real sample is a delta
	_, _ = p.Percent(0)
	_, _ = cpu.Percent(0, false)
	return &Sampler{proc: p}, nil
}

// Sample reports usage since the previous call.
func (s *Sampler) Sample() (Sample, error) {
	out := Sample{Goroutines: runtime.NumGoroutine()}

	host, err := cpu.Percent(0, false)
	if err != nil {
		return out, fmt.Errorf("failed to read host cpu: %w", err)
	}
	if len(host) > 0 {
		out.HostCPUPercent = host[0]
	}

	pc, err := s.proc.Percent(0)
	if err != nil {
		return out, fmt.Errorf("failed to read process cpu: %w", err)
	}
	out.ProcessCPUPercent = pc

	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return out, fmt.Errorf("failed to read process memory: %w", err)
	}
	out.RSSBytes = mem.RSS

	return out, nil
}

// RSSMegabytes is a display helper.
func (s Sample) RSSMegabytes() float64 {
	return float64(s.RSSBytes) / (1024 * 1024)
}
