// Package health reports process and host vitals for the health endpoint
// and the server's periodic vitals log line.
package health

import (
	"context"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/greenroomhq/greenroom/internal/logging"
)

// Snapshot is one reading of the server's vitals.
type Snapshot struct {
	Status         string  `json:"status"`
	UptimeSec      int64   `json:"uptime_sec"`
	Goroutines     int     `json:"goroutines"`
	RSSBytes       uint64  `json:"rss_bytes"`
	CPUPercent     float64 `json:"cpu_percent"`
	HostMemTotal   uint64  `json:"host_mem_total_bytes"`
	HostMemUsedPct float64 `json:"host_mem_used_percent"`
}

// Probe reads vitals for the current process.
type Probe struct {
	proc    *process.Process
	started time.Time
	log     *zap.SugaredLogger
}

// NewProbe starts the uptime clock. Process introspection failing (an
// exotic platform) downgrades the probe, never the caller.
func NewProbe(log *zap.SugaredLogger) *Probe {
	if log == nil {
		log = logging.Nop()
	}
	p := &Probe{started: time.Now(), log: log}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warnw("process introspection unavailable", "error", err)
		return p
	}
	p.proc = proc
	return p
}

// Snapshot reads current vitals. Best effort: a gauge that cannot be read
// stays zero rather than failing the health endpoint.
func (p *Probe) Snapshot() Snapshot {
	s := Snapshot{
		Status:     "ok",
		UptimeSec:  int64(time.Since(p.started).Seconds()),
		Goroutines: runtime.NumGoroutine(),
	}
	if p.proc != nil {
		if mi, err := p.proc.MemoryInfo(); err == nil && mi != nil {
			s.RSSBytes = mi.RSS
		}
		if pct, err := p.proc.CPUPercent(); err == nil {
			s.CPUPercent = round1(pct)
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.HostMemTotal = vm.Total
		s.HostMemUsedPct = round1(vm.UsedPercent)
	}
	return s
}

// Run logs a vitals line on the interval until the context ends.
func (p *Probe) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := p.Snapshot()
			p.log.Infow("vitals",
				"uptime_sec", s.UptimeSec,
				"goroutines", s.Goroutines,
				"rss_mb", s.RSSBytes/(1<<20),
				"cpu_percent", s.CPUPercent,
				"host_mem_percent", s.HostMemUsedPct)
		}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
