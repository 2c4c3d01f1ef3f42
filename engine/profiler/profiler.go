// Package profiler reports frame-rate and heap statistics at a fixed
// interval so long-running visibility workloads can be watched for
// allocation churn.
package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/lumen3d/lumen/engine/logger"
)

// Monitor accumulates frame ticks and emits one log line per interval.
// Callers append their own zap fields to each report, so the monitor stays
// decoupled from renderer types.
type Monitor struct {
	frameCount     int
	lastReport     time.Time
	interval       time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
}

// NewMonitor creates a Monitor reporting once per second.
//
// Returns:
//   - *Monitor: the monitor, ready to tick
func NewMonitor() *Monitor {
	return &Monitor{
		lastReport: time.Now(),
		interval:   time.Second,
	}
}

// Tick records one frame. When the report interval has elapsed it logs FPS,
// heap size, and allocation rate at Debug, together with any extra fields.
//
// Parameters:
//   - extra: caller-supplied fields appended to the report line
//
// Returns:
//   - bool: true if a report was emitted this tick
func (m *Monitor) Tick(extra ...zap.Field) bool {
	m.frameCount++
	now := time.Now()
	elapsed := now.Sub(m.lastReport)
	if elapsed < m.interval {
		return false
	}

	runtime.ReadMemStats(&m.memStats)
	allocRate := float64(m.memStats.TotalAlloc-m.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	fields := []zap.Field{
		zap.Float64("fps", float64(m.frameCount)/elapsed.Seconds()),
		zap.Float64("heap_mb", float64(m.memStats.Alloc)/1024/1024),
		zap.Float64("alloc_mb_per_s", allocRate),
		zap.Uint32("gc_count", m.memStats.NumGC),
	}
	logger.Log.Debug("frame report", append(fields, extra...)...)

	m.frameCount = 0
	m.lastReport = now
	m.lastTotalAlloc = m.memStats.TotalAlloc
	return true
}
