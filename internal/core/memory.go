package core

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

// MemoryStats logs Go heap usage after long-running work. It is silent
// unless the logger is at debug level.
type MemoryStats struct {
	logger *logrus.Logger
}

func NewMemoryStats(logger *logrus.Logger) *MemoryStats {
	return &MemoryStats{logger: logger}
}

func (m *MemoryStats) Enabled() bool {
	return m.logger.IsLevelEnabled(logrus.DebugLevel)
}

func (m *MemoryStats) Snapshot() runtime.MemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms
}

func (m *MemoryStats) LogSummary() {
	if !m.Enabled() {
		return
	}

	ms := m.Snapshot()
	m.logger.WithFields(logrus.Fields{
		"alloc_mb":       toMB(ms.Alloc),
		"total_alloc_mb": toMB(ms.TotalAlloc),
		"sys_mb":         toMB(ms.Sys),
		"num_gc":         ms.NumGC,
	}).Debug("Memory summary")
}

func toMB(b uint64) float64 {
	return float64(b) / 1024 / 1024
}
