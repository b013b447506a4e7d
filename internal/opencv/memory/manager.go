package memory

import (
	"runtime"
	"sync"
	"time"

	"pupiltrack/internal/logger"
)

// allocInfo is one safe.Mat's accounting entry, keyed by the pointer
// safe.Mat passes into TrackAllocation/TrackDeallocation.
type allocInfo struct {
	tag       string
	size      int64
	timestamp time.Time
}

// Manager implements safe.MemoryTracker: every safe.Mat created with it
// reports its allocation and release here, so a caller that wraps detected
// frames for thumbnail export (internal/trackloop.SnapshotWriter) has a
// record of what it's holding open and a log of anything it forgot to
// close.
type Manager struct {
	mu           sync.Mutex
	logger       logger.Logger
	maxMemory    int64
	usedMemory   int64
	allocCount   int64
	deallocCount int64
	activeAllocs map[uintptr]*allocInfo

	gcTriggerThreshold int64
}

// NewManager's budget is 30% of runtime.MemStats.Sys (memory the Go runtime
// got from the OS), clamped to [512MB, 4GB] as in the teacher pipeline's
// GUI-session Mat budget; the GC-trigger threshold is 70% of that budget.
func NewManager(log logger.Logger) *Manager {
	var memStats runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&memStats)

	systemMemory := int64(memStats.Sys)
	maxMemory := systemMemory * 3 / 10
	if maxMemory < 512*1024*1024 {
		maxMemory = 512 * 1024 * 1024
	}
	if maxMemory > 4*1024*1024*1024 {
		maxMemory = 4 * 1024 * 1024 * 1024
	}

	m := &Manager{
		logger:             log,
		maxMemory:          maxMemory,
		activeAllocs:       make(map[uintptr]*allocInfo),
		gcTriggerThreshold: maxMemory * 7 / 10,
	}

	log.Info("memory", "manager initialized", map[string]interface{}{
		"max_memory_mb":    maxMemory / (1024 * 1024),
		"gc_trigger_mb":    m.gcTriggerThreshold / (1024 * 1024),
		"system_memory_mb": systemMemory / (1024 * 1024),
	})

	return m
}

// TrackAllocation records a safe.Mat coming into existence and forces a GC
// pass if the running total crosses the trigger threshold. There's no
// background monitor goroutine here (a per-frame CLI pass doesn't run long
// enough to need one) so the check happens inline on the allocating call.
func (m *Manager) TrackAllocation(ptr uintptr, size int64, tag string) {
	m.mu.Lock()
	m.allocCount++
	m.usedMemory += size
	m.activeAllocs[ptr] = &allocInfo{tag: tag, size: size, timestamp: time.Now()}
	used := m.usedMemory
	m.mu.Unlock()

	if used > m.gcTriggerThreshold {
		m.logger.Warning("memory", "high memory pressure, forcing GC", map[string]interface{}{
			"used_mb": used / (1024 * 1024),
			"max_mb":  m.maxMemory / (1024 * 1024),
		})
		runtime.GC()
	}
}

func (m *Manager) TrackDeallocation(ptr uintptr, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deallocCount++
	if info, ok := m.activeAllocs[ptr]; ok {
		m.usedMemory -= info.size
		delete(m.activeAllocs, ptr)
	}
}

func (m *Manager) GetStats() (allocCount, deallocCount int64, usedMemory int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocCount, m.deallocCount, m.usedMemory
}

// Shutdown logs and clears any allocation that was never matched by a
// TrackDeallocation call — a safe.Mat the caller forgot to Close.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ptr, info := range m.activeAllocs {
		m.logger.Warning("memory", "mat never released", map[string]interface{}{
			"tag":     info.tag,
			"size_mb": info.size / (1024 * 1024),
			"age":     time.Since(info.timestamp).String(),
		})
		delete(m.activeAllocs, ptr)
	}

	m.usedMemory = 0
	runtime.GC()
}
