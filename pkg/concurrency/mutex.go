// Package concurrency provides named, optionally-instrumented lock
// primitives used throughout the module in place of bare sync.Mutex values.
package concurrency

import (
	"sync"
	"time"

	"github.com/oakbridge/mqconnect/pkg/logger"
)

// MutexConfig names a lock for logging/diagnostics and optionally enables
// slow-acquisition warnings.
type MutexConfig struct {
	// Name identifies the lock in logs.
	Name string

	// DebugMode logs every acquisition and release at debug level.
	DebugMode bool

	// SlowThreshold logs a warning if Lock/RLock blocks longer than this.
	// Zero disables the check.
	SlowThreshold time.Duration
}

// SmartMutex is a named, optionally-instrumented mutual-exclusion lock.
// It does not itself support reentrant locking from the same goroutine;
// see RecursiveMutex for that.
type SmartMutex struct {
	cfg MutexConfig
	mu  sync.Mutex
}

// NewSmartMutex creates a SmartMutex.
func NewSmartMutex(cfg MutexConfig) *SmartMutex {
	return &SmartMutex{cfg: cfg}
}

func (m *SmartMutex) Lock() {
	start := time.Now()
	m.mu.Lock()
	m.observe(start, "lock")
}

func (m *SmartMutex) Unlock() {
	m.mu.Unlock()
	if m.cfg.DebugMode {
		logger.L().Debug("mutex released", "name", m.cfg.Name)
	}
}

func (m *SmartMutex) observe(start time.Time, op string) {
	elapsed := time.Since(start)
	if m.cfg.DebugMode {
		logger.L().Debug("mutex acquired", "name", m.cfg.Name, "op", op, "wait", elapsed)
	}
	if m.cfg.SlowThreshold > 0 && elapsed > m.cfg.SlowThreshold {
		logger.L().Warn("slow mutex acquisition", "name", m.cfg.Name, "op", op, "wait", elapsed)
	}
}

// SmartRWMutex is a named, optionally-instrumented reader/writer lock.
type SmartRWMutex struct {
	cfg MutexConfig
	mu  sync.RWMutex
}

// NewSmartRWMutex creates a SmartRWMutex.
func NewSmartRWMutex(cfg MutexConfig) *SmartRWMutex {
	return &SmartRWMutex{cfg: cfg}
}

func (m *SmartRWMutex) Lock() {
	start := time.Now()
	m.mu.Lock()
	m.observe(start, "lock")
}

func (m *SmartRWMutex) Unlock() {
	m.mu.Unlock()
	if m.cfg.DebugMode {
		logger.L().Debug("rwmutex released", "name", m.cfg.Name)
	}
}

func (m *SmartRWMutex) RLock() {
	start := time.Now()
	m.mu.RLock()
	m.observe(start, "rlock")
}

func (m *SmartRWMutex) RUnlock() {
	m.mu.RUnlock()
	if m.cfg.DebugMode {
		logger.L().Debug("rwmutex rreleased", "name", m.cfg.Name)
	}
}

func (m *SmartRWMutex) observe(start time.Time, op string) {
	elapsed := time.Since(start)
	if m.cfg.DebugMode {
		logger.L().Debug("rwmutex acquired", "name", m.cfg.Name, "op", op, "wait", elapsed)
	}
	if m.cfg.SlowThreshold > 0 && elapsed > m.cfg.SlowThreshold {
		logger.L().Warn("slow rwmutex acquisition", "name", m.cfg.Name, "op", op, "wait", elapsed)
	}
}
