package concurrency

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/oakbridge/mqconnect/pkg/logger"
)

// RecursiveMutex is a mutual-exclusion lock that the owning goroutine may
// acquire more than once without deadlocking, recording the acquisition
// depth and releasing only once the depth returns to zero. It exists
// because sync.Mutex and SmartMutex are not reentrant, and the connection
// manager's consumer setup calls lock-taking ConnectionManager operations
// from within an already-held lock.
//
// Of MutexConfig, only Name and DebugMode are used: DebugMode logs reentrant
// acquisitions only (not first acquisitions or releases), and SlowThreshold
// is ignored.
type RecursiveMutex struct {
	cfg MutexConfig

	mu    sync.Mutex // guards owner/depth
	held  sync.Mutex // the actual exclusion lock
	owner int64
	depth int
}

// NewRecursiveMutex creates a RecursiveMutex.
func NewRecursiveMutex(cfg MutexConfig) *RecursiveMutex {
	return &RecursiveMutex{cfg: cfg}
}

// Lock acquires the lock. If the calling goroutine already holds it, Lock
// just increments the reentrancy depth and returns immediately.
func (m *RecursiveMutex) Lock() {
	gid := goroutineID()

	m.mu.Lock()
	if m.depth > 0 && m.owner == gid && gid >= 0 {
		m.depth++
		m.mu.Unlock()
		if m.cfg.DebugMode {
			logger.L().Debug("recursive mutex reentrant lock", "name", m.cfg.Name, "depth", m.depth)
		}
		return
	}
	m.mu.Unlock()

	m.held.Lock()

	m.mu.Lock()
	m.owner = gid
	m.depth = 1
	m.mu.Unlock()
}

// Unlock releases one level of the lock. Once the reentrancy depth reaches
// zero the underlying lock is released and another goroutine may acquire it.
// Unlock panics if called by a goroutine that does not hold the lock, the
// same contract sync.Mutex.Unlock has for an unlocked mutex.
func (m *RecursiveMutex) Unlock() {
	gid := goroutineID()

	m.mu.Lock()
	if m.depth == 0 || m.owner != gid {
		m.mu.Unlock()
		panic("concurrency: Unlock of RecursiveMutex not held by calling goroutine")
	}
	m.depth--
	done := m.depth == 0
	m.mu.Unlock()

	if done {
		m.held.Unlock()
	}
}

// goroutineID extracts the calling goroutine's runtime ID by parsing the
// "goroutine N [...]" header that runtime.Stack always writes first. This
// is the standard way to get a goroutine identity in Go without adding it
// to the language; it is only used here to detect reentrant Lock calls from
// the same goroutine, never for scheduling decisions.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if i := bytes.Index(b, []byte(prefix)); i >= 0 {
		b = b[i+len(prefix):]
	}

	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		end = len(b)
	}

	id, err := strconv.ParseInt(string(b[:end]), 10, 64)
	if err != nil {
		// Should never happen; runtime.Stack's format is stable, but fail
		// safe by forcing non-reentrant behavior rather than panicking.
		return -1
	}
	return id
}
