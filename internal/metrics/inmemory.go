package metrics

import (
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	MemosCreated      uint64
	MemosUpdated      uint64
	MemosDeleted      uint64
	MemosNotFound     uint64
	GuardRedirects    uint64
	GuardUnauthorized uint64
	SignUps           uint64
	SignInsSucceeded  uint64
	SignInsFailed     uint64
	SignInsLimited    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	memosCreated      uint64
	memosUpdated      uint64
	memosDeleted      uint64
	memosNotFound     uint64
	guardRedirects    uint64
	guardUnauthorized uint64
	signUps           uint64
	signInsSucceeded  uint64
	signInsFailed     uint64
	signInsLimited    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		MemosCreated:      atomic.LoadUint64(&m.memosCreated),
		MemosUpdated:      atomic.LoadUint64(&m.memosUpdated),
		MemosDeleted:      atomic.LoadUint64(&m.memosDeleted),
		MemosNotFound:     atomic.LoadUint64(&m.memosNotFound),
		GuardRedirects:    atomic.LoadUint64(&m.guardRedirects),
		GuardUnauthorized: atomic.LoadUint64(&m.guardUnauthorized),
		SignUps:           atomic.LoadUint64(&m.signUps),
		SignInsSucceeded:  atomic.LoadUint64(&m.signInsSucceeded),
		SignInsFailed:     atomic.LoadUint64(&m.signInsFailed),
		SignInsLimited:    atomic.LoadUint64(&m.signInsLimited),
	}
}

// IncMemoCreated increments memo created counter.
func (m *InMemoryRecorder) IncMemoCreated() {
	atomic.AddUint64(&m.memosCreated, 1)
}

// IncMemoUpdated increments memo updated counter.
func (m *InMemoryRecorder) IncMemoUpdated() {
	atomic.AddUint64(&m.memosUpdated, 1)
}

// IncMemoDeleted increments memo deleted counter.
func (m *InMemoryRecorder) IncMemoDeleted() {
	atomic.AddUint64(&m.memosDeleted, 1)
}

// IncMemoNotFound increments the counter of scoped lookups that matched nothing.
func (m *InMemoryRecorder) IncMemoNotFound() {
	atomic.AddUint64(&m.memosNotFound, 1)
}

// IncGuardDenied increments the guard denial counter for the given kind.
func (m *InMemoryRecorder) IncGuardDenied(kind string) {
	switch kind {
	case "redirect":
		atomic.AddUint64(&m.guardRedirects, 1)
	case "unauthorized":
		atomic.AddUint64(&m.guardUnauthorized, 1)
	}
}

// IncSignUp increments sign-up counter.
func (m *InMemoryRecorder) IncSignUp() {
	atomic.AddUint64(&m.signUps, 1)
}

// IncSignIn increments the sign-in counter for the given status.
func (m *InMemoryRecorder) IncSignIn(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.signInsSucceeded, 1)
	case "failed":
		atomic.AddUint64(&m.signInsFailed, 1)
	case "limited":
		atomic.AddUint64(&m.signInsLimited, 1)
	}
}
