package lockout

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/vpnguard/internal/pkg/clock"
)

type entry struct {
	count   int
	expires time.Time
}

// Memory keeps counters in process memory.
type Memory struct {
	mu      sync.Mutex
	clock   clock.Clocker
	cfg     Config
	entries map[string]entry
}

// NewMemory creates an in-memory limiter.
func NewMemory(clk clock.Clocker, cfg Config) *Memory {
	if clk == nil {
		clk = new(clock.TimeClocker)
	}

	return &Memory{
		clock:   clk,
		cfg:     cfg.normalize(),
		entries: make(map[string]entry),
	}
}

// Reserve checks and counts under one lock. The window starts at the first
// reserved attempt.
func (m *Memory) Reserve(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		e = entry{expires: m.clock.Now().Add(m.cfg.Window)}
	}
	if e.count >= m.cfg.MaxFailures {
		return false, nil
	}

	e.count++
	m.entries[key] = e

	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return nil
	}

	e.count--
	if e.count <= 0 {
		delete(m.entries, key)
		return nil
	}
	m.entries[key] = e

	return nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// live returns the entry for key, dropping it when expired. Caller holds mu.
func (m *Memory) live(key string) (entry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return entry{}, false
	}
	if !m.clock.Now().Before(e.expires) {
		delete(m.entries, key)
		return entry{}, false
	}
	return e, true
}
