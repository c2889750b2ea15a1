package kvstore

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is a process-local Store. Expired keys are invisible immediately
// and removed by a background sweep.
type Memory struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time

	stop chan struct{}
	once sync.Once
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates a store and starts its sweeper. A non-positive interval
// uses one minute.
func NewMemory(sweep time.Duration, opts ...MemoryOption) *Memory {
	if sweep <= 0 {
		sweep = defaultSweepInterval
	}
	m := &Memory{
		data: make(map[string]entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	go m.sweepLoop(sweep)
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.data[key]
	var n int64
	if ok && !e.expired(now) {
		n, _ = strconv.ParseInt(string(e.value), 10, 64)
	} else {
		e = entry{}
		if ttl > 0 {
			e.expiresAt = now.Add(ttl)
		}
	}
	n++
	e.value = []byte(strconv.FormatInt(n, 10))
	m.data[key] = e

	var left time.Duration
	if !e.expiresAt.IsZero() {
		left = e.expiresAt.Sub(now)
	}
	return n, left, nil
}

// Close stops the sweeper.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

// Len returns the number of stored keys, expired ones included until swept.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *Memory) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

// Sweep removes expired keys.
func (m *Memory) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
		}
	}
}
