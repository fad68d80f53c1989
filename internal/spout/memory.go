package spout

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotFound is returned by Mapper.Open when no object has that name.
	ErrNotFound = errors.New("shared object not found")
	// ErrLockTimeout is returned when a region mutex could not be acquired.
	ErrLockTimeout = errors.New("timed out waiting for shared memory lock")
)

// Region is a named shared memory block guarded by a named mutex.
type Region interface {
	Name() string
	// Bytes returns the mapped view. Only touch it between Lock and Unlock.
	Bytes() []byte
	Lock() error
	Unlock()
	Close() error
}

// Semaphore is the per-sender frame counter receivers poll.
type Semaphore interface {
	Release() error
	Close() error
}

// Mapper creates and opens named shared objects.
type Mapper interface {
	// Create opens name if it exists, otherwise creates it with size bytes.
	Create(name string, size int) (Region, error)
	// Open opens an existing region or returns ErrNotFound.
	Open(name string, size int) (Region, error)
	Semaphore(name string) (Semaphore, error)
}

// MemoryMapper keeps shared objects inside the process. Objects live while
// at least one handle is open, like kernel objects do.
type MemoryMapper struct {
	mu      sync.Mutex
	regions map[string]*memBacking
	counts  map[string]*semBacking
}

type memBacking struct {
	mu   sync.Mutex
	buf  []byte
	refs int
}

type semBacking struct {
	count uint64
	refs  int
}

// NewMemoryMapper returns an empty in-process mapper.
func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{
		regions: make(map[string]*memBacking),
		counts:  make(map[string]*semBacking),
	}
}

func (m *MemoryMapper) Create(name string, size int) (Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("create %s: invalid size %d", name, size)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.regions[name]
	if !ok {
		b = &memBacking{buf: make([]byte, size)}
		m.regions[name] = b
	}
	b.refs++
	return &memRegion{m: m, name: name, b: b}, nil
}

func (m *MemoryMapper) Open(name string, size int) (Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.regions[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, ErrNotFound)
	}
	b.refs++
	return &memRegion{m: m, name: name, b: b}, nil
}

func (m *MemoryMapper) Semaphore(name string) (Semaphore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.counts[name]
	if !ok {
		s = &semBacking{}
		m.counts[name] = s
	}
	s.refs++
	return &memSemaphore{m: m, name: name, s: s}, nil
}

// Exists reports whether a region called name is currently alive.
func (m *MemoryMapper) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.regions[name]
	return ok
}

// Count returns the release count of the named semaphore.
func (m *MemoryMapper) Count(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.counts[name]; ok {
		return s.count
	}
	return 0
}

type memRegion struct {
	m      *MemoryMapper
	name   string
	b      *memBacking
	closed bool
}

func (r *memRegion) Name() string  { return r.name }
func (r *memRegion) Bytes() []byte { return r.b.buf }
func (r *memRegion) Lock() error   { r.b.mu.Lock(); return nil }
func (r *memRegion) Unlock()       { r.b.mu.Unlock() }

func (r *memRegion) Close() error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.b.refs--
	if r.b.refs == 0 {
		delete(r.m.regions, r.name)
	}
	return nil
}

type memSemaphore struct {
	m      *MemoryMapper
	name   string
	s      *semBacking
	closed bool
}

func (s *memSemaphore) Release() error {
	s.m.mu.Lock()
	s.s.count++
	s.m.mu.Unlock()
	return nil
}

func (s *memSemaphore) Close() error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.s.refs--
	if s.s.refs == 0 {
		delete(s.m.counts, s.name)
	}
	return nil
}
