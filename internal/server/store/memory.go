package store

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/secureclip/internal/common"
	"github.com/dmitrijs2005/secureclip/internal/relay"
)

const janitorInterval = 10 * time.Second

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryStore is a process-local Store. A janitor goroutine reaps expired
// entries; reads additionally check expiry so a record is never returned
// between its deadline and the next sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Put(ctx context.Context, code string, rec *Record, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[code] = memoryEntry{rec: *rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) GetAndDelete(ctx context.Context, code string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[code]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.entries, code)
		return nil, common.ErrNotFound
	}

	// Lookup and delete happen under one lock acquisition, so a concurrent
	// caller can never observe the same record.
	delete(s.entries, code)

	rec := e.rec
	return &rec, nil
}

func (s *MemoryStore) Peek(ctx context.Context, code string) (*relay.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[code]
	if !ok || s.now().After(e.expiresAt) {
		return nil, common.ErrNotFound
	}

	meta := e.rec.Meta
	return &meta, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for code, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, code)
		}
	}
}
