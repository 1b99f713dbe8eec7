package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// MemoryStore хранит окна в памяти процесса. Число ключей ограничено:
// сначала выбрасываются истёкшие окна, затем самое старое.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	maxKeys int
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryStore(limit int, win time.Duration, maxKeys int) *MemoryStore {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &MemoryStore{
		limit:   limit,
		window:  win,
		maxKeys: maxKeys,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if ok && now.Sub(w.start) >= s.window {
		delete(s.windows, key)
		ok = false
	}

	if !ok {
		if len(s.windows) >= s.maxKeys {
			s.evict(now)
		}
		s.windows[key] = &window{count: 1, start: now}
		return Decision{Allowed: true, Limit: s.limit, Remaining: remaining(s.limit, 1)}, nil
	}

	// счётчик проверяется до увеличения
	if w.count >= s.limit {
		return Decision{
			Allowed:    false,
			Limit:      s.limit,
			Remaining:  0,
			RetryAfter: s.window - now.Sub(w.start),
		}, nil
	}
	w.count++
	return Decision{Allowed: true, Limit: s.limit, Remaining: remaining(s.limit, w.count)}, nil
}

// evict вызывается под блокировкой.
func (s *MemoryStore) evict(now time.Time) {
	for k, w := range s.windows {
		if now.Sub(w.start) >= s.window {
			delete(s.windows, k)
		}
	}
	if len(s.windows) < s.maxKeys {
		return
	}
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, w := range s.windows {
		if oldestKey == "" || w.start.Before(oldest) {
			oldestKey, oldest = k, w.start
		}
	}
	delete(s.windows, oldestKey)
}

// Len - число отслеживаемых ключей.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
