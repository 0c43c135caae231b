package memory

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed возвращается при обращении к закрытому хранилищу.
var ErrClosed = errors.New("memory storage is closed")

type MemoryStorage struct {
	values map[string]string
	closed bool
	mu     sync.RWMutex
}

func New() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string]string),
	}
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrClosed
	}

	value, exists := s.values[key]
	return value, exists, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.values[key] = value
	return nil
}

// Close очищает данные; дальнейшие вызовы возвращают ErrClosed.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]string)
	s.closed = true
	return nil
}
