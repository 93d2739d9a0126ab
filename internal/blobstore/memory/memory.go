package memory

import (
	"context"
	"sync"

	"github.com/smallbiznis/checkmapper/internal/blobstore"
)

type Object struct {
	Data        []byte
	ContentType string
}

// Store keeps objects in process memory.
type Store struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

func New(baseURL string) *Store {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &Store{baseURL: baseURL, objects: make(map[string]Object)}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := blobstore.CleanKey(key)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", blobstore.ErrEmptyData
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = Object{Data: buf, ContentType: contentType}
	s.mu.Unlock()

	return blobstore.JoinURL(s.baseURL, key), nil
}

func (s *Store) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
