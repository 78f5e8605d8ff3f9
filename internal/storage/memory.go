package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process BlobStore for tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func key(bucket, object string) string { return bucket + "/" + object }

func (m *Memory) Exists(_ context.Context, bucket, object string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key(bucket, object)]
	return ok, nil
}

func (m *Memory) Upload(_ context.Context, bucket, object string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key(bucket, object)] = cp
	return nil
}

func (m *Memory) Download(_ context.Context, bucket, object string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key(bucket, object)]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, object)
	}
	return data, nil
}

// Delete removes an object; tests use it to simulate storage drift.
func (m *Memory) Delete(_ context.Context, bucket, object string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key(bucket, object))
}
