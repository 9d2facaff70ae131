package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process store, the zero value is not usable, use NewMemory.
type Memory struct {
	mutex   sync.Mutex
	objects map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	lp := listPrefix(prefix)
	var keys []string
	for key := range m.objects {
		if !strings.HasPrefix(key, lp) || isMarker(prefix, key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	doc, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (m *Memory) Put(_ context.Context, key string, doc []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.objects[key] = append([]byte(nil), doc...)
	return nil
}
