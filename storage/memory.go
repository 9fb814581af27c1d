package storage

import (
	"context"
	"sync"

	"github.com/tierfs/metadb/proto"
)

// memoryStore keeps the maps in process memory. This is the default: the
// metadata plane is process-lifetime, so nothing needs to outlive the node.
type memoryStore struct {
	maps [proto.MapTypeCount]nameMap
}

type nameMap struct {
	lock    sync.RWMutex
	forward map[string]uint64
	reverse map[uint64]string
}

func NewMemoryStore() Store {
	s := &memoryStore{}
	for i := range s.maps {
		s.maps[i].forward = make(map[string]uint64)
		s.maps[i].reverse = make(map[uint64]string)
	}
	return s
}

func (s *memoryStore) Put(ctx context.Context, name string, id uint64, mt proto.MapType) error {
	m := &s.maps[mt]
	m.lock.Lock()
	m.forward[name] = id
	m.reverse[id] = name
	m.lock.Unlock()
	return nil
}

func (s *memoryStore) Get(ctx context.Context, name string, mt proto.MapType) (uint64, error) {
	m := &s.maps[mt]
	m.lock.RLock()
	id := m.forward[name]
	m.lock.RUnlock()
	return id, nil
}

func (s *memoryStore) Delete(ctx context.Context, name string, mt proto.MapType) error {
	m := &s.maps[mt]
	m.lock.Lock()
	if id, ok := m.forward[name]; ok {
		delete(m.forward, name)
		if m.reverse[id] == name {
			delete(m.reverse, id)
		}
	}
	m.lock.Unlock()
	return nil
}

func (s *memoryStore) ReverseGet(ctx context.Context, id uint64, mt proto.MapType) (string, error) {
	m := &s.maps[mt]
	m.lock.RLock()
	name := m.reverse[id]
	m.lock.RUnlock()
	return name, nil
}

func (s *memoryStore) Close() {}
