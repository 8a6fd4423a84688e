package registry

import (
	"context"
	"sort"
	"sync"
)

// MemoryRegistry is an in-memory Registry.
// Suitable for single-instance deployments.
type MemoryRegistry struct {
	rooms map[string]map[string]string // roomKey -> clientID -> userID
	mu    sync.RWMutex
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		rooms: make(map[string]map[string]string),
	}
}

func (r *MemoryRegistry) Register(ctx context.Context, roomKey, clientID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomKey]; !ok {
		r.rooms[roomKey] = make(map[string]string)
	}
	r.rooms[roomKey][clientID] = userID
	return nil
}

func (r *MemoryRegistry) Deregister(ctx context.Context, roomKey, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clients, ok := r.rooms[roomKey]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(r.rooms, roomKey)
		}
	}
	return nil
}

func (r *MemoryRegistry) Online(ctx context.Context, roomKey string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	users := make([]string, 0, len(r.rooms[roomKey]))
	for _, userID := range r.rooms[roomKey] {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}
	sort.Strings(users)
	return users, nil
}

func (r *MemoryRegistry) StartHeartbeat(ctx context.Context) error { return nil }

func (r *MemoryRegistry) StopHeartbeat() {}

func (r *MemoryRegistry) Close() error { return nil }
