package registry

import "context"

// Registry tracks which users are connected to which room.
type Registry interface {
	Register(ctx context.Context, roomKey, clientID, userID string) error
	Deregister(ctx context.Context, roomKey, clientID string) error
	Online(ctx context.Context, roomKey string) ([]string, error)
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}
