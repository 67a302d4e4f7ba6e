package workflows

import (
	"context"

	"github.com/sable-health/medlock/internal/configs"
	"github.com/sable-health/medlock/internal/connections"
)

// StatusResult describes the device's key state for the configured user.
type StatusResult struct {
	// UserID and Role echo the configured identity.
	UserID string
	Role   configs.Role

	// HasCachedKey reports whether a relationship key is cached locally.
	HasCachedKey bool

	// Connections are the relationships the user belongs to, newest first.
	Connections []connections.Connection
}

// Status reports cache presence and backend connections for the device's
// user.
func Status(ctx context.Context) (*StatusResult, error) {
	config, err := configs.RequireIdentity()
	if err != nil {
		return nil, err
	}
	identity := config.User.ID

	cache, err := openCache()
	if err != nil {
		return nil, err
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	backend := &connections.StoreBackend{Store: store}
	conns, err := backend.ListConnections(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		UserID:       identity,
		Role:         config.User.Role,
		HasCachedKey: cache.Has(identity),
		Connections:  conns,
	}, nil
}

// Logout clears the cached key for the device's user. Idempotent.
func Logout(ctx context.Context) (string, error) {
	config, err := configs.RequireIdentity()
	if err != nil {
		return "", err
	}
	identity := config.User.ID

	cache, err := openCache()
	if err != nil {
		return "", err
	}
	if err := cache.Clear(identity); err != nil {
		return "", err
	}
	return identity, nil
}
