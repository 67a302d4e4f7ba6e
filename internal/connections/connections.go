package connections

import (
	"context"
	"time"

	"github.com/sable-health/medlock/internal/keystore"
)

// Status of a clinician/patient relationship as seen by a device.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRevoked  Status = "revoked"
)

// Connection is the backend record of a relationship the user belongs to.
// It mirrors the lifecycle of the underlying key record.
type Connection struct {
	KeyID         string
	CounterpartID string
	Status        Status
	ExpiresAt     *time.Time
}

// Usable reports whether the connection can serve a key recovery: active and
// not expired.
func (c Connection) Usable(now time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}

// Lister enumerates the connections a user belongs to.
type Lister interface {
	ListConnections(ctx context.Context, userID string) ([]Connection, error)
}

// KeyFetcher returns raw key material for a key record, only to a user who
// is a party on it.
type KeyFetcher interface {
	FetchKey(ctx context.Context, keyID, userID string) ([]byte, error)
}

// Backend is the full collaborator surface the recovery agent needs.
type Backend interface {
	Lister
	KeyFetcher
}

// StoreBackend serves connections straight from the key record store. In the
// deployed system this sits behind the identity service; for the CLI the
// store is local.
type StoreBackend struct {
	Store *keystore.Store
}

// ListConnections returns one connection per key record the user is a party
// on, newest first.
func (b *StoreBackend) ListConnections(ctx context.Context, userID string) ([]Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := b.Store.List()
	if err != nil {
		return nil, err
	}

	var conns []Connection
	for _, kp := range records {
		if !kp.IsParty(userID) {
			continue
		}
		conns = append(conns, Connection{
			KeyID:         kp.ID,
			CounterpartID: kp.CounterpartOf(userID),
			Status:        statusOf(kp.State),
			ExpiresAt:     kp.ExpiresAt,
		})
	}
	return conns, nil
}

// FetchKey returns the raw key material, enforcing the store's party check.
func (b *StoreBackend) FetchKey(ctx context.Context, keyID, userID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kp, err := b.Store.Fetch(keyID, userID)
	if err != nil {
		return nil, err
	}
	return kp.Key, nil
}

func statusOf(state keystore.State) Status {
	switch state {
	case keystore.StateActive:
		return StatusActive
	case keystore.StateRevoked:
		return StatusRevoked
	default:
		return StatusInactive
	}
}
