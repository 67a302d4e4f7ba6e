package workflows

import (
	"context"
	"fmt"

	"github.com/sable-health/medlock/internal/exchange"
	"github.com/sable-health/medlock/internal/keystore"
)

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	// KeyPair is the exported record.
	KeyPair *keystore.KeyPair

	// EncodedPayload is the exchange payload text for QR rendering.
	EncodedPayload string
}

// Export re-renders the exchange payload for an existing record so the code
// can be distributed again, for example to a replacement device.
//
// Only Active records can be exported; a superseded or revoked key must not
// circulate as a fresh code. Returns ErrKeyNotFound for unknown ids.
func Export(ctx context.Context, keyID string) (*ExportResult, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	kp, err := store.Get(keyID)
	if err != nil {
		return nil, err
	}
	if kp.State != keystore.StateActive {
		return nil, fmt.Errorf("key %s is %s; only active keys can be exported", kp.ID, kp.State)
	}

	encoded, err := exchange.Encode(kp)
	if err != nil {
		return nil, err
	}

	return &ExportResult{KeyPair: kp, EncodedPayload: encoded}, nil
}
