package workflows

import (
	"context"

	"github.com/sable-health/medlock/internal/audit"
	"github.com/sable-health/medlock/internal/exchange"
	"github.com/sable-health/medlock/internal/keystore"
)

// RotateResult contains the outcome of a rotate operation.
type RotateResult struct {
	// OldKeyID is the record that was transitioned to Inactive.
	OldKeyID string

	// KeyPair is the replacement Active record.
	KeyPair *keystore.KeyPair

	// EncodedPayload is the new exchange payload for distribution.
	EncodedPayload string
}

// Rotate replaces the key for the relationship of keyID: a new Active record
// is created and the old one marked Inactive in one transaction.
//
// Files encrypted before rotation are not re-encrypted. They stay readable
// only by holders of the old key; devices need the new exchange code to
// encrypt or decrypt anything new.
//
// Returns ErrKeyNotFound if keyID does not exist, ErrDuplicateActiveKey on a
// racing supersede (retryable).
func Rotate(ctx context.Context, keyID string) (*RotateResult, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	kp, err := store.Rotate(keyID)
	if err != nil {
		return nil, err
	}

	encoded, err := exchange.Encode(kp)
	if err != nil {
		return nil, err
	}

	entry := audit.LogWithUser(audit.OpKeyRotated)
	entry.KeyID = kp.ID
	entry.ClinicianID = kp.ClinicianID
	entry.PatientID = kp.PatientID
	entry.Detail = "replaces " + keyID
	audit.Log(entry)

	return &RotateResult{
		OldKeyID:       keyID,
		KeyPair:        kp,
		EncodedPayload: encoded,
	}, nil
}
