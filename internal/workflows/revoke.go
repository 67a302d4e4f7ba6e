package workflows

import (
	"context"

	"github.com/sable-health/medlock/internal/audit"
)

// Revoke transitions keyID to Revoked. Idempotent: revoking a missing or
// already revoked record succeeds silently.
func Revoke(ctx context.Context, keyID string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Revoke(keyID); err != nil {
		return err
	}

	entry := audit.LogWithUser(audit.OpKeyRevoked)
	entry.KeyID = keyID
	audit.Log(entry)
	return nil
}

// Delete removes the record for keyID entirely. Idempotent.
//
// Keys already cached on devices keep working until each device clears its
// cache; deletion only prevents new exchanges and recoveries.
func Delete(ctx context.Context, keyID string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(keyID); err != nil {
		return err
	}

	entry := audit.LogWithUser(audit.OpKeyDeleted)
	entry.KeyID = keyID
	audit.Log(entry)
	return nil
}
