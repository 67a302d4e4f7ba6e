package workflows

import (
	"context"

	"github.com/sable-health/medlock/internal/audit"
	"github.com/sable-health/medlock/internal/connections"
	"github.com/sable-health/medlock/internal/recovery"
)

// RecoverResult contains the outcome of a recovery pass.
type RecoverResult struct {
	Outcome recovery.Outcome
}

// Recover runs one key recovery pass for the device's user: if no key is
// cached but an active connection exists backend-side, the key is fetched
// and cached silently. A ghost outcome (connection but no recoverable key)
// is reported, not raised; the caller should hint at re-scanning.
func Recover(ctx context.Context, identity string) (*RecoverResult, error) {
	id, err := resolveIdentity(identity)
	if err != nil {
		return nil, err
	}

	cache, err := openCache()
	if err != nil {
		return nil, err
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	agent := recovery.NewAgent(cache, &connections.StoreBackend{Store: store})
	outcome, err := agent.Recover(ctx, id)
	if err != nil {
		return nil, err
	}

	if outcome.State == recovery.StateCached && outcome.KeyID != "" {
		entry := audit.LogWithUser(audit.OpKeyRecovered)
		entry.User = id
		entry.KeyID = outcome.KeyID
		audit.Log(entry)
	}

	return &RecoverResult{Outcome: outcome}, nil
}
