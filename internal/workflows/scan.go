package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/sable-health/medlock/internal/audit"
	"github.com/sable-health/medlock/internal/configs"
	"github.com/sable-health/medlock/internal/exchange"
)

// ScanOptions configures the scan workflow.
type ScanOptions struct {
	// Raw is the scanned exchange payload text.
	Raw string

	// Identity overrides the configured user id, mainly for tests. Empty
	// means use the device identity.
	Identity string
}

// ScanResult contains the outcome of a scan operation.
type ScanResult struct {
	// Payload is the decoded exchange payload.
	Payload *exchange.Payload

	// CounterpartID is the other party on the relationship.
	CounterpartID string
}

// Scan imports a scanned exchange code: the payload is decoded, validated
// against this device's identity, and its key written to the user's cache
// slot.
//
// Returns ErrMalformedPayload for unparseable input, ErrIdentityMismatch
// when the payload was issued for someone else, ErrPayloadExpired past the
// payload's expiry. All three mean "ask the user to rescan", not a crash.
func Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	identity := strings.TrimSpace(opts.Identity)
	if identity == "" {
		config, err := configs.RequireIdentity()
		if err != nil {
			return nil, err
		}
		identity = config.User.ID
	}

	payload, err := exchange.Decode(opts.Raw, identity)
	if err != nil {
		return nil, err
	}

	rawKey, err := payload.RawKey()
	if err != nil {
		return nil, err
	}

	cache, err := openCache()
	if err != nil {
		return nil, err
	}
	if err := cache.Store(rawKey, identity); err != nil {
		return nil, fmt.Errorf("caching scanned key: %w", err)
	}

	counterpart := payload.ClinicianID
	if strings.EqualFold(payload.ClinicianID, identity) {
		counterpart = payload.PatientID
	}

	entry := audit.LogWithUser(audit.OpKeyScanned)
	entry.User = identity
	entry.KeyID = payload.KeyID
	audit.Log(entry)

	return &ScanResult{Payload: payload, CounterpartID: counterpart}, nil
}
