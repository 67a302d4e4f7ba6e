package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sable-health/medlock/internal/audit"
	"github.com/sable-health/medlock/internal/exchange"
	"github.com/sable-health/medlock/internal/keystore"
)

// GenerateOptions configures the generate workflow.
type GenerateOptions struct {
	// ClinicianID and PatientID identify the relationship the key serves.
	ClinicianID string
	PatientID   string

	// ExpiresAt optionally bounds the key's lifetime.
	ExpiresAt *time.Time
}

// GenerateResult contains the outcome of a generate operation.
type GenerateResult struct {
	// KeyPair is the newly created Active record.
	KeyPair *keystore.KeyPair

	// EncodedPayload is the exchange payload text, ready for QR rendering.
	EncodedPayload string

	// Superseded is the id of the prior Active record for the pair, if one
	// was transitioned to Inactive.
	Superseded string
}

// Generate creates a new data-encryption key for a clinician/patient pair
// and produces the exchange payload an operator renders for scanning.
//
// Any prior Active key for the pair is superseded (not duplicated) in the
// same transaction. Returns ErrDuplicateActiveKey if a concurrent generate
// or rotate raced the supersede; the caller should retry.
func Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	clinicianID := strings.TrimSpace(opts.ClinicianID)
	patientID := strings.TrimSpace(opts.PatientID)
	if clinicianID == "" || patientID == "" {
		return nil, fmt.Errorf("clinician and patient ids are required")
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	kp, superseded, err := store.Create(clinicianID, patientID, opts.ExpiresAt)
	if err != nil {
		return nil, err
	}

	encoded, err := exchange.Encode(kp)
	if err != nil {
		return nil, err
	}

	entry := audit.LogWithUser(audit.OpKeyGenerated)
	entry.KeyID = kp.ID
	entry.ClinicianID = kp.ClinicianID
	entry.PatientID = kp.PatientID
	audit.Log(entry)

	return &GenerateResult{
		KeyPair:        kp,
		EncodedPayload: encoded,
		Superseded:     superseded,
	}, nil
}
