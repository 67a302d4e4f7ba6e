package workflows

import (
	"context"
	"strings"

	"github.com/sable-health/medlock/internal/keystore"
)

// ListOptions configures the list workflow.
type ListOptions struct {
	// ClinicianID filters records to one clinician.
	ClinicianID string

	// PatientID filters records to one patient.
	PatientID string

	// All includes Inactive and Revoked records. By default only Active
	// records are shown.
	All bool
}

// ListResult contains the outcome of a list operation.
type ListResult struct {
	// Records are the matching key records, newest first.
	Records []*keystore.KeyPair

	// TotalBeforeFilter is the record count before filtering.
	TotalBeforeFilter int
}

// List returns key records from the backend store.
func List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	records, err := store.List()
	if err != nil {
		return nil, err
	}

	result := &ListResult{TotalBeforeFilter: len(records)}
	for _, kp := range records {
		if !opts.All && kp.State != keystore.StateActive {
			continue
		}
		if opts.ClinicianID != "" && !strings.EqualFold(kp.ClinicianID, opts.ClinicianID) {
			continue
		}
		if opts.PatientID != "" && !strings.EqualFold(kp.PatientID, opts.PatientID) {
			continue
		}
		result.Records = append(result.Records, kp)
	}
	return result, nil
}
