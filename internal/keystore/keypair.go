package keystore

import (
	"strings"
	"time"
)

// State is the lifecycle state of a key record.
type State string

const (
	// StateActive marks the single usable key for a clinician/patient pair.
	StateActive State = "active"

	// StateInactive marks a key superseded by rotation. Files encrypted under
	// it remain decryptable only with this key; it is never re-issued.
	StateInactive State = "inactive"

	// StateRevoked marks a key withdrawn by an operator.
	StateRevoked State = "revoked"
)

// KeyPair is the backend record of one data-encryption key for one
// clinician/patient relationship. At most one Active record exists per pair;
// create and rotate supersede the prior Active record atomically.
type KeyPair struct {
	ID          string     `json:"id"`
	ClinicianID string     `json:"clinician_id"`
	PatientID   string     `json:"patient_id"`
	Key         []byte     `json:"key"` // raw 32-byte DEK
	State       State      `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// IsParty reports whether userID is the clinician or the patient on this
// record. Identifiers compare case-insensitively.
func (kp *KeyPair) IsParty(userID string) bool {
	return strings.EqualFold(kp.ClinicianID, userID) || strings.EqualFold(kp.PatientID, userID)
}

// CounterpartOf returns the other party's id for userID, or empty if userID
// is not a party.
func (kp *KeyPair) CounterpartOf(userID string) string {
	switch {
	case strings.EqualFold(kp.ClinicianID, userID):
		return kp.PatientID
	case strings.EqualFold(kp.PatientID, userID):
		return kp.ClinicianID
	}
	return ""
}

// Expired reports whether the record's expiry, if any, has passed.
func (kp *KeyPair) Expired(now time.Time) bool {
	return kp.ExpiresAt != nil && now.After(*kp.ExpiresAt)
}

// Usable reports whether the record is Active and not expired.
func (kp *KeyPair) Usable(now time.Time) bool {
	return kp.State == StateActive && !kp.Expired(now)
}

// normalizeID lowercases and trims an identifier for index keys and
// comparisons.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
