package exchange

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/keystore"
)

// MaxEncodedSize caps the encoded payload so the rendered code stays
// scannable on a phone camera.
const MaxEncodedSize = 300

// Payload is the out-of-band key transfer bundle. It exists only in transit:
// rendered into a scannable code by the issuing side, parsed back on the
// receiving device, then handed to the key cache. Its loss is equivalent to
// key compromise.
type Payload struct {
	KeyID       string     `json:"key_id"`
	ClinicianID string     `json:"doctor_id"`
	PatientID   string     `json:"patient_id"`
	Key         string     `json:"key"` // base64 of the raw 32-byte DEK
	ExpiresAt   *time.Time `json:"expires_at"`
}

// RawKey decodes the base64 key material.
func (p *Payload) RawKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(p.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid base64", merrors.ErrMalformedPayload)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: key is %d bytes, expected 32", merrors.ErrMalformedPayload, len(key))
	}
	return key, nil
}

// Expired reports whether the payload's expiry, if any, has passed.
func (p *Payload) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Encode serializes a key record into the transfer payload text.
func Encode(kp *keystore.KeyPair) (string, error) {
	payload := Payload{
		KeyID:       kp.ID,
		ClinicianID: kp.ClinicianID,
		PatientID:   kp.PatientID,
		Key:         base64.StdEncoding.EncodeToString(kp.Key),
		ExpiresAt:   kp.ExpiresAt,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding exchange payload: %w", err)
	}
	if len(data) > MaxEncodedSize {
		return "", fmt.Errorf("encoded payload is %d bytes, exceeds the %d byte scannable limit", len(data), MaxEncodedSize)
	}
	return string(data), nil
}

// Decode parses scanned exchange text and validates it for expectedIdentity.
//
// The schema is strict: every field must be present, identifiers non-empty,
// the key exactly 32 bytes after base64, and no unknown fields. Anything
// else is ErrMalformedPayload. A payload issued for someone else fails with
// ErrIdentityMismatch (identifiers compare case-insensitively); an expired
// payload fails with ErrPayloadExpired. Both are recoverable by rescanning,
// never a crash.
func Decode(scanned string, expectedIdentity string) (*Payload, error) {
	var payload Payload
	dec := json.NewDecoder(bytes.NewReader([]byte(scanned)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", merrors.ErrMalformedPayload, err)
	}

	if strings.TrimSpace(payload.KeyID) == "" ||
		strings.TrimSpace(payload.ClinicianID) == "" ||
		strings.TrimSpace(payload.PatientID) == "" {
		return nil, fmt.Errorf("%w: missing required field", merrors.ErrMalformedPayload)
	}
	if _, err := payload.RawKey(); err != nil {
		return nil, err
	}

	if !strings.EqualFold(payload.ClinicianID, expectedIdentity) &&
		!strings.EqualFold(payload.PatientID, expectedIdentity) {
		return nil, fmt.Errorf("%w: payload is for %s/%s, not %s",
			merrors.ErrIdentityMismatch, payload.ClinicianID, payload.PatientID, expectedIdentity)
	}

	if payload.Expired(time.Now()) {
		return nil, merrors.ErrPayloadExpired
	}
	return &payload, nil
}
