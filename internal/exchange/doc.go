// Package exchange encodes and decodes the out-of-band key transfer payload.
//
// A generated key reaches the counterpart's device as a scannable QR code
// carrying {key_id, doctor_id, patient_id, key, expires_at} as compact JSON.
// Decoding is strict and tagged: a payload that fails the schema is
// ErrMalformedPayload, one issued for a different person is
// ErrIdentityMismatch. The identity check is what stops a device from
// importing a key that belongs to someone else's relationship.
package exchange
