// Package keystore persists per-relationship data-encryption keys.
//
// One KeyPair record holds the 32-byte AES-256 key for one clinician/patient
// relationship, with lifecycle state (Active, Inactive, Revoked), creation
// time, and optional expiry. The store guarantees at most one Active record
// per pair: create and rotate supersede the prior Active record inside a
// single badger transaction, and a racing writer gets ErrDuplicateActiveKey.
//
// Records are sealed at rest with secretbox under a master key the caller
// supplies at Open; badger never sees cleartext key material.
//
// The backend holding raw key material at all is a deliberate trade-off: it
// is what makes silent cache recovery possible on a device that lost its
// key. See the recovery package.
package keystore
