// Package keycache is the device-local, per-user store for relationship
// keys.
//
// Each user id on the device gets its own sealed slot; switching accounts on
// a shared device can never read another user's key, and there is no global
// "current key" slot. Slots are created on a successful exchange-code scan
// or a recovery pass, read on every encrypt/decrypt, and destroyed on
// logout.
package keycache
