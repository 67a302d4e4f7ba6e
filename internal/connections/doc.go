// Package connections exposes the relationship view of the key store that
// the recovery agent and the status command consume. The Lister and
// KeyFetcher interfaces are the seam where a remote identity service plugs
// in; StoreBackend is the local implementation.
package connections
