// Package recovery re-populates the device key cache from the backend.
//
// A device can lose its cache (reinstall, storage wipe, logout) while the
// relationship stays active server-side: a ghost connection. The agent walks
// the user's active, non-expired connections and imports the first key the
// backend will hand over. A pass that finds
// connections but no key leaves the user in the Ghost state with a hint to
// re-scan the exchange code; it never blocks login.
package recovery
