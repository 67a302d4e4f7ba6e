// Package configs manages device-local configuration for medlock.
//
// Two kinds of state live under the medlock home directory (~/.medlock,
// overridable with MEDLOCK_HOME):
//
//   - identity.toml: the user this device acts as (id, display name, role)
//   - resolved paths for the key cache, the backend store, and the audit log
//
// Identity is deliberately minimal: account management, login, and roles-based
// routing belong to the surrounding application, not to this subsystem.
package configs
