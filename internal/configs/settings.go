package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// UserSettings holds the resolved device-local paths for the current user.
type UserSettings struct {
	// HomePath is the medlock home directory, normally ~/.medlock.
	HomePath string

	// ConfigPath is the directory holding identity.toml.
	ConfigPath string

	// CachePath is the directory holding per-user sealed key files.
	CachePath string

	// StorePath is the badger directory backing the key record store.
	StorePath string

	// DeviceKeyPath is the file holding this device's cache sealing key.
	DeviceKeyPath string

	// AuditLogPath is the JSONL audit log file.
	AuditLogPath string
}

var UserMedlockSettings *UserSettings

// InitUserSettings resolves the medlock home directory and creates it if
// missing. MEDLOCK_HOME overrides the default for tests and shared setups.
func InitUserSettings() error {
	if UserMedlockSettings != nil {
		return nil
	}

	home := os.Getenv("MEDLOCK_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		home = filepath.Join(userHome, ".medlock")
	}

	settings := &UserSettings{
		HomePath:      home,
		ConfigPath:    home,
		CachePath:     filepath.Join(home, "cache"),
		StorePath:     filepath.Join(home, "store"),
		DeviceKeyPath: filepath.Join(home, "device.key"),
		AuditLogPath:  filepath.Join(home, "audit.jsonl"),
	}

	if err := os.MkdirAll(settings.CachePath, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory at %s: %w", settings.CachePath, err)
	}
	if err := os.MkdirAll(settings.StorePath, 0700); err != nil {
		return fmt.Errorf("failed to create store directory at %s: %w", settings.StorePath, err)
	}

	UserMedlockSettings = settings
	return nil
}

// ResetUserSettings clears the resolved settings so tests can point
// MEDLOCK_HOME at a fresh temp directory.
func ResetUserSettings() {
	UserMedlockSettings = nil
}
