package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	merrors "github.com/sable-health/medlock/internal/errors"
)

// Role is the relationship role of the configured identity.
type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
	RoleAdmin     Role = "admin"
)

// IdentityConfig is the device-local identity file.
type IdentityConfig struct {
	User User `toml:"user"`
}

type User struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	Role Role   `toml:"role"`
}

// LoadIdentity loads the identity configuration from identity.toml.
// A missing file returns an empty config, not an error.
func LoadIdentity() (*IdentityConfig, error) {
	if err := InitUserSettings(); err != nil {
		return nil, err
	}
	configPath := filepath.Join(UserMedlockSettings.ConfigPath, "identity.toml")

	config := &IdentityConfig{}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := LoadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load identity config: %w", err)
	}
	return config, nil
}

// SaveIdentity saves the identity configuration to identity.toml.
func SaveIdentity(config *IdentityConfig) error {
	if err := InitUserSettings(); err != nil {
		return err
	}
	configPath := filepath.Join(UserMedlockSettings.ConfigPath, "identity.toml")

	if err := SaveTOML(configPath, config); err != nil {
		return fmt.Errorf("failed to save identity config: %w", err)
	}
	return nil
}

// RequireIdentity loads the identity and fails if no user id is configured.
func RequireIdentity() (*IdentityConfig, error) {
	config, err := LoadIdentity()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(config.User.ID) == "" {
		return nil, merrors.ErrIdentityNotConfigured
	}
	return config, nil
}
