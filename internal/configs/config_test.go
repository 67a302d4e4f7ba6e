package configs

import (
	"errors"
	"path/filepath"
	"testing"

	merrors "github.com/sable-health/medlock/internal/errors"
)

func setupConfigEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("MEDLOCK_HOME", home)
	ResetUserSettings()
	t.Cleanup(ResetUserSettings)
	return home
}

func TestInitUserSettings_HomeOverride(t *testing.T) {
	home := setupConfigEnv(t)

	if err := InitUserSettings(); err != nil {
		t.Fatalf("InitUserSettings failed: %v", err)
	}

	if UserMedlockSettings.HomePath != home {
		t.Errorf("Expected home %s, got %s", home, UserMedlockSettings.HomePath)
	}
	if UserMedlockSettings.CachePath != filepath.Join(home, "cache") {
		t.Errorf("Unexpected cache path: %s", UserMedlockSettings.CachePath)
	}
	if UserMedlockSettings.StorePath != filepath.Join(home, "store") {
		t.Errorf("Unexpected store path: %s", UserMedlockSettings.StorePath)
	}
}

func TestIdentity_SaveAndLoad(t *testing.T) {
	setupConfigEnv(t)

	identity := &IdentityConfig{}
	identity.User.ID = "pt001"
	identity.User.Name = "Pat Example"
	identity.User.Role = RolePatient

	if err := SaveIdentity(identity); err != nil {
		t.Fatalf("SaveIdentity failed: %v", err)
	}

	loaded, err := LoadIdentity()
	if err != nil {
		t.Fatalf("LoadIdentity failed: %v", err)
	}
	if loaded.User.ID != "pt001" {
		t.Errorf("Expected user id pt001, got %q", loaded.User.ID)
	}
	if loaded.User.Role != RolePatient {
		t.Errorf("Expected role patient, got %q", loaded.User.Role)
	}
}

func TestLoadIdentity_MissingFileIsEmpty(t *testing.T) {
	setupConfigEnv(t)

	loaded, err := LoadIdentity()
	if err != nil {
		t.Fatalf("LoadIdentity failed: %v", err)
	}
	if loaded.User.ID != "" {
		t.Errorf("Expected empty identity, got %q", loaded.User.ID)
	}
}

func TestRequireIdentity_Unconfigured(t *testing.T) {
	setupConfigEnv(t)

	if _, err := RequireIdentity(); !errors.Is(err, merrors.ErrIdentityNotConfigured) {
		t.Errorf("Expected ErrIdentityNotConfigured, got %v", err)
	}
}
