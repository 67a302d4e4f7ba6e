package workflows

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sable-health/medlock/internal/configs"
	"github.com/sable-health/medlock/internal/keycache"
	"github.com/sable-health/medlock/internal/keystore"
)

// EncryptedSuffix marks files produced by the encrypt workflow.
const EncryptedSuffix = ".mlock"

// openStore opens the backend key record store, creating the store master
// key on first use. The master key lives next to the store, outside the
// store directory itself, standing in for the external secret holder of the
// deployed system.
func openStore() (*keystore.Store, error) {
	if err := configs.InitUserSettings(); err != nil {
		return nil, err
	}
	settings := configs.UserMedlockSettings

	master, err := loadOrCreateMasterKey(filepath.Join(settings.HomePath, "store.key"))
	if err != nil {
		return nil, err
	}

	store, err := keystore.Open(settings.StorePath, master)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// openCache opens the device-local key cache.
func openCache() (*keycache.Cache, error) {
	if err := configs.InitUserSettings(); err != nil {
		return nil, err
	}
	settings := configs.UserMedlockSettings
	return keycache.Open(settings.CachePath, settings.DeviceKeyPath)
}

func loadOrCreateMasterKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != 32 {
			return nil, fmt.Errorf("store master key at %s is not 32 bytes", path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading store master key: %w", err)
	}

	key = make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generating store master key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating store master key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("writing store master key: %w", err)
	}
	return key, nil
}
