package keycache

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"

	merrors "github.com/sable-health/medlock/internal/errors"
)

// CachedKey is what a cache file holds once unsealed. The user id travels
// with the key so a file can never satisfy a read for a different identity,
// even if file names collide after sanitization.
type CachedKey struct {
	UserID string `json:"user_id"`
	Key    []byte `json:"key"`
}

// Cache stores one sealed key file per user id under dir. Files are sealed
// with secretbox under a per-device key, so the cache is never cleartext on
// disk. There is exactly one slot per user, never a shared ambient slot.
type Cache struct {
	dir       string
	deviceKey [32]byte
}

// Open prepares the cache directory and loads the device sealing key,
// creating it on first use (32 random bytes, mode 0600).
func Open(dir, deviceKeyPath string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory at %s: %w", dir, err)
	}

	deviceKey, err := loadOrCreateDeviceKey(deviceKeyPath)
	if err != nil {
		return nil, err
	}

	c := &Cache{dir: dir}
	copy(c.deviceKey[:], deviceKey)
	return c, nil
}

// Has reports whether a usable key is cached for userID on this device.
// A slot that exists but cannot be unsealed (device key changed, file
// corrupted) counts as absent, so callers that gate recovery on Has still
// repopulate it.
func (c *Cache) Has(userID string) bool {
	_, err := c.Get(userID)
	return err == nil
}

// Store seals rawKey for userID and writes it to the user's slot,
// replacing any prior key.
func (c *Cache) Store(rawKey []byte, userID string) error {
	if len(rawKey) != 32 {
		return fmt.Errorf("%w: expected 32 bytes, got %d", merrors.ErrInvalidKey, len(rawKey))
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user id", merrors.ErrIdentityNotConfigured)
	}

	plaintext, err := json.Marshal(CachedKey{
		UserID: normalizeUserID(userID),
		Key:    rawKey,
	})
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.deviceKey)

	if err := os.WriteFile(c.pathFor(userID), sealed, 0600); err != nil {
		return fmt.Errorf("writing cached key: %w", err)
	}
	return nil
}

// Get returns the raw key cached for userID.
// Returns ErrNoCachedKey if the slot is empty.
func (c *Cache) Get(userID string) ([]byte, error) {
	sealed, err := os.ReadFile(c.pathFor(userID))
	if os.IsNotExist(err) {
		return nil, merrors.ErrNoCachedKey
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached key: %w", err)
	}

	if len(sealed) <= 24 {
		return nil, fmt.Errorf("%w: cache file too short", merrors.ErrNoCachedKey)
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &c.deviceKey)
	if !ok {
		// Device key changed or file corrupted. Treat as absent; recovery
		// or a re-scan will repopulate the slot.
		return nil, merrors.ErrNoCachedKey
	}

	var cached CachedKey
	if err := json.Unmarshal(plaintext, &cached); err != nil {
		return nil, merrors.ErrNoCachedKey
	}
	if cached.UserID != normalizeUserID(userID) {
		return nil, merrors.ErrNoCachedKey
	}
	return cached.Key, nil
}

// Clear removes the cached key for userID. Clearing an empty slot is a no-op.
func (c *Cache) Clear(userID string) error {
	err := os.Remove(c.pathFor(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing cached key: %w", err)
	}
	return nil
}

func (c *Cache) pathFor(userID string) string {
	return filepath.Join(c.dir, sanitizeFilename(normalizeUserID(userID))+".key")
}

func normalizeUserID(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

// sanitizeFilename keeps cache file names inside the cache directory no
// matter what the id contains. Collisions are harmless: the sealed payload
// carries the real user id and Get verifies it.
func sanitizeFilename(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func loadOrCreateDeviceKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != 32 {
			return nil, fmt.Errorf("%w: device key at %s is not 32 bytes", merrors.ErrInvalidKey, path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading device key: %w", err)
	}

	key = make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generating device key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating device key directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("writing device key: %w", err)
	}
	return key, nil
}
