package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/sable-health/medlock/internal/audit"
	"github.com/sable-health/medlock/internal/configs"
	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/filecrypt"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// Paths are the plaintext files to encrypt.
	Paths []string

	// Identity overrides the configured user id, mainly for tests.
	Identity string
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// EncryptedFiles lists the .mlock files that were created.
	EncryptedFiles []string

	// SourceFiles lists the plaintext files that were encrypted.
	SourceFiles []string
}

// Encrypt encrypts files with the relationship key cached for this device's
// user. Each output file is the fresh random 12-byte IV followed by the
// GCM ciphertext (tag included), written alongside the original with the
// .mlock extension.
//
// Returns ErrNoCachedKey when no key is cached; callers should run a
// recovery pass first and, failing that, prompt for a rescan.
// Returns ErrNoFilesFound when Paths is empty.
func Encrypt(ctx context.Context, opts EncryptOptions) (*EncryptResult, error) {
	if len(opts.Paths) == 0 {
		return nil, merrors.ErrNoFilesFound
	}

	identity, err := resolveIdentity(opts.Identity)
	if err != nil {
		return nil, err
	}

	cache, err := openCache()
	if err != nil {
		return nil, err
	}
	key, err := cache.Get(identity)
	if err != nil {
		return nil, err
	}

	result := &EncryptResult{}
	for _, path := range opts.Paths {
		plaintext, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		payload, err := filecrypt.Encrypt(plaintext, key)
		if err != nil {
			return nil, fmt.Errorf("encrypting %s: %w", path, err)
		}

		outputPath := path + EncryptedSuffix
		body := append(append([]byte(nil), payload.IV...), payload.Ciphertext...)
		if err := os.WriteFile(outputPath, body, 0600); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outputPath, err)
		}

		result.SourceFiles = append(result.SourceFiles, path)
		result.EncryptedFiles = append(result.EncryptedFiles, outputPath)
	}

	entry := audit.LogWithUser(audit.OpFileEncrypted)
	entry.User = identity
	entry.Files = result.SourceFiles
	audit.Log(entry)

	return result, nil
}

func resolveIdentity(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	config, err := configs.RequireIdentity()
	if err != nil {
		return "", err
	}
	return config.User.ID, nil
}

// HasCachedKey reports whether an encryption key is available for the user
// without touching it.
func HasCachedKey(identity string) (bool, error) {
	id, err := resolveIdentity(identity)
	if err != nil {
		return false, err
	}
	cache, err := openCache()
	if err != nil {
		return false, err
	}
	return cache.Has(id), nil
}
