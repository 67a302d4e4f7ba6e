package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sable-health/medlock/internal/audit"
	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/filecrypt"
	"github.com/sable-health/medlock/internal/report"
)

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// Paths are the .mlock files to decrypt.
	Paths []string

	// Identity overrides the configured user id, mainly for tests.
	Identity string
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	// DecryptedFiles lists the plaintext files that were written.
	DecryptedFiles []string
}

// Decrypt decrypts .mlock files with the user's cached relationship key and
// writes the plaintext alongside, stripping the suffix.
//
// Failures come back as a classified *report.Failure so the caller can show
// an authentication failure (wrong or rotated key, tampered file) as its own
// thing and never as a generic error. Every authentication failure is also
// written to the audit log with result FAILED. A classified failure stops
// the run; files already written stay.
func Decrypt(ctx context.Context, opts DecryptOptions) (*DecryptResult, *report.Failure) {
	if len(opts.Paths) == 0 {
		return nil, report.Classify(merrors.ErrNoFilesFound)
	}

	identity, err := resolveIdentity(opts.Identity)
	if err != nil {
		return nil, report.Classify(err)
	}

	cache, err := openCache()
	if err != nil {
		return nil, report.Classify(err)
	}
	key, err := cache.Get(identity)
	if err != nil {
		return nil, report.Classify(err)
	}

	result := &DecryptResult{}
	for _, path := range opts.Paths {
		body, err := os.ReadFile(path)
		if err != nil {
			return result, report.Classify(fmt.Errorf("reading %s: %w", path, err))
		}
		if len(body) < filecrypt.IVSize+filecrypt.TagSize {
			return result, report.Classify(fmt.Errorf("%w: %s is too short to be an encrypted payload",
				merrors.ErrMalformedInput, path))
		}

		payload := &filecrypt.Payload{
			IV:         body[:filecrypt.IVSize],
			Ciphertext: body[filecrypt.IVSize:],
			Algorithm:  filecrypt.Algorithm,
		}

		plaintext, failure := report.Decrypt(payload, key)
		if failure != nil {
			if failure.Kind == report.KindAuthenticationFailed {
				entry := audit.LogWithUser(audit.OpDecryptionFailed)
				entry.User = identity
				entry.Result = audit.ResultFailed
				entry.Files = []string{path}
				entry.Detail = string(failure.Kind)
				audit.Log(entry)
			}
			return result, failure
		}

		outputPath := strings.TrimSuffix(path, EncryptedSuffix)
		if outputPath == path {
			outputPath = path + ".out"
		}
		if err := os.WriteFile(outputPath, plaintext, 0600); err != nil {
			return result, report.Classify(fmt.Errorf("writing %s: %w", outputPath, err))
		}
		result.DecryptedFiles = append(result.DecryptedFiles, outputPath)
	}

	entry := audit.LogWithUser(audit.OpFileDecrypted)
	entry.User = identity
	entry.Files = result.DecryptedFiles
	audit.Log(entry)

	return result, nil
}
