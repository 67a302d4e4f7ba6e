package keystore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/secretbox"

	merrors "github.com/sable-health/medlock/internal/errors"
)

// Key layout inside badger:
//
//	kp/<key-id>                      sealed KeyPair record
//	active/<clinician>/<patient>     id of the current Active record for the pair
//
// Pair index components are normalized (lowercased, trimmed).
const (
	recordPrefix = "kp/"
	activePrefix = "active/"
)

// Store persists KeyPair records in a badger database. Record values are
// sealed with secretbox under a master key held outside the store, so raw
// key material is never on disk in cleartext.
//
// All writes that touch the active-pair index run inside a single badger
// transaction; a conflicting concurrent create or rotate for the same pair
// fails with ErrDuplicateActiveKey instead of leaving two Active records.
type Store struct {
	db     *badger.DB
	master [32]byte
}

// Open opens (or creates) the store at dir. master must be exactly 32 bytes.
func Open(dir string, master []byte) (*Store, error) {
	if len(master) != 32 {
		return nil, fmt.Errorf("%w: store master key must be 32 bytes", merrors.ErrInvalidKey)
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening key store at %s: %w", dir, err)
	}

	s := &Store{db: db}
	copy(s.master[:], master)
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create generates a fresh 32-byte key for the pair and stores it as the
// Active record, superseding any prior Active record for the same pair in
// the same transaction (the prior record transitions to Inactive).
// superseded is the id of that prior record, read inside the transaction,
// or empty if the pair had no Active key.
//
// Returns ErrDuplicateActiveKey if a concurrent create or rotate raced the
// supersede; the caller should retry.
func (s *Store) Create(clinicianID, patientID string, expiresAt *time.Time) (kp *KeyPair, superseded string, err error) {
	return s.createActive(clinicianID, patientID, expiresAt)
}

// Fetch returns the record only if requestingUserID is the clinician or the
// patient on it. Other parties get ErrNotAuthorized, with no hint whether the
// record exists.
func (s *Store) Fetch(keyID, requestingUserID string) (*KeyPair, error) {
	kp, err := s.Get(keyID)
	if err != nil {
		return nil, err
	}
	if !kp.IsParty(requestingUserID) {
		return nil, merrors.ErrNotAuthorized
	}
	return kp, nil
}

// Get returns the record without an authorization check. Reserved for the
// administrative surface.
func (s *Store) Get(keyID string) (*KeyPair, error) {
	var kp *KeyPair
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		kp, err = s.getRecord(txn, keyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return kp, nil
}

// Revoke transitions the record to Revoked and drops it from the active-pair
// index. Revoking a missing or already revoked record is a no-op.
func (s *Store) Revoke(keyID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		kp, err := s.getRecord(txn, keyID)
		if errors.Is(err, merrors.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if kp.State == StateRevoked {
			return nil
		}

		if err := s.dropActiveIndex(txn, kp); err != nil {
			return err
		}
		kp.State = StateRevoked
		return s.putRecord(txn, kp)
	})
	if errors.Is(err, badger.ErrConflict) {
		return merrors.ErrDuplicateActiveKey
	}
	return err
}

// Delete removes the record entirely. Deleting a missing record is a no-op.
// Deletion does not invalidate keys already cached on devices; those keep
// working until the device cache is cleared separately.
func (s *Store) Delete(keyID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		kp, err := s.getRecord(txn, keyID)
		if errors.Is(err, merrors.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.dropActiveIndex(txn, kp); err != nil {
			return err
		}
		return txn.Delete([]byte(recordPrefix + kp.ID))
	})
	if errors.Is(err, badger.ErrConflict) {
		return merrors.ErrDuplicateActiveKey
	}
	return err
}

// Rotate creates a new Active record for the pair of keyID and marks the old
// record Inactive, in one transaction. Files encrypted under the old key are
// not re-encrypted; they remain decryptable only with the old key.
func (s *Store) Rotate(keyID string) (*KeyPair, error) {
	old, err := s.Get(keyID)
	if err != nil {
		return nil, err
	}
	kp, _, err := s.createActive(old.ClinicianID, old.PatientID, old.ExpiresAt)
	return kp, err
}

// List returns all records, newest first.
func (s *Store) List() ([]*KeyPair, error) {
	var records []*KeyPair
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var sealed []byte
			if err := it.Item().Value(func(val []byte) error {
				sealed = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
			kp, err := s.unseal(sealed)
			if err != nil {
				return err
			}
			records = append(records, kp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Newest first. Ties (records minted in the same instant) keep a
	// stable order by id so repeated listings agree.
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// ActiveFor returns the current Active record for a pair, or ErrKeyNotFound.
func (s *Store) ActiveFor(clinicianID, patientID string) (*KeyPair, error) {
	var kp *KeyPair
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairIndexKey(clinicianID, patientID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return merrors.ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		kp, err = s.getRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return kp, nil
}

func (s *Store) createActive(clinicianID, patientID string, expiresAt *time.Time) (*KeyPair, string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, "", fmt.Errorf("generating key material: %w", err)
	}

	kp := &KeyPair{
		ID:          uuid.New().String(),
		ClinicianID: clinicianID,
		PatientID:   patientID,
		Key:         key,
		State:       StateActive,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}

	var superseded string
	err := s.db.Update(func(txn *badger.Txn) error {
		superseded = ""
		indexKey := pairIndexKey(clinicianID, patientID)

		// Supersede the prior Active record for this pair, if any.
		item, err := txn.Get(indexKey)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err == nil {
			var priorID string
			if err := item.Value(func(val []byte) error {
				priorID = string(val)
				return nil
			}); err != nil {
				return err
			}
			prior, err := s.getRecord(txn, priorID)
			if err != nil && !errors.Is(err, merrors.ErrKeyNotFound) {
				return err
			}
			if err == nil && prior.State == StateActive {
				prior.State = StateInactive
				if err := s.putRecord(txn, prior); err != nil {
					return err
				}
				superseded = prior.ID
			}
		}

		if err := s.putRecord(txn, kp); err != nil {
			return err
		}
		return txn.Set(indexKey, []byte(kp.ID))
	})
	if errors.Is(err, badger.ErrConflict) {
		return nil, "", merrors.ErrDuplicateActiveKey
	}
	if err != nil {
		return nil, "", err
	}
	return kp, superseded, nil
}

func (s *Store) getRecord(txn *badger.Txn, keyID string) (*KeyPair, error) {
	item, err := txn.Get([]byte(recordPrefix + keyID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, merrors.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	var sealed []byte
	if err := item.Value(func(val []byte) error {
		sealed = append([]byte(nil), val...)
		return nil
	}); err != nil {
		return nil, err
	}
	return s.unseal(sealed)
}

func (s *Store) putRecord(txn *badger.Txn, kp *KeyPair) error {
	sealed, err := s.seal(kp)
	if err != nil {
		return err
	}
	return txn.Set([]byte(recordPrefix+kp.ID), sealed)
}

// dropActiveIndex removes the pair index entry if it points at kp.
func (s *Store) dropActiveIndex(txn *badger.Txn, kp *KeyPair) error {
	indexKey := pairIndexKey(kp.ClinicianID, kp.PatientID)
	item, err := txn.Get(indexKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var id string
	if err := item.Value(func(val []byte) error {
		id = string(val)
		return nil
	}); err != nil {
		return err
	}
	if id != kp.ID {
		return nil
	}
	return txn.Delete(indexKey)
}

// seal encrypts a record for storage: nonce || secretbox(json).
func (s *Store) seal(kp *KeyPair) ([]byte, error) {
	plaintext, err := json.Marshal(kp)
	if err != nil {
		return nil, err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.master), nil
}

func (s *Store) unseal(sealed []byte) (*KeyPair, error) {
	if len(sealed) <= 24 {
		return nil, fmt.Errorf("sealed record too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.master)
	if !ok {
		return nil, fmt.Errorf("failed to unseal key record: wrong master key or corrupted store")
	}

	var kp KeyPair
	if err := json.Unmarshal(plaintext, &kp); err != nil {
		return nil, fmt.Errorf("decoding key record: %w", err)
	}
	return &kp, nil
}

func pairIndexKey(clinicianID, patientID string) []byte {
	return []byte(activePrefix + normalizeID(clinicianID) + "/" + normalizeID(patientID))
}
