package audit

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sable-health/medlock/internal/configs"
)

// Operation names recorded in the audit log.
const (
	OpKeyGenerated     = "key_generated"
	OpKeyRotated       = "key_rotated"
	OpKeyRevoked       = "key_revoked"
	OpKeyDeleted       = "key_deleted"
	OpKeyScanned       = "key_scanned"
	OpKeyRecovered     = "key_recovered"
	OpFileEncrypted    = "file_encrypted"
	OpDecryptionFailed = "decryption_failed"
	OpFileDecrypted    = "file_decrypted"
)

// Results recorded with an entry.
const (
	ResultOK     = "OK"
	ResultFailed = "FAILED"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Id of user performing action.
	Operation string `json:"op"`   // Operation name.
	Result    string `json:"result"`

	// Optional fields depending on operation.
	KeyID       string   `json:"key_id,omitempty"`
	ClinicianID string   `json:"clinician_id,omitempty"` // For generate/rotate.
	PatientID   string   `json:"patient_id,omitempty"`   // For generate/rotate.
	Files       []string `json:"files,omitempty"`        // For encrypt/decrypt.
	Detail      string   `json:"detail,omitempty"`       // For failures.
}

// Log appends an entry to the audit log.
// If logging fails, the entry is dropped silently. Cryptographic operations
// must never fail because the audit sink is unavailable.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.Result == "" {
		entry.Result = ResultOK
	}

	if err := configs.InitUserSettings(); err != nil {
		return
	}
	logPath := configs.UserMedlockSettings.AuditLogPath

	// Open file for appending (create if doesn't exist).
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// LogWithUser creates an entry pre-populated with the configured identity.
func LogWithUser(op string) Entry {
	entry := Entry{Operation: op}

	identity, err := configs.LoadIdentity()
	if err != nil {
		return entry
	}

	entry.User = identity.User.ID
	return entry
}

// LogPath returns the path to the audit log file, or empty if settings
// cannot be resolved.
func LogPath() string {
	if err := configs.InitUserSettings(); err != nil {
		return ""
	}
	return configs.UserMedlockSettings.AuditLogPath
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
