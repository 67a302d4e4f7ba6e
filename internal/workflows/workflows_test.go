package workflows

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sable-health/medlock/internal/audit"
	"github.com/sable-health/medlock/internal/configs"
	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/keystore"
	"github.com/sable-health/medlock/internal/recovery"
	"github.com/sable-health/medlock/internal/report"
)

// setupEnv points all device-local state at a fresh temp home.
func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MEDLOCK_HOME", t.TempDir())
	configs.ResetUserSettings()
	t.Cleanup(configs.ResetUserSettings)
}

// setIdentity writes the device identity file.
func setIdentity(t *testing.T, id string, role configs.Role) {
	t.Helper()
	identity := &configs.IdentityConfig{}
	identity.User.ID = id
	identity.User.Role = role
	if err := configs.SaveIdentity(identity); err != nil {
		t.Fatalf("Failed to save identity: %v", err)
	}
}

// writeTestFile creates a plaintext file to feed the encrypt workflow.
func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestGenerateScanEncryptDecrypt(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gen.KeyPair.State != keystore.StateActive {
		t.Errorf("Expected active key, got %s", gen.KeyPair.State)
	}
	if gen.EncodedPayload == "" {
		t.Fatalf("Expected an exchange payload")
	}

	scan, err := Scan(ctx, ScanOptions{Raw: gen.EncodedPayload})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scan.CounterpartID != "DR001" {
		t.Errorf("Expected counterpart DR001, got %s", scan.CounterpartID)
	}

	content := []byte("MRI results attached")
	source := writeTestFile(t, "report.txt", content)

	enc, err := Encrypt(ctx, EncryptOptions{Paths: []string{source}})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(enc.EncryptedFiles) != 1 {
		t.Fatalf("Expected 1 encrypted file, got %d", len(enc.EncryptedFiles))
	}
	encPath := enc.EncryptedFiles[0]
	if filepath.Ext(encPath) != EncryptedSuffix {
		t.Errorf("Expected %s suffix, got %s", EncryptedSuffix, encPath)
	}

	encrypted, err := os.ReadFile(encPath)
	if err != nil {
		t.Fatalf("Failed to read encrypted file: %v", err)
	}
	if bytes.Contains(encrypted, content) {
		t.Errorf("Plaintext visible in the encrypted file")
	}

	// Remove the original so the decrypted output proves itself.
	if err := os.Remove(source); err != nil {
		t.Fatalf("Failed to remove source: %v", err)
	}

	dec, failure := Decrypt(ctx, DecryptOptions{Paths: []string{encPath}})
	if failure != nil {
		t.Fatalf("Decrypt failed: %v", failure)
	}
	if len(dec.DecryptedFiles) != 1 {
		t.Fatalf("Expected 1 decrypted file, got %d", len(dec.DecryptedFiles))
	}
	if dec.DecryptedFiles[0] != source {
		t.Errorf("Expected output at %s, got %s", source, dec.DecryptedFiles[0])
	}

	got, err := os.ReadFile(dec.DecryptedFiles[0])
	if err != nil {
		t.Fatalf("Failed to read decrypted file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("Round trip mismatch: got %q, want %q", got, content)
	}
}

func TestScan_WrongIdentity(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT002", configs.RolePatient)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := Scan(ctx, ScanOptions{Raw: gen.EncodedPayload}); !errors.Is(err, merrors.ErrIdentityMismatch) {
		t.Errorf("Expected ErrIdentityMismatch for PT002, got %v", err)
	}
}

func TestScan_NoIdentityConfigured(t *testing.T) {
	setupEnv(t)

	if _, err := Scan(context.Background(), ScanOptions{Raw: "{}"}); !errors.Is(err, merrors.ErrIdentityNotConfigured) {
		t.Errorf("Expected ErrIdentityNotConfigured, got %v", err)
	}
}

func TestEncrypt_NoCachedKey(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)

	source := writeTestFile(t, "report.txt", []byte("content"))
	if _, err := Encrypt(context.Background(), EncryptOptions{Paths: []string{source}}); !errors.Is(err, merrors.ErrNoCachedKey) {
		t.Errorf("Expected ErrNoCachedKey, got %v", err)
	}
}

func TestEncrypt_NoFiles(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)

	if _, err := Encrypt(context.Background(), EncryptOptions{}); !errors.Is(err, merrors.ErrNoFilesFound) {
		t.Errorf("Expected ErrNoFilesFound, got %v", err)
	}
}

func TestDecrypt_StaleKeyAfterRotation(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := Scan(ctx, ScanOptions{Raw: gen.EncodedPayload}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	source := writeTestFile(t, "report.txt", []byte("old key content"))
	enc, err := Encrypt(ctx, EncryptOptions{Paths: []string{source}})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Rotate and adopt the replacement key on this device.
	rot, err := Rotate(ctx, gen.KeyPair.ID)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if rot.OldKeyID != gen.KeyPair.ID {
		t.Errorf("Expected old key id %s, got %s", gen.KeyPair.ID, rot.OldKeyID)
	}
	if _, err := Scan(ctx, ScanOptions{Raw: rot.EncodedPayload}); err != nil {
		t.Fatalf("Scan of rotated payload failed: %v", err)
	}

	// Files encrypted under the old key are not re-encrypted; decrypting
	// them with the new key must surface as an authentication failure.
	_, failure := Decrypt(ctx, DecryptOptions{Paths: enc.EncryptedFiles})
	if failure == nil {
		t.Fatalf("Expected a failure decrypting with the rotated key")
	}
	if failure.Kind != report.KindAuthenticationFailed {
		t.Errorf("Expected authentication_failed, got %s", failure.Kind)
	}

	// The failure must land in the audit log with result FAILED.
	entries, err := audit.ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Operation == audit.OpDecryptionFailed && e.Result == audit.ResultFailed {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a decryption_failed audit entry")
	}
}

func TestDecrypt_TamperedFile(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := Scan(ctx, ScanOptions{Raw: gen.EncodedPayload}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	source := writeTestFile(t, "report.txt", []byte("untampered"))
	enc, err := Encrypt(ctx, EncryptOptions{Paths: []string{source}})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	encPath := enc.EncryptedFiles[0]
	body, err := os.ReadFile(encPath)
	if err != nil {
		t.Fatalf("Failed to read encrypted file: %v", err)
	}
	body[len(body)-1] ^= 0x01
	if err := os.WriteFile(encPath, body, 0600); err != nil {
		t.Fatalf("Failed to write tampered file: %v", err)
	}

	_, failure := Decrypt(ctx, DecryptOptions{Paths: []string{encPath}})
	if failure == nil || failure.Kind != report.KindAuthenticationFailed {
		t.Errorf("Expected authentication_failed for tampered file, got %v", failure)
	}
}

func TestRecover_RepopulatesCache(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// No scan happened; the device has a backend connection but no key.
	has, err := HasCachedKey("")
	if err != nil {
		t.Fatalf("HasCachedKey failed: %v", err)
	}
	if has {
		t.Fatalf("Expected an empty cache before recovery")
	}

	rec, err := Recover(ctx, "")
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if rec.Outcome.State != recovery.StateCached {
		t.Fatalf("Expected cached outcome, got %s", rec.Outcome.State)
	}
	if rec.Outcome.KeyID != gen.KeyPair.ID {
		t.Errorf("Expected recovery from %s, got %s", gen.KeyPair.ID, rec.Outcome.KeyID)
	}

	// The recovered key encrypts like a scanned one.
	source := writeTestFile(t, "report.txt", []byte("recovered"))
	if _, err := Encrypt(ctx, EncryptOptions{Paths: []string{source}}); err != nil {
		t.Errorf("Encrypt after recovery failed: %v", err)
	}
}

func TestRecover_NothingToRecoverFrom(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := Revoke(ctx, gen.KeyPair.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	rec, err := Recover(ctx, "")
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}
	if rec.Outcome.State != recovery.StateNoKey {
		t.Errorf("Expected no_key after revocation, got %s", rec.Outcome.State)
	}
}

func TestList_Filters(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "DR001", configs.RoleClinician)
	ctx := context.Background()

	first, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT002"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Default listing shows only active records: the superseded key for
	// PT001 drops out.
	res, err := List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(res.Records) != 2 {
		t.Errorf("Expected 2 active records, got %d", len(res.Records))
	}
	if res.TotalBeforeFilter != 3 {
		t.Errorf("Expected 3 records total, got %d", res.TotalBeforeFilter)
	}
	for _, kp := range res.Records {
		if kp.ID == first.KeyPair.ID {
			t.Errorf("Superseded record should not appear in the default listing")
		}
	}

	res, err = List(ctx, ListOptions{PatientID: "pt002"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(res.Records) != 1 || res.Records[0].PatientID != "PT002" {
		t.Errorf("Patient filter did not narrow to PT002")
	}

	res, err = List(ctx, ListOptions{All: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(res.Records) != 3 {
		t.Errorf("Expected all 3 records with All, got %d", len(res.Records))
	}
}

func TestStatusAndLogout(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "PT001", configs.RolePatient)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := Scan(ctx, ScanOptions{Raw: gen.EncodedPayload}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	status, err := Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.UserID != "PT001" || status.Role != configs.RolePatient {
		t.Errorf("Identity not echoed: %s/%s", status.UserID, status.Role)
	}
	if !status.HasCachedKey {
		t.Errorf("Expected a cached key after scan")
	}
	if len(status.Connections) != 1 {
		t.Fatalf("Expected 1 connection, got %d", len(status.Connections))
	}
	if status.Connections[0].CounterpartID != "DR001" {
		t.Errorf("Expected counterpart DR001, got %s", status.Connections[0].CounterpartID)
	}

	id, err := Logout(ctx)
	if err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if id != "PT001" {
		t.Errorf("Expected logout for PT001, got %s", id)
	}

	status, err = Status(ctx)
	if err != nil {
		t.Fatalf("Status after logout failed: %v", err)
	}
	if status.HasCachedKey {
		t.Errorf("Expected no cached key after logout")
	}
	// The backend connection survives a local logout.
	if len(status.Connections) != 1 {
		t.Errorf("Expected the connection to survive logout, got %d", len(status.Connections))
	}
}

func TestRevokeAndDelete_Idempotent(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "DR001", configs.RoleClinician)
	ctx := context.Background()

	gen, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := Revoke(ctx, gen.KeyPair.ID); err != nil {
			t.Fatalf("Revoke %d failed: %v", i, err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := Delete(ctx, gen.KeyPair.ID); err != nil {
			t.Fatalf("Delete %d failed: %v", i, err)
		}
	}
	if err := Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete of unknown id failed: %v", err)
	}
}

func TestExport_OnlyActiveKeys(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "DR001", configs.RoleClinician)
	ctx := context.Background()

	first, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	exp, err := Export(ctx, first.KeyPair.ID)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if exp.EncodedPayload != first.EncodedPayload {
		t.Errorf("Exported payload differs from the generated one")
	}

	// Supersede the key; the stale record must refuse to export.
	if _, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := Export(ctx, first.KeyPair.ID); err == nil {
		t.Errorf("Expected export of a superseded key to fail")
	}

	if _, err := Export(ctx, "no-such-id"); !errors.Is(err, merrors.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestGenerate_SupersedeReported(t *testing.T) {
	setupEnv(t)
	setIdentity(t, "DR001", configs.RoleClinician)
	ctx := context.Background()

	first, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("First generate failed: %v", err)
	}
	if first.Superseded != "" {
		t.Errorf("First key should supersede nothing, got %s", first.Superseded)
	}

	second, err := Generate(ctx, GenerateOptions{ClinicianID: "DR001", PatientID: "PT001"})
	if err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}
	if second.Superseded != first.KeyPair.ID {
		t.Errorf("Expected supersede of %s, got %s", first.KeyPair.ID, second.Superseded)
	}
}
