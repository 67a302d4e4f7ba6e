// Package audit provides audit trail logging for medlock key operations.
//
// Every key lifecycle event and every decryption failure is recorded in a
// device-level audit log. Logging is best-effort: a failure to append must
// never block or fail the operation being logged.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	~/.medlock/audit.jsonl
//
// Each entry carries a UTC timestamp, the acting user id, the operation
// name, a result (OK or FAILED), and operation-specific details.
package audit
