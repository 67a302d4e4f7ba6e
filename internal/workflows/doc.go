// Package workflows implements the operations behind each medlock command.
//
// Each workflow takes an Options struct, returns a Result struct, and leaves
// presentation to the cmd layer. The administrative workflows (Generate,
// Rotate, Revoke, Delete, List, Export) drive the backend key store; the
// device workflows (Scan, Encrypt, Decrypt, Recover, Status, Logout) drive
// the local cache. Audit logging happens here, fire-and-forget, so a dead
// audit sink never fails an operation.
package workflows
