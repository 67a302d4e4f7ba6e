// Package report turns decrypt-path errors into structured, user-facing
// failures. Its only job is classification: callers (and the notification
// layer behind them) need to tell "wrong key" apart from "network hiccup",
// and they do that on the stable Kind, never on error strings.
package report
