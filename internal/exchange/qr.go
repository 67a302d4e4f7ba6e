package exchange

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// WritePNG renders the encoded payload as a QR code PNG at path.
func WritePNG(encoded string, size int, path string) error {
	if size <= 0 {
		size = 256
	}
	if err := qrcode.WriteFile(encoded, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("writing QR code to %s: %w", path, err)
	}
	return nil
}

// TerminalString renders the encoded payload as a QR code made of terminal
// block characters, suitable for scanning straight off the screen.
func TerminalString(encoded string) (string, error) {
	qr, err := qrcode.New(encoded, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("building QR code: %w", err)
	}
	return qr.ToSmallString(false), nil
}
