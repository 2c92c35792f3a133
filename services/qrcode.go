package services

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 290

// QRCodeDataURI renders url as a PNG QR code wrapped in a data URI, ready
// to drop into an <img src>.
func QRCodeDataURI(url string) (string, error) {
	if url == "" {
		return "", invalid("url", "is required")
	}
	png, err := qrcode.Encode(url, qrcode.Low, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
