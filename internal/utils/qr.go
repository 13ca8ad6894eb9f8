package utils

import (
	qrcode "github.com/skip2/go-qrcode"
)

// TicketQRCode renders a ticket code as a PNG QR image of size x size
// pixels.
func TicketQRCode(code string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(code, qrcode.Medium, size)
}
