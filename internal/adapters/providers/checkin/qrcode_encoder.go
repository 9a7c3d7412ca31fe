package checkin

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/myturn/backend/internal/domain/providers"
)

const (
	minImageSize = 64
	maxImageSize = 1024
)

// QRCodeEncoder renders check-in codes as PNG QR images
type QRCodeEncoder struct {
	level qrcode.RecoveryLevel
}

// NewQRCodeEncoder creates a new QR code encoder
func NewQRCodeEncoder() providers.CheckInCodeEncoder {
	return &QRCodeEncoder{level: qrcode.Medium}
}

// Encode returns a PNG of code, clamping size into a printable range
func (e *QRCodeEncoder) Encode(code string, size int) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("check-in code is empty")
	}
	if size < minImageSize {
		size = minImageSize
	}
	if size > maxImageSize {
		size = maxImageSize
	}

	png, err := qrcode.Encode(code, e.level, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode check-in code: %w", err)
	}
	return png, nil
}
