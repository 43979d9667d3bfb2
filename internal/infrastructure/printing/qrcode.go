package printing

import (
	"encoding/base64"
	"fmt"
	"html/template"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the rendered QR code edge length in pixels
const DefaultQRSize = 150

// QRCodePNG rasterizes a compliance payload as a PNG image
func QRCodePNG(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, NewRenderError(ErrCodeRenderFailed, "QR payload is empty", nil)
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to encode QR code", err)
	}
	return png, nil
}

// QRCodeDataURI returns the PNG as a data URI safe to use in an img src
func QRCodeDataURI(payload string, size int) (template.URL, error) {
	png, err := QRCodePNG(payload, size)
	if err != nil {
		return "", err
	}
	return template.URL(fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png))), nil
}
