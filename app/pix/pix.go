package pix

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const DefaultImageSize = 256

var ErrEmptyPayload = errors.New("pix payload is empty")

// RenderPNG encodes the PIX copy-paste code as a QR PNG.
func RenderPNG(payload string, size int) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if size <= 0 {
		size = DefaultImageSize
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode pix qr: %w", err)
	}
	return png, nil
}

// RenderBase64 returns the PNG as plain base64, the same shape the gateway uses for qr_code_base64.
func RenderBase64(payload string, size int) (string, error) {
	png, err := RenderPNG(payload, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// DecodeBase64 turns a qr_code_base64 value back into PNG bytes. A data URI prefix is tolerated.
func DecodeBase64(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if idx := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && idx >= 0 {
		encoded = encoded[idx+1:]
	}
	if encoded == "" {
		return nil, ErrEmptyPayload
	}

	png, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode pix qr: %w", err)
	}
	if !bytes.HasPrefix(png, pngSignature) {
		return nil, errors.New("pix qr is not a png image")
	}
	return png, nil
}

func DataURI(encoded string) string {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		return encoded
	}
	return "data:image/png;base64," + encoded
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
