package helper

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
)

const qrImageSize = 300

// QRCodePNG encodes a pairing code as a PNG image.
func QRCodePNG(code string) ([]byte, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("encode qrcode: %w", err)
	}
	return png, nil
}

// QRCodeDataURL encodes a pairing code as a data URL for an <img> tag.
func QRCodeDataURL(code string) (string, error) {
	png, err := QRCodePNG(code)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// PrintQRCode renders a pairing code with half blocks on a terminal.
func PrintQRCode(w io.Writer, code string) {
	qrterminal.GenerateHalfBlock(code, qrterminal.L, w)
}
