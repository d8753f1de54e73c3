package utils

import (
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// CodeQRDataURI renders a coupon code as a PNG data URI ready for <img src>.
func CodeQRDataURI(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", errors.Wrap(err, "render qr code")
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
