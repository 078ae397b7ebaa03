package qrcode

import (
	"encoding/base32"
	"errors"
	"net/url"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// ErrEncoding is returned when a provisioning payload cannot be rendered.
var ErrEncoding = errors.New("qrcode: encoding failed")

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ProvisioningURI builds the otpauth URI understood by authenticator apps.
func ProvisioningURI(issuer, username, secret string) (string, error) {
	issuer = strings.TrimSpace(issuer)
	username = strings.TrimSpace(username)
	if issuer == "" || username == "" {
		return "", ErrEncoding
	}

	secret = strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	if secret == "" {
		return "", ErrEncoding
	}
	if _, err := b32NoPadding.DecodeString(secret); err != nil {
		return "", errors.Join(ErrEncoding, err)
	}

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + username,
		RawQuery: q.Encode(),
	}

	return u.String(), nil
}

// Encode renders the provisioning URI for username as a PNG image.
func Encode(username, secret, issuer string) ([]byte, error) {
	uri, err := ProvisioningURI(issuer, username, secret)
	if err != nil {
		return nil, err
	}

	png, err := skipqrcode.Encode(uri, skipqrcode.Medium, DefaultSize)
	if err != nil {
		return nil, errors.Join(ErrEncoding, err)
	}

	return png, nil
}
