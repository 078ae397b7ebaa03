// Package qrcode renders otpauth provisioning URIs as PNG QR codes that
// authenticator apps can scan.
package qrcode
