// Package token genera tokens opacos y sus digests para persistencia.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// RefreshBytes es la entropía de un refresh token.
const RefreshBytes = 40

// GenerateOpaque genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaque(nBytes int) (string, error) {
	if nBytes <= 0 {
		return "", fmt.Errorf("token: invalid size %d", nBytes)
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Digest devuelve sha256(s) en base64url sin padding. Es lo único que se guarda en DB.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// DigestHex devuelve sha256(s) en hexadecimal.
func DigestHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}
