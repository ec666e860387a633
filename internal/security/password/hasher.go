// Package password contiene el hasher de credenciales y la política de passwords.
package password

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPassword se devuelve al intentar hashear un string vacío.
var ErrEmptyPassword = errors.New("password: empty password")

// Hasher es un hash adaptativo de una vía con comparación en tiempo constante.
// Se usa tanto para passwords como para los códigos OTP persistidos.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) bool
}

// New selecciona el algoritmo por nombre: "argon2id" (default) o "bcrypt".
func New(algorithm string, p Params, bcryptCost int) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", "argon2id", "argon2":
		return NewArgon2(p), nil
	case "bcrypt":
		return NewBcrypt(bcryptCost), nil
	default:
		return nil, fmt.Errorf("password: unknown algorithm %q", algorithm)
	}
}
