package password

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt implementa Hasher con bcrypt. Compare también acepta argon2id.
type Bcrypt struct {
	cost int
}

// NewBcrypt construye un hasher bcrypt; un costo fuera de rango usa bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (b *Bcrypt) Compare(plain, hash string) bool {
	if isBcrypt(hash) {
		return compareBcrypt(plain, hash)
	}
	return (&Argon2{}).Compare(plain, hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func compareBcrypt(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
