package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params son los parámetros de costo de argon2id.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     uint32
}

// Default es conservador para producción (64 MiB, 3 pasadas).
var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32, SaltLen: 16}

// Argon2 implementa Hasher con argon2id en formato PHC.
// Compare también acepta hashes bcrypt ($2a$/$2b$/$2y$) heredados.
type Argon2 struct {
	p Params
}

// NewArgon2 construye un hasher argon2id. Campos en cero toman el valor de Default.
func NewArgon2(p Params) *Argon2 {
	if p.Memory == 0 {
		p.Memory = Default.Memory
	}
	if p.Time == 0 {
		p.Time = Default.Time
	}
	if p.Parallelism == 0 {
		p.Parallelism = Default.Parallelism
	}
	if p.KeyLen == 0 {
		p.KeyLen = Default.KeyLen
	}
	if p.SaltLen == 0 {
		p.SaltLen = Default.SaltLen
	}
	return &Argon2{p: p}
}

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func (a *Argon2) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, a.p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, a.p.Time, a.p.Memory, a.p.Parallelism, a.p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.p.Memory, a.p.Time, a.p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Compare verifica plain contra hash en tiempo constante.
// Un hash con formato desconocido o corrupto simplemente no coincide.
func (a *Argon2) Compare(plain, hash string) bool {
	if isBcrypt(hash) {
		return compareBcrypt(plain, hash)
	}
	ph, err := parsePHC(hash)
	if err != nil {
		return false
	}
	key := argon2.IDKey([]byte(plain), ph.salt, ph.time, ph.memory, ph.parallelism, uint32(len(ph.key)))
	return subtle.ConstantTimeCompare(key, ph.key) == 1
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

var errBadPHC = errors.New("password: malformed argon2id hash")

// parsePHC parsea "$argon2id$v=19$m=65536,t=3,p=1$salt$key".
func parsePHC(s string) (phc, error) {
	var out phc
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return out, errBadPHC
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return out, errBadPHC
	}
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return out, errBadPHC
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return out, errBadPHC
		}
		switch k {
		case "m":
			out.memory = uint32(n)
		case "t":
			out.time = uint32(n)
		case "p":
			if n > 255 {
				return out, errBadPHC
			}
			out.parallelism = uint8(n)
		default:
			return out, errBadPHC
		}
	}
	if out.memory == 0 || out.time == 0 || out.parallelism == 0 {
		return out, errBadPHC
	}
	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return out, errBadPHC
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.key) == 0 {
		return out, errBadPHC
	}
	return out, nil
}
