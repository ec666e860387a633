package types

import (
	"net/mail"
	"regexp"
	"strings"
)

// phonePattern acepta E.164 (con o sin '+') luego de quitar separadores.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// DetectIdentifier normaliza el identificador y detecta su tipo.
// Retorna ok=false si no es ni email ni teléfono.
func DetectIdentifier(raw string) (normalized string, t IdentifierType, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", false
	}
	if strings.Contains(s, "@") {
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return "", "", false
		}
		return strings.ToLower(s), IdentifierEmail, true
	}
	p := NormalizePhone(s)
	if !phonePattern.MatchString(p) {
		return "", "", false
	}
	return p, IdentifierPhone, true
}

// NormalizeIdentifier normaliza un identificador ya tipado.
func NormalizeIdentifier(t IdentifierType, raw string) string {
	switch t {
	case IdentifierEmail:
		return strings.ToLower(strings.TrimSpace(raw))
	case IdentifierPhone:
		return NormalizePhone(raw)
	}
	return strings.TrimSpace(raw)
}

// NormalizePhone quita espacios, guiones, puntos y paréntesis.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch r {
		case ' ', '-', '.', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
