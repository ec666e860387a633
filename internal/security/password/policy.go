package password

import (
	"strings"
	"unicode"

	"github.com/dropDatabas3/stockauth/internal/autherr"
)

// Policy define los requisitos mínimos de un password nuevo.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	Blacklist     *Blacklist
}

// Validate devuelve las razones por las que s no cumple la política.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "blacklisted")
	}
	return len(reasons) == 0, reasons
}

// Check es Validate expresado como error de dominio PASSWORD_TOO_WEAK.
func (p Policy) Check(s string) error {
	if ok, reasons := p.Validate(s); !ok {
		return autherr.ErrPasswordTooWeak.WithMessage(
			autherr.ErrPasswordTooWeak.Message + " (" + strings.Join(reasons, ", ") + ")")
	}
	return nil
}
