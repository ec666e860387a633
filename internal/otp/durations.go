package otp

import (
	"fmt"
	"time"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

// Durations es la vigencia configurada por tipo de OTP.
type Durations map[types.OTPType]time.Duration

// DefaultDurations: SIGN_UP 10m, LOGIN 5m, FORGET_PASSWORD 10m, VERIFY_EMAIL 24h.
func DefaultDurations() Durations {
	return Durations{
		types.OTPSignUp:         10 * time.Minute,
		types.OTPLogin:          5 * time.Minute,
		types.OTPForgetPassword: 10 * time.Minute,
		types.OTPVerifyEmail:    24 * time.Hour,
	}
}

// For retorna la vigencia de t; un tipo sin duración es un error.
func (d Durations) For(t types.OTPType) (time.Duration, error) {
	v, ok := d[t]
	if !ok || v <= 0 {
		return 0, fmt.Errorf("otp: no duration configured for %q", t)
	}
	return v, nil
}

// Validate exige una duración positiva para cada tipo conocido.
func (d Durations) Validate() error {
	for _, t := range types.AllOTPTypes {
		if _, err := d.For(t); err != nil {
			return err
		}
	}
	return nil
}
