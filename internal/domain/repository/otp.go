package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

// OTP representa un código de un solo uso persistido (solo el hash).
type OTP struct {
	ID         string
	Identifier string
	Type       types.OTPType
	CodeHash   string
	// Attempts cuenta las comparaciones hechas contra este registro.
	Attempts   int
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Expired indica si el OTP expiró en el instante now.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// CreateOTPInput contiene los datos para crear un OTP.
type CreateOTPInput struct {
	Identifier string
	Type       types.OTPType
	CodeHash   string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// OTPRepository define operaciones sobre OTPs.
//
// Solo el registro más reciente por (identifier, type) está vivo: las filas
// anteriores no se borran, simplemente dejan de consultarse.
type OTPRepository interface {
	// Create persiste un OTP.
	Create(ctx context.Context, input CreateOTPInput) (*OTP, error)

	// FindLatest retorna el OTP más reciente (por CreatedAt) del par.
	// Retorna ErrNotFound si no hay ninguno.
	FindLatest(ctx context.Context, identifier string, otpType types.OTPType) (*OTP, error)

	// MarkConsumed marca el OTP como usado de forma atómica.
	// Retorna ErrNotFound si no existe o si ya estaba consumido.
	MarkConsumed(ctx context.Context, otpID string, at time.Time) error

	// RecordAttempt incrementa Attempts de forma atómica y retorna el valor nuevo.
	// Retorna ErrNotFound si no existe o si ya estaba consumido.
	RecordAttempt(ctx context.Context, otpID string) (int, error)

	// Delete borra un OTP que nunca llegó a entregarse.
	Delete(ctx context.Context, otpID string) error
}
