package otp

import (
	"context"
	"time"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/metrics"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
	"github.com/dropDatabas3/stockauth/internal/security/password"
)

// DefaultMaxAttempts es la cantidad de comparaciones permitidas por registro.
const DefaultMaxAttempts = 5

// VerifyService compara un código contra el OTP vivo y lo consume.
type VerifyService struct {
	repo        repository.OTPRepository
	hasher      password.Hasher
	now         func() time.Time
	maxAttempts int
}

func NewVerifyService(repo repository.OTPRepository, hasher password.Hasher, now func() time.Time) *VerifyService {
	if now == nil {
		now = time.Now
	}
	return &VerifyService{repo: repo, hasher: hasher, now: now, maxAttempts: DefaultMaxAttempts}
}

// WithMaxAttempts fija el tope de intentos por registro (n <= 0 deja el default).
func (s *VerifyService) WithMaxAttempts(n int) *VerifyService {
	if n > 0 {
		s.maxAttempts = n
	}
	return s
}

// Execute verifica code para (identifier, otpType).
//
// "Sin registro", "código incorrecto" y "ya consumido" responden todos OTP_INVALID.
// Un registro vencido (now >= expiresAt) responde OTP_EXPIRED, sea o no correcto el código.
// Un código correcto marca el registro como consumido; de dos verificaciones
// concurrentes solo una gana. Cada comparación consume un intento: agotados los
// intentos el registro queda consumido y hace falta pedir un código nuevo.
func (s *VerifyService) Execute(ctx context.Context, identifier, code string, otpType types.OTPType) (bool, error) {
	log := logger.Scoped(ctx, "service", "otp.verify", "Execute").With(
		logger.Identifier(identifier), logger.OTPType(string(otpType)))

	err := s.verify(ctx, identifier, code, otpType)
	if err != nil {
		err = autherr.Handle(err, autherr.CodeOTPVerificationFailed)
		metrics.OTPVerified(string(otpType), resultOf(err))
		autherr.Log(log, "otp verification failed", err)
		return false, err
	}
	metrics.OTPVerified(string(otpType), metrics.ResultOK)
	log.Info("otp verified")
	return true, nil
}

func (s *VerifyService) verify(ctx context.Context, identifier, code string, otpType types.OTPType) error {
	rec, err := s.repo.FindLatest(ctx, identifier, otpType)
	if err != nil {
		if repository.IsNotFound(err) {
			return autherr.ErrOTPInvalid
		}
		return err
	}

	now := s.now()
	if rec.Expired(now) {
		return autherr.ErrOTPExpired
	}
	if rec.ConsumedAt != nil || rec.Attempts >= s.maxAttempts {
		return autherr.ErrOTPInvalid
	}

	// el intento se reserva antes de hashear: nunca hay más de maxAttempts comparaciones
	n, err := s.repo.RecordAttempt(ctx, rec.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return autherr.ErrOTPInvalid
		}
		return err
	}
	if n > s.maxAttempts {
		return autherr.ErrOTPInvalid
	}
	if !s.hasher.Compare(code, rec.CodeHash) {
		if n == s.maxAttempts {
			if err := s.repo.MarkConsumed(ctx, rec.ID, now); err != nil && !repository.IsNotFound(err) {
				return err
			}
			logger.From(ctx).Warn("otp locked after max attempts",
				logger.OTPType(string(otpType)), logger.Int("attempts", n))
		}
		return autherr.ErrOTPInvalid
	}

	if err := s.repo.MarkConsumed(ctx, rec.ID, now); err != nil {
		if repository.IsNotFound(err) {
			// otra verificación lo consumió primero
			return autherr.ErrOTPInvalid
		}
		return err
	}
	return nil
}

func resultOf(err error) string {
	switch autherr.CodeOf(err) {
	case autherr.CodeOTPInvalid:
		return metrics.ResultInvalid
	case autherr.CodeOTPExpired:
		return metrics.ResultExpired
	default:
		return metrics.ResultFailed
	}
}
