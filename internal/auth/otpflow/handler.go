// Package otpflow orquesta el handshake OTP de tres fases:
//
//	Request(identifier)   → token UNVERIFIED {identifier, otpType, verified:false}
//	Verify(otp, token)    → token VERIFIED   {identifier, otpType, verified:true}
//	Execute(data, token)  → resultado de la acción inyectada
//
// El token firmado es el único estado entre fases; no hay sesión en el servidor.
// Cada Handler se construye para exactamente un OTPType.
package otpflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/metrics"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
	"github.com/dropDatabas3/stockauth/internal/otp"
	"github.com/dropDatabas3/stockauth/internal/rate"
)

// State es el payload del token de estado.
type State struct {
	Identifier string        `json:"identifier"`
	OTPType    types.OTPType `json:"otpType"`
	Verified   bool          `json:"verified"`
}

// StateSigner firma/verifica State (implementado por *signer.Signer[State]).
type StateSigner interface {
	SignFor(payload State, ttl time.Duration) (string, error)
	Verify(token string) (State, error)
}

// Creator genera y envía un OTP (implementado por *otp.CreateService).
type Creator interface {
	Execute(ctx context.Context, otpType types.OTPType, recipient string, senderType types.SenderType) (*otp.CreateResult, error)
}

// Verifier verifica un OTP (implementado por *otp.VerifyService).
type Verifier interface {
	Execute(ctx context.Context, identifier, code string, otpType types.OTPType) (bool, error)
}

// SenderSet indica qué canales están registrados (implementado por *sender.Registry).
type SenderSet interface {
	Has(t types.SenderType) bool
}

// ExecuteInput es lo que recibe la acción: los datos del caller más el identificador verificado.
type ExecuteInput[D any] struct {
	Data       D
	Identifier string
}

// ExecuteFunc es la acción protegida por el handshake (crear usuario, resetear password, ...).
type ExecuteFunc[D, R any] func(ctx context.Context, in ExecuteInput[D]) (R, error)

// DefaultStateTTL es la vigencia por defecto de los tokens UNVERIFIED.
const DefaultStateTTL = 30 * time.Minute

// DefaultVerifiedTTL es la vigencia por defecto de los tokens VERIFIED.
// Hasta su vencimiento el token se puede presentar más de una vez a Execute.
const DefaultVerifiedTTL = 5 * time.Minute

// Config agrupa las dependencias de un Handler.
type Config[D, R any] struct {
	OTPType  types.OTPType
	Creator  Creator
	Verifier Verifier
	Signer   StateSigner
	Senders  SenderSet
	// DefaultSenders mapea tipo de identificador → canal cuando el caller no elige uno.
	DefaultSenders map[types.IdentifierType]types.SenderType
	Execute        ExecuteFunc[D, R]
	StateTTL       time.Duration
	// VerifiedTTL se recorta a StateTTL si lo excede.
	VerifiedTTL time.Duration
	// Limiter es opcional; limita Request por (otpType, identifier).
	Limiter rate.Limiter
}

// Handler implementa el handshake para un OTPType.
type Handler[D, R any] struct {
	otpType  types.OTPType
	creator  Creator
	verifier Verifier
	signer   StateSigner
	senders  SenderSet
	defaults map[types.IdentifierType]types.SenderType
	execute  ExecuteFunc[D, R]
	stateTTL time.Duration
	verified time.Duration
	limiter  rate.Limiter
}

// New valida la configuración. Un canal por defecto no registrado es un error de composición.
func New[D, R any](cfg Config[D, R]) (*Handler[D, R], error) {
	if !cfg.OTPType.IsValid() {
		return nil, fmt.Errorf("otpflow: invalid otp type %q", cfg.OTPType)
	}
	if cfg.Creator == nil || cfg.Verifier == nil || cfg.Signer == nil || cfg.Senders == nil {
		return nil, fmt.Errorf("otpflow: missing dependency for %s handler", cfg.OTPType)
	}
	if cfg.Execute == nil {
		return nil, fmt.Errorf("otpflow: nil execute func for %s handler", cfg.OTPType)
	}
	defaults := cfg.DefaultSenders
	if defaults == nil {
		defaults = types.DefaultSenders()
	}
	for it, st := range defaults {
		if !it.IsValid() {
			return nil, fmt.Errorf("otpflow: invalid identifier type %q", it)
		}
		if !compatible(it, st) {
			return nil, fmt.Errorf("otpflow: sender %q cannot deliver to %s identifiers", st, it)
		}
		if !cfg.Senders.Has(st) {
			return nil, fmt.Errorf("otpflow: default sender %q for %s is not registered", st, it)
		}
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	vttl := cfg.VerifiedTTL
	if vttl <= 0 {
		vttl = DefaultVerifiedTTL
	}
	if vttl > ttl {
		vttl = ttl
	}
	return &Handler[D, R]{
		otpType:  cfg.OTPType,
		creator:  cfg.Creator,
		verifier: cfg.Verifier,
		signer:   cfg.Signer,
		senders:  cfg.Senders,
		defaults: defaults,
		execute:  cfg.Execute,
		stateTTL: ttl,
		verified: vttl,
		limiter:  cfg.Limiter,
	}, nil
}

// OTPType retorna el tipo para el que fue construido el handler.
func (h *Handler[D, R]) OTPType() types.OTPType { return h.otpType }

func compatible(it types.IdentifierType, st types.SenderType) bool {
	switch st {
	case types.SenderEmail:
		return it == types.IdentifierEmail
	case types.SenderSMS, types.SenderWhatsApp:
		return it == types.IdentifierPhone
	}
	return false
}

func (h *Handler[D, R]) log(ctx context.Context, op string) *zap.Logger {
	return logger.Scoped(ctx, "service", "otpflow", op).With(logger.OTPType(string(h.otpType)))
}

// RequestInput son los datos de la fase 1. SenderType vacío usa el canal por defecto.
type RequestInput struct {
	Identifier string
	SenderType types.SenderType
}

// Request genera y envía un OTP y devuelve un token UNVERIFIED.
func (h *Handler[D, R]) Request(ctx context.Context, in RequestInput) (string, error) {
	log := h.log(ctx, "Request").With(logger.Identifier(in.Identifier))

	tok, err := h.request(ctx, log, in)
	if err != nil {
		autherr.Log(log, "otp request failed", err)
		return "", err
	}
	return tok, nil
}

func (h *Handler[D, R]) request(ctx context.Context, log *zap.Logger, in RequestInput) (string, error) {
	ident, it, ok := types.DetectIdentifier(in.Identifier)
	if !ok {
		return "", autherr.ErrInvalidIdentifier
	}

	st := in.SenderType
	if st == "" {
		st = h.defaults[it]
	}
	if !st.IsValid() || !compatible(it, st) || !h.senders.Has(st) {
		return "", autherr.ErrUnsupportedSender
	}

	if h.limiter != nil {
		res, err := h.limiter.Allow(ctx, "otp:"+string(h.otpType)+":"+ident)
		switch {
		case err != nil:
			// sin backend de rate limit no bloqueamos el flujo
			log.Warn("rate limiter unavailable", logger.Err(err))
		case !res.Allowed:
			return "", autherr.ErrRateLimited.WithMessage(
				fmt.Sprintf("%s Reintentar en %s.", autherr.ErrRateLimited.Message, res.RetryAfter.Round(time.Second)))
		}
	}

	if _, err := h.creator.Execute(ctx, h.otpType, ident, st); err != nil {
		return "", err
	}
	log.Info("otp requested", logger.SenderType(string(st)))
	return h.sign(State{Identifier: ident, OTPType: h.otpType, Verified: false}, h.stateTTL)
}

// VerifyInput son los datos de la fase 2.
type VerifyInput struct {
	OTP   string
	Token string
}

// Verify valida el token UNVERIFIED y el código; devuelve un token VERIFIED nuevo.
func (h *Handler[D, R]) Verify(ctx context.Context, in VerifyInput) (string, error) {
	log := h.log(ctx, "Verify")

	tok, err := h.verify(ctx, in)
	if err != nil {
		autherr.Log(log, "otp verify failed", err)
		return "", err
	}
	return tok, nil
}

func (h *Handler[D, R]) verify(ctx context.Context, in VerifyInput) (string, error) {
	st, err := h.state(in.Token)
	if err != nil {
		return "", err
	}
	if _, err := h.verifier.Execute(ctx, st.Identifier, in.OTP, h.otpType); err != nil {
		return "", err
	}
	return h.sign(State{Identifier: st.Identifier, OTPType: h.otpType, Verified: true}, h.verified)
}

// ExecuteRequest son los datos de la fase 3.
type ExecuteRequest[D any] struct {
	Data  D
	Token string
}

// Execute valida el token VERIFIED y corre la acción con el identificador del token.
func (h *Handler[D, R]) Execute(ctx context.Context, in ExecuteRequest[D]) (R, error) {
	var zero R
	log := h.log(ctx, "Execute")

	st, err := h.state(in.Token)
	if err != nil {
		autherr.Log(log, "otp execute rejected", err)
		return zero, err
	}
	if !st.Verified {
		err := autherr.Unexpected(autherr.CodeOTPNotVerified,
			fmt.Errorf("otpflow: execute called with an unverified %s token", h.otpType))
		autherr.Log(log.With(logger.Identifier(st.Identifier)), "otp execute rejected", err)
		return zero, err
	}

	out, err := h.execute(ctx, ExecuteInput[D]{Data: in.Data, Identifier: st.Identifier})
	if err != nil {
		err = autherr.Handle(err, autherr.CodeOTPFlowExecutionFailed)
		autherr.Log(log.With(logger.Identifier(st.Identifier)), "otp execute failed", err)
		return zero, err
	}
	return out, nil
}

// state verifica firma/expiración y que el token pertenezca a este handler.
func (h *Handler[D, R]) state(token string) (State, error) {
	st, err := h.signer.Verify(token)
	if err != nil {
		return State{}, err
	}
	if st.OTPType != h.otpType {
		return State{}, autherr.Unexpected(autherr.CodeOTPTypeMismatch,
			fmt.Errorf("otpflow: token for %q presented to %q handler", st.OTPType, h.otpType))
	}
	if st.Identifier == "" {
		return State{}, autherr.Unexpected(autherr.CodeTokenVerificationFailed,
			fmt.Errorf("otpflow: state token without identifier"))
	}
	return st, nil
}

func (h *Handler[D, R]) sign(st State, ttl time.Duration) (string, error) {
	tok, err := h.signer.SignFor(st, ttl)
	if err != nil {
		return "", err
	}
	metrics.TokenIssued(metrics.KindStateToken)
	return tok, nil
}
