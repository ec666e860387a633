package otp

import (
	"context"
	"time"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/metrics"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
	"github.com/dropDatabas3/stockauth/internal/otp/sender"
	"github.com/dropDatabas3/stockauth/internal/security/password"
)

// Dispatcher entrega el código generado (implementado por sender.Registry).
type Dispatcher interface {
	Send(ctx context.Context, p sender.Params) error
}

// CreateResult contiene el registro persistido y el código en claro.
// GeneratedOTP es solo para uso inmediato del caller; nunca se persiste.
type CreateResult struct {
	Record       *repository.OTP
	GeneratedOTP string
}

// CreateService genera, hashea, persiste y envía un OTP.
type CreateService struct {
	repo      repository.OTPRepository
	hasher    password.Hasher
	gen       *Generator
	sender    Dispatcher
	durations Durations
	now       func() time.Time
}

// CreateDeps agrupa las dependencias de CreateService.
type CreateDeps struct {
	Repo      repository.OTPRepository
	Hasher    password.Hasher
	Generator *Generator
	Sender    Dispatcher
	Durations Durations
	Now       func() time.Time
}

func NewCreateService(d CreateDeps) *CreateService {
	if d.Durations == nil {
		d.Durations = DefaultDurations()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &CreateService{
		repo:      d.Repo,
		hasher:    d.Hasher,
		gen:       d.Generator,
		sender:    d.Sender,
		durations: d.Durations,
		now:       d.Now,
	}
}

// Execute crea un OTP de otpType para recipient y lo envía por senderType.
// Cualquier falla de persistencia o envío se devuelve como OTP_CREATION_FAILED.
// Si el envío falla el registro se descarta y el código anterior sigue vivo.
func (s *CreateService) Execute(ctx context.Context, otpType types.OTPType, recipient string, senderType types.SenderType) (*CreateResult, error) {
	log := logger.Scoped(ctx, "service", "otp.create", "Execute").With(
		logger.Identifier(recipient), logger.OTPType(string(otpType)), logger.SenderType(string(senderType)))

	res, err := s.execute(ctx, otpType, recipient, senderType)
	if err != nil {
		err = autherr.Handle(err, autherr.CodeOTPCreationFailed)
		autherr.Log(log, "otp creation failed", err)
		return nil, err
	}
	metrics.OTPRequested(string(otpType), string(senderType))
	log.Info("otp issued", logger.String("otp_id", res.Record.ID))
	return res, nil
}

func (s *CreateService) execute(ctx context.Context, otpType types.OTPType, recipient string, senderType types.SenderType) (*CreateResult, error) {
	ttl, err := s.durations.For(otpType)
	if err != nil {
		return nil, err
	}
	code, err := s.gen.Generate()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec, err := s.repo.Create(ctx, repository.CreateOTPInput{
		Identifier: recipient,
		Type:       otpType,
		CodeHash:   hash,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sender.Send(ctx, sender.Params{
		Recipient:    recipient,
		GeneratedOTP: code,
		OTPType:      otpType,
		SenderType:   senderType,
		ExpiresIn:    ttl,
	}); err != nil {
		// el más reciente tiene que ser siempre un código entregado
		if derr := s.repo.Delete(ctx, rec.ID); derr != nil && !repository.IsNotFound(derr) {
			logger.From(ctx).Error("otp discard failed", logger.String("otp_id", rec.ID), logger.Err(derr))
		}
		return nil, err
	}
	return &CreateResult{Record: rec, GeneratedOTP: code}, nil
}
