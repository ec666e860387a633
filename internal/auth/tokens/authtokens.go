package tokens

import (
	"context"
	"time"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
)

// Pair es lo que recibe el cliente tras login/registro/refresh.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresAt time.Time
}

// Service compone AccessService y RefreshService.
//
// Refresh rota: el refresh token usado se revoca y se emite uno nuevo junto al access.
type Service struct {
	access  *AccessService
	refresh *RefreshService
}

func NewService(access *AccessService, refresh *RefreshService) *Service {
	return &Service{access: access, refresh: refresh}
}

// Access expone el servicio de access tokens (para middlewares).
func (s *Service) Access() *AccessService { return s.access }

// Generate emite access + refresh para userID.
func (s *Service) Generate(ctx context.Context, userID string) (*Pair, error) {
	p, err := s.generate(ctx, userID)
	if err != nil {
		err = autherr.Handle(err, autherr.CodeAuthTokensFailed)
		autherr.Log(logger.Scoped(ctx, "service", "tokens", "Generate").With(logger.UserID(userID)), "generate tokens failed", err)
		return nil, err
	}
	return p, nil
}

func (s *Service) generate(ctx context.Context, userID string) (*Pair, error) {
	rt, err := s.refresh.Create(ctx, userID)
	if err != nil {
		return nil, err
	}
	at, err := s.access.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      at,
		RefreshToken:     rt.Token,
		AccessExpiresIn:  s.access.TTL(),
		RefreshExpiresAt: rt.Record.ExpiresAt,
	}, nil
}

// Refresh verifica refreshToken, emite un par nuevo y recién entonces revoca el viejo.
// Si la emisión falla el token viejo sigue vigente; si falla la revocación se
// retira también el refresh nuevo y el caller conserva solo el viejo.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Pair, error) {
	log := logger.Scoped(ctx, "service", "tokens", "Refresh")

	userID, err := s.refresh.Verify(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	p, err := s.generate(ctx, userID)
	if err != nil {
		err = autherr.Handle(err, autherr.CodeAuthTokensFailed)
		autherr.Log(log, "refresh tokens failed", err)
		return nil, err
	}
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		if rerr := s.refresh.Revoke(ctx, p.RefreshToken); rerr != nil {
			log.Error("rollback of rotated refresh token failed", logger.UserID(userID), logger.Err(rerr))
		}
		return nil, err
	}
	log.Info("refresh token rotated", logger.UserID(userID))
	return p, nil
}

// Revoke cierra la sesión del refresh token. Idempotente.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	return s.refresh.Revoke(ctx, refreshToken)
}
