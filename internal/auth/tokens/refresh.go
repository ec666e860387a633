package tokens

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/metrics"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
	"github.com/dropDatabas3/stockauth/internal/security/token"
)

// DefaultRefreshTTL es la vigencia absoluta por defecto de un refresh token.
const DefaultRefreshTTL = 30 * 24 * time.Hour

var errEmptySubject = errors.New("tokens: token without user id")

// IssuedRefresh es un refresh token recién creado: el valor en claro va al cliente,
// el registro solo guarda su digest.
type IssuedRefresh struct {
	Token  string
	Record *repository.RefreshToken
}

// RefreshService crea, verifica y revoca refresh tokens opacos.
type RefreshService struct {
	tokens repository.RefreshTokenRepository
	users  repository.UserRepository
	ttl    time.Duration
	now    func() time.Time
}

func NewRefreshService(tokens repository.RefreshTokenRepository, users repository.UserRepository, ttl time.Duration, now func() time.Time) *RefreshService {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RefreshService{tokens: tokens, users: users, ttl: ttl, now: now}
}

// TTL retorna la vigencia configurada.
func (s *RefreshService) TTL() time.Duration { return s.ttl }

// Create genera un token de 40 bytes de entropía para userID y lo persiste.
func (s *RefreshService) Create(ctx context.Context, userID string) (*IssuedRefresh, error) {
	log := logger.Scoped(ctx, "service", "tokens.refresh", "Create").With(logger.UserID(userID))

	raw, err := token.GenerateOpaque(token.RefreshBytes)
	if err != nil {
		err = autherr.Unexpected(autherr.CodeRefreshTokenCreateFailed, err)
		autherr.Log(log, "generate refresh token failed", err)
		return nil, err
	}
	rec, err := s.tokens.Create(ctx, repository.CreateRefreshTokenInput{
		UserID:    userID,
		TokenHash: token.Digest(raw),
		ExpiresAt: s.now().Add(s.ttl),
	})
	if err != nil {
		err = autherr.Handle(err, autherr.CodeRefreshTokenCreateFailed)
		autherr.Log(log, "persist refresh token failed", err)
		return nil, err
	}
	metrics.TokenIssued(metrics.KindRefresh)
	return &IssuedRefresh{Token: raw, Record: rec}, nil
}

// Verify retorna el userID dueño del token.
// Inexistente, vencido, revocado o con usuario borrado: todos REFRESH_TOKEN_INVALID.
func (s *RefreshService) Verify(ctx context.Context, raw string) (string, error) {
	log := logger.Scoped(ctx, "service", "tokens.refresh", "Verify")

	userID, err := s.verify(ctx, raw)
	if err != nil {
		err = autherr.Handle(err, autherr.CodeRefreshTokenVerifyFailed)
		autherr.Log(log, "verify refresh token failed", err)
		return "", err
	}
	return userID, nil
}

func (s *RefreshService) verify(ctx context.Context, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", autherr.ErrRefreshTokenInvalid
	}
	rec, err := s.tokens.FindByHash(ctx, token.Digest(raw))
	if err != nil {
		if repository.IsNotFound(err) {
			return "", autherr.ErrRefreshTokenInvalid
		}
		return "", err
	}
	if !rec.Usable(s.now()) {
		return "", autherr.ErrRefreshTokenInvalid
	}
	if _, err := s.users.FindByID(ctx, rec.UserID); err != nil {
		if repository.IsNotFound(err) {
			return "", autherr.ErrRefreshTokenInvalid
		}
		return "", err
	}
	return rec.UserID, nil
}

// Revoke marca el token como revocado. Es idempotente: revocar un token
// inexistente o ya revocado no es un error.
func (s *RefreshService) Revoke(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	err := s.tokens.Revoke(ctx, token.Digest(raw), s.now())
	if err == nil || repository.IsNotFound(err) {
		return nil
	}
	err = autherr.Unexpected(autherr.CodeRefreshTokenRevokeFailed, err)
	autherr.Log(logger.Scoped(ctx, "service", "tokens.refresh", "Revoke"), "revoke refresh token failed", err)
	return err
}
