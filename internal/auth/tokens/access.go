// Package tokens emite y verifica los access tokens (firmados, cortos) y los
// refresh tokens (opacos, persistidos) y los compone en un único servicio.
package tokens

import (
	"strings"
	"time"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/metrics"
)

// AccessPayload es el contenido de un access token.
type AccessPayload struct {
	UserID string `json:"userId"`
}

// AccessSigner firma/verifica AccessPayload (implementado por *signer.Signer[AccessPayload]).
type AccessSigner interface {
	SignFor(payload AccessPayload, ttl time.Duration) (string, error)
	Verify(token string) (AccessPayload, error)
}

// DefaultAccessTTL es la vigencia por defecto de un access token.
const DefaultAccessTTL = 10 * time.Minute

// AccessService emite access tokens con payload {userId}.
type AccessService struct {
	signer AccessSigner
	ttl    time.Duration
}

func NewAccessService(s AccessSigner, ttl time.Duration) *AccessService {
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	return &AccessService{signer: s, ttl: ttl}
}

// TTL retorna la vigencia configurada.
func (s *AccessService) TTL() time.Duration { return s.ttl }

// Issue firma un access token para userID.
func (s *AccessService) Issue(userID string) (string, error) {
	tok, err := s.signer.SignFor(AccessPayload{UserID: userID}, s.ttl)
	if err != nil {
		return "", err
	}
	metrics.TokenIssued(metrics.KindAccess)
	return tok, nil
}

// Verify traduce token vacío → MISSING_ACCESS_TOKEN y expiración → EXPIRED_ACCESS_TOKEN.
// Cualquier otra falla del signer se propaga tal cual.
func (s *AccessService) Verify(token string) (AccessPayload, error) {
	if strings.TrimSpace(token) == "" {
		return AccessPayload{}, autherr.ErrMissingAccessToken
	}
	p, err := s.signer.Verify(token)
	if err != nil {
		if autherr.CodeOf(err) == autherr.CodeTokenExpired {
			return AccessPayload{}, autherr.ErrExpiredAccessToken.WithCause(err)
		}
		return AccessPayload{}, err
	}
	if p.UserID == "" {
		return AccessPayload{}, autherr.Unexpected(autherr.CodeTokenVerificationFailed, errEmptySubject)
	}
	return p, nil
}
