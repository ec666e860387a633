// Package local implementa las reglas de credenciales locales (identifier + password).
//
// La persistencia se delega en una UserStrategy por tipo de identificador
// (email, phone), elegida una vez al componer la app.
package local

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
	"github.com/dropDatabas3/stockauth/internal/security/password"
)

// Context expone CreateUser / VerifyPassword / ResetPassword.
type Context struct {
	hasher     password.Hasher
	policy     password.Policy
	strategies map[types.IdentifierType]UserStrategy
}

// NewContext valida que no haya estrategias duplicadas o con tipo inválido.
func NewContext(hasher password.Hasher, policy password.Policy, strategies ...UserStrategy) (*Context, error) {
	if hasher == nil {
		return nil, fmt.Errorf("local: nil hasher")
	}
	m := make(map[types.IdentifierType]UserStrategy, len(strategies))
	for _, s := range strategies {
		t := s.Type()
		if !t.IsValid() {
			return nil, fmt.Errorf("local: invalid identifier type %q", t)
		}
		if _, dup := m[t]; dup {
			return nil, fmt.Errorf("local: duplicated strategy for %q", t)
		}
		m[t] = s
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("local: no user strategies")
	}
	return &Context{hasher: hasher, policy: policy, strategies: m}, nil
}

// CreateUserInput es el alta de una cuenta local.
type CreateUserInput struct {
	Identifier string
	Password   string
	Name       string
	// Verified marca la cuenta como verificada (alta OTP-gated).
	Verified bool
}

// resolve detecta el tipo de identificador y devuelve la estrategia correspondiente.
func (c *Context) resolve(raw string) (string, UserStrategy, error) {
	ident, kind, ok := types.DetectIdentifier(raw)
	if !ok {
		return "", nil, autherr.ErrInvalidIdentifier
	}
	s, ok := c.strategies[kind]
	if !ok {
		return "", nil, fmt.Errorf("local: no strategy for %q", kind)
	}
	return ident, s, nil
}

func (c *Context) log(ctx context.Context, op string) *zap.Logger {
	return logger.Scoped(ctx, "service", "auth.local", op)
}

// CreateUser falla AUTH_USED_IDENTIFIER si el identificador ya existe.
// El password se valida contra la política y se guarda hasheado.
func (c *Context) CreateUser(ctx context.Context, in CreateUserInput) (*repository.User, error) {
	log := c.log(ctx, "CreateUser").With(logger.Identifier(in.Identifier))

	u, err := c.createUser(ctx, in)
	if err != nil {
		err = autherr.Handle(err, autherr.CodeUserCreationFailed)
		autherr.Log(log, "create user failed", err)
		return nil, err
	}
	log.Info("user created", logger.UserID(u.ID))
	return u, nil
}

func (c *Context) createUser(ctx context.Context, in CreateUserInput) (*repository.User, error) {
	ident, s, err := c.resolve(in.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := s.Find(ctx, ident); err == nil {
		return nil, autherr.ErrUsedIdentifier
	} else if !repository.IsNotFound(err) {
		return nil, err
	}
	if err := c.policy.Check(in.Password); err != nil {
		return nil, err
	}
	hash, err := c.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.Create(ctx, NewUser{Identifier: ident, PasswordHash: hash, Name: in.Name, Verified: in.Verified})
	if repository.IsConflict(err) {
		// alta concurrente con el mismo identificador
		return nil, autherr.ErrUsedIdentifier
	}
	return u, err
}

// VerifyPassword responde INCORRECT_CREDENTIALS tanto si el usuario no existe como
// si el password no coincide; USER_NOT_LOCAL si la cuenta no tiene password.
func (c *Context) VerifyPassword(ctx context.Context, identifier, plain string) (*repository.User, error) {
	log := c.log(ctx, "VerifyPassword").With(logger.Identifier(identifier))

	u, err := c.verifyPassword(ctx, identifier, plain)
	if err != nil {
		err = autherr.Handle(err, autherr.CodePasswordVerificationFail)
		autherr.Log(log, "verify password failed", err)
		return nil, err
	}
	return u, nil
}

func (c *Context) verifyPassword(ctx context.Context, identifier, plain string) (*repository.User, error) {
	ident, s, err := c.resolve(identifier)
	if err != nil {
		if autherr.IsDomain(err) {
			return nil, autherr.ErrIncorrectCredentials
		}
		return nil, err
	}
	u, err := s.Find(ctx, ident)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, autherr.ErrIncorrectCredentials
		}
		return nil, err
	}
	if !u.HasLocalCredentials() {
		return nil, autherr.ErrUserNotLocal
	}
	if !c.hasher.Compare(plain, *u.PasswordHash) {
		return nil, autherr.ErrIncorrectCredentials
	}
	return u, nil
}

// ResetPassword reemplaza el password de identifier.
// Un identificador sin cuenta responde INCORRECT_CREDENTIALS.
func (c *Context) ResetPassword(ctx context.Context, identifier, newPassword string) (*repository.User, error) {
	log := c.log(ctx, "ResetPassword").With(logger.Identifier(identifier))

	u, err := c.resetPassword(ctx, identifier, newPassword)
	if err != nil {
		err = autherr.Handle(err, autherr.CodePasswordResetFailed)
		autherr.Log(log, "reset password failed", err)
		return nil, err
	}
	log.Info("password reset", logger.UserID(u.ID))
	return u, nil
}

func (c *Context) resetPassword(ctx context.Context, identifier, newPassword string) (*repository.User, error) {
	ident, s, err := c.resolve(identifier)
	if err != nil {
		return nil, err
	}
	if err := c.policy.Check(newPassword); err != nil {
		return nil, err
	}
	hash, err := c.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	u, err := s.UpdatePassword(ctx, ident, hash)
	if repository.IsNotFound(err) {
		return nil, autherr.ErrIncorrectCredentials
	}
	return u, err
}
