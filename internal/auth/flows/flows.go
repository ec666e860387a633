// Package flows define las acciones que corren detrás de cada handshake OTP
// y arma los tres orquestadores expuestos por la API (signup, login, forgot-password).
package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/stockauth/internal/auth/local"
	"github.com/dropDatabas3/stockauth/internal/auth/otpflow"
	"github.com/dropDatabas3/stockauth/internal/auth/tokens"
	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/rate"
)

// SignUpData es lo que el cliente manda en la fase 3 del alta.
type SignUpData struct {
	Password string
	Name     string
}

// SignUpResult es la cuenta creada más la sesión inicial.
type SignUpResult struct {
	User   *repository.User
	Tokens *tokens.Pair
}

// ResetData es el password nuevo de la fase 3 de forgot-password.
type ResetData struct {
	Password string
}

// LoginData está vacío: el token VERIFIED ya prueba la identidad.
type LoginData struct{}

type (
	SignUpHandler = otpflow.Handler[SignUpData, *SignUpResult]
	LoginHandler  = otpflow.Handler[LoginData, *tokens.Pair]
	ResetHandler  = otpflow.Handler[ResetData, *repository.User]
)

// SignUpAction crea una cuenta verificada y emite tokens.
func SignUpAction(accounts *local.Context, tok *tokens.Service) otpflow.ExecuteFunc[SignUpData, *SignUpResult] {
	return func(ctx context.Context, in otpflow.ExecuteInput[SignUpData]) (*SignUpResult, error) {
		u, err := accounts.CreateUser(ctx, local.CreateUserInput{
			Identifier: in.Identifier,
			Password:   in.Data.Password,
			Name:       in.Data.Name,
			Verified:   true,
		})
		if err != nil {
			return nil, err
		}
		pair, err := tok.Generate(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return &SignUpResult{User: u, Tokens: pair}, nil
	}
}

// LoginAction emite tokens para la cuenta del identificador verificado.
// Un identificador sin cuenta responde INCORRECT_CREDENTIALS.
func LoginAction(users repository.UserRepository, tok *tokens.Service) otpflow.ExecuteFunc[LoginData, *tokens.Pair] {
	return func(ctx context.Context, in otpflow.ExecuteInput[LoginData]) (*tokens.Pair, error) {
		u, err := users.FindByIdentifier(ctx, in.Identifier)
		if repository.IsNotFound(err) {
			return nil, autherr.ErrIncorrectCredentials
		}
		if err != nil {
			return nil, err
		}
		return tok.Generate(ctx, u.ID)
	}
}

// ResetAction reemplaza el password del identificador verificado.
func ResetAction(accounts *local.Context) otpflow.ExecuteFunc[ResetData, *repository.User] {
	return func(ctx context.Context, in otpflow.ExecuteInput[ResetData]) (*repository.User, error) {
		return accounts.ResetPassword(ctx, in.Identifier, in.Data.Password)
	}
}

// Deps son los componentes compartidos por los tres orquestadores.
type Deps struct {
	Creator        otpflow.Creator
	Verifier       otpflow.Verifier
	Signer         otpflow.StateSigner
	Senders        otpflow.SenderSet
	DefaultSenders map[types.IdentifierType]types.SenderType
	StateTTL       time.Duration
	VerifiedTTL    time.Duration
	Limiter        rate.Limiter

	Accounts *local.Context
	Users    repository.UserRepository
	Tokens   *tokens.Service
}

// Set agrupa los orquestadores por flujo.
type Set struct {
	SignUp         *SignUpHandler
	Login          *LoginHandler
	ForgotPassword *ResetHandler
}

// NewSet construye los tres orquestadores; cualquier error es de composición.
func NewSet(d Deps) (*Set, error) {
	signUp, err := otpflow.New(config(d, types.OTPSignUp, SignUpAction(d.Accounts, d.Tokens)))
	if err != nil {
		return nil, fmt.Errorf("flows: signup: %w", err)
	}
	login, err := otpflow.New(config(d, types.OTPLogin, LoginAction(d.Users, d.Tokens)))
	if err != nil {
		return nil, fmt.Errorf("flows: login: %w", err)
	}
	reset, err := otpflow.New(config(d, types.OTPForgetPassword, ResetAction(d.Accounts)))
	if err != nil {
		return nil, fmt.Errorf("flows: forgot-password: %w", err)
	}
	return &Set{SignUp: signUp, Login: login, ForgotPassword: reset}, nil
}

func config[D, R any](d Deps, t types.OTPType, fn otpflow.ExecuteFunc[D, R]) otpflow.Config[D, R] {
	return otpflow.Config[D, R]{
		OTPType:        t,
		Creator:        d.Creator,
		Verifier:       d.Verifier,
		Signer:         d.Signer,
		Senders:        d.Senders,
		DefaultSenders: d.DefaultSenders,
		Execute:        fn,
		StateTTL:       d.StateTTL,
		VerifiedTTL:    d.VerifiedTTL,
		Limiter:        d.Limiter,
	}
}
