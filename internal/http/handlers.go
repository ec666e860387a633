package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/stockauth/internal/audit"
	"github.com/dropDatabas3/stockauth/internal/auth/flows"
	"github.com/dropDatabas3/stockauth/internal/auth/local"
	"github.com/dropDatabas3/stockauth/internal/auth/otpflow"
	"github.com/dropDatabas3/stockauth/internal/auth/tokens"
	"github.com/dropDatabas3/stockauth/internal/domain/repository"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
)

// Flow son las fases 1 y 2 del handshake, comunes a todos los orquestadores.
type Flow interface {
	Request(ctx context.Context, in otpflow.RequestInput) (string, error)
	Verify(ctx context.Context, in otpflow.VerifyInput) (string, error)
}

// ─────────────── DTOs ───────────────

type otpRequestBody struct {
	Identifier string `json:"identifier"`
	SenderType string `json:"senderType,omitempty"`
}

type otpVerifyBody struct {
	OTP string `json:"otp"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type passwordBody struct {
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginBody struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type userResponse struct {
	ID             string    `json:"id"`
	Identifier     string    `json:"identifier"`
	IdentifierType string    `json:"identifierType"`
	Name           string    `json:"name,omitempty"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"createdAt"`
}

type signUpResponse struct {
	User userResponse `json:"user"`
	sessionResponse
}

type meResponse struct {
	UserID string `json:"userId"`
}

func toUser(u *repository.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Identifier:     u.Identifier,
		IdentifierType: string(u.IdentifierType),
		Name:           u.Name,
		Verified:       u.Verified,
		CreatedAt:      u.CreatedAt,
	}
}

// ─────────────── Handlers ───────────────

type handlers struct {
	flows    map[string]Flow
	set      *flows.Set
	accounts *local.Context
	tokens   *tokens.Service
	cookie   CookieConfig
	now      func() time.Time
	health   func(ctx context.Context) error
}

func (h *handlers) flow(w http.ResponseWriter, r *http.Request) (Flow, bool) {
	f, ok := h.flows[chi.URLParam(r, "flow")]
	if !ok {
		writeProblem(w, http.StatusNotFound, codeNotFound, "flujo desconocido")
	}
	return f, ok
}

// POST /v1/auth/{flow}/otp/request
func (h *handlers) otpRequest(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var body otpRequestBody
	if !ReadJSON(w, r, &body) {
		return
	}
	tok, err := f.Request(r.Context(), otpflow.RequestInput{
		Identifier: body.Identifier,
		SenderType: types.SenderType(body.SenderType),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{Token: tok})
}

// POST /v1/auth/{flow}/otp/verify
func (h *handlers) otpVerify(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var body otpVerifyBody
	if !ReadJSON(w, r, &body) {
		return
	}
	tok, err := f.Verify(r.Context(), otpflow.VerifyInput{OTP: body.OTP, Token: BearerToken(r)})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{Token: tok})
}

// POST /v1/auth/signup
func (h *handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var body passwordBody
	if !ReadJSON(w, r, &body) {
		return
	}
	res, err := h.set.SignUp.Execute(r.Context(), otpflow.ExecuteRequest[flows.SignUpData]{
		Data:  flows.SignUpData{Password: body.Password, Name: body.Name},
		Token: BearerToken(r),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	audit.Log(r.Context(), audit.UserCreated, logger.UserID(res.User.ID), logger.ClientIP(clientIP(r)))
	h.setRefreshCookie(w, res.Tokens)
	WriteJSON(w, http.StatusCreated, signUpResponse{User: toUser(res.User), sessionResponse: session(res.Tokens)})
}

// POST /v1/auth/password/reset
func (h *handlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body passwordBody
	if !ReadJSON(w, r, &body) {
		return
	}
	u, err := h.set.ForgotPassword.Execute(r.Context(), otpflow.ExecuteRequest[flows.ResetData]{
		Data:  flows.ResetData{Password: body.Password},
		Token: BearerToken(r),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	audit.Log(r.Context(), audit.PasswordReset, logger.UserID(u.ID), logger.ClientIP(clientIP(r)))
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/auth/otp-login
func (h *handlers) otpLogin(w http.ResponseWriter, r *http.Request) {
	pair, err := h.set.Login.Execute(r.Context(), otpflow.ExecuteRequest[flows.LoginData]{Token: BearerToken(r)})
	if err != nil {
		WriteError(w, err)
		return
	}
	audit.Log(r.Context(), audit.OTPLogin, logger.ClientIP(clientIP(r)))
	h.writeSession(w, pair)
}

// POST /v1/auth/login
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !ReadJSON(w, r, &body) {
		return
	}
	u, err := h.accounts.VerifyPassword(r.Context(), body.Identifier, body.Password)
	if err != nil {
		audit.Log(r.Context(), audit.LoginFailed, logger.Identifier(body.Identifier), logger.ClientIP(clientIP(r)))
		WriteError(w, err)
		return
	}
	pair, err := h.tokens.Generate(r.Context(), u.ID)
	if err != nil {
		WriteError(w, err)
		return
	}
	audit.Log(r.Context(), audit.LoginSucceeded, logger.UserID(u.ID), logger.ClientIP(clientIP(r)))
	h.writeSession(w, pair)
}

// POST /v1/auth/refresh
func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.tokens.Refresh(r.Context(), h.cookie.read(r))
	if err != nil {
		audit.Log(r.Context(), audit.RefreshRejected, logger.ClientIP(clientIP(r)))
		http.SetCookie(w, h.cookie.deletion())
		WriteError(w, err)
		return
	}
	audit.Log(r.Context(), audit.SessionRefresh, logger.ClientIP(clientIP(r)))
	h.writeSession(w, pair)
}

// POST /v1/auth/logout
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Revoke(r.Context(), h.cookie.read(r)); err != nil {
		WriteError(w, err)
		return
	}
	audit.Log(r.Context(), audit.SessionRevoked, logger.ClientIP(clientIP(r)))
	http.SetCookie(w, h.cookie.deletion())
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/me
func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, meResponse{UserID: UserIDFrom(r.Context())})
}

// GET /healthz
func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func session(p *tokens.Pair) sessionResponse {
	return sessionResponse{
		AccessToken: p.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(p.AccessExpiresIn.Seconds()),
	}
}

func (h *handlers) setRefreshCookie(w http.ResponseWriter, p *tokens.Pair) {
	http.SetCookie(w, h.cookie.build(p.RefreshToken, p.RefreshExpiresAt, h.now()))
}

func (h *handlers) writeSession(w http.ResponseWriter, p *tokens.Pair) {
	h.setRefreshCookie(w, p)
	WriteJSON(w, http.StatusOK, session(p))
}
