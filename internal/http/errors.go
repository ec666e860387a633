// Package http es el binding chi del core: endpoints de los flujos OTP,
// login por password, refresh/logout por cookie y la tabla código → status.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/dropDatabas3/stockauth/internal/autherr"
)

// statusByCode es la única tabla que traduce códigos del core a HTTP.
var statusByCode = map[autherr.Code]int{
	autherr.CodeOTPInvalid:           http.StatusUnauthorized,
	autherr.CodeOTPExpired:           http.StatusUnauthorized,
	autherr.CodeTokenExpired:         http.StatusUnauthorized,
	autherr.CodeUsedIdentifier:       http.StatusConflict,
	autherr.CodeIncorrectCredentials: http.StatusUnauthorized,
	autherr.CodeUserNotLocal:         http.StatusConflict,
	autherr.CodeRefreshTokenInvalid:  http.StatusUnauthorized,
	autherr.CodeMissingAccessToken:   http.StatusUnauthorized,
	autherr.CodeExpiredAccessToken:   http.StatusUnauthorized,
	autherr.CodeInvalidIdentifier:    http.StatusBadRequest,
	autherr.CodeUnsupportedSender:    http.StatusBadRequest,
	autherr.CodePasswordTooWeak:      http.StatusUnprocessableEntity,
	autherr.CodeRateLimited:          http.StatusTooManyRequests,

	// inesperados que en realidad son un token mal presentado por el cliente
	autherr.CodeTokenVerificationFailed: http.StatusUnauthorized,
	autherr.CodeOTPNotVerified:          http.StatusForbidden,
	autherr.CodeOTPTypeMismatch:         http.StatusForbidden,
}

const (
	codeInternal    = "INTERNAL_ERROR"
	codeInvalidJSON = "INVALID_JSON"
	codeNotFound    = "NOT_FOUND"
	msgInternal     = "Error interno del servidor."
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusOf resuelve el status de err: dominio desconocido → 400, resto → 500.
func StatusOf(err error) int {
	ae, ok := autherr.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if st, ok := statusByCode[ae.Code]; ok {
		return st
	}
	if ae.Kind == autherr.KindDomain {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteError escribe err como JSON. Los 5xx nunca exponen código ni causa.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	resp := errorResponse{Code: codeInternal, Message: msgInternal, RequestID: w.Header().Get("X-Request-ID")}
	if ae, ok := autherr.As(err); ok && status < http.StatusInternalServerError {
		resp.Code = string(ae.Code)
		resp.Message = ae.Message
	}
	WriteJSON(w, status, resp)
}

func writeProblem(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, errorResponse{Code: code, Message: msg, RequestID: w.Header().Get("X-Request-ID")})
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodifica el body (máx 64KB). Body vacío deja v en su valor cero.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength != 0 {
		ct := strings.ToLower(r.Header.Get("Content-Type"))
		if ct != "" && !strings.Contains(ct, "application/json") {
			writeProblem(w, http.StatusBadRequest, codeInvalidJSON, "Content-Type debe ser application/json")
			return false
		}
	}
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		writeProblem(w, http.StatusBadRequest, codeInvalidJSON, "json inválido")
		return false
	}
	return true
}
