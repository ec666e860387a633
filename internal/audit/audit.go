// Package audit registra eventos de seguridad (altas, logins, resets, logout)
// en un logger dedicado, separado del log de requests.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/stockauth/internal/observability/logger"
)

// Event es el nombre estable de un evento de auditoría.
type Event string

const (
	UserCreated     Event = "user.created"
	LoginSucceeded  Event = "login.succeeded"
	LoginFailed     Event = "login.failed"
	OTPLogin        Event = "login.otp"
	PasswordReset   Event = "password.reset"
	SessionRefresh  Event = "session.refreshed"
	SessionRevoked  Event = "session.revoked"
	RefreshRejected Event = "session.refresh_rejected"
)

// Log escribe event con los campos del request en curso (request_id, user_id)
// que ya traiga el logger del contexto.
func Log(ctx context.Context, event Event, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(string(event), append(fields, zap.String("event", string(event)))...)
}
