package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del core de autenticación. Viven en un paquete aparte para que
// otp, auth/tokens y http las usen sin ciclos de import.

var (
	OTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockauth_otp_requests_total",
		Help: "OTPs generados y enviados",
	}, []string{"otp_type", "sender"})

	OTPVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockauth_otp_verifications_total",
		Help: "Verificaciones de OTP por resultado",
	}, []string{"otp_type", "result"})

	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockauth_tokens_issued_total",
		Help: "Tokens emitidos por tipo (access, refresh, state)",
	}, []string{"kind"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockauth_http_request_duration_seconds",
		Help:    "Latencia de requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Resultados de verificación.
const (
	ResultOK       = "ok"
	ResultInvalid  = "invalid"
	ResultExpired  = "expired"
	ResultFailed   = "error"
	KindAccess     = "access"
	KindRefresh    = "refresh"
	KindStateToken = "state"
)

// Register registra las métricas en reg (o en el default si es nil).
// Registrar dos veces no es un error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{OTPRequests, OTPVerifications, TokensIssued, HTTPRequestDuration} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

func OTPRequested(otpType, sender string) {
	OTPRequests.WithLabelValues(otpType, sender).Inc()
}

func OTPVerified(otpType, result string) {
	OTPVerifications.WithLabelValues(otpType, result).Inc()
}

func TokenIssued(kind string) {
	TokensIssued.WithLabelValues(kind).Inc()
}
