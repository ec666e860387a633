package sender

import (
	"bytes"
	"context"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"

	"go.uber.org/zap"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
)

var subjects = map[types.OTPType]string{
	types.OTPSignUp:         "Tu código para crear la cuenta",
	types.OTPLogin:          "Tu código de inicio de sesión",
	types.OTPForgetPassword: "Tu código para restablecer la contraseña",
	types.OTPVerifyEmail:    "Verificá tu email",
}

const otpText = `Hola,

Tu código es: {{.GeneratedOTP}}

Vence en {{.TimeValue}} {{.TimeUnit}}. Si no lo pediste, ignorá este mensaje.
`

const otpHTML = `<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hola,</p>
<p>Tu código es:</p>
<p style="font-size:28px;letter-spacing:4px"><strong>{{.GeneratedOTP}}</strong></p>
<p>Vence en {{.TimeValue}} {{.TimeUnit}}. Si no lo pediste, ignorá este mensaje.</p>
</body></html>
`

var (
	textTmpl = texttpl.Must(texttpl.New("otp_txt").Parse(otpText))
	htmlTmpl = htmltpl.Must(htmltpl.New("otp_html").Parse(otpHTML))
)

// EmailStrategy entrega OTPs por email a través de un Mailer.
type EmailStrategy struct {
	mailer Mailer
	log    *zap.Logger
}

func NewEmailStrategy(m Mailer) *EmailStrategy {
	return &EmailStrategy{mailer: m, log: logger.Named("sender")}
}

func (s *EmailStrategy) Type() types.SenderType { return types.SenderEmail }

// Render arma subject, html y texto para un mensaje.
func Render(msg Message) (subject, html, text string, err error) {
	subject, ok := subjects[msg.OTPType]
	if !ok {
		subject = "Tu código de verificación"
	}
	var tb, hb bytes.Buffer
	if err := textTmpl.Execute(&tb, msg); err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	if err := htmlTmpl.Execute(&hb, msg); err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	return subject, hb.String(), tb.String(), nil
}

func (s *EmailStrategy) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := s.log.With(logger.Component("sender.email"), logger.Identifier(msg.Recipient), logger.OTPType(string(msg.OTPType)))

	subject, html, text, err := Render(msg)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(msg.Recipient, subject, html, text); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return err
	}
	log.Info("otp email sent")
	return nil
}
