package sender

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"
)

// SMTPConfig configura el transporte SMTP.
type SMTPConfig struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// Mailer envía un email multipart (texto + html).
type Mailer interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPMailer implementa Mailer con go-mail.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	return &SMTPMailer{cfg: cfg}
}

func (s *SMTPMailer) message(to, subject, htmlBody, textBody string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// multipart/alternative (txt + html)
	switch {
	case textBody != "" && htmlBody != "":
		m.SetBody("text/plain", textBody)
		m.AddAlternative("text/html", htmlBody)
	case htmlBody != "":
		m.SetBody("text/html", htmlBody)
	default:
		m.SetBody("text/plain", textBody)
	}
	return m
}

func (s *SMTPMailer) dialer() *mail.Dialer {
	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify, // solo dev
	}
	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.cfg.InsecureSkipVerify}
		d.StartTLSPolicy = mail.NoStartTLS
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	default:
		// "auto": go-mail negocia STARTTLS si el server lo ofrece
	}
	return d
}

func (s *SMTPMailer) Send(to, subject, htmlBody, textBody string) error {
	if err := s.dialer().DialAndSend(s.message(to, subject, htmlBody, textBody)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
