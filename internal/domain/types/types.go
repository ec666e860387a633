// Package types define tipos de dominio compartidos entre paquetes.
package types

// IdentifierType indica la forma del identificador primario de una cuenta.
type IdentifierType string

const (
	IdentifierEmail IdentifierType = "email"
	IdentifierPhone IdentifierType = "phone"
)

// IsValid retorna true si el tipo es conocido.
func (t IdentifierType) IsValid() bool {
	switch t {
	case IdentifierEmail, IdentifierPhone:
		return true
	}
	return false
}

// OTPType indica el propósito de un OTP. Cada orquestador se construye para uno solo.
type OTPType string

const (
	OTPSignUp         OTPType = "SIGN_UP"
	OTPLogin          OTPType = "LOGIN"
	OTPForgetPassword OTPType = "FORGET_PASSWORD"
	OTPVerifyEmail    OTPType = "VERIFY_EMAIL"
)

// AllOTPTypes lista los tipos soportados (orden estable).
var AllOTPTypes = []OTPType{OTPSignUp, OTPLogin, OTPForgetPassword, OTPVerifyEmail}

// IsValid retorna true si el tipo es conocido.
func (t OTPType) IsValid() bool {
	switch t {
	case OTPSignUp, OTPLogin, OTPForgetPassword, OTPVerifyEmail:
		return true
	}
	return false
}

// SenderType es el canal por el que se entrega un OTP.
type SenderType string

const (
	SenderEmail    SenderType = "email"
	SenderSMS      SenderType = "sms"
	SenderWhatsApp SenderType = "whatsapp"
)

// IsValid retorna true si el canal es conocido.
func (s SenderType) IsValid() bool {
	switch s {
	case SenderEmail, SenderSMS, SenderWhatsApp:
		return true
	}
	return false
}

// DefaultSenders es la tabla identificador → canal por defecto.
func DefaultSenders() map[IdentifierType]SenderType {
	return map[IdentifierType]SenderType{
		IdentifierEmail: SenderEmail,
		IdentifierPhone: SenderSMS,
	}
}
