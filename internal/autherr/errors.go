// Package autherr define la taxonomía de errores del core de autenticación.
//
// Hay exactamente dos categorías:
//
//   - Domain: errores esperados, accionables por el usuario, con un código estable
//     (OTP_INVALID, TOKEN_EXPIRED, ...). Se loguean en warn y nunca se re-envuelven.
//   - Unexpected: fallas internas o de infraestructura con un código por operación
//     (OTP_CREATION_FAILED, ...). Siempre conservan la causa original y se loguean en error.
//
// El core no conoce status HTTP; la capa de transporte mapea Code → status con una tabla estática.
package autherr

import (
	"errors"
	"fmt"
)

// Kind clasifica un error en una de las dos categorías.
type Kind int

const (
	KindDomain Kind = iota + 1
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Code es el identificador estable (y traducible) de un error.
type Code string

// Error es el único tipo de error que devuelven las operaciones públicas del core.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error // causa original, solo para logs
}

// Error implementa la interfaz error
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *Error) Unwrap() error {
	return e.Err
}

// Is compara por código, de modo que errors.Is(err, autherr.ErrOTPInvalid) funciona
// aunque err sea una copia con causa o mensaje distinto.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause devuelve una COPIA del error con la causa dada.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage devuelve una COPIA del error con otro mensaje.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Domain construye un error de dominio.
func Domain(code Code, message string) *Error {
	return &Error{Kind: KindDomain, Code: code, Message: message}
}

// Unexpected construye un error inesperado envolviendo la causa.
func Unexpected(code Code, cause error) *Error {
	msg := "unexpected error"
	if m, ok := unexpectedMessages[code]; ok {
		msg = m
	}
	return &Error{Kind: KindUnexpected, Code: code, Message: msg, Err: cause}
}

// Handle aplica la política uniforme de propagación:
// los errores de dominio pasan sin cambios, cualquier otra cosa se envuelve
// como Unexpected con el código de la operación.
func Handle(err error, code Code) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind == KindDomain {
		return err
	}
	return Unexpected(code, err)
}

// As extrae el *Error de la cadena. ok=false si err no pertenece a la taxonomía.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsDomain indica si err es un error de dominio.
func IsDomain(err error) bool {
	ae, ok := As(err)
	return ok && ae.Kind == KindDomain
}

// CodeOf retorna el código del error, o "" si no es un *Error.
func CodeOf(err error) Code {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return ""
}
