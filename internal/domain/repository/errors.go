package repository

import "errors"

// Sentinels que devuelven todos los adapters. Los servicios los traducen a
// errores de autherr; nunca llegan al transporte tal cual.
var (
	// ErrNotFound: usuario, refresh token u OTP inexistente (o OTP ya consumido).
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict: identificador o hash de token duplicado.
	ErrConflict = errors.New("repository: conflict")

	// ErrInvalidInput: input rechazado por el adapter antes de tocar el storage.
	ErrInvalidInput = errors.New("repository: invalid input")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
