// Package otp genera, persiste y verifica códigos de un solo uso.
//
// Solo se guarda el hash del código. La verificación consulta siempre el registro
// más reciente por (identifier, type), de modo que pedir un código nuevo invalida
// el anterior para comparación.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// Generator devuelve códigos numéricos uniformes en [min, max].
type Generator struct {
	min   *big.Int
	span  *big.Int
	width int
}

// NewGenerator falla si min > max o si min es negativo (configuración inválida).
func NewGenerator(min, max int64) (*Generator, error) {
	if min < 0 {
		return nil, fmt.Errorf("otp: min must be >= 0, got %d", min)
	}
	if min > max {
		return nil, fmt.Errorf("otp: min (%d) > max (%d)", min, max)
	}
	// max-min+1 desborda int64 con max = MaxInt64
	span := new(big.Int).Sub(big.NewInt(max), big.NewInt(min))
	span.Add(span, big.NewInt(1))
	return &Generator{
		min:   big.NewInt(min),
		span:  span,
		width: len(strconv.FormatInt(max, 10)),
	}, nil
}

// Generate retorna un código con ceros a la izquierda hasta el ancho de max.
func (g *Generator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, g.span)
	if err != nil {
		return "", fmt.Errorf("otp: generate: %w", err)
	}
	n.Add(n, g.min)
	return fmt.Sprintf("%0*d", g.width, n), nil
}
