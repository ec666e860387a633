// Package sender resuelve el canal de entrega de un OTP (email, sms, whatsapp).
//
// Las estrategias se registran una vez al componer la app; el registry se consulta
// por tag en cada envío.
package sender

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

// Message es lo que recibe una estrategia: el tiempo ya viene humanizado
// para el template.
type Message struct {
	Recipient    string
	GeneratedOTP string
	OTPType      types.OTPType
	TimeValue    int
	TimeUnit     string
}

// Strategy entrega un OTP por un canal concreto.
type Strategy interface {
	Type() types.SenderType
	Send(ctx context.Context, msg Message) error
}

// Params son los datos de un envío antes de elegir estrategia.
type Params struct {
	Recipient    string
	GeneratedOTP string
	OTPType      types.OTPType
	SenderType   types.SenderType
	ExpiresIn    time.Duration
}

// Registry mapea SenderType → Strategy.
type Registry struct {
	strategies map[types.SenderType]Strategy
}

// NewRegistry valida y registra las estrategias. Tags inválidos o duplicados
// son errores de composición.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[types.SenderType]Strategy, len(strategies))}
	for _, s := range strategies {
		if s == nil {
			return nil, fmt.Errorf("sender: nil strategy")
		}
		t := s.Type()
		if !t.IsValid() {
			return nil, fmt.Errorf("sender: invalid sender type %q", t)
		}
		if _, dup := r.strategies[t]; dup {
			return nil, fmt.Errorf("sender: duplicated strategy for %q", t)
		}
		r.strategies[t] = s
	}
	return r, nil
}

// Has indica si hay estrategia para t.
func (r *Registry) Has(t types.SenderType) bool {
	_, ok := r.strategies[t]
	return ok
}

// Types lista los canales registrados (ordenados).
func (r *Registry) Types() []types.SenderType {
	out := make([]types.SenderType, 0, len(r.strategies))
	for t := range r.strategies {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Send delega en la estrategia de p.SenderType.
// Sin estrategia → OTP_SENDER_NOT_FOUND (inesperado, no reintentar).
func (r *Registry) Send(ctx context.Context, p Params) error {
	s, ok := r.strategies[p.SenderType]
	if !ok {
		return autherr.Unexpected(autherr.CodeOTPSenderNotFound,
			fmt.Errorf("sender: no strategy for %q", p.SenderType))
	}
	value, unit := Humanize(p.ExpiresIn)
	err := s.Send(ctx, Message{
		Recipient:    p.Recipient,
		GeneratedOTP: p.GeneratedOTP,
		OTPType:      p.OTPType,
		TimeValue:    value,
		TimeUnit:     unit,
	})
	return autherr.Handle(err, autherr.CodeOTPSendFailed)
}
