package sender

import (
	"context"
	"sync"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

// Outbox guarda en memoria los mensajes enviados por canal.
// Se usa en tests y en dev para leer el último código de un destinatario.
type Outbox struct {
	channel types.SenderType

	mu   sync.Mutex
	sent []Message
}

func NewOutbox(channel types.SenderType) *Outbox {
	return &Outbox{channel: channel}
}

func (o *Outbox) Type() types.SenderType { return o.channel }

func (o *Outbox) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.mu.Lock()
	o.sent = append(o.sent, msg)
	o.mu.Unlock()
	return nil
}

// Last devuelve el último mensaje enviado a recipient.
func (o *Outbox) Last(recipient string) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Recipient == recipient {
			return o.sent[i], true
		}
	}
	return Message{}, false
}

// Len es la cantidad total de mensajes.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}
