package sender

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/observability/logger"
)

// LogStrategy no entrega nada: registra el envío (sin el código).
// Sirve para canales sin proveedor configurado (sms/whatsapp en dev).
type LogStrategy struct {
	channel types.SenderType
	log     *zap.Logger
}

func NewLogStrategy(channel types.SenderType, log *zap.Logger) *LogStrategy {
	if log == nil {
		log = logger.L()
	}
	return &LogStrategy{channel: channel, log: log.Named("sender")}
}

func (s *LogStrategy) Type() types.SenderType { return s.channel }

func (s *LogStrategy) Send(ctx context.Context, msg Message) error {
	s.log.Info("otp delivery (log only)",
		logger.SenderType(string(s.channel)),
		logger.Identifier(msg.Recipient),
		logger.OTPType(string(msg.OTPType)),
		logger.Int("time_value", msg.TimeValue),
		logger.String("time_unit", msg.TimeUnit),
	)
	return nil
}
