package autherr

import (
	"go.uber.org/zap"
)

// Log registra err con el nivel que corresponde a su categoría:
// warn para errores de dominio, error (con causa) para todo lo demás.
func Log(log *zap.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	ae, ok := As(err)
	if !ok {
		log.Error(msg, zap.Error(err))
		return
	}
	fields := []zap.Field{
		zap.String("error_code", string(ae.Code)),
		zap.String("error_kind", ae.Kind.String()),
	}
	if ae.Kind == KindDomain {
		log.Warn(msg, fields...)
		return
	}
	if ae.Err != nil {
		fields = append(fields, zap.NamedError("cause", ae.Err))
	}
	log.Error(msg, fields...)
}
