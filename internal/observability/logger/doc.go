// Package logger expone un logger Zap singleton con scoping por contexto.
//
//   - Singleton: una sola instancia inicializada con Init().
//   - Context scoping: cada request lleva su logger con request_id y demás campos
//     (ToContext/From), sin crear un core nuevo.
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//
// Uso típico en un service:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("otp.create"))
//	log.Info("otp issued", logger.Identifier(identifier), logger.OTPType(string(t)))
//
// Los identificadores se enmascaran siempre; códigos OTP y passwords no se loguean nunca.
package logger
