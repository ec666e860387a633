// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces son los colaboradores que el core de autenticación consume:
// el core aplica las reglas de negocio (unicidad, expiración, hashing) y delega
// la persistencia a estas interfaces.
//
// Las implementaciones concretas viven en internal/store/{memory,pg}.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│   auth/local · auth/tokens · otp · auth/otpflow     │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  UserRepository, RefreshTokenRepository, OTPRepo    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	               ┌────────┴────────┐
//	               ▼                 ▼
//	        ┌─────────────┐   ┌─────────────┐
//	        │   memory    │   │     pg      │
//	        └─────────────┘   └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Los identificadores llegan ya normalizados (ver domain/types)
//   - Errores de dominio están en errors.go
package repository
