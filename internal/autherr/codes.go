package autherr

// =================================================================================
// CÓDIGOS DE DOMINIO
// =================================================================================

const (
	CodeOTPInvalid           Code = "OTP_INVALID"
	CodeOTPExpired           Code = "OTP_EXPIRED"
	CodeTokenExpired         Code = "TOKEN_EXPIRED"
	CodeUsedIdentifier       Code = "AUTH_USED_IDENTIFIER"
	CodeIncorrectCredentials Code = "INCORRECT_CREDENTIALS"
	CodeUserNotLocal         Code = "USER_NOT_LOCAL"
	CodeRefreshTokenInvalid  Code = "REFRESH_TOKEN_INVALID"
	CodeMissingAccessToken   Code = "MISSING_ACCESS_TOKEN"
	CodeExpiredAccessToken   Code = "EXPIRED_ACCESS_TOKEN"
	CodeInvalidIdentifier    Code = "INVALID_IDENTIFIER"
	CodeUnsupportedSender    Code = "UNSUPPORTED_SENDER"
	CodePasswordTooWeak      Code = "PASSWORD_TOO_WEAK"
	CodeRateLimited          Code = "RATE_LIMITED"
)

// =================================================================================
// CÓDIGOS INESPERADOS (por operación)
// =================================================================================

const (
	CodeOTPCreationFailed        Code = "OTP_CREATION_FAILED"
	CodeOTPVerificationFailed    Code = "OTP_VERIFICATION_FAILED"
	CodeOTPSenderNotFound        Code = "OTP_SENDER_NOT_FOUND"
	CodeOTPSendFailed            Code = "OTP_SEND_FAILED"
	CodeOTPNotVerified           Code = "OTP_NOT_VERIFIED"
	CodeOTPTypeMismatch          Code = "OTP_TYPE_MISMATCH"
	CodeTokenSignFailed          Code = "TOKEN_SIGN_FAILED"
	CodeTokenVerificationFailed  Code = "TOKEN_VERIFICATION_FAILED"
	CodeUserCreationFailed       Code = "AUTH_USER_CREATION_FAILED"
	CodePasswordVerificationFail Code = "AUTH_PASSWORD_VERIFICATION_FAILED"
	CodePasswordResetFailed      Code = "AUTH_PASSWORD_RESET_FAILED"
	CodeRefreshTokenCreateFailed Code = "REFRESHTOKEN_CREATE_FAILED"
	CodeRefreshTokenVerifyFailed Code = "REFRESHTOKEN_VERIFY_FAILED"
	CodeRefreshTokenRevokeFailed Code = "REFRESHTOKEN_REVOKE_FAILED"
	CodeAuthTokensFailed         Code = "AUTH_TOKENS_FAILED"
	CodeOTPFlowExecutionFailed   Code = "OTP_FLOW_EXECUTION_FAILED"
)

var unexpectedMessages = map[Code]string{
	CodeOTPCreationFailed:        "failed to create otp",
	CodeOTPVerificationFailed:    "failed to verify otp",
	CodeOTPSenderNotFound:        "no sender strategy registered for channel",
	CodeOTPSendFailed:            "failed to deliver otp",
	CodeOTPNotVerified:           "otp is not verified",
	CodeOTPTypeMismatch:          "token otp type does not match handler",
	CodeTokenSignFailed:          "failed to sign token",
	CodeTokenVerificationFailed:  "failed to verify token",
	CodeUserCreationFailed:       "failed to create user",
	CodePasswordVerificationFail: "failed to verify password",
	CodePasswordResetFailed:      "failed to reset password",
	CodeRefreshTokenCreateFailed: "failed to create refresh token",
	CodeRefreshTokenVerifyFailed: "failed to verify refresh token",
	CodeRefreshTokenRevokeFailed: "failed to revoke refresh token",
	CodeAuthTokensFailed:         "failed to issue auth tokens",
	CodeOTPFlowExecutionFailed:   "failed to execute otp flow action",
}

// =================================================================================
// ERRORES DE DOMINIO PREDEFINIDOS
// =================================================================================

var (
	ErrOTPInvalid = Domain(CodeOTPInvalid, "El código OTP es inválido.")
	ErrOTPExpired = Domain(CodeOTPExpired, "El código OTP ha expirado.")

	ErrTokenExpired = Domain(CodeTokenExpired, "El token ha expirado.")

	ErrUsedIdentifier       = Domain(CodeUsedIdentifier, "El identificador ya está registrado.")
	ErrIncorrectCredentials = Domain(CodeIncorrectCredentials, "Las credenciales proporcionadas son inválidas.")
	ErrUserNotLocal         = Domain(CodeUserNotLocal, "La cuenta no tiene credenciales locales.")
	ErrPasswordTooWeak      = Domain(CodePasswordTooWeak, "La contraseña no cumple con los requisitos de seguridad.")

	ErrRefreshTokenInvalid = Domain(CodeRefreshTokenInvalid, "El refresh token es inválido.")
	ErrMissingAccessToken  = Domain(CodeMissingAccessToken, "No se proporcionó token de acceso.")
	ErrExpiredAccessToken  = Domain(CodeExpiredAccessToken, "El token de acceso ha expirado.")

	ErrInvalidIdentifier = Domain(CodeInvalidIdentifier, "El identificador no es un email ni un teléfono válido.")
	ErrUnsupportedSender = Domain(CodeUnsupportedSender, "El canal de envío solicitado no está disponible.")
	ErrRateLimited       = Domain(CodeRateLimited, "Demasiadas solicitudes. Intente más tarde.")
)
