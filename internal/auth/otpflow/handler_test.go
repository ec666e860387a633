package otpflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stockauth/internal/auth/local"
	"github.com/dropDatabas3/stockauth/internal/autherr"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/otp"
	"github.com/dropDatabas3/stockauth/internal/otp/sender"
	"github.com/dropDatabas3/stockauth/internal/rate"
	"github.com/dropDatabas3/stockauth/internal/security/password"
	"github.com/dropDatabas3/stockauth/internal/security/signer"
	"github.com/dropDatabas3/stockauth/internal/store/memory"
)

var cheap = password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16, SaltLen: 8}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type SignUpData struct {
	Password string
}

type CreatedUser struct {
	ID         string
	Identifier string
}

type env struct {
	clock   *clock
	outbox  *sender.Outbox
	sms     *sender.Outbox
	signer  *signer.Signer[State]
	creator *otp.CreateService
	verify  *otp.VerifyService
	reg     *sender.Registry
	auth    *local.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	c := &clock{t: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	st := memory.New().WithClock(c.now)
	h := password.NewArgon2(cheap)

	box := sender.NewOutbox(types.SenderEmail)
	sms := sender.NewOutbox(types.SenderSMS)
	reg, err := sender.NewRegistry(box, sms)
	require.NoError(t, err)
	gen, err := otp.NewGenerator(100000, 999999)
	require.NoError(t, err)
	sg, err := signer.New[State]([]byte("state-secret"), signer.WithClock(c.now))
	require.NoError(t, err)
	auth, err := local.NewContext(h, password.Policy{MinLength: 8},
		local.NewEmailStrategy(st.Users()), local.NewPhoneStrategy(st.Users()))
	require.NoError(t, err)

	return &env{
		clock:   c,
		outbox:  box,
		sms:     sms,
		signer:  sg,
		creator: otp.NewCreateService(otp.CreateDeps{Repo: st.OTPs(), Hasher: h, Generator: gen, Sender: reg, Now: c.now}),
		verify:  otp.NewVerifyService(st.OTPs(), h, c.now),
		reg:     reg,
		auth:    auth,
	}
}

func (e *env) signUpHandler(t *testing.T, otpType types.OTPType, limiter rate.Limiter) *Handler[SignUpData, CreatedUser] {
	t.Helper()
	h, err := New(Config[SignUpData, CreatedUser]{
		OTPType:  otpType,
		Creator:  e.creator,
		Verifier: e.verify,
		Signer:   e.signer,
		Senders:  e.reg,
		Limiter:  limiter,
		Execute: func(ctx context.Context, in ExecuteInput[SignUpData]) (CreatedUser, error) {
			u, err := e.auth.CreateUser(ctx, local.CreateUserInput{Identifier: in.Identifier, Password: in.Data.Password, Verified: true})
			if err != nil {
				return CreatedUser{}, err
			}
			return CreatedUser{ID: u.ID, Identifier: u.Identifier}, nil
		},
	})
	require.NoError(t, err)
	return h
}

func (e *env) lastCode(t *testing.T, recipient string) string {
	t.Helper()
	msg, ok := e.outbox.Last(recipient)
	require.True(t, ok)
	return msg.GeneratedOTP
}

func wrongCode(code string) string {
	if code == "100000" {
		return "100001"
	}
	return "100000"
}

func TestSignUpFlow_EndToEnd(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPSignUp, nil)
	ctx := context.Background()

	t1, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	code := e.lastCode(t, "user@example.com")

	_, err = h.Verify(ctx, VerifyInput{OTP: wrongCode(code), Token: t1})
	assert.ErrorIs(t, err, autherr.ErrOTPInvalid)

	t2, err := h.Verify(ctx, VerifyInput{OTP: code, Token: t1})
	require.NoError(t, err)
	st, err := e.signer.Verify(t2)
	require.NoError(t, err)
	assert.Equal(t, State{Identifier: "user@example.com", OTPType: types.OTPSignUp, Verified: true}, st)

	u, err := h.Execute(ctx, ExecuteRequest[SignUpData]{Data: SignUpData{Password: "p@ss1234"}, Token: t2})
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", u.Identifier)
	assert.NotEmpty(t, u.ID)

	// el identificador ya está usado
	t1b, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	t2b, err := h.Verify(ctx, VerifyInput{OTP: e.lastCode(t, "user@example.com"), Token: t1b})
	require.NoError(t, err)
	_, err = h.Execute(ctx, ExecuteRequest[SignUpData]{Data: SignUpData{Password: "p@ss1234"}, Token: t2b})
	assert.ErrorIs(t, err, autherr.ErrUsedIdentifier)
}

func TestExecute_RequiresVerifiedToken(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPSignUp, nil)
	ctx := context.Background()

	t1, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)

	for _, pwd := range []string{"p@ss1234", "", "otra-clave-larga"} {
		_, err := h.Execute(ctx, ExecuteRequest[SignUpData]{Data: SignUpData{Password: pwd}, Token: t1})
		require.Error(t, err)
		assert.Equal(t, autherr.CodeOTPNotVerified, autherr.CodeOf(err))
	}
}

func TestTokenBoundToOTPType(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	byType := map[types.OTPType]*Handler[SignUpData, CreatedUser]{}
	for _, ot := range types.AllOTPTypes {
		byType[ot] = e.signUpHandler(t, ot, nil)
	}

	for _, a := range types.AllOTPTypes {
		t1, err := byType[a].Request(ctx, RequestInput{Identifier: "user@example.com"})
		require.NoError(t, err)
		code := e.lastCode(t, "user@example.com")
		t2, err := byType[a].Verify(ctx, VerifyInput{OTP: code, Token: t1})
		require.NoError(t, err)

		for _, b := range types.AllOTPTypes {
			if a == b {
				continue
			}
			_, err := byType[b].Verify(ctx, VerifyInput{OTP: code, Token: t1})
			assert.Equal(t, autherr.CodeOTPTypeMismatch, autherr.CodeOf(err), "%s→%s verify", a, b)
			_, err = byType[b].Execute(ctx, ExecuteRequest[SignUpData]{Token: t2})
			assert.Equal(t, autherr.CodeOTPTypeMismatch, autherr.CodeOf(err), "%s→%s execute", a, b)
		}
	}
}

func TestVerify_OTPExpiredAfterTTL(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPSignUp, nil)
	ctx := context.Background()

	t1, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	code := e.lastCode(t, "user@example.com")

	e.clock.t = e.clock.t.Add(11 * time.Minute)
	_, err = h.Verify(ctx, VerifyInput{OTP: code, Token: t1})
	assert.ErrorIs(t, err, autherr.ErrOTPExpired)
}

func TestVerify_StateTokenExpired(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPSignUp, nil)
	ctx := context.Background()

	t1, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)

	e.clock.t = e.clock.t.Add(DefaultStateTTL)
	_, err = h.Verify(ctx, VerifyInput{OTP: e.lastCode(t, "user@example.com"), Token: t1})
	assert.ErrorIs(t, err, autherr.ErrTokenExpired)
}

func TestVerify_TamperedToken(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPSignUp, nil)

	_, err := h.Verify(context.Background(), VerifyInput{OTP: "123456", Token: "eyJhbGciOiJIUzI1NiJ9.e30.bad"})
	assert.Equal(t, autherr.CodeTokenVerificationFailed, autherr.CodeOf(err))
}

func TestRequest_SenderSelection(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPLogin, nil)
	ctx := context.Background()

	_, err := h.Request(ctx, RequestInput{Identifier: "+54 9 11 5555-1234"})
	require.NoError(t, err)
	_, ok := e.sms.Last("+5491155551234")
	assert.True(t, ok)

	_, err = h.Request(ctx, RequestInput{Identifier: "+5491155551234", SenderType: types.SenderWhatsApp})
	assert.ErrorIs(t, err, autherr.ErrUnsupportedSender)

	_, err = h.Request(ctx, RequestInput{Identifier: "user@example.com", SenderType: types.SenderSMS})
	assert.ErrorIs(t, err, autherr.ErrUnsupportedSender)

	_, err = h.Request(ctx, RequestInput{Identifier: "definitely not valid"})
	assert.ErrorIs(t, err, autherr.ErrInvalidIdentifier)
}

func TestRequest_RateLimited(t *testing.T) {
	e := newEnv(t)
	lim := rate.NewMemoryLimiter(1, time.Minute).WithClock(e.clock.now)
	h := e.signUpHandler(t, types.OTPSignUp, lim)
	ctx := context.Background()

	_, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	_, err = h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	assert.ErrorIs(t, err, autherr.ErrRateLimited)
	assert.Equal(t, 1, e.outbox.Len())
}

func TestRequest_SupersededTokensShareLatestCode(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPLogin, nil)
	ctx := context.Background()

	older, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	e.clock.t = e.clock.t.Add(time.Second)
	newer, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	code := e.lastCode(t, "user@example.com")

	// ambos tokens siguen siendo válidos y el código vigente es el último
	_, err = h.Verify(ctx, VerifyInput{OTP: code, Token: older})
	require.NoError(t, err)
	// consumido por el primer verify
	_, err = h.Verify(ctx, VerifyInput{OTP: code, Token: newer})
	assert.ErrorIs(t, err, autherr.ErrOTPInvalid)
}

func TestExecute_WrapsUnexpectedActionErrors(t *testing.T) {
	e := newEnv(t)
	h, err := New(Config[struct{}, string]{
		OTPType: types.OTPVerifyEmail, Creator: e.creator, Verifier: e.verify, Signer: e.signer, Senders: e.reg,
		Execute: func(context.Context, ExecuteInput[struct{}]) (string, error) {
			return "", errors.New("downstream unavailable")
		},
	})
	require.NoError(t, err)
	ctx := context.Background()

	t1, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	t2, err := h.Verify(ctx, VerifyInput{OTP: e.lastCode(t, "user@example.com"), Token: t1})
	require.NoError(t, err)
	_, err = h.Execute(ctx, ExecuteRequest[struct{}]{Token: t2})
	assert.Equal(t, autherr.CodeOTPFlowExecutionFailed, autherr.CodeOf(err))
}

func TestNew_ValidatesDefaultSenders(t *testing.T) {
	e := newEnv(t)
	onlyEmail, err := sender.NewRegistry(sender.NewOutbox(types.SenderEmail))
	require.NoError(t, err)

	base := Config[struct{}, struct{}]{
		OTPType: types.OTPLogin, Creator: e.creator, Verifier: e.verify, Signer: e.signer,
		Execute: func(context.Context, ExecuteInput[struct{}]) (struct{}, error) { return struct{}{}, nil },
	}

	cfg := base
	cfg.Senders = onlyEmail // phone → sms no registrado
	_, err = New(cfg)
	assert.Error(t, err)

	cfg.DefaultSenders = map[types.IdentifierType]types.SenderType{types.IdentifierEmail: types.SenderEmail}
	_, err = New(cfg)
	assert.NoError(t, err)

	cfg.DefaultSenders = map[types.IdentifierType]types.SenderType{types.IdentifierEmail: types.SenderSMS}
	cfg.Senders = e.reg
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = base
	cfg.Senders = e.reg
	cfg.OTPType = "MAGIC"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestVerify_GuessingExhaustsCode(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPSignUp, rate.NewMemoryLimiter(5, 10*time.Minute))
	ctx := context.Background()

	t1, err := h.Request(ctx, RequestInput{Identifier: "victim@example.com"})
	require.NoError(t, err)
	code := e.lastCode(t, "victim@example.com")

	for i := 0; i < 50; i++ {
		_, err := h.Verify(ctx, VerifyInput{OTP: wrongCode(code), Token: t1})
		require.ErrorIs(t, err, autherr.ErrOTPInvalid)
	}
	t2, err := h.Verify(ctx, VerifyInput{OTP: code, Token: t1})
	assert.ErrorIs(t, err, autherr.ErrOTPInvalid)
	assert.Empty(t, t2)
}

func TestExecute_VerifiedTokenOutlivedByStateTTL(t *testing.T) {
	e := newEnv(t)
	h := e.signUpHandler(t, types.OTPSignUp, nil)
	ctx := context.Background()

	t1, err := h.Request(ctx, RequestInput{Identifier: "user@example.com"})
	require.NoError(t, err)
	t2, err := h.Verify(ctx, VerifyInput{OTP: e.lastCode(t, "user@example.com"), Token: t1})
	require.NoError(t, err)

	e.clock.t = e.clock.t.Add(DefaultVerifiedTTL + time.Second)

	_, err = h.Execute(ctx, ExecuteRequest[SignUpData]{Data: SignUpData{Password: "p@ss1234"}, Token: t2})
	assert.ErrorIs(t, err, autherr.ErrTokenExpired)
	_, err = e.signer.Verify(t1)
	assert.NoError(t, err, "el token UNVERIFIED sigue dentro de su vigencia")
}

func TestNew_VerifiedTTLCappedByStateTTL(t *testing.T) {
	e := newEnv(t)
	h, err := New(Config[SignUpData, CreatedUser]{
		OTPType:     types.OTPLogin,
		Creator:     e.creator,
		Verifier:    e.verify,
		Signer:      e.signer,
		Senders:     e.reg,
		StateTTL:    time.Minute,
		VerifiedTTL: time.Hour,
		Execute: func(context.Context, ExecuteInput[SignUpData]) (CreatedUser, error) {
			return CreatedUser{}, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, h.verified)
}
