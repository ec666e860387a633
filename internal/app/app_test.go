package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stockauth/internal/config"
	"github.com/dropDatabas3/stockauth/internal/domain/types"
	"github.com/dropDatabas3/stockauth/internal/otp/sender"
)

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	email  *sender.Outbox
	client *http.Client
}

func newHarness(t *testing.T, yml string) *harness {
	t.Helper()
	cfg, err := config.Parse([]byte(yml))
	require.NoError(t, err)

	email := sender.NewOutbox(types.SenderEmail)
	a, err := New(context.Background(), cfg, WithStrategies(email, sender.NewOutbox(types.SenderSMS)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(a.Handler)
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv, email: email, client: srv.Client()}
}

const cheapYAML = `
password:
  argon2:
    memory_kib: 1024
    time: 1
`

func (h *harness) do(method, path, bearer string, body any, cookies ...*http.Cookie) (*http.Response, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &buf)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent && strings.Contains(resp.Header.Get("Content-Type"), "json") {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}

// verifiedToken corre request + verify y devuelve el token VERIFIED.
func (h *harness) verifiedToken(flow, ident string) string {
	h.t.Helper()
	resp, body := h.do(http.MethodPost, "/v1/auth/"+flow+"/otp/request", "", map[string]string{"identifier": ident})
	require.Equal(h.t, http.StatusOK, resp.StatusCode, body)
	t1 := body["token"].(string)

	msg, ok := h.email.Last(ident)
	require.True(h.t, ok)
	resp, body = h.do(http.MethodPost, "/v1/auth/"+flow+"/otp/verify", t1, map[string]string{"otp": msg.GeneratedOTP})
	require.Equal(h.t, http.StatusOK, resp.StatusCode, body)
	return body["token"].(string)
}

func TestHTTP_SignUpSessionLifecycle(t *testing.T) {
	h := newHarness(t, cheapYAML)
	ident := "user@example.com"

	// OTP incorrecto → 401 OTP_INVALID
	resp, body := h.do(http.MethodPost, "/v1/auth/signup/otp/request", "", map[string]string{"identifier": ident})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = h.do(http.MethodPost, "/v1/auth/signup/otp/verify", body["token"].(string), map[string]string{"otp": "000000"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "OTP_INVALID", body["code"])

	t2 := h.verifiedToken("signup", ident)
	resp, body = h.do(http.MethodPost, "/v1/auth/signup", t2, map[string]string{"password": "p@ss1234"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, ident, user["identifier"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	access := body["accessToken"].(string)
	rc := refreshCookie(resp)
	require.NotNil(t, rc)
	assert.True(t, rc.HttpOnly)

	resp, body = h.do(http.MethodGet, "/v1/me", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user["id"], body["userId"])

	// refresh rota la cookie
	resp, body = h.do(http.MethodPost, "/v1/auth/refresh", "", nil, rc)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	rotated := refreshCookie(resp)
	require.NotNil(t, rotated)
	assert.NotEqual(t, rc.Value, rotated.Value)

	// el viejo ya no sirve
	resp, body = h.do(http.MethodPost, "/v1/auth/refresh", "", nil, rc)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "REFRESH_TOKEN_INVALID", body["code"])

	// logout dos veces no falla
	resp, _ = h.do(http.MethodPost, "/v1/auth/logout", "", nil, rotated)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cleared := refreshCookie(resp)
	require.NotNil(t, cleared)
	assert.Equal(t, "", cleared.Value)
	resp, _ = h.do(http.MethodPost, "/v1/auth/logout", "", nil, rotated)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = h.do(http.MethodPost, "/v1/auth/refresh", "", nil, rotated)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// login por password
	resp, body = h.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"identifier": ident, "password": "p@ss1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Bearer", body["tokenType"])

	resp, body = h.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"identifier": ident, "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INCORRECT_CREDENTIALS", body["code"])
}

func TestHTTP_ExecuteWithUnverifiedToken(t *testing.T) {
	h := newHarness(t, cheapYAML)

	resp, body := h.do(http.MethodPost, "/v1/auth/signup/otp/request", "", map[string]string{"identifier": "a@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = h.do(http.MethodPost, "/v1/auth/signup", body["token"].(string), map[string]string{"password": "p@ss1234"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "OTP_NOT_VERIFIED", body["code"])
}

func TestHTTP_TokenFromOtherFlow(t *testing.T) {
	h := newHarness(t, cheapYAML)
	t2 := h.verifiedToken("signup", "b@example.com")

	resp, _ := h.do(http.MethodPost, "/v1/auth/password/reset", t2, map[string]string{"password": "p@ss1234"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHTTP_ForgotPasswordAndOTPLogin(t *testing.T) {
	h := newHarness(t, cheapYAML)
	ident := "c@example.com"

	resp, _ := h.do(http.MethodPost, "/v1/auth/signup", h.verifiedToken("signup", ident), map[string]string{"password": "p@ss1234"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := h.do(http.MethodPost, "/v1/auth/password/reset", h.verifiedToken("forgot-password", ident), map[string]string{"password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "PASSWORD_TOO_WEAK", body["code"])

	resp, _ = h.do(http.MethodPost, "/v1/auth/password/reset", h.verifiedToken("forgot-password", ident), map[string]string{"password": "nuevaClave1"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = h.do(http.MethodPost, "/v1/auth/otp-login", h.verifiedToken("login", ident), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotNil(t, refreshCookie(resp))
}

func TestHTTP_RequestValidation(t *testing.T) {
	h := newHarness(t, cheapYAML)

	resp, body := h.do(http.MethodPost, "/v1/auth/signup/otp/request", "", map[string]string{"identifier": "not-an-identifier"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_IDENTIFIER", body["code"])

	resp, body = h.do(http.MethodPost, "/v1/auth/signup/otp/request", "", map[string]string{"identifier": "d@example.com", "senderType": "sms"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "UNSUPPORTED_SENDER", body["code"])

	resp, _ = h.do(http.MethodPost, "/v1/auth/magic/otp/request", "", map[string]string{"identifier": "d@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = h.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ACCESS_TOKEN", body["code"])
}

func TestHTTP_OTPRateLimit(t *testing.T) {
	h := newHarness(t, cheapYAML+`
rate:
  otp:
    limit: 2
    window: 1m
`)
	in := map[string]string{"identifier": "e@example.com"}
	for i := 0; i < 2; i++ {
		resp, _ := h.do(http.MethodPost, "/v1/auth/login/otp/request", "", in)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := h.do(http.MethodPost, "/v1/auth/login/otp/request", "", in)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", body["code"])
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	h := newHarness(t, cheapYAML)

	resp, body := h.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	h.verifiedToken("signup", "f@example.com")

	resp, err := h.client.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "stockauth_otp_requests_total")
	assert.Contains(t, buf.String(), "stockauth_http_request_duration_seconds")
}

func TestNew_ProdRequiresRegisteredDefaultSender(t *testing.T) {
	cfg, err := config.Parse([]byte(`
app:
  env: prod
jwt:
  state_secret: s1
  access_secret: s2
`))
	require.NoError(t, err)
	// sin SMTP ni log_only, en prod no hay canal para email ni sms
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

// hitsRotatingForwardedFor manda GET /v1/me rotando X-Forwarded-For y devuelve los status.
func (h *harness) hitsRotatingForwardedFor(n int) []int {
	h.t.Helper()
	var codes []int
	for i := 0; i < n; i++ {
		req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/v1/me", nil)
		require.NoError(h.t, err)
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		resp, err := h.client.Do(req)
		require.NoError(h.t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	return codes
}

const tightIPLimitYAML = cheapYAML + `
rate:
  ip:
    rps: 0.0001
    burst: 2
`

func TestHTTP_ForwardedForIgnoredByDefault(t *testing.T) {
	h := newHarness(t, tightIPLimitYAML)
	codes := h.hitsRotatingForwardedFor(3)
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestHTTP_ForwardedForHonouredBehindTrustedProxy(t *testing.T) {
	h := newHarness(t, tightIPLimitYAML+`
server:
  trust_proxy: true
`)
	for _, code := range h.hitsRotatingForwardedFor(3) {
		assert.Equal(t, http.StatusUnauthorized, code)
	}
}

func TestHTTP_OTPGuessingLocksCode(t *testing.T) {
	h := newHarness(t, cheapYAML+`
otp:
  max_attempts: 3
`)
	ident := "victim@example.com"
	resp, body := h.do(http.MethodPost, "/v1/auth/signup/otp/request", "", map[string]string{"identifier": ident})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	t1 := body["token"].(string)

	for i := 0; i < 3; i++ {
		resp, body = h.do(http.MethodPost, "/v1/auth/signup/otp/verify", t1, map[string]string{"otp": "000000"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	msg, ok := h.email.Last(ident)
	require.True(t, ok)
	resp, body = h.do(http.MethodPost, "/v1/auth/signup/otp/verify", t1, map[string]string{"otp": msg.GeneratedOTP})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "OTP_INVALID", body["code"])
}
