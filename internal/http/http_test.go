package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stockauth/internal/autherr"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{autherr.ErrOTPInvalid, http.StatusUnauthorized},
		{autherr.ErrOTPExpired.WithCause(errors.New("x")), http.StatusUnauthorized},
		{autherr.ErrUsedIdentifier, http.StatusConflict},
		{autherr.ErrInvalidIdentifier, http.StatusBadRequest},
		{autherr.ErrPasswordTooWeak, http.StatusUnprocessableEntity},
		{autherr.ErrRateLimited, http.StatusTooManyRequests},
		{autherr.Domain("SOMETHING_NEW", "nuevo"), http.StatusBadRequest},
		{autherr.Unexpected(autherr.CodeOTPNotVerified, nil), http.StatusForbidden},
		{autherr.Unexpected(autherr.CodeOTPTypeMismatch, nil), http.StatusForbidden},
		{autherr.Unexpected(autherr.CodeTokenVerificationFailed, nil), http.StatusUnauthorized},
		{autherr.Unexpected(autherr.CodeOTPCreationFailed, errors.New("db")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusOf(c.err), c.err.Error())
	}
}

func TestWriteError_HidesUnexpectedDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, autherr.Unexpected(autherr.CodeOTPCreationFailed, errors.New("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, codeInternal)
	assert.NotContains(t, body, "connection refused")
	assert.NotContains(t, body, string(autherr.CodeOTPCreationFailed))
}

func TestWriteError_Domain(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "rid-1")
	WriteError(rec, autherr.ErrOTPInvalid.WithCause(errors.New("hash mismatch")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code":"OTP_INVALID","message":"El código OTP es inválido.","request_id":"rid-1"}`, rec.Body.String())
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", BearerToken(r))

	r.Header.Set("Authorization", "bearer   xyz ")
	assert.Equal(t, "xyz", BearerToken(r))

	r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Equal(t, "", BearerToken(r))
}

func TestCookieConfig(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := CookieConfig{Secure: true, SameSite: "strict"}

	ck := c.build("opaque", now.Add(time.Hour), now)
	assert.Equal(t, "refresh_token", ck.Name)
	assert.Equal(t, 3600, ck.MaxAge)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)

	del := c.deletion()
	assert.Equal(t, -1, del.MaxAge)
	assert.Empty(t, del.Value)

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.Equal(t, "", c.read(r))
	r.AddCookie(ck)
	assert.Equal(t, "opaque", c.read(r))
}

func TestReadJSON(t *testing.T) {
	var v struct{ A string }

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"A":"x"}`))
	r.Header.Set("Content-Type", "application/json")
	require.True(t, ReadJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "x", v.A)

	rec := httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	r.Header.Set("Content-Type", "application/json")
	assert.False(t, ReadJSON(rec, r, &v))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`a=b`))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.False(t, ReadJSON(rec, r, &v))

	// body vacío es válido
	r = httptest.NewRequest(http.MethodPost, "/", nil)
	assert.True(t, ReadJSON(httptest.NewRecorder(), r, &v))
}

func TestIPRateLimit(t *testing.T) {
	assert.Nil(t, NewIPLimiter(0, 10))

	l := NewIPLimiter(0.0001, 2)
	h := WithIPRateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(ip, path string) int {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		r.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1", "/v1/auth/login"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1", "/v1/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1", "/v1/auth/login"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2", "/v1/auth/login"), "otra IP tiene su propio bucket")
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1", "/healthz"))
}

func TestWithRecover(t *testing.T) {
	h := WithRequestID(WithRecover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotContains(t, rec.Body.String(), "boom")
}
