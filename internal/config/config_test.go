package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stockauth/internal/domain/types"
)

func TestParse_Defaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, 10*time.Minute, c.AccessTTL())
	assert.Equal(t, 30*time.Minute, c.StateTTL())
	assert.Equal(t, 5*time.Minute, c.VerifiedTTL())
	assert.Equal(t, 720*time.Hour, c.RefreshTTL())
	assert.Equal(t, int64(100000), c.OTP.Min)
	assert.Equal(t, int64(999999), c.OTP.Max)
	assert.Equal(t, 5, c.OTP.MaxAttempts)
	assert.False(t, c.Server.TrustProxy)
	assert.Equal(t, 8, c.Password.MinLength)
	assert.Equal(t, "refresh_token", c.Cookie.Name)

	d := c.OTPDurations()
	assert.Equal(t, 10*time.Minute, d[types.OTPSignUp])
	assert.Equal(t, 5*time.Minute, d[types.OTPLogin])
	assert.Equal(t, 10*time.Minute, d[types.OTPForgetPassword])
	assert.Equal(t, 24*time.Hour, d[types.OTPVerifyEmail])

	assert.Equal(t, types.DefaultSenders(), c.DefaultSenders())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  addr: ":9000"
jwt:
  state_secret: "state-secret"
  access_secret: "access-secret"
  refresh_ttl: "7d"
otp:
  ttl:
    LOGIN: "2m"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("SERVER_ADDR", ":9100")
	t.Setenv("OTP_MIN", "1000")
	t.Setenv("OTP_MAX", "9999")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", c.Server.Addr, "env pisa yaml")
	assert.Equal(t, 7*24*time.Hour, c.RefreshTTL())
	assert.Equal(t, 2*time.Minute, c.OTPDurations()[types.OTPLogin])
	assert.Equal(t, 10*time.Minute, c.OTPDurations()[types.OTPSignUp], "el resto conserva defaults")
	assert.Equal(t, int64(1000), c.OTP.Min)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := map[string]string{
		"prod sin secretos": `
app:
  env: prod
`,
		"secretos iguales": `
jwt:
  state_secret: same
  access_secret: same
`,
		"min mayor que max": `
otp:
  min: 10
  max: 5
`,
		"duración inválida": `
jwt:
  access_ttl: "diez minutos"
`,
		"sender desconocido": `
senders:
  defaults:
    email: pigeon
`,
		"tipo otp desconocido": `
otp:
  ttl:
    MAGIC: 5m
`,
		"postgres sin dsn": `
storage:
  driver: postgres
`,
		"redis sin addr": `
rate:
  kind: redis
`,
		"verified_ttl mayor que state_ttl": `
jwt:
  state_ttl: 5m
  verified_ttl: 10m
`,
		"max_attempts negativo": `
otp:
  max_attempts: -1
`,
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestValidate_ProdWithSecrets(t *testing.T) {
	yml := `
app:
  env: prod
jwt:
  state_secret: s1
  access_secret: s2
`
	c, err := Parse([]byte(yml))
	require.NoError(t, err)
	assert.True(t, c.IsProd())
}

func TestLoad_EnvHardening(t *testing.T) {
	t.Setenv("SERVER_TRUST_PROXY", "true")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("JWT_VERIFIED_TTL", "2m")

	c, err := Load("")
	require.NoError(t, err)
	assert.True(t, c.Server.TrustProxy)
	assert.Equal(t, 3, c.OTP.MaxAttempts)
	assert.Equal(t, 2*time.Minute, c.VerifiedTTL())
}
