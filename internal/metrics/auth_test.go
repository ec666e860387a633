package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(OTPVerifications.WithLabelValues("LOGIN", ResultExpired))
	OTPVerified("LOGIN", ResultExpired)
	assert.Equal(t, before+1, testutil.ToFloat64(OTPVerifications.WithLabelValues("LOGIN", ResultExpired)))

	before = testutil.ToFloat64(TokensIssued.WithLabelValues(KindAccess))
	TokenIssued(KindAccess)
	assert.Equal(t, before+1, testutil.ToFloat64(TokensIssued.WithLabelValues(KindAccess)))
}
