package heuristic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithmParametersAppliesKnownKeys(t *testing.T) {
	opts, err := ParseAlgorithmParameters(map[string]string{
		"vol.alpha":     "0.5",
		"vol.f_min":     "0.5",
		"time_limit":    "2.5",
		"threads":       "8",
	})
	require.NoError(t, err)

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	assert.Equal(t, 0.5, o.Volume.Alpha)
	assert.Equal(t, 0.5, o.Volume.FMin)
	assert.Equal(t, 2500*time.Millisecond, o.TimeLimit)
	assert.Equal(t, 8, o.Threads)
}

func TestParseAlgorithmParametersRejectsUnknownKey(t *testing.T) {
	_, err := ParseAlgorithmParameters(map[string]string{"vol.bogus": "1"})
	assert.Error(t, err)
}

func TestParseAlgorithmParametersRejectsMalformedValue(t *testing.T) {
	_, err := ParseAlgorithmParameters(map[string]string{"threads": "not-a-number"})
	assert.Error(t, err)
}

func TestResolveTimerZeroExpiresImmediately(t *testing.T) {
	timer := resolveTimer(0)
	assert.True(t, timer.Expired())
}

func TestResolveTimerNegativeIsUnlimited(t *testing.T) {
	timer := resolveTimer(-1)
	assert.False(t, timer.Expired())
}
