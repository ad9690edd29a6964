package ml

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelEncoderFitAssignsFirstSeenCodes(t *testing.T) {
	enc := NewLabelEncoder()
	enc.Fit([]string{"O+", "A+", "O+", "B+", "A+"})

	assert.Equal(t, 3, enc.Len())
	assert.Equal(t, 0, enc.Encode("O+"))
	assert.Equal(t, 1, enc.Encode("A+"))
	assert.Equal(t, 2, enc.Encode("B+"))
	assert.True(t, enc.Contains("B+"))
	assert.False(t, enc.Contains("AB-"))
}

func TestLabelEncoderRefitReplacesCodes(t *testing.T) {
	enc := NewLabelEncoder()
	enc.Fit([]string{"x", "y"})
	enc.Fit([]string{"y", "z"})

	assert.Equal(t, 2, enc.Len())
	assert.Equal(t, 0, enc.Encode("y"))
	assert.Equal(t, 1, enc.Encode("z"))
	assert.False(t, enc.Contains("x"))
}

func TestLabelEncoderUnseenFallsBackToZero(t *testing.T) {
	var missed []string
	enc := NewLabelEncoder()
	enc.SetMissHandler(func(v string) { missed = append(missed, v) })
	enc.Fit([]string{"Winter", "Summer"})

	assert.Equal(t, 0, enc.Encode("Autumn"))
	assert.Equal(t, 0, enc.Encode("Spring"))
	assert.Equal(t, int64(2), enc.Misses())
	assert.Equal(t, []string{"Autumn", "Spring"}, missed)

	// Known values never count as misses
	enc.Encode("Summer")
	assert.Equal(t, int64(2), enc.Misses())
}

func TestLabelEncoderJSONRoundTrip(t *testing.T) {
	enc := NewLabelEncoder()
	enc.Fit([]string{"South Delhi", "Noida", "Gurgaon"})

	data, err := json.Marshal(enc)
	require.NoError(t, err)

	restored := NewLabelEncoder()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, enc.Classes, restored.Classes)
	assert.Equal(t, 1, restored.Encode("Noida"))
	assert.Equal(t, 2, restored.Encode("Gurgaon"))
	assert.Equal(t, 0, restored.Encode("Faridabad"))
	assert.Equal(t, int64(1), restored.Misses())
}
