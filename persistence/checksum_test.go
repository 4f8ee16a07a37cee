package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumFrameRoundTrips(t *testing.T) {
	payload := []byte("a solution export payload")
	framed := checksumFrame(payload)

	got, err := checksumUnframe(framed)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestChecksumUnframeDetectsCorruption(t *testing.T) {
	framed := checksumFrame([]byte("hello"))
	framed[len(framed)-1] ^= 0xFF

	_, err := checksumUnframe(framed)
	assert.Error(t, err)
}

func TestChecksumUnframeRejectsShortFrame(t *testing.T) {
	_, err := checksumUnframe([]byte{1, 2})
	assert.Error(t, err)
}
