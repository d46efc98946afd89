package mediaref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadBase64RoundTrip(t *testing.T) {
	t.Parallel()

	original := NewEncodedPayload([]byte{0x00, 0x01, 0xFF, 0x7F})
	encoded := original.EncodePayload()
	require.NotEmpty(t, encoded)

	decoded, err := DecodePayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, original.Payload, decoded.Payload)
}

func TestDecodePayloadInvalid(t *testing.T) {
	t.Parallel()

	_, err := DecodePayload("not-base64!!!")
	assert.Error(t, err)
}

func TestIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, AudioReference{}.IsZero())
	assert.True(t, AudioReference{Kind: KindFilePath}.IsZero())
	assert.False(t, NewFilePath("/tmp/a.wav").IsZero())
	assert.False(t, NewEncodedPayload([]byte{1}).IsZero())
}

func TestStringDoesNotDumpPayload(t *testing.T) {
	t.Parallel()

	ref := NewEncodedPayload(make([]byte, 512))
	assert.Equal(t, "payload(512 bytes)", ref.String())
	assert.Equal(t, "path(/a/b.wav)", NewFilePath("/a/b.wav").String())
	assert.Equal(t, "empty", AudioReference{}.String())
}
