package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// All byte values, not just printable ones.
	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i % 256)
	}

	encoded := Encode(data)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", Encode(nil))

	decoded, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not-base64!!!")
	assert.Error(t, err)
}
