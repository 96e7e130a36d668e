package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBase64RoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	for _, x := range [][]byte{[]byte(""), []byte("a"), []byte("ab"), []byte("abc"), []byte("a long message body")} {
		encoded := encodeBase64(x)
		decoded, err := decodeBase64(encoded)
		require.NoError(err)
		require.Equal(x, decoded)
	}
}

func TestEncodeKeyBlob(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	blob := encodeKeyBlob([]byte("1234"))
	require.True(len(blob) > len(rsaKeyBlobPrefix))

	p := NewParser(blob)
	key, ok := parseKeyBlob(p)
	require.True(ok)
	require.Equal([]byte("1234"), key)
}

func TestEncodeDecimal(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	require.Equal([]byte("0"), encodeDecimal(0))
	require.Equal([]byte("42"), encodeDecimal(42))
}
