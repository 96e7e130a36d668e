package wire

import (
	"encoding/base64"
	"strconv"
)

// decodeBase64 decodes a base64 (standard alphabet, padded) byte string.
func decodeBase64(b []byte) ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(b))
}

// encodeBase64 encodes x as standard base64, with '=' padding.
func encodeBase64(x []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(x)))
	base64.StdEncoding.Encode(out, x)
	return out
}

// encodeDecimal renders n as unsigned decimal ASCII.
func encodeDecimal(n int) []byte {
	return []byte(strconv.Itoa(n))
}

// rsaKeyBlobPrefix is the wire prefix for an RSA public key blob.
var rsaKeyBlobPrefix = []byte("rsa:")

// encodeKeyBlob renders a public key blob: "rsa:" + base64(opaque SPKI bytes).
func encodeKeyBlob(key []byte) []byte {
	out := make([]byte, 0, len(rsaKeyBlobPrefix)+base64.StdEncoding.EncodedLen(len(key)))
	out = append(out, rsaKeyBlobPrefix...)
	out = append(out, encodeBase64(key)...)
	return out
}
