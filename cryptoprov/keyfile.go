package cryptoprov

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
)

const rsaPrivateKeyPEMType = "RSA PRIVATE KEY"

var errNoPEMBlock = errors.New("no PEM block found")

// SavePrivateKeyPEM PEM-encodes priv as PKCS#1 and writes it to path with
// owner-only permissions.
func SavePrivateKeyPEM(path string, priv *rsa.PrivateKey) error {
	der := x509.MarshalPKCS1PrivateKey(priv)
	block := &pem.Block{Type: rsaPrivateKeyPEMType, Bytes: der}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return newCryptoError("SavePrivateKeyPEM", err)
	}
	return nil
}

// LoadPrivateKeyPEM reads and decodes a PKCS#1 RSA private key PEM file
// written by SavePrivateKeyPEM.
func LoadPrivateKeyPEM(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newCryptoError("LoadPrivateKeyPEM", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, newCryptoError("LoadPrivateKeyPEM", errNoPEMBlock)
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, newCryptoError("LoadPrivateKeyPEM", err)
	}
	return priv, nil
}
