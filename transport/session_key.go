package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/simplexmq/smp-client-go/cryptoprov"
)

// BaseIVSize is the length of a session direction's base IV.
const BaseIVSize = 16

// SessionKey is one direction's AES-GCM key material: a fixed key, a fixed
// base IV, and a monotonically increasing per-block counter. SessionKey
// does no locking of its own; THandle guards each direction's key with a
// separate mutex, so the two directions never contend.
type SessionKey struct {
	AESKey  []byte
	BaseIV  [BaseIVSize]byte
	Counter uint32
}

// NewSessionKey generates a fresh AES-256 key and random base IV, with the
// counter at 0.
func NewSessionKey() (SessionKey, error) {
	key, err := cryptoprov.GenerateAESKey()
	if err != nil {
		return SessionKey{}, err
	}
	ivBytes, err := cryptoprov.SecureRandom(BaseIVSize)
	if err != nil {
		return SessionKey{}, err
	}
	var iv [BaseIVSize]byte
	copy(iv[:], ivBytes)
	return SessionKey{AESKey: key, BaseIV: iv}, nil
}

// NextIV derives the AES-GCM nonce for the current counter value and
// advances the counter. It fails once the counter would wrap past
// 2^32 - 1, per the no-wraparound-policy note: a fresh port must refuse to
// reuse an IV rather than silently doing so.
func (k *SessionKey) NextIV() ([]byte, error) {
	if k.Counter == 0xFFFFFFFF {
		return nil, fmt.Errorf("transport: session counter exhausted, refusing to reuse an IV")
	}
	var c [4]byte
	binary.BigEndian.PutUint32(c[:], k.Counter)

	iv := make([]byte, BaseIVSize)
	for i := 0; i < 4; i++ {
		iv[i] = k.BaseIV[i] ^ c[i]
	}
	copy(iv[4:], k.BaseIV[4:])

	k.Counter++
	return iv, nil
}
