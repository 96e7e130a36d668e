package transport

import (
	"crypto/rsa"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simplexmq/smp-client-go/cryptoprov"
)

// fakeBroker plays the server side of a handshake against the real client
// Handshake implementation: it answers the header+SPKI reads, then on
// receiving the RSA-OAEP-wrapped client body, decrypts it with its own
// private key, recovers the client's receive-direction session key (the
// server's send direction), and queues a matching welcome block.
type fakeBroker struct {
	priv      *rsa.PrivateKey
	blockSize int
	reads     [][]byte
	readIdx   int
	version   string
	gotBody   bool
}

func newFakeBroker(t *testing.T, blockSize int, version string) *fakeBroker {
	t.Helper()
	priv, err := cryptoprov.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	spki, err := cryptoprov.ExportSPKI(&priv.PublicKey)
	require.NoError(t, err)

	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(blockSize))
	binary.BigEndian.PutUint16(header[4:6], rsaTransportMode)
	binary.BigEndian.PutUint16(header[6:8], uint16(len(spki)))

	return &fakeBroker{
		priv:      priv,
		blockSize: blockSize,
		reads:     [][]byte{append([]byte{}, header[:]...), spki},
		version:   version,
	}
}

func (b *fakeBroker) ReadMessage() (int, []byte, error) {
	if b.readIdx >= len(b.reads) {
		return 0, nil, io.EOF
	}
	d := b.reads[b.readIdx]
	b.readIdx++
	return BinaryMessage, d, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) WriteMessage(_ int, data []byte) error {
	if b.gotBody {
		return nil
	}
	b.gotBody = true

	body, err := cryptoprov.DecryptOAEP(b.priv, data)
	if err != nil {
		return err
	}
	// body = u32 blockSize | u16 mode | sndAES(32) | sndIV(16) | rcvAES(32) | rcvIV(16)
	const head = 6
	rcvAESOff := head + cryptoprov.AESKeySize + BaseIVSize
	rcvAES := body[rcvAESOff : rcvAESOff+cryptoprov.AESKeySize]
	rcvIV := body[rcvAESOff+cryptoprov.AESKeySize:]

	padded, err := cryptoprov.PadRight([]byte(b.version+" "), b.blockSize-cryptoprov.GCMTagSize)
	if err != nil {
		return err
	}
	// counter == 0 on this fresh direction, so the derived IV equals the base IV.
	ct, err := cryptoprov.EncryptGCM(rcvAES, rcvIV, padded)
	if err != nil {
		return err
	}
	b.reads = append(b.reads, ct)
	return nil
}

func TestHandshakeSucceeds(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	broker := newFakeBroker(t, 4096, "0.4.0.0")
	th, err := Handshake(broker, nil)
	require.NoError(err)
	require.Equal(4096, th.BlockSize())
}

func TestHandshakeRejectsIncompatibleVersion(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	broker := newFakeBroker(t, 4096, "0.5.0.0")
	_, err := Handshake(broker, nil)
	require.Error(err)
	require.Contains(err.Error(), "incompatible server version")
}

func TestHandshakeRejectsKeyHashMismatch(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	broker := newFakeBroker(t, 4096, "0.4.0.0")
	badHash := make([]byte, 32)
	_, err := Handshake(broker, badHash)
	require.Error(err)
	require.Contains(err.Error(), "key hash does not match")
}

func TestHandshakeRejectsBadBlockSize(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	broker := newFakeBroker(t, 100, "0.4.0.0")
	_, err := Handshake(broker, nil)
	require.Error(err)
	require.Contains(err.Error(), "out of range")
}
