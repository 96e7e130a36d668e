package transport

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/simplexmq/smp-client-go/cryptoprov"
	"github.com/simplexmq/smp-client-go/internal/instrument"
)

const (
	minBlockSize = 4096
	maxBlockSize = 65536

	// rsaTransportMode is the only transportMode this client implements:
	// binary RSA handshake. A nonzero value from the server is fatal.
	rsaTransportMode = 0

	serverHeaderSize = 8 // u32 blockSize | u16 transportMode | u16 keySize
)

// currentSMPVersion is compared lexicographically against the welcome
// line's first two components only.
var currentSMPVersion = [4]int{0, 4, 1, 0}

// welcomeScanCap bounds how far the welcome line scan looks for a space
// before giving up; this deliberately folds "malformed welcome" and "first
// token implausibly long" into one failure, matching the reference.
const welcomeScanCap = 50

// THandle is an established encrypted transport: the underlying channel
// plus the two independent session directions and the agreed block size.
type THandle struct {
	conn      Conn
	blockSize int

	sndMu  sync.Mutex
	sndKey SessionKey

	rcvMu  sync.Mutex
	rcvKey SessionKey
}

// NewTHandle wraps conn as an already-established THandle with the given
// block size and session keys, bypassing the handshake. Exercised directly
// by tests and by callers restoring a previously negotiated session.
func NewTHandle(conn Conn, blockSize int, sndKey, rcvKey SessionKey) *THandle {
	return &THandle{conn: conn, blockSize: blockSize, sndKey: sndKey, rcvKey: rcvKey}
}

// BlockSize returns the connection's agreed block size.
func (th *THandle) BlockSize() int { return th.blockSize }

// PlaintextCapacity is the usable payload size per block: blockSize minus
// the 16-byte GCM tag.
func (th *THandle) PlaintextCapacity() int { return th.blockSize - cryptoprov.GCMTagSize }

// Handshake performs the client-side handshake over conn and returns the
// established THandle. keyHash, if non-nil, must match the server's SPKI
// SHA-256 digest or the handshake fails.
func Handshake(conn Conn, keyHash []byte) (*THandle, error) {
	start := time.Now()
	th, err := handshake(conn, keyHash)
	if err == nil {
		instrument.ObserveHandshakeDuration(time.Since(start).Seconds())
	}
	return th, err
}

func handshake(conn Conn, keyHash []byte) (*THandle, error) {
	header, err := readExactFrame(conn, serverHeaderSize)
	if err != nil {
		return nil, newTransportError("Handshake", err)
	}
	blockSize := int(binary.BigEndian.Uint32(header[0:4]))
	transportMode := binary.BigEndian.Uint16(header[4:6])
	keySize := int(binary.BigEndian.Uint16(header[6:8]))

	if blockSize < minBlockSize || blockSize > maxBlockSize {
		return nil, newTransportErrorf("Handshake", "server block size %d out of range [%d, %d]", blockSize, minBlockSize, maxBlockSize)
	}
	if transportMode != rsaTransportMode {
		return nil, newTransportErrorf("Handshake", "unsupported transport mode %d", transportMode)
	}

	spki, err := readExactFrame(conn, keySize)
	if err != nil {
		return nil, newTransportError("Handshake", err)
	}
	if keyHash != nil {
		digest := cryptoprov.SHA256(spki)
		if subtle.ConstantTimeCompare(digest, keyHash) != 1 {
			return nil, newTransportErrorf("Handshake", "server key hash does not match")
		}
	}
	serverKey, err := cryptoprov.ImportSPKI(spki)
	if err != nil {
		return nil, newTransportError("Handshake", err)
	}

	sndKey, err := NewSessionKey()
	if err != nil {
		return nil, newTransportError("Handshake", err)
	}
	rcvKey, err := NewSessionKey()
	if err != nil {
		return nil, newTransportError("Handshake", err)
	}

	body := buildHandshakeBody(blockSize, sndKey, rcvKey)
	wrapped, err := cryptoprov.EncryptOAEP(serverKey, body)
	if err != nil {
		return nil, newTransportError("Handshake", err)
	}
	if err := conn.WriteMessage(BinaryMessage, wrapped); err != nil {
		return nil, newTransportError("Handshake", err)
	}

	th := &THandle{conn: conn, blockSize: blockSize, sndKey: sndKey, rcvKey: rcvKey}

	welcome, err := th.readBlockLocked()
	if err != nil {
		return nil, newTransportError("Handshake", err)
	}
	if err := checkWelcomeVersion(welcome); err != nil {
		return nil, newTransportError("Handshake", err)
	}

	return th, nil
}

// buildHandshakeBody renders u32 blockSize | u16 0 | sndAESraw(32) |
// sndBaseIV(16) | rcvAESraw(32) | rcvBaseIV(16): 102 bytes.
func buildHandshakeBody(blockSize int, sndKey, rcvKey SessionKey) []byte {
	var head [6]byte
	binary.BigEndian.PutUint32(head[0:4], uint32(blockSize))
	binary.BigEndian.PutUint16(head[4:6], rsaTransportMode)

	body := make([]byte, 0, len(head)+2*(cryptoprov.AESKeySize+BaseIVSize))
	body = append(body, head[:]...)
	body = append(body, sndKey.AESKey...)
	body = append(body, sndKey.BaseIV[:]...)
	body = append(body, rcvKey.AESKey...)
	body = append(body, rcvKey.BaseIV[:]...)
	return body
}

// checkWelcomeVersion parses the padded welcome plaintext's leading ASCII
// version token "a.b.c.d" and rejects it if incompatible. The version scan
// is capped at welcomeScanCap bytes, deliberately conflating "malformed
// welcome" with "implausibly long first token".
func checkWelcomeVersion(plaintext []byte) error {
	scan := plaintext
	if len(scan) > welcomeScanCap {
		scan = scan[:welcomeScanCap]
	}
	end := bytes.IndexByte(scan, ' ')
	if end < 0 {
		end = bytes.IndexByte(scan, '#')
	}
	if end < 0 {
		end = len(scan)
	}
	token := string(plaintext[:end])

	var v [4]int
	n, err := fmt.Sscanf(token, "%d.%d.%d.%d", &v[0], &v[1], &v[2], &v[3])
	if err != nil || n != 4 {
		return fmt.Errorf("malformed welcome version %q", token)
	}

	if v[0] > currentSMPVersion[0] || (v[0] == currentSMPVersion[0] && v[1] > currentSMPVersion[1]) {
		return fmt.Errorf("incompatible server version %d.%d.%d.%d", v[0], v[1], v[2], v[3])
	}
	return nil
}

func readExactFrame(conn Conn, n int) ([]byte, error) {
	mt, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if mt != BinaryMessage {
		return nil, fmt.Errorf("expected a binary frame, got frame type %d", mt)
	}
	if len(data) != n {
		return nil, fmt.Errorf("expected a %d-byte frame, got %d bytes", n, len(data))
	}
	return data, nil
}
