package transport

import (
	"github.com/simplexmq/smp-client-go/cryptoprov"
	"github.com/simplexmq/smp-client-go/internal/instrument"
)

// WriteBlock pads plaintext to the block's plaintext capacity, encrypts it
// under the send direction's next derived IV, and emits exactly one
// blockSize-byte frame. It rejects payloads of PlaintextCapacity bytes or
// more.
func (th *THandle) WriteBlock(plaintext []byte) error {
	capacity := th.PlaintextCapacity()
	if len(plaintext) >= capacity {
		return newTransportErrorf("WriteBlock", "large message: %d bytes exceeds capacity %d", len(plaintext), capacity)
	}
	padded, err := cryptoprov.PadRight(plaintext, capacity)
	if err != nil {
		return newTransportError("WriteBlock", err)
	}

	th.sndMu.Lock()
	iv, err := th.sndKey.NextIV()
	if err != nil {
		th.sndMu.Unlock()
		return newTransportError("WriteBlock", err)
	}
	block, err := cryptoprov.EncryptGCM(th.sndKey.AESKey, iv, padded)
	th.sndMu.Unlock()
	if err != nil {
		return newTransportError("WriteBlock", err)
	}
	if len(block) != th.blockSize {
		return newTransportErrorf("WriteBlock", "encrypted block is %d bytes, want %d", len(block), th.blockSize)
	}

	if err := th.conn.WriteMessage(BinaryMessage, block); err != nil {
		return newTransportError("WriteBlock", err)
	}
	instrument.BlockSent()
	return nil
}

// ReadBlock reads exactly one blockSize-byte frame and decrypts it under
// the receive direction's next derived IV. Authentication failure and
// frame-shape errors are both returned as a *TransportError; the SMP
// client's inbound loop surfaces the former (a wrapped
// *cryptoprov.CryptoError) as the wire BLOCK error and treats the latter
// as fatal.
func (th *THandle) ReadBlock() ([]byte, error) {
	return th.readBlockLocked()
}

func (th *THandle) readBlockLocked() ([]byte, error) {
	mt, data, err := th.conn.ReadMessage()
	if err != nil {
		return nil, newTransportError("ReadBlock", err)
	}
	if mt != BinaryMessage {
		return nil, newTransportErrorf("ReadBlock", "expected a binary frame, got frame type %d", mt)
	}
	if len(data) != th.blockSize {
		return nil, newTransportErrorf("ReadBlock", "expected a %d-byte block, got %d bytes", th.blockSize, len(data))
	}

	th.rcvMu.Lock()
	iv, err := th.rcvKey.NextIV()
	if err != nil {
		th.rcvMu.Unlock()
		return nil, newTransportError("ReadBlock", err)
	}
	plaintext, err := cryptoprov.DecryptGCM(th.rcvKey.AESKey, iv, data)
	th.rcvMu.Unlock()
	if err != nil {
		instrument.BlockAuthFailure()
		return nil, newTransportErrorf("ReadBlock", "block authentication failed: %w", err)
	}
	instrument.BlockReceived()
	return plaintext, nil
}

// Close closes the underlying channel.
func (th *THandle) Close() error {
	if err := th.conn.Close(); err != nil {
		return newTransportError("Close", err)
	}
	return nil
}
