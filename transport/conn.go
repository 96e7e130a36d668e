// Package transport implements the encrypted SMP transport: the RSA
// handshake, per-block AES-GCM framing, and IV derivation that together
// turn a raw message-framed byte channel into a THandle the wire codec can
// read and write blocks through.
package transport

import "github.com/gorilla/websocket"

// Conn is the abstract bidirectional, message-framed byte channel the
// transport runs over. Its shape matches *websocket.Conn deliberately: a
// WebSocket is the expected real implementation, and the client requires
// binary frames — a text frame is fatal.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// BinaryMessage and TextMessage mirror the gorilla/websocket frame-type
// constants so a *websocket.Conn satisfies Conn without adaptation.
const (
	BinaryMessage = websocket.BinaryMessage
	TextMessage   = websocket.TextMessage
)

// DialWebsocket dials url and returns it as a Conn.
func DialWebsocket(url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, newTransportError("DialWebsocket", err)
	}
	return conn, nil
}
