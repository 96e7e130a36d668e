package transport

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// SMPServer identifies a broker: host, optional port, and an optional
// expected SHA-256 of its public key SPKI encoding.
type SMPServer struct {
	Host    string
	Port    string
	KeyHash []byte
}

// String renders the server in "host:port#keyHash" form, omitting the
// parts that are absent.
func (s SMPServer) String() string {
	var b strings.Builder
	b.WriteString(s.Host)
	if s.Port != "" {
		b.WriteString(":")
		b.WriteString(s.Port)
	}
	if len(s.KeyHash) > 0 {
		b.WriteString("#")
		b.WriteString(base64.StdEncoding.EncodeToString(s.KeyHash))
	}
	return b.String()
}

// ParseSMPServer parses the "host:port#keyHash" form produced by String.
func ParseSMPServer(s string) (SMPServer, error) {
	hashPart := ""
	rest := s
	if i := strings.IndexByte(s, '#'); i >= 0 {
		rest, hashPart = s[:i], s[i+1:]
	}

	host, port := rest, ""
	if i := strings.LastIndexByte(rest, ':'); i >= 0 {
		host, port = rest[:i], rest[i+1:]
		if _, err := strconv.Atoi(port); err != nil {
			return SMPServer{}, fmt.Errorf("transport: invalid SMP server port %q: %w", port, err)
		}
	}
	if host == "" {
		return SMPServer{}, fmt.Errorf("transport: invalid SMP server address %q: empty host", s)
	}

	var keyHash []byte
	if hashPart != "" {
		var err error
		keyHash, err = base64.StdEncoding.DecodeString(hashPart)
		if err != nil {
			return SMPServer{}, fmt.Errorf("transport: invalid SMP server key hash %q: %w", hashPart, err)
		}
	}

	return SMPServer{Host: host, Port: port, KeyHash: keyHash}, nil
}
