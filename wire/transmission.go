package wire

import "crypto/rsa"

// ClientTransmission is what a recipient or sender sends to the broker:
// a correlation id, the target queue id, and the command itself. SignKey
// is non-nil when the transmission is signed, and nil for an unsigned one.
type ClientTransmission struct {
	SignKey *rsa.PrivateKey
	CorrID  []byte
	QueueID []byte
	Command ClientCommand
}

// BrokerTransmission is what the broker sends back: a correlation id, the
// originating queue id, and either a BrokerCommand or an SMPError — never
// both, and never neither.
type BrokerTransmission struct {
	CorrID  []byte
	QueueID []byte
	Command BrokerCommand
	Error   *SMPError
}

var commandTags = []Tag{
	{Name: "NEW", Bytes: []byte("NEW")},
	{Name: "SUB", Bytes: []byte("SUB")},
	{Name: "KEY", Bytes: []byte("KEY")},
	{Name: "ACK", Bytes: []byte("ACK")},
	{Name: "OFF", Bytes: []byte("OFF")},
	{Name: "DEL", Bytes: []byte("DEL")},
	{Name: "SEND", Bytes: []byte("SEND")},
	{Name: "PING", Bytes: []byte("PING")},
	{Name: "PONG", Bytes: []byte("PONG")},
	{Name: "OK", Bytes: []byte("OK")},
	{Name: "END", Bytes: []byte("END")},
	{Name: "IDS", Bytes: []byte("IDS")},
	{Name: "MSG", Bytes: []byte("MSG")},
	{Name: "ERR", Bytes: []byte("ERR")},
}

// BuildTransmissionBody renders the signed portion of an outbound
// transmission: corrId || ' ' || base64(queueId) || ' ' || serialize(command).
func BuildTransmissionBody(corrID, queueID []byte, cmd ClientCommand) []byte {
	out := make([]byte, 0, len(corrID)+1+base64Len(len(queueID))+1+16)
	out = append(out, corrID...)
	out = append(out, ' ')
	out = append(out, encodeBase64(queueID)...)
	out = append(out, ' ')
	out = append(out, cmd.Serialize()...)
	return out
}

// FrameTransmission prepends the base64 signature and appends the mandatory
// trailing space: base64(sig) || ' ' || trn || ' '. sig may be empty.
func FrameTransmission(sig, trn []byte) []byte {
	out := encodeBase64(sig)
	out = append(out, ' ')
	out = append(out, trn...)
	out = append(out, ' ')
	return out
}

func base64Len(n int) int {
	if n == 0 {
		return 0
	}
	return ((n + 2) / 3) * 4
}

// maybeBase64 parses a base64 token that is permitted to be empty: the
// signature and queueId fields of a transmission may legitimately be a zero-
// length token immediately followed by the delimiting space (or end).
func maybeBase64(p *Parser) ([]byte, bool) {
	rest := p.Rest()
	if len(rest) == 0 || rest[0] == ' ' {
		return []byte{}, true
	}
	return p.Base64()
}

// ParseTransmission parses the plaintext body of a decrypted block:
// base64(signature) ' ' corrId ' ' base64(queueId) ' ' command. Both the
// signature and queueId tokens may be empty. It does not check party or
// queue-id discipline — that is the caller's job, since it alone knows
// whether the parsed command's party is expected on this connection.
func ParseTransmission(p *Parser) (sig, corrID, queueID []byte, cmd Command, ok bool) {
	sig, ok = maybeBase64(p)
	if !ok {
		return
	}
	if !p.Space() {
		ok = false
		return
	}
	corrID = p.Word()
	if !p.Space() {
		ok = false
		return
	}
	queueID, ok = maybeBase64(p)
	if !ok {
		return
	}
	if !p.Space() {
		ok = false
		return
	}
	cmd, ok = ParseCommand(p)
	if !ok {
		return
	}
	if !p.Space() {
		ok = false
		return
	}
	return
}

// parseKeyBlob parses "rsa:" + base64(key), the wire form of a public key.
func parseKeyBlob(p *Parser) ([]byte, bool) {
	if !p.Str(rsaKeyBlobPrefix) {
		return nil, false
	}
	return p.Base64()
}

// ParseCommand parses a single command from the cursor, without regard to
// which party is allowed to send it — that check belongs to the caller,
// which knows the transmission's declared party and can turn a mismatch
// into ERR(CMD,PROHIBITED). It returns ok=false on any malformed command,
// leaving it to the caller to respond with ERR(CMD,SYNTAX).
func ParseCommand(p *Parser) (Command, bool) {
	name, ok := p.SomeStr(commandTags)
	if !ok {
		return nil, false
	}
	switch name {
	case "NEW":
		if !p.Space() {
			return nil, false
		}
		key, ok := parseKeyBlob(p)
		if !ok {
			return nil, false
		}
		return &NewCmd{RcvPubKey: key}, true
	case "SUB":
		return &SubCmd{}, true
	case "KEY":
		if !p.Space() {
			return nil, false
		}
		key, ok := parseKeyBlob(p)
		if !ok {
			return nil, false
		}
		return &KeyCmd{SndPubKey: key}, true
	case "ACK":
		return &AckCmd{}, true
	case "OFF":
		return &OffCmd{}, true
	case "DEL":
		return &DelCmd{}, true
	case "SEND":
		body, ok := Try(p, func() ([]byte, bool) {
			if !p.Space() {
				return nil, false
			}
			return parseSizedBody(p)
		})
		if !ok {
			return nil, false
		}
		return &SendCmd{MsgBody: body}, true
	case "PING":
		return &PingCmd{}, true
	case "PONG":
		return &PongCmd{}, true
	case "OK":
		return &OkCmd{}, true
	case "END":
		return &EndCmd{}, true
	case "IDS":
		if !p.Space() {
			return nil, false
		}
		rcvID, ok := p.Base64()
		if !ok {
			return nil, false
		}
		if !p.Space() {
			return nil, false
		}
		sndID, ok := p.Base64()
		if !ok {
			return nil, false
		}
		return &IdsCmd{RcvID: rcvID, SndID: sndID}, true
	case "MSG":
		return Try(p, func() (Command, bool) {
			if !p.Space() {
				return nil, false
			}
			msgID, ok := p.Base64()
			if !ok {
				return nil, false
			}
			if !p.Space() {
				return nil, false
			}
			ts, ok := p.Date()
			if !ok {
				return nil, false
			}
			if !p.Space() {
				return nil, false
			}
			body, ok := parseSizedBody(p)
			if !ok {
				return nil, false
			}
			return &MsgCmd{MsgID: msgID, Ts: ts, MsgBody: body}, true
		})
	case "ERR":
		if !p.Space() {
			return nil, false
		}
		smpErr, ok := parseSMPError(p)
		if !ok {
			return nil, false
		}
		return &ErrCmd{Error: smpErr}, true
	default:
		return nil, false
	}
}

// parseSizedBody parses "<len> <body bytes> ", the length-prefixed body
// framing shared by SEND and MSG. The trailing space is mandatory.
func parseSizedBody(p *Parser) ([]byte, bool) {
	n, ok := p.Decimal()
	if !ok {
		return nil, false
	}
	if !p.Space() {
		return nil, false
	}
	body, ok := p.Take(int(n))
	if !ok {
		return nil, false
	}
	if !p.Space() {
		return nil, false
	}
	return body, true
}
