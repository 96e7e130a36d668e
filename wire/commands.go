package wire

import (
	"time"
)

// CommandTag is the ASCII token identifying a command variant.
type CommandTag string

const (
	TagNEW  CommandTag = "NEW"
	TagSUB  CommandTag = "SUB"
	TagKEY  CommandTag = "KEY"
	TagACK  CommandTag = "ACK"
	TagOFF  CommandTag = "OFF"
	TagDEL  CommandTag = "DEL"
	TagSEND CommandTag = "SEND"
	TagPING CommandTag = "PING"
	TagPONG CommandTag = "PONG"
	TagOK   CommandTag = "OK"
	TagEND  CommandTag = "END"
	TagIDS  CommandTag = "IDS"
	TagMSG  CommandTag = "MSG"
	TagERR  CommandTag = "ERR"
)

// Command is the common interface of every SMP command variant.
type Command interface {
	// Tag returns the command's ASCII wire tag.
	Tag() CommandTag
	// Serialize renders the command's wire form: the tag, optionally
	// followed by a space and arguments, with no trailing newline.
	Serialize() []byte
	// Party returns who may issue this command.
	Party() Party
}

// ClientCommand is a Command that a Recipient or Sender may issue.
// NEW, SUB, KEY, ACK, OFF, DEL, SEND, and PING implement it; broker-only
// commands do not, so a *MSG cannot be passed where a ClientCommand is
// required.
type ClientCommand interface {
	Command
	isClientCommand()
}

// BrokerCommand is a Command the broker may issue: IDS, MSG, END, OK, ERR,
// PONG.
type BrokerCommand interface {
	Command
	isBrokerCommand()
}

// --- Recipient commands ---

// NewCmd creates a queue; RcvPubKey is the recipient's verification key.
type NewCmd struct{ RcvPubKey []byte }

func (c *NewCmd) Tag() CommandTag  { return TagNEW }
func (c *NewCmd) Party() Party     { return Recipient }
func (*NewCmd) isClientCommand()   {}
func (c *NewCmd) Serialize() []byte {
	return concatSpace([]byte(TagNEW), encodeKeyBlob(c.RcvPubKey))
}

// SubCmd subscribes to a queue.
type SubCmd struct{}

func (c *SubCmd) Tag() CommandTag   { return TagSUB }
func (c *SubCmd) Party() Party      { return Recipient }
func (*SubCmd) isClientCommand()    {}
func (c *SubCmd) Serialize() []byte { return []byte(TagSUB) }

// KeyCmd authorizes a sender with its verification key.
type KeyCmd struct{ SndPubKey []byte }

func (c *KeyCmd) Tag() CommandTag  { return TagKEY }
func (c *KeyCmd) Party() Party     { return Recipient }
func (*KeyCmd) isClientCommand()   {}
func (c *KeyCmd) Serialize() []byte {
	return concatSpace([]byte(TagKEY), encodeKeyBlob(c.SndPubKey))
}

// AckCmd acknowledges the last delivered message.
type AckCmd struct{}

func (c *AckCmd) Tag() CommandTag   { return TagACK }
func (c *AckCmd) Party() Party      { return Recipient }
func (*AckCmd) isClientCommand()    {}
func (c *AckCmd) Serialize() []byte { return []byte(TagACK) }

// OffCmd suspends a queue.
type OffCmd struct{}

func (c *OffCmd) Tag() CommandTag   { return TagOFF }
func (c *OffCmd) Party() Party      { return Recipient }
func (*OffCmd) isClientCommand()    {}
func (c *OffCmd) Serialize() []byte { return []byte(TagOFF) }

// DelCmd deletes a queue.
type DelCmd struct{}

func (c *DelCmd) Tag() CommandTag   { return TagDEL }
func (c *DelCmd) Party() Party      { return Recipient }
func (*DelCmd) isClientCommand()    {}
func (c *DelCmd) Serialize() []byte { return []byte(TagDEL) }

// --- Sender commands ---

// SendCmd delivers a message body to the queue's sender-facing id.
type SendCmd struct{ MsgBody []byte }

func (c *SendCmd) Tag() CommandTag { return TagSEND }
func (c *SendCmd) Party() Party    { return Sender }
func (*SendCmd) isClientCommand()  {}
func (c *SendCmd) Serialize() []byte {
	// "SEND " + decimal(|m|) + " " + m + " " — trailing space is required.
	out := append([]byte(TagSEND), ' ')
	out = append(out, encodeDecimal(len(c.MsgBody))...)
	out = append(out, ' ')
	out = append(out, c.MsgBody...)
	out = append(out, ' ')
	return out
}

// PingCmd is a liveness probe.
type PingCmd struct{}

func (c *PingCmd) Tag() CommandTag   { return TagPING }
func (c *PingCmd) Party() Party      { return Sender }
func (*PingCmd) isClientCommand()    {}
func (c *PingCmd) Serialize() []byte { return []byte(TagPING) }

// --- Broker commands ---

// PongCmd answers PingCmd.
type PongCmd struct{}

func (c *PongCmd) Tag() CommandTag   { return TagPONG }
func (c *PongCmd) Party() Party      { return Broker }
func (*PongCmd) isBrokerCommand()    {}
func (c *PongCmd) Serialize() []byte { return []byte(TagPONG) }

// OkCmd is a generic success acknowledgement.
type OkCmd struct{}

func (c *OkCmd) Tag() CommandTag   { return TagOK }
func (c *OkCmd) Party() Party      { return Broker }
func (*OkCmd) isBrokerCommand()    {}
func (c *OkCmd) Serialize() []byte { return []byte(TagOK) }

// EndCmd signals that the queue will deliver no further messages.
type EndCmd struct{}

func (c *EndCmd) Tag() CommandTag   { return TagEND }
func (c *EndCmd) Party() Party      { return Broker }
func (*EndCmd) isBrokerCommand()    {}
func (c *EndCmd) Serialize() []byte { return []byte(TagEND) }

// IdsCmd is the broker's reply to NEW: the two queue-facing ids.
type IdsCmd struct {
	RcvID []byte
	SndID []byte
}

func (c *IdsCmd) Tag() CommandTag { return TagIDS }
func (c *IdsCmd) Party() Party    { return Broker }
func (*IdsCmd) isBrokerCommand()  {}
func (c *IdsCmd) Serialize() []byte {
	return concatSpace([]byte(TagIDS), encodeBase64(c.RcvID), encodeBase64(c.SndID))
}

// MsgCmd delivers a queued message to its recipient.
type MsgCmd struct {
	MsgID   []byte
	Ts      time.Time
	MsgBody []byte
}

func (c *MsgCmd) Tag() CommandTag { return TagMSG }
func (c *MsgCmd) Party() Party    { return Broker }
func (*MsgCmd) isBrokerCommand()  {}
func (c *MsgCmd) Serialize() []byte {
	out := append([]byte(TagMSG), ' ')
	out = append(out, encodeBase64(c.MsgID)...)
	out = append(out, ' ')
	out = append(out, []byte(c.Ts.UTC().Format(time.RFC3339Nano))...)
	out = append(out, ' ')
	out = append(out, encodeDecimal(len(c.MsgBody))...)
	out = append(out, ' ')
	out = append(out, c.MsgBody...)
	out = append(out, ' ')
	return out
}

// ErrCmd reports a protocol-level error from the broker.
type ErrCmd struct{ Error SMPError }

func (c *ErrCmd) Tag() CommandTag { return TagERR }
func (c *ErrCmd) Party() Party    { return Broker }
func (*ErrCmd) isBrokerCommand()  {}
func (c *ErrCmd) Serialize() []byte {
	return concatSpace([]byte(TagERR), c.Error.Serialize())
}

func concatSpace(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	out := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, p...)
	}
	return out
}
