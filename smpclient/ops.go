package smpclient

import (
	"context"
	"crypto/rsa"
	"fmt"

	"github.com/simplexmq/smp-client-go/wire"
)

// CreateSMPQueue issues NEW and returns the broker's IDS response.
func (c *SMPClient) CreateSMPQueue(ctx context.Context, rcvKey *rsa.PrivateKey, rcvPubKey []byte) (*wire.IdsCmd, error) {
	cmd, err := c.sendSMPCommand(ctx, rcvKey, nil, &wire.NewCmd{RcvPubKey: rcvPubKey})
	if err != nil {
		return nil, err
	}
	ids, ok := cmd.(*wire.IdsCmd)
	if !ok {
		return nil, unexpectedResponse("CreateSMPQueue", cmd, "IDS")
	}
	return ids, nil
}

// SubscribeSMPQueue issues SUB. A broker response of MSG is also enqueued
// to msgQ before returning, since an immediate delivery is both the
// response and an unsolicited push.
func (c *SMPClient) SubscribeSMPQueue(ctx context.Context, rcvKey *rsa.PrivateKey, queueID []byte) (wire.BrokerCommand, error) {
	cmd, err := c.sendSMPCommand(ctx, rcvKey, queueID, &wire.SubCmd{})
	if err != nil {
		return nil, err
	}
	return c.acceptOKOrMsg("SubscribeSMPQueue", queueID, cmd)
}

// SecureSMPQueue issues KEY, authorizing sndPubKey to send on the queue.
func (c *SMPClient) SecureSMPQueue(ctx context.Context, rcvKey *rsa.PrivateKey, queueID, sndPubKey []byte) error {
	cmd, err := c.sendSMPCommand(ctx, rcvKey, queueID, &wire.KeyCmd{SndPubKey: sndPubKey})
	if err != nil {
		return err
	}
	return c.requireOK("SecureSMPQueue", cmd)
}

// SendSMPMessage issues SEND. sndKey is nil before the queue has been
// secured with KEY, in which case the transmission is sent unsigned.
func (c *SMPClient) SendSMPMessage(ctx context.Context, sndKey *rsa.PrivateKey, queueID, msg []byte) error {
	cmd, err := c.sendSMPCommand(ctx, sndKey, queueID, &wire.SendCmd{MsgBody: msg})
	if err != nil {
		return err
	}
	return c.requireOK("SendSMPMessage", cmd)
}

// AckSMPMessage issues ACK. A broker response of MSG (the next queued
// message) is also enqueued to msgQ before returning.
func (c *SMPClient) AckSMPMessage(ctx context.Context, rcvKey *rsa.PrivateKey, queueID []byte) (wire.BrokerCommand, error) {
	cmd, err := c.sendSMPCommand(ctx, rcvKey, queueID, &wire.AckCmd{})
	if err != nil {
		return nil, err
	}
	return c.acceptOKOrMsg("AckSMPMessage", queueID, cmd)
}

// SuspendSMPQueue issues OFF.
func (c *SMPClient) SuspendSMPQueue(ctx context.Context, rcvKey *rsa.PrivateKey, queueID []byte) error {
	cmd, err := c.sendSMPCommand(ctx, rcvKey, queueID, &wire.OffCmd{})
	if err != nil {
		return err
	}
	return c.requireOK("SuspendSMPQueue", cmd)
}

// DeleteSMPQueue issues DEL.
func (c *SMPClient) DeleteSMPQueue(ctx context.Context, rcvKey *rsa.PrivateKey, queueID []byte) error {
	cmd, err := c.sendSMPCommand(ctx, rcvKey, queueID, &wire.DelCmd{})
	if err != nil {
		return err
	}
	return c.requireOK("DeleteSMPQueue", cmd)
}

// PingBroker issues PING and expects PONG.
func (c *SMPClient) PingBroker(ctx context.Context) error {
	cmd, err := c.sendSMPCommand(ctx, nil, nil, &wire.PingCmd{})
	if err != nil {
		return err
	}
	if _, ok := cmd.(*wire.PongCmd); !ok {
		return unexpectedResponse("PingBroker", cmd, "PONG")
	}
	return nil
}

func (c *SMPClient) requireOK(op string, cmd wire.BrokerCommand) error {
	if _, ok := cmd.(*wire.OkCmd); !ok {
		return unexpectedResponse(op, cmd, "OK")
	}
	return nil
}

// acceptOKOrMsg treats OK as a bare success and MSG as both the response
// and an unsolicited delivery, enqueuing it to msgQ.
func (c *SMPClient) acceptOKOrMsg(op string, queueID []byte, cmd wire.BrokerCommand) (wire.BrokerCommand, error) {
	switch m := cmd.(type) {
	case *wire.OkCmd:
		return m, nil
	case *wire.MsgCmd:
		msg := ServerMessage{Server: c.server, QueueID: queueID, Command: m}
		if err := c.msgQ.Enqueue(c.ctx, msg); err != nil {
			c.debugf("smpclient: %s: dropping MSG on full/closed queue: %v", op, err)
		}
		return m, nil
	default:
		return nil, unexpectedResponse(op, cmd, "OK or MSG")
	}
}

func unexpectedResponse(op string, cmd wire.BrokerCommand, want string) error {
	return &ClientError{Op: op, Err: fmt.Errorf("unexpected response %s, want %s", cmd.Tag(), want)}
}
