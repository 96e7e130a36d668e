// Package smpclient implements the multiplexed SMP client: correlation-id
// bookkeeping over a sync.Map, transmission signing, and an inbound loop
// that routes broker responses to their waiter and fans unsolicited MSG
// and END pushes out to an application-supplied queue.
package smpclient

import (
	"bytes"
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/simplexmq/smp-client-go/cryptoprov"
	"github.com/simplexmq/smp-client-go/internal/instrument"
	"github.com/simplexmq/smp-client-go/internal/worker"
	"github.com/simplexmq/smp-client-go/queue"
	"github.com/simplexmq/smp-client-go/transport"
	"github.com/simplexmq/smp-client-go/wire"
)

// ServerMessage is what an unsolicited broker push looks like once handed
// to the application's msgQ.
type ServerMessage struct {
	Server  transport.SMPServer
	QueueID []byte
	Command wire.BrokerCommand
}

// Request is a pending entry in sentCommands, resolved or rejected by the
// inbound loop when the matching response arrives.
type Request struct {
	QueueID  []byte
	resultCh chan requestResult
}

type requestResult struct {
	cmd wire.BrokerCommand
	err error
}

// SMPClient multiplexes one encrypted transport connection to a single SMP
// broker across any number of concurrent callers.
type SMPClient struct {
	worker.Worker

	th     *transport.THandle
	server transport.SMPServer
	msgQ   *queue.Queue[ServerMessage]
	logger Logger

	sentCommands sync.Map // corrId string -> *Request
	clientCorrID uint64

	ctx    context.Context
	cancel context.CancelFunc

	connectedMu sync.RWMutex
	connected   bool
}

// Logger is the minimal sink the client uses for dropped/unsolicited
// traffic it does not otherwise surface. Passing nil disables logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// New wraps an already-handshaken THandle as an SMPClient and starts its
// inbound loop. msgQ receives MSG/END pushes that arrive unsolicited.
func New(th *transport.THandle, server transport.SMPServer, msgQ *queue.Queue[ServerMessage], logger Logger) *SMPClient {
	ctx, cancel := context.WithCancel(context.Background())
	c := &SMPClient{
		th:        th,
		server:    server,
		msgQ:      msgQ,
		logger:    logger,
		connected: true,
		ctx:       ctx,
		cancel:    cancel,
	}
	c.Go(c.recvLoop)
	c.Go(func() {
		<-c.HaltCh()
		cancel()
	})
	return c
}

// Connected reports whether the inbound loop is still running.
func (c *SMPClient) Connected() bool {
	c.connectedMu.RLock()
	defer c.connectedMu.RUnlock()
	return c.connected
}

// Disconnect closes the transport and awaits the inbound loop's exit,
// rejecting every still-pending request.
func (c *SMPClient) Disconnect() error {
	err := c.th.Close()
	c.Halt()
	if err != nil {
		return &ClientError{Op: "Disconnect", Err: err}
	}
	return nil
}

func (c *SMPClient) debugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

// sendSMPCommand allocates a correlation id, signs the transmission if
// signKey is non-nil, writes it, and blocks for the matching response.
func (c *SMPClient) sendSMPCommand(ctx context.Context, signKey *rsa.PrivateKey, queueID []byte, cmd wire.ClientCommand) (wire.BrokerCommand, error) {
	corrNum := atomic.AddUint64(&c.clientCorrID, 1) - 1
	corrID := []byte(strconv.FormatUint(corrNum, 10))

	trn := wire.BuildTransmissionBody(corrID, queueID, cmd)
	var sig []byte
	if signKey != nil {
		var err error
		sig, err = cryptoprov.SignPSS(signKey, trn)
		if err != nil {
			return nil, &ClientError{Op: "sendSMPCommand", Err: err}
		}
	}
	framed := wire.FrameTransmission(sig, trn)

	req := &Request{QueueID: queueID, resultCh: make(chan requestResult, 1)}
	c.sentCommands.Store(string(corrID), req)
	instrument.SetPendingRequests(c.pendingCount())

	if err := c.th.WriteBlock(framed); err != nil {
		c.sentCommands.Delete(string(corrID))
		instrument.SetPendingRequests(c.pendingCount())
		return nil, &ClientError{Op: "sendSMPCommand", Err: err}
	}
	instrument.CommandSent(string(cmd.Tag()))

	select {
	case res := <-req.resultCh:
		return res.cmd, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.HaltCh():
		return nil, &ClientError{Op: "sendSMPCommand", Err: fmt.Errorf("client disconnected")}
	}
}

func (c *SMPClient) pendingCount() int {
	n := 0
	c.sentCommands.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func (c *SMPClient) recvLoop() {
	for {
		plaintext, err := c.th.ReadBlock()
		if err != nil {
			var cryptoErr *cryptoprov.CryptoError
			if errors.As(err, &cryptoErr) {
				c.route(wire.BadBlock)
				continue
			}
			c.shutdown(err)
			return
		}
		c.route(parseBrokerTransmission(plaintext))
	}
}

// parseBrokerTransmission trims the '#' padding, parses the plaintext
// block, and checks party and queue-id discipline. A block that does not
// parse yields the sentinel BadBlock; a party or queue-id violation yields
// the matching CMD error.
func parseBrokerTransmission(plaintext []byte) wire.BrokerTransmission {
	trimmed := bytes.TrimRight(plaintext, "#")
	p := wire.NewParser(trimmed)
	_, corrID, queueID, cmd, ok := wire.ParseTransmission(p)
	if !ok || !p.End() {
		return wire.BadBlock
	}

	bc, isBroker := cmd.(wire.BrokerCommand)
	if !isBroker {
		e := wire.NewCmdError(wire.CmdProhibited)
		return wire.BrokerTransmission{CorrID: corrID, QueueID: queueID, Error: &e}
	}
	if e := checkQueueDiscipline(bc, queueID); e != nil {
		return wire.BrokerTransmission{CorrID: corrID, QueueID: queueID, Error: e}
	}
	return wire.BrokerTransmission{CorrID: corrID, QueueID: queueID, Command: bc}
}

// checkQueueDiscipline enforces: IDS and PONG never carry a queueId; ERR is
// exempt; every other broker command requires one.
func checkQueueDiscipline(cmd wire.BrokerCommand, queueID []byte) *wire.SMPError {
	switch cmd.(type) {
	case *wire.ErrCmd:
		return nil
	case *wire.IdsCmd, *wire.PongCmd:
		if len(queueID) != 0 {
			e := wire.NewCmdError(wire.CmdHasAuth)
			return &e
		}
	default:
		if len(queueID) == 0 {
			e := wire.NewCmdError(wire.CmdNoQueue)
			return &e
		}
	}
	return nil
}

func (c *SMPClient) route(btrn wire.BrokerTransmission) {
	if btrn.Error != nil || isErrCmd(btrn.Command) {
		tag := wire.ErrCmdTag
		if e := errCmdError(btrn); e != nil {
			tag = e.Tag
		}
		instrument.BrokerError(tag.String())
	}

	if v, ok := c.sentCommands.LoadAndDelete(string(btrn.CorrID)); ok {
		instrument.SetPendingRequests(c.pendingCount())
		req := v.(*Request)
		switch {
		case btrn.Error != nil:
			req.resultCh <- requestResult{err: *btrn.Error}
		case isErrCmd(btrn.Command):
			req.resultCh <- requestResult{err: btrn.Command.(*wire.ErrCmd).Error}
		default:
			req.resultCh <- requestResult{cmd: btrn.Command}
		}
		return
	}

	if btrn.Error != nil {
		c.debugf("smpclient: dropping unmatched error block: %v", *btrn.Error)
		instrument.DroppedUnsolicited("unmatched_error")
		return
	}
	switch btrn.Command.(type) {
	case *wire.MsgCmd, *wire.EndCmd:
		msg := ServerMessage{Server: c.server, QueueID: btrn.QueueID, Command: btrn.Command}
		if err := c.msgQ.Enqueue(c.ctx, msg); err != nil {
			c.debugf("smpclient: dropping unsolicited push: %v", err)
			instrument.DroppedUnsolicited("full_or_closed_queue")
		}
	default:
		c.debugf("smpclient: dropping unsolicited %s", btrn.Command.Tag())
		instrument.DroppedUnsolicited("no_recipient")
	}
}

// errCmdError extracts the SMPError behind a broker error response, whether
// carried as a parse-level BrokerTransmission.Error or as an ERR command.
func errCmdError(btrn wire.BrokerTransmission) *wire.SMPError {
	if btrn.Error != nil {
		return btrn.Error
	}
	if e, ok := btrn.Command.(*wire.ErrCmd); ok {
		return &e.Error
	}
	return nil
}

func isErrCmd(cmd wire.BrokerCommand) bool {
	_, ok := cmd.(*wire.ErrCmd)
	return ok
}

func (c *SMPClient) shutdown(err error) {
	c.connectedMu.Lock()
	c.connected = false
	c.connectedMu.Unlock()

	c.msgQ.Close()

	c.sentCommands.Range(func(k, v interface{}) bool {
		req := v.(*Request)
		req.resultCh <- requestResult{err: &ClientError{Op: "disconnect", Err: err}}
		c.sentCommands.Delete(k)
		return true
	})
}
