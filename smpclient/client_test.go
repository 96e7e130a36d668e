package smpclient

import (
	"context"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/simplexmq/smp-client-go/cryptoprov"
	"github.com/simplexmq/smp-client-go/queue"
	"github.com/simplexmq/smp-client-go/transport"
	"github.com/simplexmq/smp-client-go/wire"
)

const testBlockSize = 4096

// pipeEnd is one side of an in-memory full-duplex message-framed channel,
// standing in for a real websocket during these tests.
type pipeEnd struct {
	out chan []byte
	in  chan []byte
}

func newPipe() (*pipeEnd, *pipeEnd) {
	aToB := make(chan []byte, 16)
	bToA := make(chan []byte, 16)
	return &pipeEnd{out: aToB, in: bToA}, &pipeEnd{out: bToA, in: aToB}
}

func (p *pipeEnd) WriteMessage(_ int, data []byte) error {
	p.out <- append([]byte{}, data...)
	return nil
}

func (p *pipeEnd) ReadMessage() (int, []byte, error) {
	d, ok := <-p.in
	if !ok {
		return 0, nil, io.EOF
	}
	return transport.BinaryMessage, d, nil
}

func (p *pipeEnd) Close() error {
	close(p.out)
	return nil
}

// brokerSim plays the broker side of the wire protocol for one connection:
// decrypt, parse, dispatch a canned response per command tag, encrypt.
type brokerSim struct {
	conn *pipeEnd
	rcv  transport.SessionKey // mirrors the client's send key
	snd  transport.SessionKey // mirrors the client's receive key

	rcvID, sndID []byte
}

func newBrokerSim(conn *pipeEnd, clientSnd, clientRcv transport.SessionKey) *brokerSim {
	return &brokerSim{
		conn: conn,
		rcv:  transport.SessionKey{AESKey: clientSnd.AESKey, BaseIV: clientSnd.BaseIV},
		snd:  transport.SessionKey{AESKey: clientRcv.AESKey, BaseIV: clientRcv.BaseIV},
		rcvID: []byte("rcv-id-1"),
		sndID: []byte("snd-id-1"),
	}
}

func (b *brokerSim) run(t *testing.T, pushMsg chan struct{}) {
	defer b.conn.Close()
	for {
		_, block, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		iv, err := b.rcv.NextIV()
		require.NoError(t, err)
		plaintext, err := cryptoprov.DecryptGCM(b.rcv.AESKey, iv, block)
		require.NoError(t, err)

		p := wire.NewParser(trimHash(plaintext))
		_, corrID, queueID, cmd, ok := wire.ParseTransmission(p)
		require.True(t, ok)

		switch c := cmd.(type) {
		case *wire.NewCmd:
			b.respond(t, corrID, nil, &wire.IdsCmd{RcvID: b.rcvID, SndID: b.sndID})
		case *wire.SubCmd:
			b.respond(t, corrID, queueID, &wire.OkCmd{})
		case *wire.KeyCmd:
			b.respond(t, corrID, queueID, &wire.OkCmd{})
		case *wire.SendCmd:
			b.respond(t, corrID, queueID, &wire.OkCmd{})
			if pushMsg != nil {
				b.pushMessage(t, queueID, c.MsgBody)
				close(pushMsg)
				pushMsg = nil
			}
		case *wire.AckCmd:
			b.respond(t, corrID, queueID, &wire.OkCmd{})
		case *wire.OffCmd:
			b.respond(t, corrID, queueID, &wire.OkCmd{})
		case *wire.DelCmd:
			b.respond(t, corrID, queueID, &wire.OkCmd{})
		case *wire.PingCmd:
			b.respond(t, corrID, nil, &wire.PongCmd{})
		default:
			t.Fatalf("brokerSim: unhandled command %T", cmd)
		}
	}
}

func (b *brokerSim) pushMessage(t *testing.T, queueID, body []byte) {
	t.Helper()
	b.respondRaw(t, []byte("0"), queueID, &wire.MsgCmd{MsgID: []byte("m1"), Ts: time.Now().UTC(), MsgBody: body})
}

func (b *brokerSim) respond(t *testing.T, corrID, queueID []byte, cmd wire.Command) {
	t.Helper()
	b.respondRaw(t, corrID, queueID, cmd)
}

func (b *brokerSim) respondRaw(t *testing.T, corrID, queueID []byte, cmd wire.Command) {
	t.Helper()
	trn := append([]byte{}, corrID...)
	trn = append(trn, ' ')
	trn = append(trn, []byte(base64.StdEncoding.EncodeToString(queueID))...)
	trn = append(trn, ' ')
	trn = append(trn, cmd.Serialize()...)

	// base64("") is empty, so an unsigned response is just a leading space.
	framed := append([]byte{' '}, trn...)
	framed = append(framed, ' ')

	padded, err := cryptoprov.PadRight(framed, testBlockSize-cryptoprov.GCMTagSize)
	require.NoError(t, err)

	iv, err := b.snd.NextIV()
	require.NoError(t, err)
	block, err := cryptoprov.EncryptGCM(b.snd.AESKey, iv, padded)
	require.NoError(t, err)
	require.NoError(t, b.conn.WriteMessage(transport.BinaryMessage, block))
}

func trimHash(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == '#' {
		b = b[:len(b)-1]
	}
	return b
}

func newTestClient(t *testing.T) (*SMPClient, *brokerSim) {
	t.Helper()
	clientSnd, err := transport.NewSessionKey()
	require.NoError(t, err)
	clientRcv, err := transport.NewSessionKey()
	require.NoError(t, err)

	clientConn, brokerConn := newPipe()
	th := transport.NewTHandle(clientConn, testBlockSize, clientSnd, clientRcv)
	broker := newBrokerSim(brokerConn, clientSnd, clientRcv)

	msgQ := queue.New[ServerMessage](8)
	server := transport.SMPServer{Host: "test.broker"}
	client := New(th, server, msgQ, nil)
	return client, broker
}

func TestCreateAndSendRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	client, broker := newTestClient(t)
	go broker.run(t, nil)
	defer client.Disconnect()

	priv, err := cryptoprov.GenerateRSAKeyPair(2048)
	require.NoError(err)

	ids, err := client.CreateSMPQueue(context.Background(), priv, []byte("rcv-pub-key"))
	require.NoError(err)
	require.Equal([]byte("rcv-id-1"), ids.RcvID)
	require.Equal([]byte("snd-id-1"), ids.SndID)

	_, err = client.SubscribeSMPQueue(context.Background(), priv, ids.RcvID)
	require.NoError(err)
	require.NoError(client.SecureSMPQueue(context.Background(), priv, ids.RcvID, []byte("snd-pub-key")))
	require.NoError(client.SendSMPMessage(context.Background(), nil, ids.SndID, []byte("hello")))
}

func TestUnsolicitedMessageReachesMsgQ(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	client, broker := newTestClient(t)
	pushed := make(chan struct{})
	go broker.run(t, pushed)
	defer client.Disconnect()

	priv, err := cryptoprov.GenerateRSAKeyPair(2048)
	require.NoError(err)

	ids, err := client.CreateSMPQueue(context.Background(), priv, []byte("rcv-pub-key"))
	require.NoError(err)

	require.NoError(client.SendSMPMessage(context.Background(), nil, ids.SndID, []byte("hello")))
	<-pushed

	msg, ok, err := client.msgQ.Dequeue(context.Background())
	require.NoError(err)
	require.True(ok)
	msgCmd, isMsg := msg.Command.(*wire.MsgCmd)
	require.True(isMsg)
	require.Equal([]byte("hello"), msgCmd.MsgBody)
}

func TestSuspendSMPQueue(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	client, broker := newTestClient(t)
	go broker.run(t, nil)
	defer client.Disconnect()

	priv, err := cryptoprov.GenerateRSAKeyPair(2048)
	require.NoError(err)
	ids, err := client.CreateSMPQueue(context.Background(), priv, []byte("k"))
	require.NoError(err)

	err = client.SuspendSMPQueue(context.Background(), priv, ids.RcvID)
	require.NoError(err)
}

func TestUnexpectedResponseIsClientError(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	err := unexpectedResponse("CreateSMPQueue", &wire.OkCmd{}, "IDS")
	var clientErr *ClientError
	require.ErrorAs(err, &clientErr)
	require.Equal("CreateSMPQueue", clientErr.Op)
}

func TestCheckQueueDisciplineRejectsMismatchedQueueID(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	e := checkQueueDiscipline(&wire.IdsCmd{}, []byte("nonempty"))
	require.NotNil(e)
	require.Equal(wire.ErrCmdTag, e.Tag)
	require.Equal(wire.CmdHasAuth, e.Sub)

	e = checkQueueDiscipline(&wire.OkCmd{}, nil)
	require.NotNil(e)
	require.Equal(wire.CmdNoQueue, e.Sub)

	require.Nil(checkQueueDiscipline(&wire.ErrCmd{}, nil))
}
