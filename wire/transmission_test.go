package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransmissionRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cmd := &SendCmd{MsgBody: []byte("hello")}
	trn := BuildTransmissionBody([]byte("1"), []byte("queue-id"), cmd)
	framed := FrameTransmission([]byte("sig-bytes"), trn)

	p := NewParser(framed)
	sig, corrID, queueID, parsed, ok := ParseTransmission(p)
	require.True(ok)
	require.True(p.End())
	require.Equal([]byte("sig-bytes"), sig)
	require.Equal([]byte("1"), corrID)
	require.Equal([]byte("queue-id"), queueID)
	require.Equal(cmd, parsed)
}

func TestTransmissionEmptySignatureAndQueueID(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cmd := &NewCmd{RcvPubKey: []byte("k")}
	trn := BuildTransmissionBody([]byte("7"), []byte{}, cmd)
	framed := FrameTransmission([]byte{}, trn)

	p := NewParser(framed)
	sig, corrID, queueID, parsed, ok := ParseTransmission(p)
	require.True(ok)
	require.Equal([]byte{}, sig)
	require.Equal([]byte("7"), corrID)
	require.Equal([]byte{}, queueID)
	require.Equal(cmd, parsed)
}

func TestBadBlockSentinel(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	require.Equal(ErrBlock, BadBlock.Error.Tag)
	require.Nil(BadBlock.Command)
	require.Equal([]byte(""), BadBlock.CorrID)
}
