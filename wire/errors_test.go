package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMPErrorRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []SMPError{
		{Tag: ErrBlock},
		{Tag: ErrAuth},
		{Tag: ErrNoMsg},
		{Tag: ErrInternal},
		NewCmdError(CmdProhibited),
		NewCmdError(CmdKeySize),
		NewCmdError(CmdSyntax),
		NewCmdError(CmdNoAuth),
		NewCmdError(CmdHasAuth),
		NewCmdError(CmdNoQueue),
	}

	for _, e := range cases {
		e := e
		t.Run(e.Error(), func(t *testing.T) {
			t.Parallel()
			require := require.New(t)

			p := NewParser(e.Serialize())
			parsed, ok := parseSMPError(p)
			require.True(ok)
			require.True(p.End())
			require.Equal(e, parsed)
		})
	}
}

func TestErrCmdRoundTrip(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cmd := &ErrCmd{Error: NewCmdError(CmdSyntax)}
	p := NewParser(cmd.Serialize())
	parsed, ok := ParseCommand(p)
	require.True(ok)
	require.True(p.End())
	require.Equal(cmd, parsed)
}
