package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigLoad(t *testing.T) {
	require := require.New(t)

	_, err := Load(nil)
	require.Error(err, "Load() with no SMPServers")

	const basicConfig = `# A basic configuration example.
[Logging]
Level = "DEBUG"

[[SMPServers]]
Host = "smp.example.org"
Port = 5223
KeyHash = "kAiVchOBwHVtKJVFJLsdCQ9UyN2SlfhLHYqT8ePBetg="

[Client]
HandshakeTimeout = "30s"
WriteTimeout = "10s"
MessageQueueSize = 256
`

	cfg, err := Load([]byte(basicConfig))
	require.NoError(err, "Load() with basic config")
	require.Equal("DEBUG", cfg.Logging.Level)
	require.Len(cfg.SMPServers, 1)
	require.Equal("smp.example.org", cfg.SMPServers[0].Host)
	require.Equal(256, cfg.Client.MessageQueueSize)
	require.Equal(Duration(30*time.Second), cfg.Client.HandshakeTimeout)
	require.Equal(Duration(10*time.Second), cfg.Client.WriteTimeout)

	server, err := cfg.SMPServers[0].ToSMPServer()
	require.NoError(err)
	require.Equal("smp.example.org", server.Host)
	require.Equal("5223", server.Port)
	require.NotEmpty(server.KeyHash)
}

func TestConfigDefaults(t *testing.T) {
	require := require.New(t)

	const minimalConfig = `
[[SMPServers]]
Host = "broker.local"
Port = 443
`
	cfg, err := Load([]byte(minimalConfig))
	require.NoError(err)
	require.Equal(defaultLogLevel, cfg.Logging.Level)
	require.Equal(defaultHandshakeTimeout, cfg.Client.HandshakeTimeout)
	require.Equal(defaultWriteTimeout, cfg.Client.WriteTimeout)
	require.Equal(defaultMessageQueueSize, cfg.Client.MessageQueueSize)
}

func TestConfigRejectsBadPort(t *testing.T) {
	require := require.New(t)

	const badConfig = `
[[SMPServers]]
Host = "broker.local"
Port = 0
`
	_, err := Load([]byte(badConfig))
	require.Error(err)
}
