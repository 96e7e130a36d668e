package main

import (
	"fmt"
	"time"

	"github.com/simplexmq/smp-client-go/config"
	"github.com/simplexmq/smp-client-go/internal/log"
	"github.com/simplexmq/smp-client-go/queue"
	"github.com/simplexmq/smp-client-go/smpclient"
	"github.com/simplexmq/smp-client-go/transport"
)

// connectedClient bundles an SMPClient with the resources a subcommand must
// tear down on exit.
type connectedClient struct {
	client *smpclient.SMPClient
	msgQ   *queue.Queue[smpclient.ServerMessage]
}

func connectFirstServer(configFile string) (*connectedClient, error) {
	if configFile == "" {
		return nil, fmt.Errorf("smp-cli: --config is required")
	}
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("smp-cli: loading config: %w", err)
	}

	logBackend, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable)
	if err != nil {
		return nil, fmt.Errorf("smp-cli: setting up logging: %w", err)
	}
	logger := logBackend.GetLogger("smp-cli")

	serverCfg := cfg.SMPServers[0]
	server, err := serverCfg.ToSMPServer()
	if err != nil {
		return nil, fmt.Errorf("smp-cli: parsing broker address: %w", err)
	}

	url := fmt.Sprintf("wss://%s:%s/smp", server.Host, server.Port)
	conn, err := transport.DialWebsocket(url)
	if err != nil {
		return nil, fmt.Errorf("smp-cli: dialing %s: %w", url, err)
	}

	handshakeDone := make(chan struct{})
	var th *transport.THandle
	var handshakeErr error
	go func() {
		th, handshakeErr = transport.Handshake(conn, server.KeyHash)
		close(handshakeDone)
	}()

	select {
	case <-handshakeDone:
	case <-time.After(time.Duration(cfg.Client.HandshakeTimeout)):
		conn.Close()
		return nil, fmt.Errorf("smp-cli: handshake with %s timed out", url)
	}
	if handshakeErr != nil {
		return nil, fmt.Errorf("smp-cli: handshake with %s: %w", url, handshakeErr)
	}

	msgQ := queue.New[smpclient.ServerMessage](cfg.Client.MessageQueueSize)
	client := smpclient.New(th, server, msgQ, logger)

	return &connectedClient{client: client, msgQ: msgQ}, nil
}

func (c *connectedClient) Close() error {
	return c.client.Disconnect()
}
