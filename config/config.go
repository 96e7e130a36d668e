// Package config provides the SMP client configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/simplexmq/smp-client-go/transport"
)

const (
	defaultLogLevel         = "INFO"
	defaultHandshakeTimeout = Duration(30 * time.Second)
	defaultWriteTimeout     = Duration(10 * time.Second)
	defaultMessageQueueSize = 256
)

// Duration wraps time.Duration so TOML string values like "30s" parse via
// UnmarshalText instead of requiring an integer nanosecond count.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

var defaultLogging = Logging{
	Disable: false,
	File:    "",
	Level:   defaultLogLevel,
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File specifies the log file; if omitted, stdout is used.
	File string

	// Level specifies the log level.
	Level string
}

func (lCfg *Logging) validate() error {
	lvl := strings.ToUpper(lCfg.Level)
	switch lvl {
	case "ERROR", "WARNING", "INFO", "DEBUG":
	case "":
		lCfg.Level = defaultLogLevel
		return nil
	default:
		return fmt.Errorf("config: Logging: Level '%v' is invalid", lCfg.Level)
	}
	lCfg.Level = lvl
	return nil
}

// SMPServerConfig is one configured broker: address plus the expected SPKI
// key hash, pinned the way the teacher pins Gateway link keys.
type SMPServerConfig struct {
	// Host is the broker's hostname or IP address.
	Host string

	// Port is the broker's TCP port.
	Port int

	// KeyHash is the base64-encoded SHA-256 digest of the broker's SPKI
	// public key, checked during the handshake.
	KeyHash string
}

func (s *SMPServerConfig) validate() error {
	if s.Host == "" {
		return errors.New("config: SMPServers: Host is not set")
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("config: SMPServers: Port '%v' is invalid", s.Port)
	}
	return nil
}

// ToSMPServer renders this entry as a transport.SMPServer, decoding KeyHash.
func (s *SMPServerConfig) ToSMPServer() (transport.SMPServer, error) {
	return transport.ParseSMPServer(fmt.Sprintf("%s:%d#%s", s.Host, s.Port, s.KeyHash))
}

// Client holds the per-connection timeouts and buffer sizing.
type Client struct {
	// HandshakeTimeout bounds how long the transport handshake may take.
	HandshakeTimeout Duration

	// WriteTimeout is parsed and defaulted, but nothing in this module
	// applies it: transmission writes are not bounded by a timeout.
	WriteTimeout Duration

	// MessageQueueSize is the capacity of the unsolicited-message queue
	// handed to smpclient.New.
	MessageQueueSize int
}

func (c *Client) applyDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.MessageQueueSize <= 0 {
		c.MessageQueueSize = defaultMessageQueueSize
	}
}

// Config is the top level client configuration.
type Config struct {
	Logging    *Logging
	SMPServers []*SMPServerConfig
	Client     *Client
}

// FixupAndValidate applies defaults to config entries and validates the
// supplied configuration. Most callers should use one of the Load variants
// instead of calling this directly.
func (cfg *Config) FixupAndValidate() error {
	if len(cfg.SMPServers) == 0 {
		return errors.New("config: No SMPServers were configured")
	}
	for _, s := range cfg.SMPServers {
		if err := s.validate(); err != nil {
			return err
		}
	}
	if cfg.Logging == nil {
		cfg.Logging = &defaultLogging
	}
	if err := cfg.Logging.validate(); err != nil {
		return err
	}
	if cfg.Client == nil {
		cfg.Client = &Client{}
	}
	cfg.Client.applyDefaults()

	return nil
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses, and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
