package node

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"github.com/mosaicnetworks/lattice/src/common"
	"github.com/sirupsen/logrus"
)

// DefaultKeepaliveInterval is the default period between two rounds of
// keepalives.
const DefaultKeepaliveInterval = 60 * time.Second

// Config contains the configuration of a Node.
type Config struct {
	// KeepaliveInterval is the period between two rounds of keepalives to the
	// known peers. Zero disables keepalives.
	KeepaliveInterval time.Duration `mapstructure:"keepalive"`

	// Ticker overrides the ticker driving keepalives. It is created from
	// KeepaliveInterval when nil.
	Ticker ticker.Ticker `mapstructure:"-"`

	Logger *logrus.Logger
}

// NewConfig creates a Config.
func NewConfig(keepalive time.Duration, logger *logrus.Logger) *Config {
	return &Config{
		KeepaliveInterval: keepalive,
		Logger:            logger,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		KeepaliveInterval: DefaultKeepaliveInterval,
		Logger:            logger,
	}
}

// TestConfig returns a Config suitable for tests: logs go to the test output
// and keepalives are disabled.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.KeepaliveInterval = 0
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}

func (c *Config) keepaliveTicker() ticker.Ticker {
	if c.Ticker != nil {
		return c.Ticker
	}
	if c.KeepaliveInterval <= 0 {
		return nil
	}
	return ticker.New(c.KeepaliveInterval)
}
