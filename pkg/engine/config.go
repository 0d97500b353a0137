package engine

import (
	"errors"
	"time"

	"github.com/robotalks/uci.go/pkg/hal"
	"github.com/robotalks/uci.go/pkg/uci"
)

// Config configures an Engine.
type Config struct {
	// ResponseTimeout waits for the response of a newly sent command.
	ResponseTimeout time.Duration
	// RetryTimeout waits for the response of a retransmitted command.
	RetryTimeout time.Duration
	// MaxRetry bounds retransmissions of one command. Zero picks the
	// default, NoRetry disables retransmission.
	MaxRetry int
	// MaxQueueDepth bounds commands waiting for the command window.
	MaxQueueDepth int
	// MaxPacketSize bounds a logical packet, header included. Zero picks
	// the bound of the variant.
	MaxPacketSize int
	// ReassemblyTimeout discards a reassembly waiting too long for its
	// next fragment.
	ReassemblyTimeout time.Duration
	// RecoveryTimeout bounds a recovery waiting for the controller.
	RecoveryTimeout time.Duration
	// CallMargin is added to the protocol timeouts for blocking calls.
	CallMargin time.Duration
	// MaxReopen bounds transport reopen attempts after a transport error.
	// Zero picks the default, NoReopen fails the recovery at once.
	MaxReopen int
	// SkipReset enables the controller without resetting it first.
	SkipReset bool
	Variant   hal.Variant
	Clock     Clock
}

// NoRetry and NoReopen disable the bounded attempts in Config, as a zero
// value picks the default bound.
const (
	NoRetry  = -1
	NoReopen = -1
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ResponseTimeout:   800 * time.Millisecond,
		RetryTimeout:      500 * time.Millisecond,
		MaxRetry:          3,
		MaxQueueDepth:     32,
		ReassemblyTimeout: time.Second,
		RecoveryTimeout:   5 * time.Second,
		CallMargin:        time.Second,
		MaxReopen:         3,
		Variant:           hal.SR1xx{},
	}
}

// Valid applies defaults to unset fields and checks the values.
func (c *Config) Valid() error {
	def := DefaultConfig()
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = def.ResponseTimeout
	}
	if c.RetryTimeout == 0 {
		c.RetryTimeout = def.RetryTimeout
	}
	if c.MaxRetry == 0 {
		c.MaxRetry = def.MaxRetry
	}
	if c.MaxReopen == 0 {
		c.MaxReopen = def.MaxReopen
	}
	if c.MaxQueueDepth == 0 {
		c.MaxQueueDepth = def.MaxQueueDepth
	}
	if c.ReassemblyTimeout == 0 {
		c.ReassemblyTimeout = def.ReassemblyTimeout
	}
	if c.RecoveryTimeout == 0 {
		c.RecoveryTimeout = def.RecoveryTimeout
	}
	if c.CallMargin == 0 {
		c.CallMargin = def.CallMargin
	}
	if c.Variant == nil {
		c.Variant = def.Variant
	}
	if c.MaxPacketSize == 0 {
		c.MaxPacketSize = c.Variant.MaxPacketSize()
	}
	if c.Clock == nil {
		c.Clock = realClock{}
	}

	if c.ResponseTimeout < 0 || c.RetryTimeout < 0 || c.ReassemblyTimeout < 0 ||
		c.RecoveryTimeout < 0 || c.CallMargin < 0 {
		return errors.New("timeouts must be positive")
	}
	if c.MaxRetry > 10 {
		return errors.New("MaxRetry must not exceed 10")
	}
	if c.MaxQueueDepth < 0 {
		return errors.New("MaxQueueDepth must be positive")
	}
	if c.MaxPacketSize < uci.HeaderSize+uci.MaxPayloadSize {
		return errors.New("MaxPacketSize must hold a standard packet")
	}
	return nil
}

// CallTimeout bounds a blocking call: the response timeout, every
// retransmission, plus a margin for correlated notifications.
func (c Config) CallTimeout() time.Duration {
	return c.ResponseTimeout + time.Duration(c.retries())*c.RetryTimeout + c.CallMargin
}

func (c Config) retries() int {
	return bound(c.MaxRetry)
}

func (c Config) reopens() int {
	return bound(c.MaxReopen)
}

func bound(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
