// Package env builds the engine, transport and bridge settings from
// environment variables and command line flags.
package env

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/uci.go/pkg/engine"
	fx "github.com/robotalks/uci.go/pkg/framework"
	"github.com/robotalks/uci.go/pkg/hal"
)

// Config provides common options of the binaries.
type Config struct {
	// TransportURL locates the controller, e.g.
	// serial:///dev/ttyACM0?baud=115200, chardev:///dev/srxxx,
	// ws://host:port/path or tcp://host:port.
	TransportURL string
	// Variant names the controller family.
	Variant         string
	ResponseTimeout time.Duration
	MaxRetry        int
	ResetOnEnable   bool
	// MQTTURL specifies the broker events are published to,
	// e.g. mqtt://host:port/topic-prefix. Empty disables publishing.
	MQTTURL string
	// MQTTEncoding is either "proto" or "cbor".
	MQTTEncoding string
	// HostID identifies this host in topics. Empty uses the machine id.
	HostID string
}

// Environment variables.
const (
	EnvTransport       = "UCI_TRANSPORT"
	EnvVariant         = "UCI_VARIANT"
	EnvResponseTimeout = "UCI_RESPONSE_TIMEOUT"
	EnvMaxRetry        = "UCI_MAX_RETRY"
	EnvMQTTURL         = "UCI_MQTT_URL"
	EnvMQTTEncoding    = "UCI_MQTT_ENCODING"
	EnvHostID          = "UCI_HOST_ID"
)

var defaultConfig = newDefault()

func newDefault() Config {
	def := engine.DefaultConfig()
	return Config{
		TransportURL:    "serial:///dev/ttyACM0",
		Variant:         def.Variant.Name(),
		ResponseTimeout: def.ResponseTimeout,
		MaxRetry:        def.MaxRetry,
		ResetOnEnable:   !def.SkipReset,
		MQTTEncoding:    "proto",
	}
}

func init() {
	if err := defaultConfig.LoadEnv(os.Getenv); err != nil {
		glog.Warningf("ignore environment: %v", err)
	}
}

// LoadEnv overrides the settings from environment variables.
func (c *Config) LoadEnv(getenv func(string) string) error {
	var errs fx.AggregatedError
	if val := getenv(EnvTransport); val != "" {
		c.TransportURL = val
	}
	if val := getenv(EnvVariant); val != "" {
		c.Variant = val
	}
	if val := getenv(EnvResponseTimeout); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", EnvResponseTimeout, err))
		} else {
			c.ResponseTimeout = d
		}
	}
	if val := getenv(EnvMaxRetry); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", EnvMaxRetry, err))
		} else {
			c.MaxRetry = n
		}
	}
	if val := getenv(EnvMQTTURL); val != "" {
		c.MQTTURL = val
	}
	if val := getenv(EnvMQTTEncoding); val != "" {
		c.MQTTEncoding = val
	}
	if val := getenv(EnvHostID); val != "" {
		c.HostID = val
	}
	return errs.Aggregate()
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	defaultConfig.RegisterFlags(flag.CommandLine)
}

// RegisterFlags registers the settings on fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.TransportURL, "transport", c.TransportURL, "Controller transport URL.")
	fs.StringVar(&c.Variant, "variant", c.Variant, "Controller variant: sr1xx, sr040.")
	fs.DurationVar(&c.ResponseTimeout, "rsp-timeout", c.ResponseTimeout, "Command response timeout.")
	fs.IntVar(&c.MaxRetry, "max-retry", c.MaxRetry, "Retransmissions of a command without response.")
	fs.BoolVar(&c.ResetOnEnable, "reset", c.ResetOnEnable, "Reset the controller when enabling.")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL events are published to.")
	fs.StringVar(&c.MQTTEncoding, "mqtt-encoding", c.MQTTEncoding, "MQTT event encoding: proto, cbor.")
	fs.StringVar(&c.HostID, "host-id", c.HostID, "Host ID used in MQTT topics.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Valid checks the settings.
func (c *Config) Valid() error {
	var errs fx.AggregatedError
	if _, err := url.Parse(c.TransportURL); err != nil {
		errs.Add(fmt.Errorf("invalid transport URL: %w", err))
	}
	if _, err := hal.VariantByName(c.Variant); err != nil {
		errs.Add(err)
	}
	if c.ResponseTimeout <= 0 {
		errs.Add(fmt.Errorf("response timeout must be positive"))
	}
	if c.MaxRetry < 0 {
		errs.Add(fmt.Errorf("max retry must not be negative"))
	}
	switch c.MQTTEncoding {
	case "proto", "cbor":
	default:
		errs.Add(fmt.Errorf("unknown MQTT encoding %q", c.MQTTEncoding))
	}
	return errs.Aggregate()
}

// EngineConfig builds the engine configuration.
func (c *Config) EngineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	variant, err := hal.VariantByName(c.Variant)
	if err != nil {
		return cfg, err
	}
	cfg.Variant = variant
	cfg.ResponseTimeout = c.ResponseTimeout
	cfg.MaxRetry = c.MaxRetry
	if c.MaxRetry == 0 {
		cfg.MaxRetry = engine.NoRetry
	}
	cfg.SkipReset = !c.ResetOnEnable
	return cfg, cfg.Valid()
}

// NewTransport creates the transport located by TransportURL.
func (c *Config) NewTransport() (hal.Transport, error) {
	u, err := url.Parse(c.TransportURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	switch u.Scheme {
	case "serial":
		cfg := hal.DefaultSerialConfig(u.Path)
		if val := u.Query().Get("baud"); val != "" {
			if cfg.BaudRate, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q", val)
			}
		}
		if val := u.Query().Get("reset-pulse"); val != "" {
			if cfg.ResetPulse, err = time.ParseDuration(val); err != nil {
				return nil, fmt.Errorf("invalid reset pulse %q", val)
			}
		}
		return hal.NewSerial(cfg), nil
	case "chardev":
		return hal.NewCharDev(u.Path), nil
	case "ws", "wss":
		origin := u.Query().Get("origin")
		if origin == "" {
			origin = "http://localhost/"
		}
		return hal.NewWebSocket(u.String(), origin), nil
	case "tcp":
		timeout := 5 * time.Second
		if val := u.Query().Get("timeout"); val != "" {
			if timeout, err = time.ParseDuration(val); err != nil {
				return nil, fmt.Errorf("invalid dial timeout %q", val)
			}
		}
		return hal.NewTCP(u.Host, timeout), nil
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
}

// Host returns HostID or the machine id when not set.
func (c *Config) Host() (string, error) {
	if c.HostID != "" {
		return c.HostID, nil
	}
	id, err := machineid.ID()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}
