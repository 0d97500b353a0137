package env

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uci.go/pkg/hal"
)

func TestLoadEnv(t *testing.T) {
	vars := map[string]string{
		EnvTransport:       "tcp://10.0.0.2:7000",
		EnvVariant:         "sr040",
		EnvResponseTimeout: "2s",
		EnvMaxRetry:        "5",
		EnvMQTTURL:         "mqtt://broker:1883/uwb/",
		EnvMQTTEncoding:    "cbor",
		EnvHostID:          "anchor-1",
	}
	conf := newDefault()
	require.NoError(t, conf.LoadEnv(func(key string) string { return vars[key] }))
	require.Equal(t, "tcp://10.0.0.2:7000", conf.TransportURL)
	require.Equal(t, "sr040", conf.Variant)
	require.Equal(t, 2*time.Second, conf.ResponseTimeout)
	require.Equal(t, 5, conf.MaxRetry)
	require.Equal(t, "mqtt://broker:1883/uwb/", conf.MQTTURL)
	require.Equal(t, "cbor", conf.MQTTEncoding)
	require.NoError(t, conf.Valid())

	host, err := conf.Host()
	require.NoError(t, err)
	require.Equal(t, "anchor-1", host)
}

func TestLoadEnvInvalid(t *testing.T) {
	vars := map[string]string{
		EnvResponseTimeout: "soon",
		EnvMaxRetry:        "many",
	}
	conf := newDefault()
	err := conf.LoadEnv(func(key string) string { return vars[key] })
	require.Error(t, err)
	require.Equal(t, newDefault(), conf)
}

func TestFlagsOverride(t *testing.T) {
	conf := newDefault()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-transport", "chardev:///dev/srxxx", "-max-retry", "1", "-reset=false"}))
	require.Equal(t, "chardev:///dev/srxxx", conf.TransportURL)
	require.Equal(t, 1, conf.MaxRetry)
	require.False(t, conf.ResetOnEnable)

	cfg, err := conf.EngineConfig()
	require.NoError(t, err)
	require.Equal(t, 1, cfg.MaxRetry)
	require.True(t, cfg.SkipReset)
	require.Equal(t, hal.SR1xx{}, cfg.Variant)
}

func TestValid(t *testing.T) {
	conf := newDefault()
	conf.Variant = "dw3000"
	conf.MQTTEncoding = "xml"
	conf.ResponseTimeout = 0
	err := conf.Valid()
	require.Error(t, err)
	require.Contains(t, err.Error(), "dw3000")
	require.Contains(t, err.Error(), "xml")
	require.Contains(t, err.Error(), "response timeout")
}

func TestNewTransport(t *testing.T) {
	testCases := []struct {
		url  string
		name string
		err  bool
	}{
		{url: "serial:///dev/ttyACM0?baud=921600", name: "serial:/dev/ttyACM0"},
		{url: "chardev:///dev/srxxx", name: "chardev:/dev/srxxx"},
		{url: "tcp://localhost:7000", name: "tcp:localhost:7000"},
		{url: "ws://localhost:8080/uci", name: "ws:ws://localhost:8080/uci"},
		{url: "serial:///dev/ttyACM0?baud=fast", err: true},
		{url: "usb://1", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			conf := newDefault()
			conf.TransportURL = tc.url
			tr, err := conf.NewTransport()
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.name, tr.(*hal.Stream).Name)
		})
	}
}
