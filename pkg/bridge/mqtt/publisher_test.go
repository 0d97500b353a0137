package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/uci.go/pkg/engine"
	"github.com/robotalks/uci.go/pkg/hal/haltest"
	"github.com/robotalks/uci.go/pkg/uci"
	"github.com/robotalks/uci.go/pkg/uwbapi"
)

type publication struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
}

// fakeBroker keeps subscriptions in a Queue without client and records
// publications.
type fakeBroker struct {
	*Queue
	pubCh chan publication
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{Queue: &Queue{TopicPrefix: "uwb/"}, pubCh: make(chan publication, 64)}
}

func (b *fakeBroker) Connect() paho.Token { return &paho.DummyToken{} }

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	b.pubCh <- publication{topic: topic, payload: payload, qos: qos, retain: retain}
	return &paho.DummyToken{}
}

func (b *fakeBroker) next(t *testing.T) publication {
	select {
	case pub := <-b.pubCh:
		return pub
	case <-time.After(time.Second):
		t.Fatal("nothing published")
	}
	return publication{}
}

func TestEventFields(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ntf := uci.NewNotification(uci.GroupSession, uci.OpcodeSessionStatus, []byte{7, 0, 0, 0, 2, 0})
	fields := EventFields(engine.Event{
		Kind:         engine.EventSessionStatus,
		Packet:       ntf,
		SessionID:    7,
		SessionState: uci.SessionStateActive,
		Reason:       uci.ReasonStateChangeWithSessionMgmtCmds,
	}, at)
	require.Equal(t, []string{"kind", "packet", "reason", "session_id", "session_state", "time"}, fields.Keys())
	require.Equal(t, "session-status", fields["kind"])
	require.Equal(t, uint64(7), fields["session_id"])
	require.Equal(t, "2024-05-01T12:00:00Z", fields["time"])

	fields = EventFields(engine.Event{Kind: engine.EventFatal, Err: engine.ErrDeviceNotResponding}, at)
	require.Equal(t, engine.ErrDeviceNotResponding.Error(), fields["error"])
	require.NotContains(t, fields, "packet")
}

func TestEncoders(t *testing.T) {
	fields := Fields{
		"kind":   "range-data",
		"active": true,
		"packet": Fields{"gid": uint64(2), "payload": []byte{0xab}},
	}

	b, err := ProtoEncoder{}.Encode(fields)
	require.NoError(t, err)
	decoded, err := ProtoEncoder{}.Decode(b)
	require.NoError(t, err)
	require.Equal(t, Fields{
		"kind":   "range-data",
		"active": true,
		"packet": Fields{"gid": float64(2), "payload": "ab"},
	}, decoded)

	b, err = CBOREncoder{}.Encode(fields)
	require.NoError(t, err)
	decoded, err = CBOREncoder{}.Decode(b)
	require.NoError(t, err)
	require.Equal(t, fields, decoded)

	_, err = ProtoEncoder{}.Encode(Fields{"bad": struct{}{}})
	require.Error(t, err)

	_, err = EncoderByName("xml")
	require.Error(t, err)
	enc, err := EncoderByName("cbor")
	require.NoError(t, err)
	require.Equal(t, "cbor", enc.Name())
}

func TestMatchTopic(t *testing.T) {
	require.True(t, MatchTopic("host/raw", "host/raw"))
	require.True(t, MatchTopic("host/events/fatal", "+/events/#"))
	require.True(t, MatchTopic("host/events", "host/events/#"))
	require.False(t, MatchTopic("host/raw/rsp", "host/raw"))
	require.False(t, MatchTopic("host", "host/raw"))
}

func TestPublisher(t *testing.T) {
	broker := newFakeBroker()
	p := newPublisher(broker, "anchor", CBOREncoder{})
	p.now = func() time.Time { return time.Unix(0, 0) }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	p.HandleEvent(engine.Event{Kind: engine.EventDeviceState, DeviceState: engine.DeviceIdle})
	pub := broker.next(t)
	require.Equal(t, "anchor/events/device-state", pub.topic)
	require.False(t, pub.retain)
	fields, err := p.Encoder.Decode(pub.payload)
	require.NoError(t, err)
	require.Equal(t, "idle", fields["device_state"])

	pub = broker.next(t)
	require.Equal(t, "anchor/state", pub.topic)
	require.True(t, pub.retain)
	require.Equal(t, byte(1), pub.qos)
	fields, err = p.Encoder.Decode(pub.payload)
	require.NoError(t, err)
	require.Equal(t, "idle", fields["state"])

	cancel()
	require.True(t, errors.Is(<-errCh, context.Canceled))
	pub = broker.next(t)
	require.Equal(t, "anchor/state", pub.topic)
	fields, err = p.Encoder.Decode(pub.payload)
	require.NoError(t, err)
	require.Equal(t, StateOffline, fields["state"])
}

func TestPublisherServesRawCommands(t *testing.T) {
	transport := haltest.New()
	transport.Responder = func(data []byte) [][]byte {
		b, _ := uci.NewResponse(uci.GroupProprietary, 0x01, []byte{0x00, 0x5a}).Bytes()
		return [][]byte{b}
	}
	cfg := engine.DefaultConfig()
	cfg.SkipReset = true
	broker := newFakeBroker()
	p := newPublisher(broker, "anchor", ProtoEncoder{})
	e, err := engine.New(transport, p, cfg)
	require.NoError(t, err)
	p.Client = uwbapi.New(e)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	go p.Run(ctx)
	require.NoError(t, p.Client.Enable(ctx))

	for {
		pub := broker.next(t)
		if pub.topic == "anchor/state" {
			fields, err := p.Encoder.Decode(pub.payload)
			require.NoError(t, err)
			if fields["state"] == "idle" {
				break
			}
		}
	}

	broker.deliver("uwb/anchor/raw", []byte{0x2e, 0x01, 0x00, 0x01, 0x00})
	pub := broker.next(t)
	require.Equal(t, "anchor/raw/rsp", pub.topic)
	fields, err := p.Encoder.Decode(pub.payload)
	require.NoError(t, err)
	require.Equal(t, "4e010002005a", fields["response"])
	require.NotContains(t, fields, "error")
}
