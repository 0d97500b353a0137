package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/uci.go/pkg/engine"
	"github.com/robotalks/uci.go/pkg/uci"
	"github.com/robotalks/uci.go/pkg/uwbapi"
)

// Topics relative to <prefix><host-id>/.
const (
	TopicEvents      = "events/"
	TopicState       = "state"
	TopicRaw         = "raw"
	TopicRawResponse = "raw/rsp"
)

// StateOffline is published as the state when the publisher stops or
// loses the broker.
const StateOffline = "offline"

// DefaultBacklog is the default number of events buffered while the
// broker is slow.
const DefaultBacklog = 256

type pubsub interface {
	Connect() paho.Token
	Close() error
	Sub(pattern string, handler Handler) *Subscription
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Publisher is an engine event handler publishing every event to
// <host-id>/events/<kind> and the device state retained to
// <host-id>/state. With a Client, raw commands received on <host-id>/raw
// are sent to the controller and answered on <host-id>/raw/rsp.
type Publisher struct {
	HostID  string
	Encoder Encoder
	Client  *uwbapi.Client

	queue   pubsub
	eventCh chan engine.Event
	rawCh   chan []byte
	now     func() time.Time
}

// NewPublisher creates a Publisher over a Queue.
func NewPublisher(q *Queue, hostID string, encoder Encoder) *Publisher {
	return newPublisher(q, hostID, encoder)
}

func newPublisher(q pubsub, hostID string, encoder Encoder) *Publisher {
	return &Publisher{
		HostID:  hostID,
		Encoder: encoder,
		queue:   q,
		eventCh: make(chan engine.Event, DefaultBacklog),
		rawCh:   make(chan []byte, 1),
		now:     time.Now,
	}
}

// NewPublisherFromURL connects to the broker located by brokerURL.
// The broker publishes the offline state when the connection is lost.
func NewPublisherFromURL(brokerURL, hostID string, encoder Encoder) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("uwbd-" + hostID)
	}
	p := &Publisher{HostID: hostID, Encoder: encoder}
	will, err := encoder.Encode(p.stateFields(StateOffline))
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+hostID+"/"+TopicState, will, 1, true)
	return newPublisher(NewQueue(opts, topicPrefix), hostID, encoder), nil
}

// HandleEvent implements engine.EventHandler. Events are dropped when the
// backlog is full.
func (p *Publisher) HandleEvent(ev engine.Event) {
	select {
	case p.eventCh <- ev:
	default:
		glog.Warningf("event backlog full, drop %s", ev.Kind)
	}
}

// Run connects to the broker and publishes until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	token := p.queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer p.queue.Close()

	if p.Client != nil {
		sub := p.queue.Sub(p.topic(TopicRaw), func(topic string, payload []byte) {
			select {
			case p.rawCh <- append([]byte(nil), payload...):
			case <-ctx.Done():
			}
		})
		defer sub.Close()
	}

	for {
		select {
		case <-ctx.Done():
			p.publishState(StateOffline)
			return ctx.Err()
		case ev := <-p.eventCh:
			p.publish(ev)
		case data := <-p.rawCh:
			go p.serveRaw(ctx, data)
		}
	}
}

func (p *Publisher) topic(name string) string {
	return p.HostID + "/" + name
}

func (p *Publisher) send(topic string, fields Fields, qos byte, retain bool) {
	payload, err := p.Encoder.Encode(fields)
	if err != nil {
		glog.Errorf("encode %s: %v", topic, err)
		return
	}
	p.queue.PubWith(p.topic(topic), payload, qos, retain)
}

func (p *Publisher) publish(ev engine.Event) {
	p.send(TopicEvents+ev.Kind.String(), EventFields(ev, p.now()), 0, false)
	if ev.Kind == engine.EventDeviceState {
		p.publishState(ev.DeviceState.String())
	}
}

func (p *Publisher) stateFields(state string) Fields {
	fields := Fields{"state": state}
	if p.now != nil {
		fields["time"] = p.now().UTC().Format(time.RFC3339Nano)
	}
	return fields
}

func (p *Publisher) publishState(state string) {
	p.send(TopicState, p.stateFields(state), 1, true)
}

func (p *Publisher) serveRaw(ctx context.Context, data []byte) {
	fields := Fields{"command": data}
	rsp, err := p.Client.SendRawCommand(ctx, data, nil)
	if err != nil {
		glog.Warningf("raw command %x: %v", data, err)
		fields["error"] = err.Error()
	}
	if rsp != nil {
		if b, err := rsp.Bytes(); err == nil {
			fields["response"] = b
		}
	}
	p.send(TopicRawResponse, fields, 0, false)
}

// EventFields converts an engine event into published fields.
func EventFields(ev engine.Event, at time.Time) Fields {
	fields := Fields{
		"kind": ev.Kind.String(),
		"time": at.UTC().Format(time.RFC3339Nano),
	}
	switch ev.Kind {
	case engine.EventDeviceStatus:
		fields["device_status"] = ev.DeviceStatus.String()
	case engine.EventDeviceState:
		fields["device_state"] = ev.DeviceState.String()
	case engine.EventSessionStatus:
		fields["session_id"] = uint64(ev.SessionID)
		fields["session_state"] = ev.SessionState.String()
		fields["reason"] = ev.Reason.String()
	case engine.EventMulticastList, engine.EventRangeData, engine.EventDataCredit:
		fields["session_id"] = uint64(ev.SessionID)
	case engine.EventDataReceived, engine.EventDataTransferStatus:
		fields["session_id"] = uint64(ev.SessionID)
		fields["status"] = ev.Status.String()
	case engine.EventGenericError, engine.EventSEError:
		fields["status"] = ev.Status.String()
	}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
	}
	if pkt := ev.Packet; pkt != nil {
		fields["packet"] = packetFields(pkt)
	}
	return fields
}

func packetFields(pkt *uci.Packet) Fields {
	return Fields{
		"mt":      uint64(pkt.MessageType),
		"gid":     uint64(pkt.GroupID),
		"oid":     uint64(pkt.OpcodeID),
		"payload": append([]byte(nil), pkt.Payload...),
	}
}
