// Package uwbapi provides blocking calls over the asynchronous engine.
// Every call returns once: with its result, a typed failure, or
// ErrTimeout after the bound derived from the engine timeouts.
package uwbapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robotalks/uci.go/pkg/engine"
	"github.com/robotalks/uci.go/pkg/uci"
)

// ErrTimeout indicates the call didn't complete within Client.Timeout.
var ErrTimeout = errors.New("call timeout")

// ConfigError is a failed configuration with the status per parameter.
type ConfigError struct {
	*engine.CommandError
	Params []uci.ConfigStatus
}

// Unwrap returns the command error.
func (e *ConfigError) Unwrap() error {
	return e.CommandError
}

func (e *ConfigError) Error() string {
	msg := e.CommandError.Error()
	for _, p := range e.Params {
		msg += fmt.Sprintf(" [%#02x: %s]", p.Tag, p.Status)
	}
	return msg
}

// Client issues calls to the controller.
type Client struct {
	// Timeout bounds every call.
	Timeout time.Duration

	engine *engine.Engine
}

// New creates a Client.
func New(e *engine.Engine) *Client {
	return &Client{Timeout: e.Config().CallTimeout(), engine: e}
}

// Engine returns the underlying engine.
func (c *Client) Engine() *engine.Engine {
	return c.engine
}

func (c *Client) wait(ctx context.Context, resultCh <-chan engine.Result, onTimeout func()) (engine.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()
	select {
	case r := <-resultCh:
		return r, r.Err
	case <-ctx.Done():
	}
	if onTimeout != nil {
		onTimeout()
	}
	select {
	case r := <-resultCh:
		if !errors.Is(r.Err, ErrTimeout) {
			return r, r.Err
		}
	default:
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return engine.Result{}, ErrTimeout
	}
	return engine.Result{}, ctx.Err()
}

// Do submits a command and waits for its completion.
func (c *Client) Do(ctx context.Context, cmd *engine.Command) (engine.Result, error) {
	if err := c.engine.Submit(cmd); err != nil {
		return engine.Result{}, err
	}
	return c.wait(ctx, cmd.ResultChan(), func() {
		c.engine.Cancel(cmd, ErrTimeout)
	})
}

func (c *Client) do(ctx context.Context, pkt *uci.Packet, err error) (engine.Result, error) {
	if err != nil {
		return engine.Result{}, err
	}
	return c.Do(ctx, engine.NewCommand(pkt))
}

// Enable opens the transport and waits for the controller.
func (c *Client) Enable(ctx context.Context) error {
	_, err := c.wait(ctx, c.engine.Enable().ResultChan(), nil)
	return err
}

// Disable closes the transport.
func (c *Client) Disable(ctx context.Context) error {
	_, err := c.wait(ctx, c.engine.Disable().ResultChan(), nil)
	return err
}

// DeviceReset resets the controller and waits for it to be ready.
func (c *Client) DeviceReset(ctx context.Context) error {
	_, err := c.Do(ctx, engine.NewCommand(uci.DeviceReset()).
		Await(engine.AwaitDeviceStatus(uci.DeviceStatusReady)))
	return err
}

// GetDeviceInfo queries versions and vendor information.
func (c *Client) GetDeviceInfo(ctx context.Context) (uci.DeviceInfo, error) {
	r, err := c.do(ctx, uci.GetDeviceInfo(), nil)
	if err != nil {
		return uci.DeviceInfo{}, err
	}
	return uci.ParseDeviceInfo(r.Response)
}

// GetCapabilities queries the capability TLVs.
func (c *Client) GetCapabilities(ctx context.Context) ([]uci.TLV, error) {
	return c.getConfig(ctx, uci.GetCapsInfo(), nil)
}

// SetCoreConfig sets device configuration parameters.
func (c *Client) SetCoreConfig(ctx context.Context, tlvs []uci.TLV) error {
	pkt, err := uci.SetCoreConfig(tlvs)
	if err != nil {
		return err
	}
	return c.setConfig(ctx, engine.NewCommand(pkt))
}

// GetCoreConfig reads device configuration parameters.
func (c *Client) GetCoreConfig(ctx context.Context, tags []byte) ([]uci.TLV, error) {
	pkt, err := uci.GetCoreConfig(tags)
	return c.getConfig(ctx, pkt, err)
}

// SessionInit creates a session and waits until it's initialized.
func (c *Client) SessionInit(ctx context.Context, id uint32, typ uci.SessionType) error {
	_, err := c.Do(ctx, engine.NewCommand(uci.SessionInit(id, typ)).
		Await(engine.AwaitSessionState(id, uci.SessionStateInit)))
	return err
}

// SessionDeinit removes a session.
func (c *Client) SessionDeinit(ctx context.Context, id uint32) error {
	_, err := c.Do(ctx, engine.NewCommand(uci.SessionDeinit(id)).
		Await(engine.AwaitSessionState(id, uci.SessionStateDeinit)))
	return err
}

// SessionGetState queries the state of a session.
func (c *Client) SessionGetState(ctx context.Context, id uint32) (uci.SessionState, error) {
	r, err := c.do(ctx, uci.SessionGetState(id), nil)
	if err != nil {
		return uci.SessionStateError, err
	}
	if len(r.Response.Payload) < 2 {
		return uci.SessionStateError, fmt.Errorf("%w: session state of %d bytes", uci.ErrMalformedPayload, len(r.Response.Payload))
	}
	return uci.SessionState(r.Response.Payload[1]), nil
}

// SessionGetCount queries the number of sessions.
func (c *Client) SessionGetCount(ctx context.Context) (int, error) {
	r, err := c.do(ctx, uci.SessionGetCount(), nil)
	if err != nil {
		return 0, err
	}
	if len(r.Response.Payload) < 2 {
		return 0, fmt.Errorf("%w: session count of %d bytes", uci.ErrMalformedPayload, len(r.Response.Payload))
	}
	return int(r.Response.Payload[1]), nil
}

// SetAppConfig sets session parameters. Configuring an initialized
// session waits until the controller reports it idle.
func (c *Client) SetAppConfig(ctx context.Context, id uint32, tlvs []uci.TLV) error {
	pkt, err := uci.SetAppConfig(id, tlvs)
	if err != nil {
		return err
	}
	cmd := engine.NewCommand(pkt)
	if info, ok := c.engine.Session(id); ok && info.State == uci.SessionStateInit {
		cmd.Await(engine.AwaitSessionState(id, uci.SessionStateIdle))
	}
	return c.setConfig(ctx, cmd)
}

// GetAppConfig reads session parameters.
func (c *Client) GetAppConfig(ctx context.Context, id uint32, tags []byte) ([]uci.TLV, error) {
	pkt, err := uci.GetAppConfig(id, tags)
	return c.getConfig(ctx, pkt, err)
}

// UpdateMulticastList adds or removes controlees of a session.
func (c *Client) UpdateMulticastList(ctx context.Context, id uint32, action uci.MulticastAction, controlees []uci.Controlee) error {
	pkt, err := uci.UpdateMulticastList(id, action, controlees)
	_, err = c.do(ctx, pkt, err)
	return err
}

// StartRanging starts a session and waits until it's active.
func (c *Client) StartRanging(ctx context.Context, id uint32) error {
	_, err := c.Do(ctx, engine.NewCommand(uci.RangeStart(id)).
		Await(engine.AwaitSessionState(id, uci.SessionStateActive)))
	return err
}

// StopRanging stops a session and waits until it's idle.
func (c *Client) StopRanging(ctx context.Context, id uint32) error {
	_, err := c.Do(ctx, engine.NewCommand(uci.RangeStop(id)).
		Await(engine.AwaitSessionState(id, uci.SessionStateIdle)))
	return err
}

// SendData sends application data to a peer and waits for the transfer
// status.
func (c *Client) SendData(ctx context.Context, id uint32, dst uint64, seq uint16, data []byte) error {
	pkt, err := uci.DataSend(id, dst, seq, data)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, engine.NewCommand(pkt).Await(engine.AwaitDataTransfer(id, seq)))
	return err
}

// TestConfigSet sets RF test parameters.
func (c *Client) TestConfigSet(ctx context.Context, id uint32, tlvs []uci.TLV) error {
	pkt, err := uci.TestConfigSet(id, tlvs)
	if err != nil {
		return err
	}
	return c.setConfig(ctx, engine.NewCommand(pkt))
}

// TestConfigGet reads RF test parameters.
func (c *Client) TestConfigGet(ctx context.Context, id uint32, tags []byte) ([]uci.TLV, error) {
	pkt, err := uci.TestConfigGet(id, tags)
	return c.getConfig(ctx, pkt, err)
}

// StartPeriodicTx starts the periodic transmission test.
func (c *Client) StartPeriodicTx(ctx context.Context, psdu []byte) error {
	_, err := c.do(ctx, uci.TestPeriodicTx(psdu), nil)
	return err
}

// StartPerRx starts the packet error rate reception test.
func (c *Client) StartPerRx(ctx context.Context, psdu []byte) error {
	_, err := c.do(ctx, uci.TestPerRx(psdu), nil)
	return err
}

// StopTest stops the running RF test.
func (c *Client) StopTest(ctx context.Context) error {
	_, err := c.do(ctx, uci.TestStopSession(), nil)
	return err
}

// SendRawCommand sends a complete command packet as-is and returns its
// response. cb, when set, is invoked from the engine loop with the
// response and must not block.
func (c *Client) SendRawCommand(ctx context.Context, data []byte, cb engine.RawCallback) (*uci.Packet, error) {
	cmd, err := engine.NewRawCommand(data, cb)
	if err != nil {
		return nil, err
	}
	r, err := c.Do(ctx, cmd)
	return r.Response, err
}

func (c *Client) setConfig(ctx context.Context, cmd *engine.Command) error {
	r, err := c.Do(ctx, cmd)
	var ce *engine.CommandError
	if errors.As(err, &ce) && r.Response != nil {
		if _, params, perr := uci.ParseSetConfigResponse(r.Response); perr == nil && len(params) > 0 {
			return &ConfigError{CommandError: ce, Params: params}
		}
	}
	return err
}

func (c *Client) getConfig(ctx context.Context, pkt *uci.Packet, err error) ([]uci.TLV, error) {
	r, err := c.do(ctx, pkt, err)
	if err != nil {
		return nil, err
	}
	_, tlvs, err := uci.ParseConfigResponse(r.Response)
	return tlvs, err
}
