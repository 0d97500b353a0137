package uwbapi

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uci.go/pkg/engine"
	"github.com/robotalks/uci.go/pkg/hal/haltest"
	"github.com/robotalks/uci.go/pkg/uci"
)

// controller answers commands the way a healthy controller does. Opcodes
// in silent get a response but never the notification completing them.
type controller struct {
	t      *testing.T
	lock   sync.Mutex
	silent map[uci.OpcodeID]bool
	reject []uci.ConfigStatus
}

func (c *controller) mute(oid uci.OpcodeID) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.silent == nil {
		c.silent = make(map[uci.OpcodeID]bool)
	}
	c.silent[oid] = true
}

func (c *controller) rejectConfig(params ...uci.ConfigStatus) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.reject = params
}

func (c *controller) encode(pkts ...*uci.Packet) [][]byte {
	var out [][]byte
	for _, pkt := range pkts {
		b, err := pkt.Bytes()
		require.NoError(c.t, err)
		out = append(out, b)
	}
	return out
}

func sessionStatus(id uint32, state uci.SessionState) *uci.Packet {
	b := make([]byte, 6)
	binary.LittleEndian.PutUint32(b, id)
	b[4] = byte(state)
	return uci.NewNotification(uci.GroupSession, uci.OpcodeSessionStatus, b)
}

func ok(gid uci.GroupID, oid uci.OpcodeID, payload ...byte) *uci.Packet {
	return uci.NewResponse(gid, oid, append([]byte{byte(uci.StatusOK)}, payload...))
}

func (c *controller) respond(data []byte) [][]byte {
	cmd, err := uci.Decode(data)
	if err != nil {
		return nil
	}
	c.lock.Lock()
	silent, reject := c.silent[cmd.OpcodeID], c.reject
	c.lock.Unlock()

	rsp := ok(cmd.GroupID, cmd.OpcodeID)
	var ntfs []*uci.Packet
	id, _ := uci.SessionID(cmd.Payload)
	switch cmd.GroupID {
	case uci.GroupCore:
		switch cmd.OpcodeID {
		case uci.OpcodeCoreDeviceReset:
			ntfs = append(ntfs, uci.NewNotification(uci.GroupCore, uci.OpcodeCoreDeviceStatus, []byte{byte(uci.DeviceStatusReady)}))
		case uci.OpcodeCoreDeviceInfo:
			rsp = ok(cmd.GroupID, cmd.OpcodeID, 0x02, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x00, 2, 0xab, 0xcd)
		case uci.OpcodeCoreCapsInfo:
			tlvs, err := uci.EncodeTLVs([]uci.TLV{{Tag: 0xa0, Value: []byte{1}}})
			require.NoError(c.t, err)
			rsp = ok(cmd.GroupID, cmd.OpcodeID, tlvs...)
		case uci.OpcodeCoreSetConfig:
			if len(reject) > 0 {
				b := []byte{byte(uci.StatusInvalidParam), byte(len(reject))}
				for _, p := range reject {
					b = append(b, p.Tag, byte(p.Status))
				}
				rsp = uci.NewResponse(cmd.GroupID, cmd.OpcodeID, b)
			}
		}
	case uci.GroupSession:
		switch cmd.OpcodeID {
		case uci.OpcodeSessionInit:
			ntfs = append(ntfs, sessionStatus(id, uci.SessionStateInit))
		case uci.OpcodeSessionSetAppConfig:
			ntfs = append(ntfs, sessionStatus(id, uci.SessionStateIdle))
		case uci.OpcodeSessionDeinit:
			ntfs = append(ntfs, sessionStatus(id, uci.SessionStateDeinit))
		case uci.OpcodeSessionGetState:
			rsp = ok(cmd.GroupID, cmd.OpcodeID, byte(uci.SessionStateIdle))
		case uci.OpcodeSessionGetCount:
			rsp = ok(cmd.GroupID, cmd.OpcodeID, 1)
		}
	case uci.GroupRange:
		switch cmd.OpcodeID {
		case uci.OpcodeRangeStart:
			ntfs = append(ntfs, sessionStatus(id, uci.SessionStateActive))
		case uci.OpcodeRangeStop:
			ntfs = append(ntfs, sessionStatus(id, uci.SessionStateIdle))
		}
	case uci.GroupData:
		if cmd.OpcodeID == uci.OpcodeDataSend && len(cmd.Payload) >= 14 {
			b := make([]byte, 7)
			binary.LittleEndian.PutUint32(b, id)
			copy(b[4:], cmd.Payload[12:14])
			ntfs = append(ntfs, uci.NewNotification(uci.GroupData, uci.OpcodeDataTransferStatus, b))
		}
	case uci.GroupProprietary:
		rsp = ok(cmd.GroupID, cmd.OpcodeID, 0x5a)
	}
	if silent {
		ntfs = nil
	}
	return c.encode(append([]*uci.Packet{rsp}, ntfs...)...)
}

type clientTestEnv struct {
	t          *testing.T
	controller *controller
	transport  *haltest.Fake
	client     *Client
}

func newClientTestEnv(t *testing.T) *clientTestEnv {
	env := &clientTestEnv{
		t:          t,
		controller: &controller{t: t},
		transport:  haltest.New(),
	}
	env.transport.Responder = env.controller.respond
	cfg := engine.DefaultConfig()
	cfg.SkipReset = true
	e, err := engine.New(env.transport, nil, cfg)
	require.NoError(t, err)
	env.client = New(e)
	return env
}

func (e *clientTestEnv) run(fns ...func(string)) {
	ctx, cancel := context.WithCancel(context.Background())
	go e.client.Engine().Run(ctx)
	defer func() {
		cancel()
		<-e.client.Engine().Done()
	}()
	go func() {
		for range e.transport.Writes() {
		}
	}()
	for n, fn := range fns {
		name := fmt.Sprintf("step-%d", n)
		e.t.Logf("START %s", name)
		fn(name)
		e.t.Logf("STOP %s", name)
	}
}

func (e *clientTestEnv) enable(name string) {
	require.NoErrorf(e.t, e.client.Enable(context.Background()), "%s enable", name)
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name  string
		steps func(env *clientTestEnv) []func(string)
	}{
		{
			name: "session lifecycle",
			steps: func(env *clientTestEnv) []func(string) {
				return []func(string){
					env.enable,
					func(name string) {
						require.NoError(env.t, env.client.SessionInit(ctx, 7, uci.SessionTypeRanging))
						info, ok := env.client.Engine().Session(7)
						require.True(env.t, ok)
						require.Equal(env.t, uci.SessionStateInit, info.State)
					},
					func(name string) {
						require.NoError(env.t, env.client.SetAppConfig(ctx, 7, []uci.TLV{{Tag: 0x00, Value: []byte{1}}}))
						info, _ := env.client.Engine().Session(7)
						require.Equal(env.t, uci.SessionStateIdle, info.State)
					},
					func(name string) {
						require.NoError(env.t, env.client.StartRanging(ctx, 7))
						require.Equal(env.t, engine.DeviceActive, env.client.Engine().DeviceState())
						require.NoError(env.t, env.client.StopRanging(ctx, 7))
						require.Equal(env.t, engine.DeviceIdle, env.client.Engine().DeviceState())
					},
					func(name string) {
						state, err := env.client.SessionGetState(ctx, 7)
						require.NoError(env.t, err)
						require.Equal(env.t, uci.SessionStateIdle, state)
						count, err := env.client.SessionGetCount(ctx)
						require.NoError(env.t, err)
						require.Equal(env.t, 1, count)
					},
					func(name string) {
						require.NoError(env.t, env.client.SendData(ctx, 7, 0x1122, 3, []byte("hi")))
						require.NoError(env.t, env.client.SessionDeinit(ctx, 7))
						require.Empty(env.t, env.client.Engine().Sessions())
					},
				}
			},
		},
		{
			name: "device queries",
			steps: func(env *clientTestEnv) []func(string) {
				return []func(string){
					env.enable,
					func(name string) {
						info, err := env.client.GetDeviceInfo(ctx)
						require.NoError(env.t, err)
						require.Equal(env.t, uint16(0x0002), info.UCIVersion)
						require.Equal(env.t, []byte{0xab, 0xcd}, info.VendorInfo)
					},
					func(name string) {
						caps, err := env.client.GetCapabilities(ctx)
						require.NoError(env.t, err)
						require.Equal(env.t, []uci.TLV{{Tag: 0xa0, Value: []byte{1}}}, caps)
					},
					func(name string) {
						require.NoError(env.t, env.client.DeviceReset(ctx))
					},
				}
			},
		},
		{
			name: "rejected configuration",
			steps: func(env *clientTestEnv) []func(string) {
				return []func(string){
					env.enable,
					func(name string) {
						env.controller.rejectConfig(uci.ConfigStatus{Tag: 0x01, Status: uci.StatusInvalidRange})
						err := env.client.SetCoreConfig(ctx, []uci.TLV{{Tag: 0x01, Value: []byte{9}}})
						var ce *ConfigError
						require.True(env.t, errors.As(err, &ce), "%v", err)
						require.Equal(env.t, uci.StatusInvalidParam, ce.Status)
						require.Equal(env.t, []uci.ConfigStatus{{Tag: 0x01, Status: uci.StatusInvalidRange}}, ce.Params)
						var cmdErr *engine.CommandError
						require.True(env.t, errors.As(err, &cmdErr))
					},
				}
			},
		},
		{
			name: "timeout waiting for notification",
			steps: func(env *clientTestEnv) []func(string) {
				return []func(string){
					env.enable,
					func(name string) {
						env.controller.mute(uci.OpcodeSessionInit)
						env.client.Timeout = 100 * time.Millisecond
						err := env.client.SessionInit(ctx, 9, uci.SessionTypeRanging)
						require.Equal(env.t, ErrTimeout, err)
					},
					func(name string) {
						env.client.Timeout = time.Second
						_, err := env.client.GetDeviceInfo(ctx)
						require.NoError(env.t, err)
					},
				}
			},
		},
		{
			name: "raw command",
			steps: func(env *clientTestEnv) []func(string) {
				return []func(string){
					env.enable,
					func(name string) {
						called := make(chan *uci.Packet, 1)
						rsp, err := env.client.SendRawCommand(ctx, []byte{0x2e, 0x01, 0x00, 0x01, 0x00}, func(rsp *uci.Packet) {
							called <- rsp
						})
						require.NoError(env.t, err)
						require.Equal(env.t, []byte{0x00, 0x5a}, rsp.Payload)
						require.Same(env.t, rsp, <-called)
					},
				}
			},
		},
		{
			name: "not enabled",
			steps: func(env *clientTestEnv) []func(string) {
				return []func(string){
					func(name string) {
						_, err := env.client.GetDeviceInfo(ctx)
						require.True(env.t, errors.Is(err, engine.ErrNotEnabled), "%v", err)
					},
					env.enable,
					func(name string) {
						require.NoError(env.t, env.client.Disable(ctx))
						require.Equal(env.t, engine.DeviceUninit, env.client.Engine().DeviceState())
					},
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newClientTestEnv(t)
			env.run(tc.steps(env)...)
		})
	}
}
