package sh

import (
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/uci.go/pkg/bridge/mqtt"
	"github.com/robotalks/uci.go/pkg/engine"
	"github.com/robotalks/uci.go/pkg/uci"
)

var commands = []*ishell.Cmd{
	&EnableCmd,
	&DisableCmd,
	&ResetCmd,
	&InfoCmd,
	&CapsCmd,
	&CoreSetCmd,
	&CoreGetCmd,
	&SessionInitCmd,
	&SessionDeinitCmd,
	&SessionStateCmd,
	&SessionCountCmd,
	&SessionListCmd,
	&AppConfigSetCmd,
	&AppConfigGetCmd,
	&MulticastCmd,
	&RangeStartCmd,
	&RangeStopCmd,
	&DataSendCmd,
	&TestSetCmd,
	&TestGetCmd,
	&TestTxCmd,
	&TestPerCmd,
	&TestStopCmd,
	&RawCmd,
	&StatsCmd,
	&StateCmd,
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

func eventOutput(ev engine.Event) mqtt.Fields {
	return mqtt.EventFields(ev, time.Now())
}

// withArgs checks the number of arguments before running fn.
func withArgs(min int, usage string, fn func(c *ishell.Context, s *Shell)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) < min {
			c.Err(fmt.Errorf("arguments expected: %s", usage))
			return
		}
		fn(c, ShellFrom(c))
	}
}

// withSession parses the leading session id argument.
func withSession(min int, usage string, fn func(c *ishell.Context, s *Shell, id uint32)) func(c *ishell.Context) {
	return withArgs(min+1, "ID "+usage, func(c *ishell.Context, s *Shell) {
		id, err := parseSessionID(c.Args[0])
		if err != nil {
			c.Err(err)
			return
		}
		fn(c, s, id)
	})
}

func (s *Shell) outputTLVs(c *ishell.Context, tlvs []uci.TLV, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	out := make(map[string]string, len(tlvs))
	for _, tlv := range tlvs {
		out[fmt.Sprintf("0x%02x", tlv.Tag)] = fmt.Sprintf("%x", tlv.Value)
	}
	s.output(c, out, formatTLVs(tlvs))
}

var (
	// EnableCmd opens the transport.
	EnableCmd = ishell.Cmd{
		Name: "enable",
		Help: "open the transport and initialize the controller",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			s.outputOK(c, s.Client.Enable(s.ctx))
		}),
	}

	// DisableCmd closes the transport.
	DisableCmd = ishell.Cmd{
		Name: "disable",
		Help: "close the transport",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			s.outputOK(c, s.Client.Disable(s.ctx))
		}),
	}

	// ResetCmd resets the controller.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "reset the controller",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			s.outputOK(c, s.Client.DeviceReset(s.ctx))
		}),
	}

	// InfoCmd prints device information.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "show versions and vendor information",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			info, err := s.Client.GetDeviceInfo(s.ctx)
			if err != nil {
				c.Err(err)
				return
			}
			s.output(c, map[string]string{
				"uci":    formatVersion(info.UCIVersion),
				"mac":    formatVersion(info.MACVersion),
				"phy":    formatVersion(info.PHYVersion),
				"test":   formatVersion(info.UCITestVersion),
				"vendor": fmt.Sprintf("%x", info.VendorInfo),
			}, fmt.Sprintf("UCI %s MAC %s PHY %s TEST %s vendor %x",
				formatVersion(info.UCIVersion),
				formatVersion(info.MACVersion),
				formatVersion(info.PHYVersion),
				formatVersion(info.UCITestVersion),
				info.VendorInfo))
		}),
	}

	// CapsCmd prints capabilities.
	CapsCmd = ishell.Cmd{
		Name: "caps",
		Help: "show capability parameters",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			tlvs, err := s.Client.GetCapabilities(s.ctx)
			s.outputTLVs(c, tlvs, err)
		}),
	}

	// CoreSetCmd sets device configuration.
	CoreSetCmd = ishell.Cmd{
		Name: "core.set",
		Help: "TAG=HEX... set device configuration",
		Func: withArgs(1, "TAG=HEX...", func(c *ishell.Context, s *Shell) {
			tlvs, err := parseTLVs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s.outputOK(c, s.Client.SetCoreConfig(s.ctx, tlvs))
		}),
	}

	// CoreGetCmd reads device configuration.
	CoreGetCmd = ishell.Cmd{
		Name: "core.get",
		Help: "TAG... read device configuration",
		Func: withArgs(1, "TAG...", func(c *ishell.Context, s *Shell) {
			tags, err := parseTags(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			tlvs, err := s.Client.GetCoreConfig(s.ctx, tags)
			s.outputTLVs(c, tlvs, err)
		}),
	}

	// SessionInitCmd creates a session.
	SessionInitCmd = ishell.Cmd{
		Name: "session.init",
		Help: "ID [TYPE] create a session, TYPE: ranging, ranging-data, data, test or a number",
		Func: withSession(0, "[TYPE]", func(c *ishell.Context, s *Shell, id uint32) {
			typ := uci.SessionTypeRanging
			if len(c.Args) > 1 {
				var err error
				if typ, err = parseSessionType(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			s.outputOK(c, s.Client.SessionInit(s.ctx, id, typ))
		}),
	}

	// SessionDeinitCmd removes a session.
	SessionDeinitCmd = ishell.Cmd{
		Name: "session.deinit",
		Help: "ID remove a session",
		Func: withSession(0, "", func(c *ishell.Context, s *Shell, id uint32) {
			s.outputOK(c, s.Client.SessionDeinit(s.ctx, id))
		}),
	}

	// SessionStateCmd queries the state of a session.
	SessionStateCmd = ishell.Cmd{
		Name: "session.state",
		Help: "ID query the state of a session",
		Func: withSession(0, "", func(c *ishell.Context, s *Shell, id uint32) {
			state, err := s.Client.SessionGetState(s.ctx, id)
			if err != nil {
				c.Err(err)
				return
			}
			s.output(c, map[string]string{"state": state.String()}, state.String())
		}),
	}

	// SessionCountCmd queries the number of sessions.
	SessionCountCmd = ishell.Cmd{
		Name: "session.count",
		Help: "query the number of sessions",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			count, err := s.Client.SessionGetCount(s.ctx)
			if err != nil {
				c.Err(err)
				return
			}
			s.output(c, map[string]int{"count": count}, fmt.Sprintf("%d", count))
		}),
	}

	// SessionListCmd lists tracked sessions.
	SessionListCmd = ishell.Cmd{
		Name:    "session.list",
		Aliases: []string{"sessions"},
		Help:    "list sessions known from notifications",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			infos := s.Engine.Sessions()
			out := make([]map[string]interface{}, len(infos))
			lines := make([]string, len(infos))
			for n, info := range infos {
				out[n] = map[string]interface{}{
					"id":     info.ID,
					"state":  info.State.String(),
					"reason": info.Reason.String(),
				}
				lines[n] = fmt.Sprintf("%d %s (%s)", info.ID, info.State, info.Reason)
			}
			if len(infos) == 0 && !s.OutputJSON {
				c.Println("No sessions")
				return
			}
			s.output(c, out, strings.Join(lines, "\n"))
		}),
	}

	// AppConfigSetCmd sets session configuration.
	AppConfigSetCmd = ishell.Cmd{
		Name: "appcfg.set",
		Help: "ID TAG=HEX... set session configuration",
		Func: withSession(1, "TAG=HEX...", func(c *ishell.Context, s *Shell, id uint32) {
			tlvs, err := parseTLVs(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			s.outputOK(c, s.Client.SetAppConfig(s.ctx, id, tlvs))
		}),
	}

	// AppConfigGetCmd reads session configuration.
	AppConfigGetCmd = ishell.Cmd{
		Name: "appcfg.get",
		Help: "ID [TAG...] read session configuration, all without TAG",
		Func: withSession(0, "[TAG...]", func(c *ishell.Context, s *Shell, id uint32) {
			tags, err := parseTags(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			tlvs, err := s.Client.GetAppConfig(s.ctx, id, tags)
			s.outputTLVs(c, tlvs, err)
		}),
	}

	// MulticastCmd updates the controlees of a session.
	MulticastCmd = ishell.Cmd{
		Name: "multicast",
		Help: "ID add|del ADDR[:SUB-SESSION]... update controlees",
		Func: withSession(2, "add|del ADDR[:SUB-SESSION]...", func(c *ishell.Context, s *Shell, id uint32) {
			var action uci.MulticastAction
			switch c.Args[1] {
			case "add":
				action = uci.MulticastAdd
			case "del", "delete":
				action = uci.MulticastDelete
			default:
				c.Err(fmt.Errorf("unknown action %q", c.Args[1]))
				return
			}
			controlees, err := parseControlees(c.Args[2:])
			if err != nil {
				c.Err(err)
				return
			}
			s.outputOK(c, s.Client.UpdateMulticastList(s.ctx, id, action, controlees))
		}),
	}

	// RangeStartCmd starts ranging.
	RangeStartCmd = ishell.Cmd{
		Name: "range.start",
		Help: "ID start ranging",
		Func: withSession(0, "", func(c *ishell.Context, s *Shell, id uint32) {
			s.outputOK(c, s.Client.StartRanging(s.ctx, id))
		}),
	}

	// RangeStopCmd stops ranging.
	RangeStopCmd = ishell.Cmd{
		Name: "range.stop",
		Help: "ID stop ranging",
		Func: withSession(0, "", func(c *ishell.Context, s *Shell, id uint32) {
			s.outputOK(c, s.Client.StopRanging(s.ctx, id))
		}),
	}

	// DataSendCmd sends application data.
	DataSendCmd = ishell.Cmd{
		Name: "data.send",
		Help: "ID DST SEQ HEX send application data to a peer",
		Func: withSession(3, "DST SEQ HEX", func(c *ishell.Context, s *Shell, id uint32) {
			dst, err := parseUint(c.Args[1], 64)
			if err != nil {
				c.Err(err)
				return
			}
			seq, err := parseUint(c.Args[2], 16)
			if err != nil {
				c.Err(err)
				return
			}
			data, err := parseHex(c.Args[3])
			if err != nil {
				c.Err(err)
				return
			}
			s.outputOK(c, s.Client.SendData(s.ctx, id, dst, uint16(seq), data))
		}),
	}

	// TestSetCmd sets RF test configuration.
	TestSetCmd = ishell.Cmd{
		Name: "test.set",
		Help: "ID TAG=HEX... set RF test configuration",
		Func: withSession(1, "TAG=HEX...", func(c *ishell.Context, s *Shell, id uint32) {
			tlvs, err := parseTLVs(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			s.outputOK(c, s.Client.TestConfigSet(s.ctx, id, tlvs))
		}),
	}

	// TestGetCmd reads RF test configuration.
	TestGetCmd = ishell.Cmd{
		Name: "test.get",
		Help: "ID [TAG...] read RF test configuration",
		Func: withSession(0, "[TAG...]", func(c *ishell.Context, s *Shell, id uint32) {
			tags, err := parseTags(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			tlvs, err := s.Client.TestConfigGet(s.ctx, id, tags)
			s.outputTLVs(c, tlvs, err)
		}),
	}

	// TestTxCmd starts the periodic transmission test.
	TestTxCmd = ishell.Cmd{
		Name: "test.tx",
		Help: "PSDU start periodic transmission",
		Func: withArgs(1, "PSDU", func(c *ishell.Context, s *Shell) {
			psdu, err := parseHex(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s.outputOK(c, s.Client.StartPeriodicTx(s.ctx, psdu))
		}),
	}

	// TestPerCmd starts the packet error rate test.
	TestPerCmd = ishell.Cmd{
		Name: "test.per",
		Help: "PSDU start packet error rate reception",
		Func: withArgs(1, "PSDU", func(c *ishell.Context, s *Shell) {
			psdu, err := parseHex(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			s.outputOK(c, s.Client.StartPerRx(s.ctx, psdu))
		}),
	}

	// TestStopCmd stops the RF test.
	TestStopCmd = ishell.Cmd{
		Name: "test.stop",
		Help: "stop the RF test",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			s.outputOK(c, s.Client.StopTest(s.ctx))
		}),
	}

	// RawCmd sends a raw command packet.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "HEX send a complete command packet and print the response",
		Func: withArgs(1, "HEX", func(c *ishell.Context, s *Shell) {
			data, err := parseHex(strings.Join(c.Args, ""))
			if err != nil {
				c.Err(err)
				return
			}
			rsp, err := s.Client.SendRawCommand(s.ctx, data, nil)
			if err != nil {
				c.Err(err)
				return
			}
			b, err := rsp.Bytes()
			if err != nil {
				c.Err(err)
				return
			}
			s.output(c, map[string]string{"response": fmt.Sprintf("%x", b)}, fmt.Sprintf("% x", b))
		}),
	}

	// StatsCmd prints engine statistics.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "show frame statistics",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			stats := s.Engine.Stats()
			s.output(c, stats, stats.String())
		}),
	}

	// StateCmd prints the device state.
	StateCmd = ishell.Cmd{
		Name: "state",
		Help: "show the device state",
		Func: withArgs(0, "", func(c *ishell.Context, s *Shell) {
			state := s.Engine.DeviceState()
			s.output(c, map[string]string{"state": state.String()}, state.String())
		}),
	}
)
