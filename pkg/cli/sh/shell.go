// Package sh provides the operator shell over the UCI engine.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/uci.go/pkg/engine"
	"github.com/robotalks/uci.go/pkg/env"
	"github.com/robotalks/uci.go/pkg/hal"
	"github.com/robotalks/uci.go/pkg/uwbapi"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	PrintEvents bool
	AutoEnable  bool

	Shell  *ishell.Shell
	Engine *engine.Engine
	Client *uwbapi.Client

	ctx     context.Context
	cancel  context.CancelFunc
	eventCh chan engine.Event
}

const (
	shellKey = "$shell"

	eventBacklog = 64
)

var (
	// flags

	evalOnly    bool
	outputJSON  bool
	printEvents = true
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&printEvents, "events", printEvents, "Print events from the controller.")
}

// New creates a shell over a transport.
func New(t hal.Transport, cfg engine.Config) (*Shell, error) {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		PrintEvents: printEvents,

		Shell:   ishell.New(),
		eventCh: make(chan engine.Event, eventBacklog),
	}
	e, err := engine.New(t, s, cfg)
	if err != nil {
		return nil, err
	}
	s.Engine, s.Client = e, uwbapi.New(e)
	s.Shell.Set(shellKey, s)
	s.updatePrompt(engine.DeviceUninit)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s, nil
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// WithAutoEnable sets AutoEnable.
func (s *Shell) WithAutoEnable(en bool) *Shell {
	s.AutoEnable = en
	return s
}

// HandleEvent implements engine.EventHandler.
func (s *Shell) HandleEvent(ev engine.Event) {
	select {
	case s.eventCh <- ev:
	default:
	}
}

func (s *Shell) printEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.eventCh:
			if ev.Kind == engine.EventDeviceState {
				s.updatePrompt(ev.DeviceState)
			}
			if !s.PrintEvents {
				continue
			}
			if s.OutputJSON {
				s.Shell.Println(string(s.marshal(eventOutput(ev))))
				continue
			}
			s.Shell.Printf("! %s\n", ev)
		}
	}
}

func (s *Shell) updatePrompt(state engine.DeviceState) {
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", state))
}

func (s *Shell) marshal(v interface{}) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return out
}

// output prints v as JSON or text depending on OutputJSON.
func (s *Shell) output(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		c.Println(string(s.marshal(v)))
		return
	}
	c.Println(text)
}

func (s *Shell) outputOK(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	s.output(c, map[string]string{"result": "ok"}, "OK")
}

// Start runs the engine in background.
func (s *Shell) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.Engine.Run(s.ctx)
	go s.printEvents(s.ctx)
}

// Stop disables the controller and stops the engine.
func (s *Shell) Stop() {
	if s.cancel == nil {
		return
	}
	if s.Engine.DeviceState().IsEnabled() {
		if err := s.Client.Disable(context.Background()); err != nil {
			glog.Warningf("disable: %v", err)
		}
	}
	s.cancel()
	<-s.Engine.Done()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) error {
	s.Start()
	defer s.Stop()
	if s.AutoEnable {
		if s.Interactive {
			s.Shell.Println("Enabling controller ...")
		}
		if err := s.Client.Enable(context.Background()); err != nil {
			return fmt.Errorf("enable: %w", err)
		}
	}
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.Default()
	if err := conf.Valid(); err != nil {
		glog.Exit(err)
	}
	t, err := conf.NewTransport()
	if err != nil {
		glog.Exit(err)
	}
	cfg, err := conf.EngineConfig()
	if err != nil {
		glog.Exit(err)
	}
	s, err := New(t, cfg)
	if err != nil {
		glog.Exit(err)
	}
	if err := s.WithAutoEnable(true).Run(flag.Args()...); err != nil {
		glog.Exit(err)
	}
}
