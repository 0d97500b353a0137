package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/uci.go/pkg/bridge/mqtt"
	"github.com/robotalks/uci.go/pkg/engine"
	"github.com/robotalks/uci.go/pkg/env"
	fx "github.com/robotalks/uci.go/pkg/framework"
	"github.com/robotalks/uci.go/pkg/uwbapi"
)

func init() {
	env.SetupFlags()
}

func logEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventFatal, engine.EventSEError:
		glog.Errorf("%s", ev)
	case engine.EventRangeData, engine.EventDataReceived, engine.EventDataCredit:
		glog.V(1).Infof("%s", ev)
	default:
		glog.Infof("%s", ev)
	}
}

// runDevice runs the engine, enables the controller and disables it
// before the engine stops.
func runDevice(e *engine.Engine, client *uwbapi.Client) fx.RunFunc {
	return func(ctx context.Context) error {
		engineCtx, stop := context.WithCancel(context.Background())
		defer func() {
			stop()
			<-e.Done()
		}()
		go e.Run(engineCtx)

		if err := client.Enable(ctx); err != nil {
			return err
		}
		glog.Info("controller enabled")
		<-ctx.Done()
		if err := client.Disable(context.Background()); err != nil {
			glog.Warningf("disable: %v", err)
		}
		return ctx.Err()
	}
}

func main() {
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

	handlers := engine.HandlerMux{engine.HandleEventFunc(logEvent)}
	var pub *mqtt.Publisher
	if conf.MQTTURL != "" {
		host, err := conf.Host()
		if err != nil {
			glog.Exitf("host id: %v", err)
		}
		encoder, err := mqtt.EncoderByName(conf.MQTTEncoding)
		if err != nil {
			glog.Exit(err)
		}
		if pub, err = mqtt.NewPublisherFromURL(conf.MQTTURL, host, encoder); err != nil {
			glog.Exit(err)
		}
		handlers.Add(pub)
	}

	e, err := engine.New(t, handlers, cfg)
	if err != nil {
		glog.Exit(err)
	}
	client := uwbapi.New(e)

	r := fx.NewRunner().HandleSignals()
	r.Go(fx.NamedRun("uwb", runDevice(e, client)))
	if pub != nil {
		pub.Client = client
		r.Go(fx.NamedRun("mqtt", pub))
	}
	if err := r.Wait(); err != nil {
		glog.Exit(err)
	}
	glog.Info("stopped")
}
