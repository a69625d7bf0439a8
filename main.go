package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/winsx/libavg/anim"
	"github.com/winsx/libavg/api"
	"github.com/winsx/libavg/config"
	"github.com/winsx/libavg/logger"
	"github.com/winsx/libavg/metrics"
	"github.com/winsx/libavg/node"
	"github.com/winsx/libavg/player"
	"github.com/winsx/libavg/stream"
)

type app struct {
	Config   *config.Config
	Log      logger.Logger
	Client   mqtt.Client
	Player   *player.Player
	Node     *node.Node
	Streamer *stream.Streamer
	Show     *stream.Controller
	API      *api.Server
}

func newApp(cfg *config.Config) (*app, error) {
	a := new(app)
	a.Config = cfg
	a.Log = logger.New(cfg.Log.Level, cfg.Log.Format)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a.Player = player.New(clockwork.NewRealClock(), cfg.PlayerFrameInterval(), a.Log, m)
	a.Node = node.New("tree", map[string]float64{
		anim.OpacityAttr:  0,
		stream.OffsetAttr: 0,
	})

	show, err := stream.NewController(a.Player, a.Node, cfg.ShowOptions(), a.Log, m)
	if err != nil {
		return nil, err
	}
	a.Show = show

	options := mqtt.NewClientOptions().
		AddBroker(cfg.Mqtt.URL).
		SetClientID(cfg.Mqtt.ClientID).
		SetUsername(cfg.Mqtt.Username).
		SetPassword(cfg.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(a.handleOnConnect).
		SetConnectionLostHandler(a.handleConnectionLost)
	a.Client = mqtt.NewClient(options)

	glow := stream.NewGlow(a.Node, cfg.Stream.Gradient, cfg.Stream.Pixels)
	a.Streamer = stream.NewStreamer(stream.NewMQTTSink(a.Client, cfg.Mqtt.QoS),
		cfg.Mqtt.Topics.Stream, glow, a.Log, m)

	a.API = api.NewServer(a.Node, a.Show, reg, a.Log)
	return a, nil
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.Log.Info("connected", "broker", a.Config.Mqtt.URL)
}

func (a *app) handleConnectionLost(client mqtt.Client, err error) {
	a.Log.Warn("connection lost", "err", err)
}

func (a *app) run(ctx context.Context) error {
	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to %s: %w", a.Config.Mqtt.URL, token.Error())
	}
	defer a.Client.Disconnect(250)

	go func() {
		if err := a.API.Start(a.Config.API.Addr); err != nil {
			a.Log.Error("api stopped", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.API.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("api shutdown", "err", err)
		}
	}()

	go func() {
		if err := a.Streamer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Log.Error("streamer stopped", "err", err)
		}
	}()
	a.Streamer.Start(a.Player, a.Config.StreamFrameInterval())
	if err := a.Show.Start(); err != nil {
		return err
	}

	err := a.Player.Run(ctx)
	a.Show.Stop()
	a.Streamer.Stop(a.Player)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %s\n", err)
		os.Exit(1)
	}

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %s\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		a.Log.Error("exiting", "err", err)
		os.Exit(1)
	}
}
