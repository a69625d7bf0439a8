package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/winsx/libavg/anim"
	"github.com/winsx/libavg/logger"
	"github.com/winsx/libavg/metrics"
)

const (
	publishTimeout = time.Second

	// frameQueueSize bounds how far publishing may lag behind rendering.
	frameQueueSize = 4
)

// A Sink delivers encoded frames.
type Sink interface {
	Send(topic string, payload []byte) error
}

type mqttSink struct {
	client mqtt.Client
	qos    byte
}

// NewMQTTSink publishes frames through an MQTT client.
func NewMQTTSink(client mqtt.Client, qos byte) Sink {
	return &mqttSink{client: client, qos: qos}
}

func (s *mqttSink) Send(topic string, payload []byte) error {
	token := s.client.Publish(topic, s.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timed out")
	}
	return token.Error()
}

// Streamer that streams RGB data frames to an ledrx device.
type Streamer struct {
	sink      Sink
	topic     string
	animation Animation
	log       logger.Logger
	metrics   *metrics.Metrics

	frames   chan []byte
	interval int
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(sink Sink, topic string, animation Animation, log logger.Logger, m *metrics.Metrics) *Streamer {
	s := new(Streamer)
	s.sink = sink
	s.topic = topic
	s.animation = animation
	s.log = log
	s.metrics = m
	s.frames = make(chan []byte, frameQueueSize)
	return s
}

func (s *Streamer) render(runtimeMs int64) ([]byte, error) {
	f := s.animation.CalculateFrame(runtimeMs)
	b, err := f.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return b, nil
}

func (s *Streamer) send(b []byte) error {
	err := s.sink.Send(s.topic, b)
	s.metrics.FramePublished(err)
	if err != nil {
		return fmt.Errorf("failed to publish frame to %s: %w", s.topic, err)
	}
	return nil
}

// SendFrame renders one frame and sends it to the sink.
func (s *Streamer) SendFrame(runtimeMs int64) error {
	b, err := s.render(runtimeMs)
	if err != nil {
		return err
	}
	return s.send(b)
}

// enqueue renders a frame and hands it to Run. The frame is dropped if the
// queue is full so a slow broker never stalls the caller.
func (s *Streamer) enqueue(runtimeMs int64) {
	b, err := s.render(runtimeMs)
	if err != nil {
		s.log.Warn("dropped frame", "err", err)
		return
	}

	select {
	case s.frames <- b:
	default:
		s.metrics.FrameDropped()
		s.log.Debug("frame queue full, dropping frame", "runtimeMs", runtimeMs)
	}
}

// Run publishes queued frames until ctx is cancelled.
func (s *Streamer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b := <-s.frames:
			if err := s.send(b); err != nil {
				s.log.Warn("dropped frame", "err", err)
			}
		}
	}
}

// Start renders a frame every frameInterval on sched and queues it for Run.
func (s *Streamer) Start(sched anim.Scheduler, frameInterval time.Duration) {
	started := sched.Now()
	s.interval = sched.SetInterval(frameInterval, func() {
		s.enqueue(sched.Now().Sub(started).Milliseconds())
	})
}

// Stop cancels the frame timer registered by Start.
func (s *Streamer) Stop(sched anim.Scheduler) bool {
	return sched.ClearInterval(s.interval)
}
