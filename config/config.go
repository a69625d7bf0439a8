// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/winsx/libavg/stream"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		ClientID string `yaml:"clientId"`
		QoS      byte   `yaml:"qos"`
		Topics   struct {
			Stream string `yaml:"stream"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`

	Player struct {
		FrameIntervalMs int `yaml:"frameIntervalMs"`
	} `yaml:"player"`

	Stream struct {
		Pixels          int                  `yaml:"pixels"`
		FrameIntervalMs int                  `yaml:"frameIntervalMs"`
		Gradient        stream.GradientTable `yaml:"gradient"`
	} `yaml:"stream"`

	Show struct {
		FadeMs        int     `yaml:"fadeMs"`
		SweepMs       int     `yaml:"sweepMs"`
		MaxOpacity    float64 `yaml:"maxOpacity"`
		SweepDistance float64 `yaml:"sweepDistance"`
		SweepSpeed    float64 `yaml:"sweepSpeed"`
	} `yaml:"show"`

	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads, defaults and validates the config file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mqtt.ClientID == "" {
		c.Mqtt.ClientID = "libavg"
	}
	if c.Mqtt.Topics.Stream == "" {
		c.Mqtt.Topics.Stream = "home/xmastree/stream"
	}
	if c.Player.FrameIntervalMs == 0 {
		c.Player.FrameIntervalMs = 10
	}
	if c.Stream.Pixels == 0 {
		c.Stream.Pixels = 500
	}
	if c.Stream.FrameIntervalMs == 0 {
		c.Stream.FrameIntervalMs = 33
	}
	if len(c.Stream.Gradient) == 0 {
		c.Stream.Gradient = stream.DefaultGradient
	}
	if c.Show.FadeMs == 0 {
		c.Show.FadeMs = 2000
	}
	if c.Show.SweepMs == 0 {
		c.Show.SweepMs = 5000
	}
	if c.Show.MaxOpacity == 0 {
		c.Show.MaxOpacity = 1.0
	}
	if c.Show.SweepDistance == 0 {
		c.Show.SweepDistance = 1.0
	}
	if c.API.Addr == "" {
		c.API.Addr = ":3000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate returns the first invalid setting it finds.
func (c *Config) Validate() error {
	if c.Mqtt.URL == "" {
		return errors.New("mqtt.url is required")
	}
	if c.Mqtt.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.Mqtt.QoS)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"player.frameIntervalMs", c.Player.FrameIntervalMs},
		{"stream.frameIntervalMs", c.Stream.FrameIntervalMs},
		{"show.fadeMs", c.Show.FadeMs},
		{"show.sweepMs", c.Show.SweepMs},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}

	if c.Stream.Pixels < 1 || c.Stream.Pixels > stream.MaxPixels {
		return fmt.Errorf("stream.pixels must be between 1 and %d, got %d", stream.MaxPixels, c.Stream.Pixels)
	}
	if !c.Stream.Gradient.Ascending() {
		return errors.New("stream.gradient positions must be ascending")
	}
	if c.Show.MaxOpacity <= 0 || c.Show.MaxOpacity > 1 {
		return fmt.Errorf("show.maxOpacity must be in (0, 1], got %v", c.Show.MaxOpacity)
	}
	return nil
}

func (c *Config) PlayerFrameInterval() time.Duration {
	return time.Duration(c.Player.FrameIntervalMs) * time.Millisecond
}

func (c *Config) StreamFrameInterval() time.Duration {
	return time.Duration(c.Stream.FrameIntervalMs) * time.Millisecond
}

// ShowOptions converts the show section for stream.NewController.
func (c *Config) ShowOptions() stream.ShowOptions {
	return stream.ShowOptions{
		FadeDuration:  time.Duration(c.Show.FadeMs) * time.Millisecond,
		SweepDuration: time.Duration(c.Show.SweepMs) * time.Millisecond,
		MaxOpacity:    c.Show.MaxOpacity,
		SweepDistance: c.Show.SweepDistance,
		SweepSpeed:    c.Show.SweepSpeed,
	}
}
