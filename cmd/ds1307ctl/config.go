package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"periph.io/x/conn/v3/physic"

	"github.com/ajanata/drivers/ds1307"
	"github.com/ajanata/drivers/internal/ntp"
	"github.com/ajanata/drivers/internal/telemetry"
)

const (
	chipDS1307  = "ds1307"
	chipPCF8523 = "pcf8523"
)

type config struct {
	Chip      string
	Bus       string
	Address   uint16
	Frequency physic.Frequency
	LogLevel  string

	NTPServer  string
	NTPTimeout time.Duration

	MQTT telemetry.Config
}

type fileConfig struct {
	Chip      string `toml:"chip"`
	Bus       string `toml:"bus"`
	Address   int64  `toml:"address"`
	Frequency string `toml:"frequency"`
	LogLevel  string `toml:"log_level"`

	NTP struct {
		Server  string `toml:"server"`
		Timeout string `toml:"timeout"`
	} `toml:"ntp"`

	MQTT struct {
		Broker   string `toml:"broker"`
		ClientID string `toml:"client_id"`
		Username string `toml:"username"`
		Password string `toml:"password"`
		Topic    string `toml:"topic"`
		QoS      int64  `toml:"qos"`
		Retained bool   `toml:"retained"`
		Interval string `toml:"interval"`
	} `toml:"mqtt"`
}

func defaultConfig() config {
	return config{
		Chip:       chipDS1307,
		Address:    ds1307.Address,
		Frequency:  100 * physic.KiloHertz,
		LogLevel:   "info",
		NTPServer:  ntp.DefaultServer,
		NTPTimeout: 5 * time.Second,
		MQTT: telemetry.Config{
			Broker:   "tcp://localhost:1883",
			ClientID: "ds1307ctl",
			Interval: 10 * time.Second,
		},
	}
}

// loadConfig reads path on top of the defaults. Keys missing from the file
// keep their default.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("chip") {
		cfg.Chip = strings.ToLower(strings.TrimSpace(raw.Chip))
	}
	if meta.IsDefined("bus") {
		cfg.Bus = strings.TrimSpace(raw.Bus)
	}
	if meta.IsDefined("address") {
		if raw.Address <= 0 || raw.Address > 0x7F {
			return config{}, fmt.Errorf("address %#x out of range", raw.Address)
		}
		cfg.Address = uint16(raw.Address)
	}
	if meta.IsDefined("frequency") {
		if err := cfg.Frequency.Set(strings.TrimSpace(raw.Frequency)); err != nil {
			return config{}, fmt.Errorf("parse frequency: %w", err)
		}
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}

	if meta.IsDefined("ntp", "server") {
		cfg.NTPServer = strings.TrimSpace(raw.NTP.Server)
	}
	if meta.IsDefined("ntp", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.NTP.Timeout))
		if err != nil {
			return config{}, fmt.Errorf("parse ntp.timeout: %w", err)
		}
		cfg.NTPTimeout = d
	}

	if meta.IsDefined("mqtt", "broker") {
		cfg.MQTT.Broker = strings.TrimSpace(raw.MQTT.Broker)
	}
	if meta.IsDefined("mqtt", "client_id") {
		cfg.MQTT.ClientID = strings.TrimSpace(raw.MQTT.ClientID)
	}
	if meta.IsDefined("mqtt", "username") {
		cfg.MQTT.Username = raw.MQTT.Username
	}
	if meta.IsDefined("mqtt", "password") {
		cfg.MQTT.Password = raw.MQTT.Password
	}
	if meta.IsDefined("mqtt", "topic") {
		cfg.MQTT.Topic = strings.TrimSpace(raw.MQTT.Topic)
	}
	if meta.IsDefined("mqtt", "qos") {
		if raw.MQTT.QoS < 0 || raw.MQTT.QoS > 2 {
			return config{}, fmt.Errorf("mqtt.qos %d out of range", raw.MQTT.QoS)
		}
		cfg.MQTT.QoS = byte(raw.MQTT.QoS)
	}
	if meta.IsDefined("mqtt", "retained") {
		cfg.MQTT.Retained = raw.MQTT.Retained
	}
	if meta.IsDefined("mqtt", "interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MQTT.Interval))
		if err != nil {
			return config{}, fmt.Errorf("parse mqtt.interval: %w", err)
		}
		cfg.MQTT.Interval = d
	}

	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch c.Chip {
	case chipDS1307, chipPCF8523:
		return nil
	default:
		return fmt.Errorf("unsupported chip %q", c.Chip)
	}
}
