// Package telemetry publishes RTC readings to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	defaultTopic          = "rtc/ds1307/time"
	defaultInterval       = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultConnectTimeout = 10 * time.Second
	maxQoS                = 2
)

var (
	ErrNotConnected  = errors.New("telemetry: not connected")
	ErrPublishFailed = errors.New("telemetry: publish failed")
	ErrInvalidQoS    = errors.New("telemetry: invalid QoS")
)

type Config struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
	Retained bool
	Interval time.Duration
}

// Clock is the part of an RTC driver needed to publish its time.
type Clock interface {
	Now() (time.Time, error)
}

// Reading is the JSON payload of each message.
type Reading struct {
	Time    time.Time `json:"time"`
	WeekDay string    `json:"weekday"`
	Source  string    `json:"source"`
	// Drift is the RTC time minus the host time, in seconds.
	Drift float64 `json:"drift"`
}

// publisher is the subset of pahomqtt.Client used here.
type publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	client   publisher
	topic    string
	qos      byte
	retained bool
	timeout  time.Duration
}

// Connect dials the broker.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(defaultConnectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("telemetry: connect %s: timeout after %v", cfg.Broker, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", cfg.Broker, err)
	}
	return newPublisher(client, cfg), nil
}

func newPublisher(client publisher, cfg Config) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = defaultTopic
	}
	return &Publisher{
		client:   client,
		topic:    cfg.Topic,
		qos:      cfg.QoS,
		retained: cfg.Retained,
		timeout:  defaultPublishTimeout,
	}
}

// Close disconnects from the broker, waiting briefly for in-flight messages.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

// Publish sends one reading.
func (p *Publisher) Publish(r Reading) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	token := p.client.Publish(p.topic, p.qos, p.retained, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Run reads clock every interval and publishes the reading until ctx is
// done. Read and publish failures are logged and do not stop the loop.
func Run(ctx context.Context, p *Publisher, clock Clock, source string, interval time.Duration, log zerolog.Logger) error {
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := publishOnce(p, clock, source); err != nil {
			log.Warn().Err(err).Msg("publish reading")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func publishOnce(p *Publisher, clock Clock, source string) error {
	now, err := clock.Now()
	if err != nil {
		return fmt.Errorf("read clock: %w", err)
	}
	return p.Publish(Reading{
		Time:    now,
		WeekDay: now.Weekday().String(),
		Source:  source,
		Drift:   now.Sub(time.Now()).Seconds(),
	})
}
