// Package mqtt publishes sensor readings to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/naq/airthings"
)

type Config struct {
	// e.g. tcp://localhost:1883
	Broker      string
	ClientID    string
	TopicPrefix string
}

type Publisher struct {
	client paho.Client
	cfg    Config

	mu        sync.RWMutex
	connected bool
}

func NewPublisher(cfg Config) *Publisher {
	p := &Publisher{cfg: cfg}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		p.setConnected(true)
		log.WithField("broker", cfg.Broker).Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.setConnected(false)
		log.WithField("broker", cfg.Broker).Warnf("mqtt connection lost: %s", err)
	})

	p.client = paho.NewClient(opts)
	return p
}

// Connect waits for the first connection to the broker, or for ctx to be done.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			return errors.Wrap(token.Error(), "mqtt connect")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// Publish sends the reading as JSON to <prefix>/<mac>/reading.
func (p *Publisher) Publish(meta airthings.SensorMetadata) error {
	if !p.IsConnected() {
		return errors.New("mqtt client not connected")
	}

	topic := Topic(p.cfg.TopicPrefix, meta)
	data, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "marshal reading")
	}

	token := p.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}

	log.Debugf("published reading to %s", topic)
	return nil
}

func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	connected := p.connected
	p.mu.RUnlock()
	return connected && p.client.IsConnected()
}

func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
	p.setConnected(false)
	log.Info("mqtt disconnected")
}

func (p *Publisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func Topic(prefix string, meta airthings.SensorMetadata) string {
	mac := strings.ReplaceAll(airthings.FormatMacAddress(meta.MacAddress), ":", "")
	return fmt.Sprintf("%s/%s/reading", strings.TrimSuffix(prefix, "/"), mac)
}
