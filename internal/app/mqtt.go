package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQueue          = 64
	mqttPublishTimeout = 2 * time.Second
	mqttConnectTimeout = 5 * time.Second
)

// NewMQTTClient returns an unconnected client for broker.
func NewMQTTClient(broker, clientID string) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	return mqtt.NewClient(opts)
}

// MQTTPublisher forwards readings to a topic as JSON. Offer never blocks
// the read loop; readings are dropped while the broker is slow.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	queue  chan Reading
}

// NewMQTTPublisher connects client and prepares to publish on topic.
func NewMQTTPublisher(client mqtt.Client, topic string) (*MQTTPublisher, error) {
	if topic == "" {
		return nil, errors.New("empty topic")
	}
	if !client.IsConnected() {
		token := client.Connect()
		if !token.WaitTimeout(mqttConnectTimeout) {
			return nil, errors.New("connect timed out")
		}
		if token.Error() != nil {
			return nil, token.Error()
		}
	}
	log.Printf("mqtt: connected, publishing orientation on %s", topic)

	return &MQTTPublisher{
		client: client,
		topic:  topic,
		queue:  make(chan Reading, mqttQueue),
	}, nil
}

// Offer queues r for publishing.
func (p *MQTTPublisher) Offer(r Reading) {
	select {
	case p.queue <- r:
	default:
	}
}

// Run publishes queued readings until ctx is cancelled, then disconnects.
func (p *MQTTPublisher) Run(ctx context.Context) {
	defer p.client.Disconnect(250)

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-p.queue:
			if err := p.publish(r); err != nil {
				log.Printf("mqtt: publish error (%s): %v", p.topic, err)
			}
		}
	}
}

func (p *MQTTPublisher) publish(r Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return errors.New("publish timed out")
	}
	return token.Error()
}
