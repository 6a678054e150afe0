package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/cube_viewer/internal/config"
	"github.com/relabs-tech/cube_viewer/internal/sink"
)

// RunConsoleMQTT prints every reading published on the orientation topic
// in the viewer's console format, until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer) error {
	client := NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicOrientation, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printReading(out, msg.Payload()); err != nil {
			log.Printf("console: orientation unmarshal error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicOrientation)

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func printReading(out io.Writer, payload []byte) error {
	var r Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, sink.LineFormat, r.W, r.X, r.Y, r.Z, r.Pitch)
	return err
}
