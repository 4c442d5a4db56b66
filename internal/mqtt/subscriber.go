package mqtt

import (
	"context"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"cranewatch/internal/models"
)

const qos = 0

// Handler processes one inbound message.
type Handler func(ctx context.Context, topic string, payload []byte) error

// NewClient builds an auto-reconnecting paho client and connects.
func NewClient(broker, clientID, username, password string, logger *zap.Logger) (pahomqtt.Client, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	if username != "" {
		opts.SetUsername(username).SetPassword(password)
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	}
	opts.OnConnect = func(_ pahomqtt.Client) {
		logger.Info("mqtt connected", zap.String("broker", broker))
	}

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// SubscribeBindings subscribes to the topic of every active binding and
// routes messages into handle. Handler errors are logged, never
// propagated back into the paho callback.
func SubscribeBindings(ctx context.Context, client pahomqtt.Client, bindings []models.TopicBinding, handle Handler, logger *zap.Logger) error {
	callback := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		if err := handle(ctx, msg.Topic(), msg.Payload()); err != nil {
			logger.Error("message ingestion failed", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	}
	for _, b := range bindings {
		if token := client.Subscribe(b.Topic, qos, callback); token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", b.Topic, token.Error())
		}
		logger.Info("subscribed to crane topic",
			zap.String("topic", b.Topic), zap.Int64("crane_id", b.CraneID))
	}
	return nil
}
