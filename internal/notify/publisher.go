package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cranewatch/internal/models"
)

const (
	eventChannel = "cranewatch:events"
	alarmChannel = "cranewatch:alarms"

	publishTimeout = 2 * time.Second
)

// Event is the lightweight change notification consumed by the
// external real-time fanout layer.
type Event struct {
	Kind    string `json:"kind"`
	CraneID int64  `json:"crane_id"`
	Summary string `json:"summary"`
}

// AlarmEvent is published additionally when an alarm with active lines
// is written.
type AlarmEvent struct {
	CraneID   int64     `json:"crane_id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher fans change notifications out over redis pub/sub.
// Delivery is fire-and-forget: failures are logged and never reach the
// ingestion path.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher returns a redis-backed publisher.
func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// MeasurementStored publishes a change notification for a committed
// measurement write.
func (p *Publisher) MeasurementStored(ctx context.Context, kind string, craneID int64, summary string) {
	p.publish(ctx, eventChannel, Event{Kind: kind, CraneID: craneID, Summary: summary})
}

// AlarmRaised publishes an alarm-raised notification.
func (p *Publisher) AlarmRaised(ctx context.Context, alarm *models.Alarm) {
	p.publish(ctx, alarmChannel, AlarmEvent{
		CraneID:   alarm.CraneID,
		Message:   alarm.Message,
		Severity:  alarm.Severity,
		Timestamp: alarm.Timestamp,
	})
}

func (p *Publisher) publish(ctx context.Context, channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("notification marshal failed", zap.String("channel", channel), zap.Error(err))
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.client.Publish(pubCtx, channel, data).Err(); err != nil {
		p.logger.Warn("notification publish failed", zap.String("channel", channel), zap.Error(err))
	}
}
