package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
)

// StatusChangedEvent is broadcast after every committed transition so
// printing/push collaborators can react. Consumers must tolerate duplicates.
type StatusChangedEvent struct {
	EventType string    `json:"event_type"`
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type KafkaNotifier struct {
	publisher *broker.KafkaPublisher
}

func NewKafkaNotifier(publisher *broker.KafkaPublisher) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher}
}

func (n *KafkaNotifier) NotifyStatus(ctx context.Context, requestID string, status model.Status) error {
	payload, err := json.Marshal(&StatusChangedEvent{
		EventType: "StockRequestStatusChanged",
		RequestID: requestID,
		Status:    string(status),
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}
	return n.publisher.Publish(ctx, []byte(requestID), payload)
}
