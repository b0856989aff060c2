package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/request"
	"github.com/fekuna/omnipos-stock-service/internal/request/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

// RequestListener opens package requests for incoming order events.
type RequestListener struct {
	consumer *broker.KafkaConsumer
	uc       request.UseCase
	logger   logger.ZapLogger
}

func NewRequestListener(consumer *broker.KafkaConsumer, uc request.UseCase, logger logger.ZapLogger) *RequestListener {
	return &RequestListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *RequestListener) Start(ctx context.Context) {
	l.logger.Info("Starting Stock Request Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Stock Request Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID        string             `json:"id"`
	ProfileID string             `json:"profile_id"`
	Items     []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID      string  `json:"product_id"`
	OfferID        *string `json:"offer_id"`
	VariationID    *string `json:"variation_id"`
	ModificationID *string `json:"modification_id"`
	Quantity       int     `json:"quantity"`
}

func (l *RequestListener) processMessage(ctx context.Context, value []byte) {
	var event OrderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "OrderCreated" {
		return
	}

	l.logger.Info("Processing OrderCreated event", zap.String("order_id", event.Payload.ID))

	items := make([]dto.LineItemInput, 0, len(event.Payload.Items))
	for _, item := range event.Payload.Items {
		items = append(items, dto.LineItemInput{
			ProductID:      item.ProductID,
			OfferID:        item.OfferID,
			VariationID:    item.VariationID,
			ModificationID: item.ModificationID,
			Total:          item.Quantity,
		})
	}

	req, _, err := l.uc.OpenRequest(ctx, &dto.OpenRequestInput{
		ProfileID: event.Payload.ProfileID,
		Status:    model.StatusPackage,
		Items:     items,
		Order:     &dto.OrderPayload{OrderID: event.Payload.ID},
	})
	if err != nil {
		l.logger.Error("Failed to open package request for order",
			zap.String("order_id", event.Payload.ID),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("Opened package request",
		zap.String("order_id", event.Payload.ID),
		zap.String("request_id", req.ID),
	)
}
