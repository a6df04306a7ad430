package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/service"
	"github.com/wieeerzbickim/community-feast/pkg/kafka"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	outboxUtils "github.com/wieeerzbickim/community-feast/pkg/outbox/utils"
	"go.uber.org/zap"
)

// Consumer reconciles external facts into the marketplace: payment outcomes
// from the payment collaborator and registrations from the identity provider.
type Consumer struct {
	orderService    service.OrderService
	producerService service.ProducerService
	pool            *pgxpool.Pool
	groupID         string
	logger          *zap.Logger
}

func NewConsumer(
	orderService service.OrderService,
	producerService service.ProducerService,
	pool *pgxpool.Pool,
	groupID string,
	logger *zap.Logger,
) *Consumer {
	return &Consumer{
		orderService:    orderService,
		producerService: producerService,
		pool:            pool,
		groupID:         groupID,
		logger:          logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) error {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		c.groupID,
		[]string{"payment_events", "user_events"},
		c.processMessage,
		c.logger,
	)

	return consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	type EventWrapper struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}

	var wrapper EventWrapper
	if err := json.Unmarshal(msg.Value, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return err
	}

	switch wrapper.Event {
	case "PaymentSucceeded":
		var event domain.PaymentSucceededEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		err := outboxUtils.ProcessWithDeduplication(ctx, c.pool, c.logger, event.EventID, func() error {
			return c.orderService.HandlePaymentSucceeded(ctx, &event)
		})
		if err != nil {
			mylogger.Error(ctx, c.logger, "Failed to handle payment success", zap.Error(err))
			return err
		}
	case "PaymentFailed":
		var event domain.PaymentFailedEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal payload", zap.Error(err))
			return err
		}

		err := outboxUtils.ProcessWithDeduplication(ctx, c.pool, c.logger, event.EventID, func() error {
			return c.orderService.HandlePaymentFailed(ctx, &event)
		})
		if err != nil {
			mylogger.Error(ctx, c.logger, "Failed to handle payment failure", zap.Error(err))
			return err
		}
	case "UserRegistered":
		var event domain.UserRegisteredEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal event", zap.Error(err))
			return err
		}

		err := outboxUtils.ProcessWithDeduplication(ctx, c.pool, c.logger, event.EventID, func() error {
			return c.producerService.HandleUserRegistered(ctx, event.UserID, event.Email, event.Role)
		})
		if err != nil {
			mylogger.Error(ctx, c.logger, "Failed to handle register event", zap.Error(err))
			return err
		}
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event_type", wrapper.Event))
	}

	return nil
}
