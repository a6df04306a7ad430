package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wieeerzbickim/community-feast/internal/cart"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/pricing"
	"github.com/wieeerzbickim/community-feast/internal/repository"
	"github.com/wieeerzbickim/community-feast/pkg/identity"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	outboxDomain "github.com/wieeerzbickim/community-feast/pkg/outbox/domain"
	"github.com/wieeerzbickim/community-feast/pkg/outbox/worker"
	"github.com/wieeerzbickim/community-feast/pkg/payment"
	"go.uber.org/zap"
)

type CheckoutInput struct {
	ConsumerID      int64
	IdempotencyKey  string
	DeliveryMethod  domain.DeliveryMethod
	DeliveryAddress string
}

type CheckoutResult struct {
	Order       *domain.Order `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

type OrderService interface {
	Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error)
	GetForUser(ctx context.Context, user identity.User, orderID int64) (*domain.Order, error)
	ListByConsumer(ctx context.Context, consumerID int64) ([]domain.Order, error)
	ListByProducer(ctx context.Context, producerID int64) ([]domain.Order, error)
	Confirm(ctx context.Context, producerID, orderID int64) error
	Decline(ctx context.Context, producerID, orderID int64) error
	Complete(ctx context.Context, producerID, orderID int64) error
	HandlePaymentSucceeded(ctx context.Context, event *domain.PaymentSucceededEvent) error
	HandlePaymentFailed(ctx context.Context, event *domain.PaymentFailedEvent) error
}

type orderService struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	settingsRepo  repository.SettingsRepository
	outboxRepo    worker.OutboxRepository
	cartStore     cart.Store
	paymentClient payment.Client
	pool          *pgxpool.Pool
	logger        *zap.Logger
	successURL    string
	cancelURL     string
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	settingsRepo repository.SettingsRepository,
	outboxRepo worker.OutboxRepository,
	cartStore cart.Store,
	paymentClient payment.Client,
	pool *pgxpool.Pool,
	logger *zap.Logger,
	successURL, cancelURL string,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		settingsRepo:  settingsRepo,
		outboxRepo:    outboxRepo,
		cartStore:     cartStore,
		paymentClient: paymentClient,
		pool:          pool,
		logger:        logger,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// Checkout turns the consumer's cart into a pending order. Stock decrements,
// the order header, its lines and the OrderCreated outbox event all commit in
// one transaction; the payment session is requested after the commit, and a
// session failure compensates by cancelling the order and returning stock.
func (s *orderService) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error) {
	if existing, err := s.orderRepo.GetByIdempotencyKey(ctx, input.ConsumerID, input.IdempotencyKey); err == nil {
		mylogger.Info(
			ctx,
			s.logger,
			"Checkout replayed, returning existing order",
			zap.Int64("order_id", existing.ID),
		)

		return &CheckoutResult{Order: existing}, nil
	} else if !errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}

	c, err := s.cartStore.Load(ctx, input.ConsumerID)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error loading cart", zap.Error(err))
		return nil, err
	}

	producerID, err := c.SingleProducer()
	if err != nil {
		return nil, err
	}

	if input.DeliveryMethod == domain.DeliveryMethodDelivery && input.DeliveryAddress == "" {
		return nil, domain.ErrDeliveryAddressEmpty
	}

	var deliveryFee int64
	if input.DeliveryMethod == domain.DeliveryMethodDelivery {
		deliveryFee, err = s.settingsRepo.GetDeliveryFee(ctx)
		if err != nil {
			return nil, err
		}
	}

	order := &domain.Order{
		ConsumerID:     input.ConsumerID,
		ProducerID:     producerID,
		Status:         domain.OrderStatusPending,
		DeliveryMethod: input.DeliveryMethod,
		DeliveryFee:    deliveryFee,
		IdempotencyKey: input.IdempotencyKey,
	}
	if input.DeliveryAddress != "" {
		order.DeliveryAddress = &input.DeliveryAddress
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return nil, err
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	for _, line := range c.Lines {
		// RETURNING the current price makes the decrement double as the
		// authoritative price snapshot for the order line.
		unitPrice, err := s.productRepo.DecreaseStock(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			mylogger.Warn(
				ctx,
				s.logger,
				"Checkout aborted on stock decrement",
				zap.Int64("product_id", line.ProductID),
				zap.Error(err),
			)

			return nil, err
		}

		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
		})
	}

	order.CalculateTotal()

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		if errors.Is(err, domain.ErrDuplicateOrder) {
			existing, getErr := s.orderRepo.GetByIdempotencyKey(ctx, input.ConsumerID, input.IdempotencyKey)
			if getErr != nil {
				return nil, getErr
			}

			return &CheckoutResult{Order: existing}, nil
		}

		mylogger.Error(ctx, s.logger, "Error creating order", zap.Error(err))
		return nil, err
	}

	if err := s.saveOrderEvent(ctx, tx, order.ID, "OrderCreated", &domain.OrderCreatedEvent{
		OrderID:     order.ID,
		ConsumerID:  order.ConsumerID,
		ProducerID:  order.ProducerID,
		TotalAmount: order.TotalAmount,
		Items:       itemsOf(c),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error commiting transaction",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	session, err := s.createPaymentSession(ctx, order)
	if err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Payment session failed, compensating order",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)

		if compErr := s.cancelAndRestock(ctx, order.ID); compErr != nil {
			mylogger.Error(
				ctx,
				s.logger,
				"Compensation failed",
				zap.Int64("order_id", order.ID),
				zap.Error(compErr),
			)
		}

		return nil, err
	}

	return &CheckoutResult{Order: order, RedirectURL: session.RedirectURL}, nil
}

func (s *orderService) createPaymentSession(ctx context.Context, order *domain.Order) (*payment.CheckoutSession, error) {
	rateRaw, err := s.settingsRepo.GetCommissionRate(ctx)
	if err != nil {
		return nil, err
	}

	rate, err := pricing.ParseRate(rateRaw)
	if err != nil {
		return nil, err
	}

	breakdown, err := pricing.Split(order.TotalAmount-order.DeliveryFee, rate)
	if err != nil {
		return nil, err
	}

	req := &payment.CheckoutRequest{
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
		Metadata: map[string]string{
			"order_id":          fmt.Sprintf("%d", order.ID),
			"commission_rate":   rate.String(),
			"commission_amount": fmt.Sprintf("%d", breakdown.Commission),
			"producer_earnings": fmt.Sprintf("%d", breakdown.Earnings),
		},
	}

	for _, line := range order.Lines {
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  int32(line.Quantity),
		})
	}
	if order.DeliveryFee > 0 {
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:      "Delivery",
			UnitPrice: order.DeliveryFee,
			Quantity:  1,
		})
	}

	return s.paymentClient.CreateCheckoutSession(ctx, req)
}

func (s *orderService) GetForUser(ctx context.Context, user identity.User, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if user.Role != identity.RoleAdmin && order.ConsumerID != user.ID && order.ProducerID != user.ID {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

func (s *orderService) ListByConsumer(ctx context.Context, consumerID int64) ([]domain.Order, error) {
	return s.orderRepo.ListByConsumer(ctx, consumerID)
}

func (s *orderService) ListByProducer(ctx context.Context, producerID int64) ([]domain.Order, error) {
	return s.orderRepo.ListByProducer(ctx, producerID)
}

// Confirm is the producer accepting a paid-for order ahead of the payment
// event, e.g. for pickup orders settled in person.
func (s *orderService) Confirm(ctx context.Context, producerID, orderID int64) error {
	order, err := s.ownOrder(ctx, producerID, orderID)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return err
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	if err := s.orderRepo.ChangeStatus(ctx, tx, order.ID, domain.OrderStatusPending, domain.OrderStatusConfirmed); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Decline cancels a pending or confirmed order and returns its stock.
func (s *orderService) Decline(ctx context.Context, producerID, orderID int64) error {
	order, err := s.ownOrder(ctx, producerID, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
		return domain.ErrInvalidTransition
	}

	return s.cancelOrder(ctx, order.ID, order.Status)
}

func (s *orderService) Complete(ctx context.Context, producerID, orderID int64) error {
	order, err := s.ownOrder(ctx, producerID, orderID)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return err
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	if err := s.orderRepo.ChangeStatus(ctx, tx, order.ID, domain.OrderStatusConfirmed, domain.OrderStatusCompleted); err != nil {
		return err
	}

	if err := s.saveOrderEvent(ctx, tx, order.ID, "OrderCompleted", &domain.OrderCompletedEvent{
		OrderID:    order.ID,
		ConsumerID: order.ConsumerID,
		ProducerID: order.ProducerID,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// HandlePaymentSucceeded reconciles an async payment confirmation: the order
// moves pending -> confirmed, the payment reference is recorded, and the
// consumer's cart is cleared once.
func (s *orderService) HandlePaymentSucceeded(ctx context.Context, event *domain.PaymentSucceededEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return err
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	if err := s.orderRepo.ChangeStatus(ctx, tx, event.OrderID, domain.OrderStatusPending, domain.OrderStatusConfirmed); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Producer confirmed first, or a replayed event. Nothing to redo.
			mylogger.Warn(
				ctx,
				s.logger,
				"Payment confirmation for non-pending order",
				zap.Int64("order_id", event.OrderID),
			)

			return nil
		}

		return err
	}

	if err := s.orderRepo.SetPaymentRef(ctx, tx, event.OrderID, event.PaymentRef); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Error commiting transaction", zap.Error(err))
		return err
	}

	order, err := s.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return err
	}

	if err := s.cartStore.Clear(ctx, order.ConsumerID); err != nil {
		// The order is already confirmed; a stale cart is recoverable.
		mylogger.Warn(
			ctx,
			s.logger,
			"Error clearing cart after payment",
			zap.Int64("consumer_id", order.ConsumerID),
			zap.Error(err),
		)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order confirmed by payment",
		zap.Int64("order_id", event.OrderID),
		zap.String("payment_ref", event.PaymentRef),
	)

	return nil
}

// HandlePaymentFailed cancels the order and puts the stock back.
func (s *orderService) HandlePaymentFailed(ctx context.Context, event *domain.PaymentFailedEvent) error {
	order, err := s.orderRepo.GetByID(ctx, event.OrderID)
	if err != nil {
		return err
	}

	if order.Status != domain.OrderStatusPending {
		mylogger.Warn(
			ctx,
			s.logger,
			"Payment failure for non-pending order",
			zap.Int64("order_id", event.OrderID),
			zap.String("status", string(order.Status)),
		)

		return nil
	}

	return s.cancelOrder(ctx, order.ID, domain.OrderStatusPending)
}

func (s *orderService) cancelAndRestock(ctx context.Context, orderID int64) error {
	return s.cancelOrder(ctx, orderID, domain.OrderStatusPending)
}

// cancelOrder moves the order to cancelled from the expected status, returns
// stock for every line and records an OrderCancelled outbox event, all in one
// transaction.
func (s *orderService) cancelOrder(ctx context.Context, orderID int64, from domain.OrderStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return err
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(cleanupCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	if err := s.orderRepo.ChangeStatus(ctx, tx, orderID, from, domain.OrderStatusCancelled); err != nil {
		return err
	}

	lines, err := s.orderRepo.GetLines(ctx, tx, orderID)
	if err != nil {
		return err
	}

	items := make([]domain.OrderItemEvent, 0, len(lines))
	for _, line := range lines {
		if err := s.productRepo.IncreaseStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}

		items = append(items, domain.OrderItemEvent{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	if err := s.saveOrderEvent(ctx, tx, orderID, "OrderCancelled", &domain.OrderCancelledEvent{
		OrderID: orderID,
		Items:   items,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Error commiting transaction", zap.Error(err))
		return err
	}

	mylogger.Info(ctx, s.logger, "Order cancelled", zap.Int64("order_id", orderID))
	return nil
}

func (s *orderService) ownOrder(ctx context.Context, producerID, orderID int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ProducerID != producerID {
		return nil, domain.ErrForbidden
	}

	return order, nil
}

func (s *orderService) saveOrderEvent(ctx context.Context, tx pgx.Tx, orderID int64, eventType string, payload interface{}) error {
	eventPayload := map[string]interface{}{
		"event":   eventType,
		"payload": payload,
	}

	payloadBytes, err := json.Marshal(eventPayload)
	if err != nil {
		return fmt.Errorf("event payload marshal error: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Order",
		AggregateID:   fmt.Sprintf("%d", orderID),
		EventType:     eventType,
		Payload:       payloadBytes,
		Topic:         "order_events",
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error saving outbox event",
			zap.Error(err),
		)

		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

func itemsOf(c *domain.Cart) []domain.OrderItemEvent {
	items := make([]domain.OrderItemEvent, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, domain.OrderItemEvent{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			MadeToOrder: line.MadeToOrder,
		})
	}

	return items
}
