package tests

import (
	"time"

	"github.com/google/uuid"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/service"
)

func (s *IntegrationTestSuite) TestCheckout_Success() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 10000, 5, false)

	s.addToCart(1, productID, 2)
	result := s.checkout(1)

	s.Require().Equal(int64(20000), result.Order.TotalAmount)
	s.Require().Equal(domain.OrderStatusPending, result.Order.Status)
	s.Require().Equal("https://pay.example/sess_test", result.RedirectURL)

	s.Require().Equal(int64(3), s.stockOf(productID))

	// The OrderCreated outbox row must leave with the same commit.
	var outboxCount int
	err := s.DbPool.QueryRow(
		s.Ctx,
		"SELECT COUNT(*) FROM outbox WHERE event_type = 'OrderCreated'",
	).Scan(&outboxCount)
	s.Require().NoError(err)
	s.Require().Equal(1, outboxCount)

	s.Require().Eventually(func() bool {
		var publishedAt *time.Time
		err := s.DbPool.QueryRow(
			s.Ctx,
			"SELECT published_at FROM outbox WHERE event_type = 'OrderCreated'",
		).Scan(&publishedAt)

		return err == nil && publishedAt != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *IntegrationTestSuite) TestCheckout_InsufficientStockLeavesNothingBehind() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	cheapID := s.seedProduct(100, 500, 10, false)
	scarceID := s.seedProduct(100, 800, 1, false)

	s.addToCart(1, cheapID, 2)
	s.addToCart(1, scarceID, 1)

	// Someone else grabs the last unit between cart and checkout.
	_, err := s.DbPool.Exec(s.Ctx, "UPDATE products SET stock_quantity = 0 WHERE id = $1", scarceID)
	s.Require().NoError(err)

	_, err = s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:     1,
		IdempotencyKey: uuid.NewString(),
		DeliveryMethod: domain.DeliveryMethodPickup,
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)

	// No partial state: no order, no lines, first product's stock untouched.
	var orders int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, "SELECT COUNT(*) FROM orders").Scan(&orders))
	s.Require().Zero(orders)

	s.Require().Equal(int64(10), s.stockOf(cheapID))
}

func (s *IntegrationTestSuite) TestCheckout_MixedProducerCartRejected() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	s.seedUser(200, "producer")
	firstID := s.seedProduct(100, 500, 10, false)
	secondID := s.seedProduct(200, 700, 10, false)

	s.addToCart(1, firstID, 1)
	s.addToCart(1, secondID, 1)

	_, err := s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:     1,
		IdempotencyKey: uuid.NewString(),
		DeliveryMethod: domain.DeliveryMethodPickup,
	})
	s.Require().ErrorIs(err, domain.ErrMixedProducerCart)

	var orders int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, "SELECT COUNT(*) FROM orders").Scan(&orders))
	s.Require().Zero(orders)
}

func (s *IntegrationTestSuite) TestCheckout_EmptyCartRejected() {
	s.seedUser(1, "consumer")

	_, err := s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:     1,
		IdempotencyKey: uuid.NewString(),
		DeliveryMethod: domain.DeliveryMethodPickup,
	})
	s.Require().ErrorIs(err, domain.ErrEmptyCart)
}

func (s *IntegrationTestSuite) TestCheckout_MadeToOrderSkipsStock() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1500, 0, true)

	s.addToCart(1, productID, 25)
	result := s.checkout(1)

	s.Require().Equal(int64(37500), result.Order.TotalAmount)
	s.Require().Equal(int64(0), s.stockOf(productID))
}

func (s *IntegrationTestSuite) TestCheckout_IdempotencyKeyReplayed() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 2)

	key := uuid.NewString()
	input := &service.CheckoutInput{
		ConsumerID:     1,
		IdempotencyKey: key,
		DeliveryMethod: domain.DeliveryMethodPickup,
	}

	first, err := s.OrderService.Checkout(s.Ctx, input)
	s.Require().NoError(err)

	second, err := s.OrderService.Checkout(s.Ctx, input)
	s.Require().NoError(err)

	s.Require().Equal(first.Order.ID, second.Order.ID)

	// Replay must not decrement stock again.
	s.Require().Equal(int64(8), s.stockOf(productID))

	var orders int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, "SELECT COUNT(*) FROM orders").Scan(&orders))
	s.Require().Equal(1, orders)
}

func (s *IntegrationTestSuite) TestCheckout_DeliveryRequiresAddress() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 1)

	_, err := s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:     1,
		IdempotencyKey: uuid.NewString(),
		DeliveryMethod: domain.DeliveryMethodDelivery,
	})
	s.Require().ErrorIs(err, domain.ErrDeliveryAddressEmpty)
}

func (s *IntegrationTestSuite) TestCheckout_DeliveryFeeIncludedInTotal() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 10000, 10, false)

	s.Require().NoError(s.SettingsService.SetDeliveryFee(s.Ctx, 1500))

	s.addToCart(1, productID, 2)

	result, err := s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:      1,
		IdempotencyKey:  uuid.NewString(),
		DeliveryMethod:  domain.DeliveryMethodDelivery,
		DeliveryAddress: "12 Orchard Lane",
	})
	s.Require().NoError(err)

	// 2 x 100.00 + 15.00 delivery.
	s.Require().Equal(int64(21500), result.Order.TotalAmount)
	s.Require().Equal(int64(1500), result.Order.DeliveryFee)
}

func (s *IntegrationTestSuite) TestCheckout_PaymentFailureCompensates() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 3)
	s.PaymentClient.fail = true

	_, err := s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:     1,
		IdempotencyKey: uuid.NewString(),
		DeliveryMethod: domain.DeliveryMethodPickup,
	})
	s.Require().Error(err)

	// The order exists but is cancelled, and the stock is back.
	var orderID int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx, "SELECT id FROM orders").Scan(&orderID))
	s.Require().Equal("cancelled", s.orderStatus(orderID))
	s.Require().Equal(int64(10), s.stockOf(productID))
}
