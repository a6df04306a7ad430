package tests

import (
	"time"

	outboxUtils "github.com/wieeerzbickim/community-feast/pkg/outbox/utils"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"go.uber.org/zap"
)

func (s *IntegrationTestSuite) TestPaymentSucceeded_ConfirmsAndClearsCart() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 2)
	result := s.checkout(1)

	err := s.OrderService.HandlePaymentSucceeded(s.Ctx, &domain.PaymentSucceededEvent{
		EventID:    1,
		OrderID:    result.Order.ID,
		PaymentRef: "pay_abc123",
		Amount:     result.Order.TotalAmount,
		PaidAt:     time.Now(),
	})
	s.Require().NoError(err)

	s.Require().Equal("confirmed", s.orderStatus(result.Order.ID))

	var paymentRef *string
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		"SELECT payment_ref FROM orders WHERE id = $1",
		result.Order.ID,
	).Scan(&paymentRef))
	s.Require().NotNil(paymentRef)
	s.Require().Equal("pay_abc123", *paymentRef)

	view, err := s.CartService.Get(s.Ctx, 1)
	s.Require().NoError(err)
	s.Require().True(view.Cart.IsEmpty())
}

func (s *IntegrationTestSuite) TestPaymentSucceeded_ReplayIsHarmless() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 1)
	result := s.checkout(1)

	event := &domain.PaymentSucceededEvent{
		EventID:    7,
		OrderID:    result.Order.ID,
		PaymentRef: "pay_once",
		Amount:     result.Order.TotalAmount,
		PaidAt:     time.Now(),
	}

	s.Require().NoError(s.OrderService.HandlePaymentSucceeded(s.Ctx, event))
	s.Require().NoError(s.OrderService.HandlePaymentSucceeded(s.Ctx, event))

	s.Require().Equal("confirmed", s.orderStatus(result.Order.ID))
}

func (s *IntegrationTestSuite) TestPaymentSucceeded_Deduplicated() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 1)
	result := s.checkout(1)

	event := &domain.PaymentSucceededEvent{
		EventID:    42,
		OrderID:    result.Order.ID,
		PaymentRef: "pay_dedup",
		Amount:     result.Order.TotalAmount,
		PaidAt:     time.Now(),
	}

	calls := 0
	handle := func() error {
		calls++
		return s.OrderService.HandlePaymentSucceeded(s.Ctx, event)
	}

	logger := zap.NewNop()
	s.Require().NoError(outboxUtils.ProcessWithDeduplication(s.Ctx, s.DbPool, logger, event.EventID, handle))
	s.Require().NoError(outboxUtils.ProcessWithDeduplication(s.Ctx, s.DbPool, logger, event.EventID, handle))

	s.Require().Equal(1, calls)
}

func (s *IntegrationTestSuite) TestPaymentFailed_CancelsAndRestocks() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 4)
	result := s.checkout(1)
	s.Require().Equal(int64(6), s.stockOf(productID))

	err := s.OrderService.HandlePaymentFailed(s.Ctx, &domain.PaymentFailedEvent{
		EventID:  2,
		OrderID:  result.Order.ID,
		Amount:   result.Order.TotalAmount,
		FailedAt: time.Now(),
	})
	s.Require().NoError(err)

	s.Require().Equal("cancelled", s.orderStatus(result.Order.ID))
	s.Require().Equal(int64(10), s.stockOf(productID))
}

func (s *IntegrationTestSuite) TestPaymentSucceeded_UnknownOrder() {
	err := s.OrderService.HandlePaymentSucceeded(s.Ctx, &domain.PaymentSucceededEvent{
		EventID: 3,
		OrderID: 999999,
	})
	s.Require().ErrorIs(err, domain.ErrOrderNotFound)
}
