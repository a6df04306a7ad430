package tests

import (
	"time"

	"github.com/google/uuid"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/pricing"
	"github.com/wieeerzbickim/community-feast/internal/service"
)

// The whole flow at a 12% commission: a 100.00 product splits 12.00/88.00,
// two units plus a 15.00 delivery fee come to 215.00, payment confirms the
// order, completion unlocks the review.
func (s *IntegrationTestSuite) TestMarketplaceFlow() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 10000, 10, false)

	s.Require().NoError(s.SettingsService.SetCommissionRate(s.Ctx, "12"))
	s.Require().NoError(s.SettingsService.SetDeliveryFee(s.Ctx, 1500))

	rate, err := s.SettingsService.CurrentRate(s.Ctx)
	s.Require().NoError(err)

	breakdown, err := pricing.Split(10000, rate)
	s.Require().NoError(err)
	s.Require().Equal(int64(1200), breakdown.Commission)
	s.Require().Equal(int64(8800), breakdown.Earnings)

	s.addToCart(1, productID, 2)

	result, err := s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:      1,
		IdempotencyKey:  uuid.NewString(),
		DeliveryMethod:  domain.DeliveryMethodDelivery,
		DeliveryAddress: "12 Orchard Lane",
	})
	s.Require().NoError(err)
	s.Require().Equal(int64(21500), result.Order.TotalAmount)

	// The payment request carries the commission split for reconciliation.
	s.Require().Len(s.PaymentClient.requests, 1)
	meta := s.PaymentClient.requests[0].Metadata
	s.Require().Equal("12", meta["commission_rate"])
	s.Require().Equal("2400", meta["commission_amount"])
	s.Require().Equal("17600", meta["producer_earnings"])

	s.Require().NoError(s.OrderService.HandlePaymentSucceeded(s.Ctx, &domain.PaymentSucceededEvent{
		EventID:    1,
		OrderID:    result.Order.ID,
		PaymentRef: "pay_flow",
		Amount:     result.Order.TotalAmount,
		PaidAt:     time.Now(),
	}))
	s.Require().Equal("confirmed", s.orderStatus(result.Order.ID))

	s.Require().NoError(s.OrderService.Complete(s.Ctx, 100, result.Order.ID))
	s.Require().Equal("completed", s.orderStatus(result.Order.ID))

	orderID := result.Order.ID
	review, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 1,
		OrderID:    &orderID,
		ProductID:  &productID,
		Rating:     5,
		Comment:    "Best honey at the market.",
	})
	s.Require().NoError(err)
	s.Require().NotZero(review.ID)

	avg, count := s.producerRating(100)
	s.Require().Equal(5.0, avg)
	s.Require().Equal(int64(1), count)
}

func (s *IntegrationTestSuite) TestProducerTransitions_WrongProducerForbidden() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	s.seedUser(200, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 1)
	result := s.checkout(1)

	s.Require().ErrorIs(s.OrderService.Confirm(s.Ctx, 200, result.Order.ID), domain.ErrForbidden)

	s.Require().NoError(s.OrderService.Confirm(s.Ctx, 100, result.Order.ID))

	// pending -> completed is never allowed, confirm first.
	s.Require().ErrorIs(s.OrderService.Confirm(s.Ctx, 100, result.Order.ID), domain.ErrInvalidTransition)
}
