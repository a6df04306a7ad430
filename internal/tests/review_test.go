package tests

import (
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/service"
)

// completedOrder walks an order through pending -> confirmed -> completed.
func (s *IntegrationTestSuite) completedOrder(consumerID, producerID, productID, qty int64) int64 {
	s.addToCart(consumerID, productID, qty)
	result := s.checkout(consumerID)

	s.Require().NoError(s.OrderService.Confirm(s.Ctx, producerID, result.Order.ID))
	s.Require().NoError(s.OrderService.Complete(s.Ctx, producerID, result.Order.ID))

	return result.Order.ID
}

func (s *IntegrationTestSuite) producerRating(producerID int64) (float64, int64) {
	var avg float64
	var count int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		"SELECT rating_avg, rating_count FROM producer_profiles WHERE user_id = $1",
		producerID,
	).Scan(&avg, &count))

	return avg, count
}

func (s *IntegrationTestSuite) TestReview_PendingOrderNotEligible() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.addToCart(1, productID, 1)
	result := s.checkout(1)

	orderID := result.Order.ID
	_, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 1,
		OrderID:    &orderID,
		Rating:     5,
	})
	s.Require().ErrorIs(err, domain.ErrNotEligible)
}

func (s *IntegrationTestSuite) TestReview_CompletedOrderUpdatesRatings() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	orderID := s.completedOrder(1, 100, productID, 1)

	review, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 1,
		OrderID:    &orderID,
		ProductID:  &productID,
		Rating:     4,
		Comment:    "Lovely honey, quick pickup.",
	})
	s.Require().NoError(err)
	s.Require().NotZero(review.ID)
	s.Require().Equal(int64(100), review.ProducerID)

	avg, count := s.producerRating(100)
	s.Require().Equal(4.0, avg)
	s.Require().Equal(int64(1), count)

	var productAvg float64
	var productCount int64
	s.Require().NoError(s.DbPool.QueryRow(
		s.Ctx,
		"SELECT rating_avg, rating_count FROM products WHERE id = $1",
		productID,
	).Scan(&productAvg, &productCount))
	s.Require().Equal(4.0, productAvg)
	s.Require().Equal(int64(1), productCount)
}

func (s *IntegrationTestSuite) TestReview_DuplicateRejected() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	orderID := s.completedOrder(1, 100, productID, 1)

	input := &service.SubmitReviewInput{
		ConsumerID: 1,
		OrderID:    &orderID,
		ProductID:  &productID,
		Rating:     5,
	}

	_, err := s.ReviewService.SubmitReview(s.Ctx, input)
	s.Require().NoError(err)

	_, err = s.ReviewService.SubmitReview(s.Ctx, input)
	s.Require().ErrorIs(err, domain.ErrDuplicateReview)

	_, count := s.producerRating(100)
	s.Require().Equal(int64(1), count)
}

func (s *IntegrationTestSuite) TestReview_InvalidRating() {
	s.seedUser(1, "consumer")

	for _, rating := range []int32{0, 6, -1} {
		_, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
			ConsumerID: 1,
			ProducerID: 100,
			Rating:     rating,
		})
		s.Require().ErrorIs(err, domain.ErrInvalidRating)
	}
}

func (s *IntegrationTestSuite) TestReview_ProducerOnlyNeedsCompletedOrder() {
	s.seedUser(1, "consumer")
	s.seedUser(2, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	s.completedOrder(1, 100, productID, 1)

	// Consumer 1 has a completed order with the producer.
	review, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 1,
		ProducerID: 100,
		Rating:     5,
	})
	s.Require().NoError(err)
	s.Require().Nil(review.OrderID)
	s.Require().Nil(review.ProductID)

	// Consumer 2 never bought anything from them.
	_, err = s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 2,
		ProducerID: 100,
		Rating:     1,
	})
	s.Require().ErrorIs(err, domain.ErrNotEligible)
}

func (s *IntegrationTestSuite) TestReview_ProductReviewRequiresOrderLine() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	boughtID := s.seedProduct(100, 1000, 10, false)
	otherID := s.seedProduct(100, 2000, 10, false)

	orderID := s.completedOrder(1, 100, boughtID, 1)

	_, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 1,
		OrderID:    &orderID,
		ProductID:  &otherID,
		Rating:     3,
	})
	s.Require().ErrorIs(err, domain.ErrNotEligible)
}

func (s *IntegrationTestSuite) TestReview_RatingAverageOverSeveralReviews() {
	s.seedUser(1, "consumer")
	s.seedUser(2, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 20, false)

	firstOrder := s.completedOrder(1, 100, productID, 1)
	secondOrder := s.completedOrder(2, 100, productID, 1)

	_, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 1,
		OrderID:    &firstOrder,
		Rating:     5,
	})
	s.Require().NoError(err)

	_, err = s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 2,
		OrderID:    &secondOrder,
		Rating:     2,
	})
	s.Require().NoError(err)

	avg, count := s.producerRating(100)
	s.Require().Equal(3.5, avg)
	s.Require().Equal(int64(2), count)
}

func (s *IntegrationTestSuite) TestReview_RecomputeIsIdempotent() {
	s.seedUser(1, "consumer")
	s.seedUser(100, "producer")
	productID := s.seedProduct(100, 1000, 10, false)

	orderID := s.completedOrder(1, 100, productID, 1)

	_, err := s.ReviewService.SubmitReview(s.Ctx, &service.SubmitReviewInput{
		ConsumerID: 1,
		OrderID:    &orderID,
		Rating:     4,
	})
	s.Require().NoError(err)

	avgBefore, countBefore := s.producerRating(100)

	tx, err := s.DbPool.Begin(s.Ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.ProducerRepo.RecomputeRating(s.Ctx, tx, 100))
	s.Require().NoError(tx.Commit(s.Ctx))

	avgAfter, countAfter := s.producerRating(100)
	s.Require().Equal(avgBefore, avgAfter)
	s.Require().Equal(countBefore, countAfter)
}
