package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/repository"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	outboxDomain "github.com/wieeerzbickim/community-feast/pkg/outbox/domain"
	"github.com/wieeerzbickim/community-feast/pkg/outbox/worker"
	"go.uber.org/zap"
)

type SubmitReviewInput struct {
	ConsumerID int64
	ProducerID int64 // required only for producer-only reviews
	OrderID    *int64
	ProductID  *int64
	Rating     int32
	Comment    string
}

type ReviewService interface {
	CanReview(ctx context.Context, consumerID int64, orderID, productID *int64, producerID int64) error
	SubmitReview(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error)
	ListByProducer(ctx context.Context, producerID, limit, offset int64) ([]domain.Review, error)
}

type reviewService struct {
	reviewRepo   repository.ReviewRepository
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	producerRepo repository.ProducerRepository
	outboxRepo   worker.OutboxRepository
	pool         *pgxpool.Pool
	logger       *zap.Logger
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	producerRepo repository.ProducerRepository,
	outboxRepo worker.OutboxRepository,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo:   reviewRepo,
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		producerRepo: producerRepo,
		outboxRepo:   outboxRepo,
		pool:         pool,
		logger:       logger,
	}
}

// CanReview applies the eligibility gate. Order-tied reviews need the named
// order to be the consumer's and completed; producer-only reviews need at
// least one completed order with that producer. Either way the review key
// must be unused.
func (s *reviewService) CanReview(ctx context.Context, consumerID int64, orderID, productID *int64, producerID int64) error {
	if orderID != nil {
		order, err := s.orderRepo.GetByID(ctx, *orderID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				return domain.ErrNotEligible
			}

			return err
		}

		if order.ConsumerID != consumerID || order.Status != domain.OrderStatusCompleted {
			return domain.ErrNotEligible
		}

		if productID != nil && !orderContainsProduct(order, *productID) {
			return domain.ErrNotEligible
		}
	} else {
		// Product reviews must reference the order that delivered the product.
		if productID != nil {
			return domain.ErrNotEligible
		}

		completed, err := s.orderRepo.HasCompletedOrder(ctx, consumerID, producerID)
		if err != nil {
			return err
		}
		if !completed {
			return domain.ErrNotEligible
		}
	}

	exists, err := s.reviewRepo.Exists(ctx, consumerID, producerID, orderID, productID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateReview
	}

	return nil
}

// SubmitReview inserts the review and recomputes the producer (and, for
// product reviews, the product) rating in the same transaction.
func (s *reviewService) SubmitReview(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error) {
	review := &domain.Review{
		ConsumerID: input.ConsumerID,
		OrderID:    input.OrderID,
		ProductID:  input.ProductID,
		Rating:     input.Rating,
		Comment:    input.Comment,
	}

	if err := review.Validate(); err != nil {
		return nil, err
	}

	producerID, err := s.resolveProducer(ctx, input)
	if err != nil {
		return nil, err
	}
	review.ProducerID = producerID

	if err := s.CanReview(ctx, input.ConsumerID, input.OrderID, input.ProductID, producerID); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Review rejected by eligibility gate",
			zap.Int64("consumer_id", input.ConsumerID),
			zap.Error(err),
		)

		return nil, err
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

	if err := s.reviewRepo.Insert(ctx, tx, review); err != nil {
		// The unique index is the authority under concurrent submits.
		if errors.Is(err, domain.ErrDuplicateReview) {
			return nil, err
		}

		mylogger.Error(ctx, s.logger, "Error inserting review", zap.Error(err))
		return nil, err
	}

	if err := s.producerRepo.RecomputeRating(ctx, tx, producerID); err != nil {
		return nil, err
	}

	if review.ProductID != nil {
		if err := s.productRepo.RecomputeRating(ctx, tx, *review.ProductID); err != nil {
			return nil, err
		}
	}

	eventPayload := map[string]interface{}{
		"event": "ReviewSubmitted",
		"payload": &domain.ReviewSubmittedEvent{
			ReviewID:   review.ID,
			ProducerID: producerID,
			ProductID:  review.ProductID,
			Rating:     review.Rating,
		},
	}

	payloadBytes, err := json.Marshal(eventPayload)
	if err != nil {
		return nil, fmt.Errorf("event payload marshal error: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Review",
		AggregateID:   fmt.Sprintf("%d", review.ID),
		EventType:     "ReviewSubmitted",
		Payload:       payloadBytes,
		Topic:         "review_events",
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error saving outbox event",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Error commiting transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Review submitted",
		zap.Int64("review_id", review.ID),
		zap.Int64("producer_id", producerID),
		zap.Int32("rating", review.Rating),
	)

	return review, nil
}

func (s *reviewService) ListByProducer(ctx context.Context, producerID, limit, offset int64) ([]domain.Review, error) {
	return s.reviewRepo.ListByProducer(ctx, producerID, limit, offset)
}

// resolveProducer derives the reviewed producer from the order when one is
// named; producer-only reviews carry it via the product of a past order, so
// the request must say who is being reviewed.
func (s *reviewService) resolveProducer(ctx context.Context, input *SubmitReviewInput) (int64, error) {
	if input.OrderID != nil {
		order, err := s.orderRepo.GetByID(ctx, *input.OrderID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				return 0, domain.ErrNotEligible
			}

			return 0, err
		}

		return order.ProducerID, nil
	}

	if input.ProducerID > 0 {
		return input.ProducerID, nil
	}

	return 0, domain.ErrNotEligible
}

func orderContainsProduct(order *domain.Order, productID int64) bool {
	for _, line := range order.Lines {
		if line.ProductID == productID {
			return true
		}
	}

	return false
}
