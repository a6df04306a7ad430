package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ReviewRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, review *domain.Review) error
	Exists(ctx context.Context, consumerID, producerID int64, orderID, productID *int64) (bool, error)
	ListByProducer(ctx context.Context, producerID, limit, offset int64) ([]domain.Review, error)
}

type reviewRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewReviewRepository(pool *pgxpool.Pool, logger *zap.Logger) ReviewRepository {
	return &reviewRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/review_repo"),
	}
}

// Insert relies on the unique index over (consumer_id, order_id, product_id)
// with nulls treated as equal, so a duplicate submission loses the race at
// the database rather than in application code.
func (r *reviewRepo) Insert(ctx context.Context, tx pgx.Tx, review *domain.Review) error {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.Insert")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("consumer_id", review.ConsumerID),
		attribute.Int64("producer_id", review.ProducerID),
	)

	query := `
		INSERT INTO reviews (consumer_id, producer_id, product_id, order_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`

	err := tx.QueryRow(
		ctx,
		query,
		review.ConsumerID,
		review.ProducerID,
		review.ProductID,
		review.OrderID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			mylogger.Warn(
				ctx,
				r.logger,
				"Duplicate review rejected",
				zap.Int64("consumer_id", review.ConsumerID),
			)

			return domain.ErrDuplicateReview
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error inserting review",
			zap.Error(err),
		)

		return fmt.Errorf("error inserting review: %w", err)
	}

	return nil
}

func (r *reviewRepo) Exists(ctx context.Context, consumerID, producerID int64, orderID, productID *int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.Exists")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("consumer_id", consumerID),
		attribute.Int64("producer_id", producerID),
	)

	query := `
		SELECT EXISTS(
			SELECT 1
			FROM reviews
			WHERE consumer_id = $1
				AND producer_id = $2
				AND order_id IS NOT DISTINCT FROM $3
				AND product_id IS NOT DISTINCT FROM $4
		);
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, consumerID, producerID, orderID, productID).Scan(&exists); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("error checking review existence: %w", err)
	}

	return exists, nil
}

func (r *reviewRepo) ListByProducer(ctx context.Context, producerID, limit, offset int64) ([]domain.Review, error) {
	ctx, span := r.tracer.Start(ctx, "ReviewRepository.ListByProducer")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("producer_id", producerID),
	)

	query := `
		SELECT id, consumer_id, producer_id, product_id, order_id, rating, comment, created_at
		FROM reviews
		WHERE producer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`

	rows, err := r.pool.Query(ctx, query, producerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error selecting reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(
			&rev.ID,
			&rev.ConsumerID,
			&rev.ProducerID,
			&rev.ProductID,
			&rev.OrderID,
			&rev.Rating,
			&rev.Comment,
			&rev.CreatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning review: %w", err)
		}

		reviews = append(reviews, rev)
	}

	return reviews, rows.Err()
}
