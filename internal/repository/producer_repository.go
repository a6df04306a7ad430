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

type ProducerRepository interface {
	SaveUserDuplication(ctx context.Context, userID int64, email, role string) error
	GetProfile(ctx context.Context, userID int64) (*domain.ProducerProfile, error)
	RecomputeRating(ctx context.Context, tx pgx.Tx, producerID int64) error
}

type producerRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewProducerRepository(pool *pgxpool.Pool, logger *zap.Logger) ProducerRepository {
	return &producerRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/producer_repo"),
	}
}

// SaveUserDuplication mirrors the auth platform's user record locally and
// seeds a producer profile for seller accounts. Replays are skipped.
func (r *producerRepo) SaveUserDuplication(ctx context.Context, userID int64, email, role string) error {
	ctx, span := r.tracer.Start(ctx, "ProducerRepository.SaveUserDuplication")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("role", role),
	)

	query := `
		INSERT INTO users (id, email, role)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, userID, email, role)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			mylogger.Warn(
				ctx,
				r.logger,
				"User already exists, skipping",
				zap.Int64("user_id", userID),
			)

			return nil
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error inserting into users",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return err
	}

	if role == "producer" {
		profileQuery := `
			INSERT INTO producer_profiles (user_id, display_name)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO NOTHING
		`

		if _, err := r.pool.Exec(ctx, profileQuery, userID, email); err != nil {
			span.RecordError(err)
			return fmt.Errorf("error creating producer profile: %w", err)
		}
	}

	return nil
}

func (r *producerRepo) GetProfile(ctx context.Context, userID int64) (*domain.ProducerProfile, error) {
	ctx, span := r.tracer.Start(ctx, "ProducerRepository.GetProfile")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT user_id, display_name, bio, rating_avg, rating_count, created_at, updated_at
		FROM producer_profiles
		WHERE user_id = $1;
	`

	var p domain.ProducerProfile
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&p.Bio,
		&p.RatingAvg,
		&p.RatingCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProducerNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("error getting producer profile: %w", err)
	}

	return &p, nil
}

// RecomputeRating derives the average and count from the full review set in
// one server-side aggregate. It is idempotent: the result depends only on
// the current reviews, never on the previous summary.
func (r *producerRepo) RecomputeRating(ctx context.Context, tx pgx.Tx, producerID int64) error {
	ctx, span := r.tracer.Start(ctx, "ProducerRepository.RecomputeRating")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("producer_id", producerID),
	)

	query := `
		UPDATE producer_profiles
		SET rating_avg = COALESCE(agg.avg_rating, 0),
			rating_count = agg.cnt,
			updated_at = NOW()
		FROM (
			SELECT AVG(rating)::float8 AS avg_rating, COUNT(*) AS cnt
			FROM reviews
			WHERE producer_id = $1
		) agg
		WHERE user_id = $1;
	`

	commandTag, err := tx.Exec(ctx, query, producerID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to recompute producer rating",
			zap.Int64("producer_id", producerID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to recompute producer rating: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return domain.ErrProducerNotFound
	}

	return nil
}
