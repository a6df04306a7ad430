package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	commissionRateKey = "commission_rate"
	deliveryFeeKey    = "delivery_fee"
)

// SettingsRepository reads and writes the externally-editable platform
// settings. Changes take effect on the next read, never retroactively.
type SettingsRepository interface {
	GetCommissionRate(ctx context.Context) (string, error)
	SetCommissionRate(ctx context.Context, value string) error
	GetDeliveryFee(ctx context.Context) (int64, error)
	SetDeliveryFee(ctx context.Context, fee int64) error
}

type settingsRepo struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	tracer      trace.Tracer
	defaultRate string
}

func NewSettingsRepository(pool *pgxpool.Pool, logger *zap.Logger, defaultRate string) SettingsRepository {
	return &settingsRepo{
		pool:        pool,
		logger:      logger,
		tracer:      otel.Tracer("contract/settings_repo"),
		defaultRate: defaultRate,
	}
}

func (r *settingsRepo) GetCommissionRate(ctx context.Context) (string, error) {
	ctx, span := r.tracer.Start(ctx, "SettingsRepository.GetCommissionRate")
	defer span.End()

	query := `
		SELECT value
		FROM platform_settings
		WHERE key = $1;
	`

	var value string
	if err := r.pool.QueryRow(ctx, query, commissionRateKey).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.defaultRate, nil
		}

		span.RecordError(err)
		return "", fmt.Errorf("error reading commission rate: %w", err)
	}

	return value, nil
}

func (r *settingsRepo) SetCommissionRate(ctx context.Context, value string) error {
	ctx, span := r.tracer.Start(ctx, "SettingsRepository.SetCommissionRate")
	defer span.End()

	span.SetAttributes(
		attribute.String("value", value),
	)

	query := `
		INSERT INTO platform_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
	`

	if _, err := r.pool.Exec(ctx, query, commissionRateKey, value); err != nil {
		span.RecordError(err)
		return fmt.Errorf("error updating commission rate: %w", err)
	}

	return nil
}

// GetDeliveryFee returns the flat delivery surcharge in minor units. Missing
// row means no surcharge.
func (r *settingsRepo) GetDeliveryFee(ctx context.Context) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "SettingsRepository.GetDeliveryFee")
	defer span.End()

	query := `
		SELECT value
		FROM platform_settings
		WHERE key = $1;
	`

	var value string
	if err := r.pool.QueryRow(ctx, query, deliveryFeeKey).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		span.RecordError(err)
		return 0, fmt.Errorf("error reading delivery fee: %w", err)
	}

	fee, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("malformed delivery fee setting: %w", err)
	}

	return fee, nil
}

func (r *settingsRepo) SetDeliveryFee(ctx context.Context, fee int64) error {
	ctx, span := r.tracer.Start(ctx, "SettingsRepository.SetDeliveryFee")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("fee", fee),
	)

	query := `
		INSERT INTO platform_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
	`

	if _, err := r.pool.Exec(ctx, query, deliveryFeeKey, strconv.FormatInt(fee, 10)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("error updating delivery fee: %w", err)
	}

	return nil
}
