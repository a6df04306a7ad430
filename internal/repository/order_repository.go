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

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, consumerID int64, key string) (*domain.Order, error)
	ChangeStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to domain.OrderStatus) error
	SetPaymentRef(ctx context.Context, tx pgx.Tx, orderID int64, ref string) error
	GetLines(ctx context.Context, tx pgx.Tx, orderID int64) ([]domain.OrderLine, error)
	ListByConsumer(ctx context.Context, consumerID int64) ([]domain.Order, error)
	ListByProducer(ctx context.Context, producerID int64) ([]domain.Order, error)
	HasCompletedOrder(ctx context.Context, consumerID, producerID int64) (bool, error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/order_repo"),
	}
}

// CreateOrder inserts the header and every line inside the caller's
// transaction so a line failure rolls the header back with it.
func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("consumer_id", order.ConsumerID),
		attribute.Int64("producer_id", order.ProducerID),
		attribute.Int("lines_count", len(order.Lines)),
	)

	queryOrder := `
		INSERT INTO orders (consumer_id, producer_id, status, total_amount, delivery_method,
			delivery_address, delivery_fee, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(
		ctx,
		queryOrder,
		order.ConsumerID,
		order.ProducerID,
		string(order.Status),
		order.TotalAmount,
		string(order.DeliveryMethod),
		order.DeliveryAddress,
		order.DeliveryFee,
		order.IdempotencyKey,
	).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			return domain.ErrDuplicateOrder
		}

		span.RecordError(err)

		mylogger.Warn(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.Error(err),
		)

		return err
	}

	queryLine := `
		INSERT INTO order_lines (order_id, product_id, name, unit_price, quantity, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID

		_, err := tx.Exec(
			ctx,
			queryLine,
			order.ID,
			order.Lines[i].ProductID,
			order.Lines[i].Name,
			order.Lines[i].UnitPrice,
			order.Lines[i].Quantity,
			order.Lines[i].LineTotal,
		)
		if err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert order line",
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", id),
	)

	query := `
		SELECT id, consumer_id, producer_id, status, total_amount, delivery_method,
			delivery_address, delivery_fee, payment_ref, idempotency_key, created_at, updated_at
		FROM orders
		WHERE id = $1;
	`

	var o domain.Order
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.ConsumerID,
		&o.ProducerID,
		&o.Status,
		&o.TotalAmount,
		&o.DeliveryMethod,
		&o.DeliveryAddress,
		&o.DeliveryFee,
		&o.PaymentRef,
		&o.IdempotencyKey,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("error getting order: %w", err)
	}

	lines, err := r.linesOf(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	return &o, nil
}

func (r *orderRepo) GetByIdempotencyKey(ctx context.Context, consumerID int64, key string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByIdempotencyKey")
	defer span.End()

	query := `
		SELECT id
		FROM orders
		WHERE consumer_id = $1 AND idempotency_key = $2;
	`

	var id int64
	if err := r.pool.QueryRow(ctx, query, consumerID, key).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}

		span.RecordError(err)
		return nil, fmt.Errorf("error looking up idempotency key: %w", err)
	}

	return r.GetByID(ctx, id)
}

// ChangeStatus performs a guarded transition: the row is only updated when it
// is still in the expected source status, so concurrent actors cannot move an
// order out of a terminal state.
func (r *orderRepo) ChangeStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to domain.OrderStatus) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ChangeStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)

	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3;
	`

	commandTag, err := tx.Exec(ctx, query, string(to), orderID, string(from))
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order status",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to update order status: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to check order existence: %w", err)
		}

		if !exists {
			return domain.ErrOrderNotFound
		}

		return domain.ErrInvalidTransition
	}

	return nil
}

func (r *orderRepo) SetPaymentRef(ctx context.Context, tx pgx.Tx, orderID int64, ref string) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.SetPaymentRef")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := `
		UPDATE orders
		SET payment_ref = $1, updated_at = NOW()
		WHERE id = $2;
	`

	commandTag, err := tx.Exec(ctx, query, ref, orderID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set payment ref: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepo) GetLines(ctx context.Context, tx pgx.Tx, orderID int64) ([]domain.OrderLine, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetLines")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	return r.linesOf(ctx, tx, orderID)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *orderRepo) linesOf(ctx context.Context, q queryer, orderID int64) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, name, unit_price, quantity, line_total
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id ASC;
	`

	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order_lines",
			zap.Error(err),
		)

		return nil, err
	}
	defer rows.Close()

	var result []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Name,
			&line.UnitPrice,
			&line.Quantity,
			&line.LineTotal,
		); err != nil {
			mylogger.Error(
				ctx,
				r.logger,
				"Failed to scan row",
				zap.Error(err),
			)

			return nil, err
		}

		result = append(result, line)
	}

	return result, rows.Err()
}

// HasCompletedOrder backs standalone producer reviews: the consumer must
// have at least one completed order with the producer.
func (r *orderRepo) HasCompletedOrder(ctx context.Context, consumerID, producerID int64) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.HasCompletedOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("consumer_id", consumerID),
		attribute.Int64("producer_id", producerID),
	)

	query := `
		SELECT EXISTS(
			SELECT 1
			FROM orders
			WHERE consumer_id = $1 AND producer_id = $2 AND status = 'completed'
		);
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, consumerID, producerID).Scan(&exists); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("error checking completed orders: %w", err)
	}

	return exists, nil
}

func (r *orderRepo) ListByConsumer(ctx context.Context, consumerID int64) ([]domain.Order, error) {
	return r.list(ctx, "consumer_id", consumerID)
}

func (r *orderRepo) ListByProducer(ctx context.Context, producerID int64) ([]domain.Order, error) {
	return r.list(ctx, "producer_id", producerID)
}

func (r *orderRepo) list(ctx context.Context, column string, id int64) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.list")
	defer span.End()

	span.SetAttributes(
		attribute.String("column", column),
		attribute.Int64("id", id),
	)

	query := fmt.Sprintf(`
		SELECT id, consumer_id, producer_id, status, total_amount, delivery_method,
			delivery_address, delivery_fee, payment_ref, idempotency_key, created_at, updated_at
		FROM orders
		WHERE %s = $1
		ORDER BY created_at DESC;
	`, column)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error selecting orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.ConsumerID,
			&o.ProducerID,
			&o.Status,
			&o.TotalAmount,
			&o.DeliveryMethod,
			&o.DeliveryAddress,
			&o.DeliveryFee,
			&o.PaymentRef,
			&o.IdempotencyKey,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning order: %w", err)
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}
