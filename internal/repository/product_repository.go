package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductRepository interface {
	Create(ctx context.Context, tx pgx.Tx, product *domain.Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	ListByProducer(ctx context.Context, producerID int64) ([]domain.Product, error)
	Update(ctx context.Context, id, producerID int64, input *domain.UpdateProductInput) error
	DeleteByID(ctx context.Context, id, producerID int64) error
	DecreaseStock(ctx context.Context, tx pgx.Tx, id, quantity int64) (int64, error)
	IncreaseStock(ctx context.Context, tx pgx.Tx, id, quantity int64) error
	ReplaceImages(ctx context.Context, productID int64, images []domain.ProductImage) error
	GetImages(ctx context.Context, productID int64) ([]domain.ProductImage, error)
	RecomputeRating(ctx context.Context, tx pgx.Tx, productID int64) error
}

type productRepo struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("contract/product_repo"),
	}
}

const productColumns = `id, producer_id, name, description, price, unit, stock_quantity,
		made_to_order, lead_time_days, available, category, rating_avg, rating_count,
		created_at, updated_at`

func scanProduct(row pgx.Row, p *domain.Product) error {
	return row.Scan(
		&p.ID,
		&p.ProducerID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Unit,
		&p.StockQuantity,
		&p.MadeToOrder,
		&p.LeadTimeDays,
		&p.Available,
		&p.Category,
		&p.RatingAvg,
		&p.RatingCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *productRepo) Create(ctx context.Context, tx pgx.Tx, product *domain.Product) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", product.Name),
		attribute.Int64("producer_id", product.ProducerID),
	)

	query := `
		INSERT INTO products (producer_id, name, description, price, unit, stock_quantity,
			made_to_order, lead_time_days, available, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;
	`

	err := tx.QueryRow(
		ctx,
		query,
		product.ProducerID,
		product.Name,
		product.Description,
		product.Price,
		product.Unit,
		product.StockQuantity,
		product.MadeToOrder,
		product.LeadTimeDays,
		product.Available,
		product.Category,
	).Scan(&product.ID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error creating product",
			zap.Error(err),
		)

		return 0, fmt.Errorf("error creating product: %w", err)
	}

	return product.ID, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1 AND deleted_at IS NULL;
	`

	var res domain.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &res); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error get by id",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error getting product: %w", err)
	}

	images, err := r.GetImages(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Images = images

	return &res, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("limit", limit),
		attribute.Int64("offset", offset),
		attribute.String("search", search),
	)

	baseQuery := `SELECT ` + productColumns + `
		FROM products
		WHERE deleted_at IS NULL AND available`
	countQuery := `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL AND available`

	var args []interface{}
	argId := 1

	if search != "" {
		filter := fmt.Sprintf(" AND name ILIKE $%d", argId)
		baseQuery += filter
		countQuery += filter

		args = append(args, "%"+search+"%")
		argId++
	}

	baseQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argId, argId+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, baseQuery, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error getting products",
			zap.String("search", search),
			zap.Error(err),
		)

		return nil, 0, fmt.Errorf("error selecting products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to scan rows",
				zap.Error(err),
			)

			return nil, 0, fmt.Errorf("error scanning rows: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	var countArgs []interface{}
	if search != "" {
		countArgs = append(countArgs, args[0])
	}

	var totalCount int64
	err = r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		span.RecordError(err)

		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, totalCount, nil
}

func (r *productRepo) ListByProducer(ctx context.Context, producerID int64) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ListByProducer")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("producer_id", producerID),
	)

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE producer_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, producerID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("error selecting producer products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProduct(rows, &p); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning rows: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *productRepo) Update(ctx context.Context, id, producerID int64, input *domain.UpdateProductInput) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `UPDATE products SET `
	var args []interface{}
	argId := 1

	var updates []string

	if input.Name != nil {
		updates = append(updates, fmt.Sprintf("name = $%d", argId))
		args = append(args, *input.Name)
		argId++
	}

	if input.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argId))
		args = append(args, *input.Description)
		argId++
	}

	if input.Price != nil {
		updates = append(updates, fmt.Sprintf("price = $%d", argId))
		args = append(args, *input.Price)
		argId++
	}

	if input.Unit != nil {
		updates = append(updates, fmt.Sprintf("unit = $%d", argId))
		args = append(args, *input.Unit)
		argId++
	}

	if input.StockQuantity != nil {
		updates = append(updates, fmt.Sprintf("stock_quantity = $%d", argId))
		args = append(args, *input.StockQuantity)
		argId++
	}

	if input.MadeToOrder != nil {
		updates = append(updates, fmt.Sprintf("made_to_order = $%d", argId))
		args = append(args, *input.MadeToOrder)
		argId++
	}

	if input.LeadTimeDays != nil {
		updates = append(updates, fmt.Sprintf("lead_time_days = $%d", argId))
		args = append(args, *input.LeadTimeDays)
		argId++
	}

	if input.Available != nil {
		updates = append(updates, fmt.Sprintf("available = $%d", argId))
		args = append(args, *input.Available)
		argId++
	}

	if input.Category != nil {
		updates = append(updates, fmt.Sprintf("category = $%d", argId))
		args = append(args, *input.Category)
		argId++
	}

	if len(updates) == 0 {
		return nil
	}

	updates = append(updates, "updated_at = NOW()")

	query += strings.Join(updates, ", ")
	query += fmt.Sprintf(" WHERE id = $%d AND producer_id = $%d AND deleted_at IS NULL", argId, argId+1)
	args = append(args, id, producerID)

	commandTag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update product",
			zap.Int64("id", id),
		)

		return fmt.Errorf("error updating product: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

func (r *productRepo) DeleteByID(ctx context.Context, id, producerID int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
	)

	query := `
		UPDATE products
		SET deleted_at = NOW()
		WHERE id = $1 AND producer_id = $2 AND deleted_at IS NULL
	`

	commandTag, err := r.pool.Exec(ctx, query, id, producerID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error deleting product by id",
			zap.Int64("id", id),
			zap.Error(err),
		)

		return fmt.Errorf("error deleting product by id: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// DecreaseStock is an atomic conditional decrement. Made-to-order products
// pass through without touching stock. Returns the current unit price.
func (r *productRepo) DecreaseStock(ctx context.Context, tx pgx.Tx, id, quantity int64) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DecreaseStock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
		attribute.Int64("quantity", quantity),
	)

	query := `
		UPDATE products
		SET stock_quantity = CASE WHEN made_to_order THEN stock_quantity ELSE stock_quantity - $2 END,
			updated_at = NOW()
		WHERE id = $1
			AND deleted_at IS NULL
			AND available
			AND (made_to_order OR stock_quantity >= $2)
		RETURNING price;
	`

	var price int64
	err := tx.QueryRow(ctx, query, id, quantity).Scan(&price)
	if err == nil {
		return price, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error decreasing stock",
			zap.Int64("id", id),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)

		return 0, fmt.Errorf("error decreasing stock for product %d: %w", id, err)
	}

	// Zero rows: find out whether the product is gone, paused, or short.
	var available bool
	checkQuery := `
		SELECT available
		FROM products
		WHERE id = $1 AND deleted_at IS NULL;
	`
	if err := tx.QueryRow(ctx, checkQuery, id).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}

		span.RecordError(err)
		return 0, fmt.Errorf("error checking product %d: %w", id, err)
	}

	if !available {
		return 0, domain.ErrProductUnavailable
	}

	return 0, domain.ErrInsufficientStock
}

func (r *productRepo) IncreaseStock(ctx context.Context, tx pgx.Tx, id, quantity int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.IncreaseStock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("id", id),
		attribute.Int64("quantity", quantity),
	)

	query := `
		UPDATE products
		SET stock_quantity = CASE WHEN made_to_order THEN stock_quantity ELSE stock_quantity + $1 END,
			updated_at = NOW()
		WHERE id = $2
	`

	commandTag, err := tx.Exec(ctx, query, quantity, id)
	if err != nil {
		span.RecordError(err)
		mylogger.Warn(ctx, r.logger, "Failed to update stock_quantity", zap.Error(err))

		return err
	}

	if commandTag.RowsAffected() == 0 {
		mylogger.Warn(ctx, r.logger, "Product not found", zap.Int64("product_id", id))
		return domain.ErrProductNotFound
	}

	return nil
}

// ReplaceImages swaps the full ordered image set for a product in one
// transaction. The image invariant is validated before any write.
func (r *productRepo) ReplaceImages(ctx context.Context, productID int64, images []domain.ProductImage) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ReplaceImages")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
		attribute.Int("image_count", len(images)),
	)

	if err := domain.ValidateImages(images); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(cleanupCtx, r.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("error clearing product images: %w", err)
	}

	insertQuery := `
		INSERT INTO product_images (product_id, url, position, is_primary)
		VALUES ($1, $2, $3, $4)
	`

	for i, img := range images {
		if _, err := tx.Exec(ctx, insertQuery, productID, img.URL, int32(i), img.IsPrimary); err != nil {
			span.RecordError(err)
			return fmt.Errorf("error inserting product image: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *productRepo) GetImages(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	query := `
		SELECT id, product_id, url, position, is_primary
		FROM product_images
		WHERE product_id = $1
		ORDER BY position ASC;
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("error selecting product images: %w", err)
	}
	defer rows.Close()

	var images []domain.ProductImage
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Position, &img.IsPrimary); err != nil {
			return nil, fmt.Errorf("error scanning image: %w", err)
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

// RecomputeRating refreshes the derived product rating from the review set
// in a single server-side aggregate.
func (r *productRepo) RecomputeRating(ctx context.Context, tx pgx.Tx, productID int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.RecomputeRating")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	query := `
		UPDATE products
		SET rating_avg = COALESCE(agg.avg_rating, 0),
			rating_count = agg.cnt,
			updated_at = NOW()
		FROM (
			SELECT AVG(rating)::float8 AS avg_rating, COUNT(*) AS cnt
			FROM reviews
			WHERE product_id = $1
		) agg
		WHERE id = $1;
	`

	if _, err := tx.Exec(ctx, query, productID); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to recompute product rating",
			zap.Int64("product_id", productID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to recompute product rating: %w", err)
	}

	return nil
}
