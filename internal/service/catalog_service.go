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

type CatalogService interface {
	Create(ctx context.Context, product *domain.Product) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	ListByProducer(ctx context.Context, producerID int64) ([]domain.Product, error)
	Update(ctx context.Context, id, producerID int64, input *domain.UpdateProductInput) error
	Delete(ctx context.Context, id, producerID int64) error
	SetImages(ctx context.Context, id, producerID int64, images []domain.ProductImage) error
}

type catalogService struct {
	productRepo repository.ProductRepository
	outboxRepo  worker.OutboxRepository
	pool        *pgxpool.Pool
	logger      *zap.Logger
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	outboxRepo worker.OutboxRepository,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		pool:        pool,
		logger:      logger,
	}
}

func (s *catalogService) Create(ctx context.Context, product *domain.Product) (int64, error) {
	if product.Price < 0 {
		return 0, domain.ErrInvalidPrice
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error starting transaction", zap.Error(err))
		return 0, err
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

	id, err := s.productRepo.Create(ctx, tx, product)
	if err != nil {
		mylogger.Error(ctx, s.logger, "create error", zap.Error(err))
		return 0, fmt.Errorf("error creating product: %w", err)
	}

	eventPayload := map[string]interface{}{
		"event": "ProductCreated",
		"payload": map[string]interface{}{
			"product_id":  id,
			"producer_id": product.ProducerID,
		},
	}

	payloadBytes, err := json.Marshal(eventPayload)
	if err != nil {
		return 0, fmt.Errorf("event payload marshal error: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Product",
		AggregateID:   fmt.Sprintf("%d", id),
		EventType:     "ProductCreated",
		Payload:       payloadBytes,
		Topic:         "product_events",
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error saving outbox event",
			zap.Error(err),
		)

		return 0, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error commiting transaction",
			zap.Error(err),
		)

		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

func (s *catalogService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	res, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return nil, err
		}

		s.logger.Error("error getting product", zap.Error(err))
		return nil, fmt.Errorf("error getting product by id: %w", err)
	}

	return res, nil
}

func (s *catalogService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	list, quantity, err := s.productRepo.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("list error", zap.Error(err))
		return nil, 0, fmt.Errorf("error listing products: %w", err)
	}

	return list, quantity, nil
}

func (s *catalogService) ListByProducer(ctx context.Context, producerID int64) ([]domain.Product, error) {
	list, err := s.productRepo.ListByProducer(ctx, producerID)
	if err != nil {
		s.logger.Error("producer list error", zap.Error(err))
		return nil, fmt.Errorf("error listing producer products: %w", err)
	}

	return list, nil
}

func (s *catalogService) Update(ctx context.Context, id, producerID int64, input *domain.UpdateProductInput) error {
	if input.Price != nil && *input.Price < 0 {
		return domain.ErrInvalidPrice
	}

	err := s.productRepo.Update(ctx, id, producerID, input)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return err
		}

		s.logger.Error("error updating product", zap.Error(err))
		return err
	}

	return nil
}

func (s *catalogService) Delete(ctx context.Context, id, producerID int64) error {
	err := s.productRepo.DeleteByID(ctx, id, producerID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Warn("product not found", zap.Int64("product_id", id))
			return err
		}

		s.logger.Error("error deleting product", zap.Error(err))
		return err
	}

	return nil
}

func (s *catalogService) SetImages(ctx context.Context, id, producerID int64, images []domain.ProductImage) error {
	// Ownership check before touching the image set.
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.ProducerID != producerID {
		return domain.ErrForbidden
	}

	return s.productRepo.ReplaceImages(ctx, id, images)
}
