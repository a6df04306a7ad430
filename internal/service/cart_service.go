package service

import (
	"context"
	"fmt"

	"github.com/wieeerzbickim/community-feast/internal/cart"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/repository"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"go.uber.org/zap"
)

// CartView is the cart with its running totals, what the consumer sees on the
// cart page.
type CartView struct {
	Cart     *domain.Cart `json:"cart"`
	Subtotal int64        `json:"subtotal"`
}

type CartService interface {
	Get(ctx context.Context, consumerID int64) (*CartView, error)
	AddItem(ctx context.Context, consumerID, productID, quantity int64) (*CartView, error)
	SetQuantity(ctx context.Context, consumerID, productID, quantity int64) (*CartView, error)
	RemoveItem(ctx context.Context, consumerID, productID int64) (*CartView, error)
	Clear(ctx context.Context, consumerID int64) error
}

type cartService struct {
	store       cart.Store
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

func NewCartService(store cart.Store, productRepo repository.ProductRepository, logger *zap.Logger) CartService {
	return &cartService{
		store:       store,
		productRepo: productRepo,
		logger:      logger,
	}
}

func (s *cartService) Get(ctx context.Context, consumerID int64) (*CartView, error) {
	c, err := s.store.Load(ctx, consumerID)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error loading cart", zap.Error(err))
		return nil, err
	}

	return view(c), nil
}

func (s *cartService) AddItem(ctx context.Context, consumerID, productID, quantity int64) (*CartView, error) {
	c, err := s.store.Load(ctx, consumerID)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error loading cart", zap.Error(err))
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := c.Add(product, quantity); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Rejected cart add",
			zap.Int64("product_id", productID),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)

		return nil, err
	}

	if err := s.store.Save(ctx, c); err != nil {
		mylogger.Error(ctx, s.logger, "Error saving cart", zap.Error(err))
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return view(c), nil
}

func (s *cartService) SetQuantity(ctx context.Context, consumerID, productID, quantity int64) (*CartView, error) {
	c, err := s.store.Load(ctx, consumerID)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error loading cart", zap.Error(err))
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c.SetQuantity(product, quantity)

	if err := s.store.Save(ctx, c); err != nil {
		mylogger.Error(ctx, s.logger, "Error saving cart", zap.Error(err))
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return view(c), nil
}

func (s *cartService) RemoveItem(ctx context.Context, consumerID, productID int64) (*CartView, error) {
	c, err := s.store.Load(ctx, consumerID)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error loading cart", zap.Error(err))
		return nil, err
	}

	c.Remove(productID)

	if err := s.store.Save(ctx, c); err != nil {
		mylogger.Error(ctx, s.logger, "Error saving cart", zap.Error(err))
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return view(c), nil
}

func (s *cartService) Clear(ctx context.Context, consumerID int64) error {
	if err := s.store.Clear(ctx, consumerID); err != nil {
		mylogger.Error(ctx, s.logger, "Error clearing cart", zap.Error(err))
		return err
	}

	return nil
}

func view(c *domain.Cart) *CartView {
	return &CartView{
		Cart:     c,
		Subtotal: c.Subtotal(),
	}
}
