package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wieeerzbickim/community-feast/internal/domain"
)

type cachedCatalogService struct {
	next        CatalogService
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedCatalogService(next CatalogService, redisClient *redis.Client) CatalogService {
	return &cachedCatalogService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    time.Minute * 10,
	}
}

func (s *cachedCatalogService) Create(ctx context.Context, product *domain.Product) (int64, error) {
	return s.next.Create(ctx, product)
}

func (s *cachedCatalogService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := fmt.Sprintf("product:%d", id)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(val), &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		s.redisClient.Set(ctx, key, data, s.cacheTTL)
	}

	return product, nil
}

func (s *cachedCatalogService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	return s.next.List(ctx, limit, offset, search)
}

func (s *cachedCatalogService) ListByProducer(ctx context.Context, producerID int64) ([]domain.Product, error) {
	return s.next.ListByProducer(ctx, producerID)
}

func (s *cachedCatalogService) Update(ctx context.Context, id, producerID int64, input *domain.UpdateProductInput) error {
	err := s.next.Update(ctx, id, producerID, input)
	if err != nil {
		return err
	}

	s.redisClient.Del(ctx, fmt.Sprintf("product:%d", id))
	return nil
}

func (s *cachedCatalogService) Delete(ctx context.Context, id, producerID int64) error {
	err := s.next.Delete(ctx, id, producerID)
	if err != nil {
		return err
	}

	s.redisClient.Del(ctx, fmt.Sprintf("product:%d", id))
	return nil
}

func (s *cachedCatalogService) SetImages(ctx context.Context, id, producerID int64, images []domain.ProductImage) error {
	err := s.next.SetImages(ctx, id, producerID, images)
	if err != nil {
		return err
	}

	s.redisClient.Del(ctx, fmt.Sprintf("product:%d", id))
	return nil
}
