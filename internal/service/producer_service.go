package service

import (
	"context"
	"io"

	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/repository"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"github.com/wieeerzbickim/community-feast/pkg/objstore"
	"go.uber.org/zap"
)

// Dashboard bundles the reads behind the producer's home screen.
type Dashboard struct {
	Profile *domain.ProducerProfile `json:"profile"`
	Orders  []domain.Order          `json:"orders"`
	Reviews []domain.Review         `json:"reviews"`
}

type ProducerService interface {
	HandleUserRegistered(ctx context.Context, userID int64, email, role string) error
	GetProfile(ctx context.Context, userID int64) (*domain.ProducerProfile, error)
	GetDashboard(ctx context.Context, producerID int64) (*Dashboard, error)
	UploadProductImage(ctx context.Context, producerID, productID int64, filename string, file io.Reader) (string, error)
}

type producerService struct {
	producerRepo repository.ProducerRepository
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	reviewRepo   repository.ReviewRepository
	storage      objstore.Storage
	logger       *zap.Logger
}

func NewProducerService(
	producerRepo repository.ProducerRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	reviewRepo repository.ReviewRepository,
	storage objstore.Storage,
	logger *zap.Logger,
) ProducerService {
	return &producerService{
		producerRepo: producerRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		reviewRepo:   reviewRepo,
		storage:      storage,
		logger:       logger,
	}
}

// HandleUserRegistered mirrors the identity provider's users locally so
// orders and reviews can reference them without cross-service reads.
func (s *producerService) HandleUserRegistered(ctx context.Context, userID int64, email, role string) error {
	if err := s.producerRepo.SaveUserDuplication(ctx, userID, email, role); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error duplicating user",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"User duplicated",
		zap.Int64("user_id", userID),
		zap.String("role", role),
	)

	return nil
}

func (s *producerService) GetProfile(ctx context.Context, userID int64) (*domain.ProducerProfile, error) {
	return s.producerRepo.GetProfile(ctx, userID)
}

func (s *producerService) GetDashboard(ctx context.Context, producerID int64) (*Dashboard, error) {
	profile, err := s.producerRepo.GetProfile(ctx, producerID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByProducer(ctx, producerID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByProducer(ctx, producerID, 20, 0)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Profile: profile,
		Orders:  orders,
		Reviews: reviews,
	}, nil
}

// UploadProductImage streams the file to object storage and appends it to the
// product's image set, primary when it is the first image.
func (s *producerService) UploadProductImage(ctx context.Context, producerID, productID int64, filename string, file io.Reader) (string, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	if product.ProducerID != producerID {
		return "", domain.ErrForbidden
	}

	if len(product.Images) >= domain.MaxProductImages {
		return "", domain.ErrInvalidImageSet
	}

	url, err := s.storage.Upload(ctx, producerID, filename, file)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error uploading image", zap.Error(err))
		return "", err
	}

	images := append(product.Images, domain.ProductImage{
		ProductID: productID,
		URL:       url,
		Position:  int32(len(product.Images)),
		IsPrimary: len(product.Images) == 0,
	})

	if err := s.productRepo.ReplaceImages(ctx, productID, images); err != nil {
		return "", err
	}

	return url, nil
}
