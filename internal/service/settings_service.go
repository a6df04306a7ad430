package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/pricing"
	"github.com/wieeerzbickim/community-feast/internal/repository"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"go.uber.org/zap"
)

// PlatformSettings is the admin view of the tunables applied at checkout.
type PlatformSettings struct {
	CommissionRate string `json:"commission_rate"`
	DeliveryFee    int64  `json:"delivery_fee"`
}

type SettingsService interface {
	Get(ctx context.Context) (*PlatformSettings, error)
	SetCommissionRate(ctx context.Context, rate string) error
	SetDeliveryFee(ctx context.Context, fee int64) error
	CurrentRate(ctx context.Context) (decimal.Decimal, error)
}

type settingsService struct {
	repo   repository.SettingsRepository
	logger *zap.Logger
}

func NewSettingsService(repo repository.SettingsRepository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger}
}

func (s *settingsService) Get(ctx context.Context) (*PlatformSettings, error) {
	rate, err := s.repo.GetCommissionRate(ctx)
	if err != nil {
		return nil, err
	}

	fee, err := s.repo.GetDeliveryFee(ctx)
	if err != nil {
		return nil, err
	}

	return &PlatformSettings{CommissionRate: rate, DeliveryFee: fee}, nil
}

// SetCommissionRate validates before persisting so a bad rate can never
// reach checkout. It never applies retroactively.
func (s *settingsService) SetCommissionRate(ctx context.Context, rate string) error {
	if _, err := pricing.ParseRate(rate); err != nil {
		return err
	}

	if err := s.repo.SetCommissionRate(ctx, rate); err != nil {
		return err
	}

	mylogger.Info(ctx, s.logger, "Commission rate updated", zap.String("rate", rate))
	return nil
}

func (s *settingsService) SetDeliveryFee(ctx context.Context, fee int64) error {
	if fee < 0 {
		return domain.ErrInvalidPrice
	}

	if err := s.repo.SetDeliveryFee(ctx, fee); err != nil {
		return err
	}

	mylogger.Info(ctx, s.logger, "Delivery fee updated", zap.Int64("fee", fee))
	return nil
}

func (s *settingsService) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.repo.GetCommissionRate(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return pricing.ParseRate(raw)
}
