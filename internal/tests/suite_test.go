package tests

import (
	"context"
	"fmt"
	"testing"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/wieeerzbickim/community-feast/internal/cart"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/repository"
	"github.com/wieeerzbickim/community-feast/internal/service"
	"github.com/wieeerzbickim/community-feast/pkg/kafka"
	outboxRepository "github.com/wieeerzbickim/community-feast/pkg/outbox/repository"
	"github.com/wieeerzbickim/community-feast/pkg/outbox/worker"
	"github.com/wieeerzbickim/community-feast/pkg/payment"
	"github.com/wieeerzbickim/community-feast/pkg/testsuite"
	"go.uber.org/zap"
)

// fakePaymentClient stands in for the external checkout collaborator.
type fakePaymentClient struct {
	fail     bool
	requests []*payment.CheckoutRequest
}

func (f *fakePaymentClient) CreateCheckoutSession(_ context.Context, req *payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	if f.fail {
		return nil, payment.ErrUnavailable
	}

	f.requests = append(f.requests, req)
	return &payment.CheckoutSession{
		SessionID:   "sess_test",
		RedirectURL: "https://pay.example/sess_test",
	}, nil
}

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	CartStore       cart.Store
	ProductRepo     repository.ProductRepository
	OrderRepo       repository.OrderRepository
	ReviewRepo      repository.ReviewRepository
	ProducerRepo    repository.ProducerRepository
	SettingsRepo    repository.SettingsRepository
	CatalogService  service.CatalogService
	CartService     service.CartService
	OrderService    service.OrderService
	ReviewService   service.ReviewService
	SettingsService service.SettingsService
	PaymentClient   *fakePaymentClient
	TestProducer    kafka.Producer
	OutboxProcessor *worker.OutboxProcessor
	workerCancel    context.CancelFunc
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../migrations")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("reviews")
	s.BaseSuite.TruncateTable("order_lines")
	s.BaseSuite.TruncateTable("orders")
	s.BaseSuite.TruncateTable("product_images")
	s.BaseSuite.TruncateTable("products")
	s.BaseSuite.TruncateTable("producer_profiles")
	s.BaseSuite.TruncateTable("users")
	s.BaseSuite.TruncateTable("platform_settings")
	s.BaseSuite.TruncateTable("outbox")
	s.BaseSuite.TruncateTable("processed_events")
	s.Require().NoError(s.RedisClient.FlushAll(s.Ctx).Err())

	logger := zap.NewNop()

	s.ProductRepo = repository.NewProductRepository(s.DbPool, logger)
	s.OrderRepo = repository.NewOrderRepository(s.DbPool, logger)
	s.ReviewRepo = repository.NewReviewRepository(s.DbPool, logger)
	s.ProducerRepo = repository.NewProducerRepository(s.DbPool, logger)
	s.SettingsRepo = repository.NewSettingsRepository(s.DbPool, logger, "10")
	outboxRepo := outboxRepository.NewOutboxRepository(s.DbPool, logger)

	s.CartStore = cart.NewStore(s.RedisClient)
	s.PaymentClient = &fakePaymentClient{}

	s.CatalogService = service.NewCatalogService(s.ProductRepo, outboxRepo, s.DbPool, logger)
	s.CartService = service.NewCartService(s.CartStore, s.ProductRepo, logger)
	s.OrderService = service.NewOrderService(
		s.OrderRepo,
		s.ProductRepo,
		s.SettingsRepo,
		outboxRepo,
		s.CartStore,
		s.PaymentClient,
		s.DbPool,
		logger,
		"https://shop.example/success",
		"https://shop.example/cancel",
	)
	s.ReviewService = service.NewReviewService(s.ReviewRepo, s.OrderRepo, s.ProductRepo, s.ProducerRepo, outboxRepo, s.DbPool, logger)
	s.SettingsService = service.NewSettingsService(s.SettingsRepo, logger)

	var err error
	s.TestProducer, err = kafka.NewProducer(s.KafkaBrokers)
	s.Require().NoError(err, "failed to create kafka producer")

	s.OutboxProcessor = worker.NewOutboxProcessor(s.DbPool, outboxRepo, s.TestProducer, logger)

	workerCtx, cancel := context.WithCancel(s.Ctx)
	s.workerCancel = cancel

	go s.OutboxProcessor.Start(workerCtx)
}

func (s *IntegrationTestSuite) TearDownTest() {
	if s.workerCancel != nil {
		s.workerCancel()
	}
}

func (s *IntegrationTestSuite) seedUser(id int64, role string) {
	query := `
		INSERT INTO users (id, email, role)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING
	`

	_, err := s.DbPool.Exec(s.Ctx, query, id, fmt.Sprintf("user%d@example.com", id), role)
	s.Require().NoError(err)

	if role == "producer" {
		profileQuery := `
			INSERT INTO producer_profiles (user_id, display_name)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`
		_, err = s.DbPool.Exec(s.Ctx, profileQuery, id, fmt.Sprintf("Producer %d", id))
		s.Require().NoError(err)
	}
}

func (s *IntegrationTestSuite) seedProduct(producerID, price, stock int64, madeToOrder bool) int64 {
	query := `
		INSERT INTO products (producer_id, name, description, price, unit, stock_quantity, made_to_order, available, category)
		VALUES ($1, 'Farm Honey', 'Raw wildflower honey', $2, 'jar', $3, $4, TRUE, 'pantry')
		RETURNING id
	`

	var id int64
	err := s.DbPool.QueryRow(s.Ctx, query, producerID, price, stock, madeToOrder).Scan(&id)
	s.Require().NoError(err)

	return id
}

func (s *IntegrationTestSuite) addToCart(consumerID, productID, qty int64) {
	_, err := s.CartService.AddItem(s.Ctx, consumerID, productID, qty)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) checkout(consumerID int64) *service.CheckoutResult {
	result, err := s.OrderService.Checkout(s.Ctx, &service.CheckoutInput{
		ConsumerID:     consumerID,
		IdempotencyKey: uuid.NewString(),
		DeliveryMethod: domain.DeliveryMethodPickup,
	})
	s.Require().NoError(err)
	s.Require().NotNil(result)

	return result
}

func (s *IntegrationTestSuite) stockOf(productID int64) int64 {
	var stock int64
	err := s.DbPool.QueryRow(s.Ctx, "SELECT stock_quantity FROM products WHERE id = $1", productID).Scan(&stock)
	s.Require().NoError(err)

	return stock
}

func (s *IntegrationTestSuite) orderStatus(orderID int64) string {
	var status string
	err := s.DbPool.QueryRow(s.Ctx, "SELECT status FROM orders WHERE id = $1", orderID).Scan(&status)
	s.Require().NoError(err)

	return status
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
