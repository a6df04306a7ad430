package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/service"
	"github.com/wieeerzbickim/community-feast/internal/transport/http/middleware"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"github.com/wieeerzbickim/community-feast/pkg/utils"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service  service.OrderService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewOrderHandler(service service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type CheckoutBody struct {
	IdempotencyKey  string `json:"idempotency_key" validate:"omitempty,uuid4"`
	DeliveryMethod  string `json:"delivery_method" validate:"required,oneof=pickup delivery"`
	DeliveryAddress string `json:"delivery_address" validate:"max=500"`
}

// Checkout converts the caller's cart into an order and returns the payment
// redirect. Clients that do not supply an idempotency key get one, so a
// stored key can be retried safely.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	body := new(CheckoutBody)
	if err := c.BodyParser(body); err != nil {
		h.logger.Warn(
			"failed to parse body in checkout",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	if body.IdempotencyKey == "" {
		body.IdempotencyKey = uuid.NewString()
	}

	result, err := h.service.Checkout(ctx, &service.CheckoutInput{
		ConsumerID:      user.ID,
		IdempotencyKey:  body.IdempotencyKey,
		DeliveryMethod:  domain.DeliveryMethod(body.DeliveryMethod),
		DeliveryAddress: body.DeliveryAddress,
	})
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"checkout failed",
			zap.Int64("consumer_id", user.ID),
			zap.Error(err),
		)

		return fail(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"checkout succeeded",
		zap.Int64("order_id", result.Order.ID),
		zap.Int64("total_amount", result.Order.TotalAmount),
	)

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid id",
		})
	}

	order, err := h.service.GetForUser(ctx, *user, int64(id))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	orders, err := h.service.ListByConsumer(ctx, user.ID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orders": orders,
	})
}

func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	return h.transition(c, "confirm", h.service.Confirm)
}

func (h *OrderHandler) Decline(c *fiber.Ctx) error {
	return h.transition(c, "decline", h.service.Decline)
}

func (h *OrderHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, "complete", h.service.Complete)
}

func (h *OrderHandler) transition(c *fiber.Ctx, name string, fn func(ctx context.Context, producerID, orderID int64) error) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid id",
		})
	}

	if err := fn(ctx, user.ID, int64(id)); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"order transition failed",
			zap.String("transition", name),
			zap.Int("order_id", id),
			zap.Error(err),
		)

		return fail(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"order transition succeeded",
		zap.String("transition", name),
		zap.Int("order_id", id),
	)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
