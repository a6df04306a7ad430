package handler

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/wieeerzbickim/community-feast/internal/service"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"github.com/wieeerzbickim/community-feast/pkg/utils"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	service  service.SettingsService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewSettingsHandler(service service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type UpdateSettingsBody struct {
	CommissionRate *string `json:"commission_rate"`
	DeliveryFee    *int64  `json:"delivery_fee" validate:"omitempty,gte=0"`
}

func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	settings, err := h.service.Get(ctx)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}

func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	body := new(UpdateSettingsBody)
	if err := c.BodyParser(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	if body.CommissionRate != nil {
		if err := h.service.SetCommissionRate(ctx, *body.CommissionRate); err != nil {
			mylogger.Warn(
				ctx,
				h.logger,
				"commission rate rejected",
				zap.String("rate", *body.CommissionRate),
				zap.Error(err),
			)

			return fail(c, err)
		}
	}

	if body.DeliveryFee != nil {
		if err := h.service.SetDeliveryFee(ctx, *body.DeliveryFee); err != nil {
			return fail(c, err)
		}
	}

	settings, err := h.service.Get(ctx)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(settings)
}
