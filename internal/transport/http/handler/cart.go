package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/wieeerzbickim/community-feast/internal/service"
	"github.com/wieeerzbickim/community-feast/internal/transport/http/middleware"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"github.com/wieeerzbickim/community-feast/pkg/utils"
	"go.uber.org/zap"
)

type CartHandler struct {
	service  service.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(service service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type AddItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

type SetQuantityInput struct {
	Quantity int64 `json:"quantity"`
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	view, err := h.service.Get(ctx, user.ID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	input := new(AddItemInput)
	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in add item",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	view, err := h.service.AddItem(ctx, user.ID, input.ProductID, input.Quantity)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"add item failed",
			zap.Int64("product_id", input.ProductID),
			zap.Error(err),
		)

		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	input := new(SetQuantityInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	view, err := h.service.SetQuantity(ctx, user.ID, int64(productID), input.Quantity)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	productID, err := strconv.Atoi(c.Params("productId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	view, err := h.service.RemoveItem(ctx, user.ID, int64(productID))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	if err := h.service.Clear(ctx, user.ID); err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
