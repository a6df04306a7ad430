package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/internal/service"
	"github.com/wieeerzbickim/community-feast/internal/transport/http/middleware"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"github.com/wieeerzbickim/community-feast/pkg/utils"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service  service.CatalogService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCatalogHandler(service service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type CreateProductInput struct {
	Name          string `json:"name" validate:"required,min=3,max=100"`
	Description   string `json:"description" validate:"max=1000"`
	Price         int64  `json:"price" validate:"required,gt=0"`
	Unit          string `json:"unit" validate:"required,max=20"`
	StockQuantity int64  `json:"stock_quantity" validate:"gte=0"`
	MadeToOrder   bool   `json:"made_to_order"`
	LeadTimeDays  int32  `json:"lead_time_days" validate:"gte=0,lte=60"`
	Category      string `json:"category" validate:"required"`
}

func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	input := new(CreateProductInput)
	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in create",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		h.logger.Warn(
			"failed to parse input",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	product := &domain.Product{
		ProducerID:    user.ID,
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		Unit:          input.Unit,
		StockQuantity: input.StockQuantity,
		MadeToOrder:   input.MadeToOrder,
		LeadTimeDays:  input.LeadTimeDays,
		Available:     true,
		Category:      input.Category,
	}

	id, err := h.service.Create(ctx, product)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"create product failed",
			zap.Error(err),
		)

		return fail(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"product created successfully",
		zap.Int64("created_id", id),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     id,
		"status": "success",
	})
}

func (h *CatalogHandler) FindByID(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	idStr := c.Params("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"invalid product id",
			zap.String("id", idStr),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid id",
		})
	}

	product, err := h.service.FindByID(ctx, int64(id))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := c.Query("search")

	products, total, err := h.service.List(ctx, int64(limit), int64(offset), search)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"list products failed",
			zap.Error(err),
		)

		return fail(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"list products succeeded",
		zap.Int("offset", offset),
		zap.Int("limit", limit),
		zap.String("search", search),
		zap.Int64("total", total),
	)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"products":    products,
		"total_count": total,
	})
}

func (h *CatalogHandler) ListMine(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	products, err := h.service.ListByProducer(ctx, user.ID)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"products": products,
	})
}

func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	idStr := c.Params("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid id",
		})
	}

	input := new(domain.UpdateProductInput)
	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in update",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.service.Update(ctx, int64(id), user.ID, input); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"update product failed",
			zap.Int("product_id", id),
			zap.Error(err),
		)

		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
	})
}

func (h *CatalogHandler) Delete(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	idStr := c.Params("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"invalid product id",
			zap.String("id", idStr),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Id is invalid",
		})
	}

	if err := h.service.Delete(ctx, int64(id), user.ID); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"delete product failed",
			zap.Int("product_id", id),
			zap.Error(err),
		)

		return fail(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"product deleted successfully",
		zap.Int("product_id", id),
	)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
