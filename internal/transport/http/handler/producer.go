package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wieeerzbickim/community-feast/internal/service"
	"github.com/wieeerzbickim/community-feast/internal/transport/http/middleware"
	"github.com/wieeerzbickim/community-feast/pkg/mylogger"
	"go.uber.org/zap"
)

type ProducerHandler struct {
	service service.ProducerService
	logger  *zap.Logger
}

func NewProducerHandler(service service.ProducerService, logger *zap.Logger) *ProducerHandler {
	return &ProducerHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ProducerHandler) GetProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	producerID, err := strconv.Atoi(c.Params("producerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid producer id",
		})
	}

	profile, err := h.service.GetProfile(ctx, int64(producerID))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *ProducerHandler) GetDashboard(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	dashboard, err := h.service.GetDashboard(ctx, user.ID)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"dashboard read failed",
			zap.Int64("producer_id", user.ID),
			zap.Error(err),
		)

		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dashboard)
}

// UploadImage accepts a multipart file and attaches it to the product.
func (h *ProducerHandler) UploadImage(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	productID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "image file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cannot read image file",
		})
	}
	defer file.Close()

	url, err := h.service.UploadProductImage(ctx, user.ID, int64(productID), fileHeader.Filename, file)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"image upload failed",
			zap.Int("product_id", productID),
			zap.Error(err),
		)

		return fail(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"image uploaded",
		zap.Int("product_id", productID),
		zap.String("url", url),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url": url,
	})
}
