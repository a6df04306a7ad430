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

type ReviewHandler struct {
	service  service.ReviewService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewReviewHandler(service service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type SubmitReviewBody struct {
	ProducerID int64  `json:"producer_id" validate:"omitempty,gt=0"`
	OrderID    *int64 `json:"order_id" validate:"omitempty,gt=0"`
	ProductID  *int64 `json:"product_id" validate:"omitempty,gt=0"`
	Rating     int32  `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
}

func (h *ReviewHandler) Submit(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	user := middleware.UserFromCtx(c)

	body := new(SubmitReviewBody)
	if err := c.BodyParser(body); err != nil {
		h.logger.Warn(
			"failed to parse body in submit review",
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

	review, err := h.service.SubmitReview(ctx, &service.SubmitReviewInput{
		ConsumerID: user.ID,
		ProducerID: body.ProducerID,
		OrderID:    body.OrderID,
		ProductID:  body.ProductID,
		Rating:     body.Rating,
		Comment:    body.Comment,
	})
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"submit review failed",
			zap.Int64("consumer_id", user.ID),
			zap.Error(err),
		)

		return fail(c, err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"review submitted",
		zap.Int64("review_id", review.ID),
	)

	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReviewHandler) ListByProducer(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	producerID, err := strconv.Atoi(c.Params("producerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid producer id",
		})
	}

	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	reviews, err := h.service.ListByProducer(ctx, int64(producerID), int64(limit), int64(offset))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"reviews": reviews,
	})
}
