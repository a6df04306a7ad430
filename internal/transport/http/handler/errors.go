package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wieeerzbickim/community-feast/internal/domain"
	"github.com/wieeerzbickim/community-feast/pkg/payment"
)

// statusOf maps domain errors onto HTTP statuses so the UI can translate
// them. Anything unmapped is a 500.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProducerNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrDuplicateReview),
		errors.Is(err, domain.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrMixedProducerCart),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrCommentTooLong),
		errors.Is(err, domain.ErrInvalidCommission),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidImageSet),
		errors.Is(err, domain.ErrDeliveryAddressEmpty):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotEligible),
		errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, payment.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
