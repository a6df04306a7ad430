package domain

import "errors"

// Domain error kinds. Repositories and services translate storage and
// collaborator failures into these; the transport layer maps them to
// status codes for UI translation.
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductUnavailable   = errors.New("product unavailable")
	ErrOutOfStock           = errors.New("out of stock")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMixedProducerCart    = errors.New("cart contains products from multiple producers")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrNotEligible          = errors.New("not eligible to review")
	ErrCommentTooLong       = errors.New("review comment too long")
	ErrDuplicateReview      = errors.New("review already submitted")
	ErrInvalidCommission    = errors.New("commission rate must be between 0 and 100")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrInvalidImageSet      = errors.New("product images must have exactly one primary and at most five entries")
	ErrProducerNotFound     = errors.New("producer not found")
	ErrForbidden            = errors.New("operation not allowed for this role")
	ErrDuplicateOrder       = errors.New("order already created for this idempotency key")
	ErrDeliveryAddressEmpty = errors.New("delivery address required for delivery orders")
)
