package domain

import "time"

type OrderItemEvent struct {
	ProductID   int64 `json:"product_id"`
	Quantity    int64 `json:"quantity"`
	MadeToOrder bool  `json:"made_to_order"`
}

type OrderCreatedEvent struct {
	OrderID     int64            `json:"order_id"`
	ConsumerID  int64            `json:"consumer_id"`
	ProducerID  int64            `json:"producer_id"`
	TotalAmount int64            `json:"total_amount"`
	Items       []OrderItemEvent `json:"items"`
}

type OrderCancelledEvent struct {
	OrderID int64            `json:"order_id"`
	Items   []OrderItemEvent `json:"items"`
}

type OrderCompletedEvent struct {
	OrderID     int64     `json:"order_id"`
	ConsumerID  int64     `json:"consumer_id"`
	ProducerID  int64     `json:"producer_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Inbound events carry the publisher's event id for consumer-side
// deduplication.
type PaymentSucceededEvent struct {
	EventID    int64     `json:"event_id"`
	OrderID    int64     `json:"order_id"`
	PaymentRef string    `json:"payment_ref"`
	Amount     int64     `json:"amount"`
	PaidAt     time.Time `json:"paid_at"`
}

type PaymentFailedEvent struct {
	EventID  int64     `json:"event_id"`
	OrderID  int64     `json:"order_id"`
	Amount   int64     `json:"amount"`
	FailedAt time.Time `json:"failed_at"`
}

type UserRegisteredEvent struct {
	EventID int64  `json:"event_id"`
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

type ReviewSubmittedEvent struct {
	ReviewID   int64  `json:"review_id"`
	ProducerID int64  `json:"producer_id"`
	ProductID  *int64 `json:"product_id,omitempty"`
	Rating     int32  `json:"rating"`
}
