package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransitionTo reports whether the status machine allows moving to next.
// Completed and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Order is a persisted single-producer purchase. TotalAmount holds the
// invariant total = sum(qty * unit_price) + delivery_fee.
type Order struct {
	ID              int64          `db:"id"`
	ConsumerID      int64          `db:"consumer_id"`
	ProducerID      int64          `db:"producer_id"`
	Status          OrderStatus    `db:"status"`
	Lines           []OrderLine    `db:"lines"`
	TotalAmount     int64          `db:"total_amount"`
	DeliveryMethod  DeliveryMethod `db:"delivery_method"`
	DeliveryAddress *string        `db:"delivery_address"`
	DeliveryFee     int64          `db:"delivery_fee"`
	PaymentRef      *string        `db:"payment_ref"`
	IdempotencyKey  string         `db:"idempotency_key"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OrderLine is immutable after creation; UnitPrice is the snapshot taken at
// order time.
type OrderLine struct {
	ID        int64  `db:"id"`
	OrderID   int64  `db:"order_id"`
	ProductID int64  `db:"product_id"`
	Name      string `db:"name"`
	UnitPrice int64  `db:"unit_price"`
	Quantity  int64  `db:"quantity"`
	LineTotal int64  `db:"line_total"`
}

func (o *Order) CalculateTotal() {
	var total int64
	for i := range o.Lines {
		o.Lines[i].LineTotal = o.Lines[i].UnitPrice * o.Lines[i].Quantity
		total += o.Lines[i].LineTotal
	}
	o.TotalAmount = total + o.DeliveryFee
}

func (o *Order) Transition(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	o.Status = next
	return nil
}
