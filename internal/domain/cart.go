package domain

import "time"

// CartLine is an ephemeral line owned by a single consumer. UnitPrice is
// snapshotted at add time and does not follow later catalog price changes.
type CartLine struct {
	ProductID   int64  `json:"product_id"`
	ProducerID  int64  `json:"producer_id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	MadeToOrder bool   `json:"made_to_order"`
}

func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * l.Quantity
}

// Cart aggregates the lines of one consumer. It is a pure value; persistence
// is the store's concern.
type Cart struct {
	ConsumerID int64      `json:"consumer_id"`
	Lines      []CartLine `json:"lines"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func NewCart(consumerID int64) *Cart {
	return &Cart{ConsumerID: consumerID}
}

// Add merges qty into an existing line for the product or appends a new line
// with the current price snapshotted. The cumulative quantity is checked
// against stock for stock-tracked products.
func (c *Cart) Add(p *Product, qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !p.Available {
		return ErrProductUnavailable
	}

	cumulative := qty
	if line := c.find(p.ID); line != nil {
		cumulative += line.Quantity
	}

	if !p.HasStock(cumulative) {
		return ErrOutOfStock
	}

	if line := c.find(p.ID); line != nil {
		line.Quantity = cumulative
	} else {
		c.Lines = append(c.Lines, CartLine{
			ProductID:   p.ID,
			ProducerID:  p.ProducerID,
			Name:        p.Name,
			UnitPrice:   p.Price,
			Quantity:    qty,
			MadeToOrder: p.MadeToOrder,
		})
	}

	c.UpdatedAt = time.Now()
	return nil
}

// SetQuantity updates a line in place. Zero or negative removes the line;
// stock-tracked products are clamped to available stock.
func (c *Cart) SetQuantity(p *Product, qty int64) {
	if qty <= 0 {
		c.Remove(p.ID)
		return
	}

	line := c.find(p.ID)
	if line == nil {
		return
	}

	if !p.MadeToOrder && qty > p.StockQuantity {
		qty = p.StockQuantity
	}

	// Sold out since the line was added: clamping would leave a zero line.
	if qty <= 0 {
		c.Remove(p.ID)
		return
	}

	line.Quantity = qty
	c.UpdatedAt = time.Now()
}

// Remove is idempotent.
func (c *Cart) Remove(productID int64) {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = time.Now()
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Lines = nil
	c.UpdatedAt = time.Now()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.LineTotal()
	}

	return total
}

func (c *Cart) Total(deliveryFee int64) int64 {
	return c.Subtotal() + deliveryFee
}

// SingleProducer returns the producer owning every line. Orders are
// single-producer; mixed carts are rejected before any persistence.
func (c *Cart) SingleProducer() (int64, error) {
	if c.IsEmpty() {
		return 0, ErrEmptyCart
	}

	producerID := c.Lines[0].ProducerID
	for _, line := range c.Lines[1:] {
		if line.ProducerID != producerID {
			return 0, ErrMixedProducerCart
		}
	}

	return producerID, nil
}

func (c *Cart) find(productID int64) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}

	return nil
}
