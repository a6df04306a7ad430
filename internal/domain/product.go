package domain

import "time"

const MaxProductImages = 5

// Product is a catalog entry owned by a producer. All amounts are integer
// minor units. A product is either stock-tracked or made-to-order:
// StockQuantity is authoritative only when MadeToOrder is false.
type Product struct {
	ID            int64     `db:"id"`
	ProducerID    int64     `db:"producer_id"`
	Name          string    `db:"name"`
	Description   string    `db:"description"`
	Price         int64     `db:"price"`
	Unit          string    `db:"unit"`
	StockQuantity int64     `db:"stock_quantity"`
	MadeToOrder   bool      `db:"made_to_order"`
	LeadTimeDays  int32     `db:"lead_time_days"`
	Available     bool      `db:"available"`
	Category      string    `db:"category"`
	RatingAvg     float64   `db:"rating_avg"`
	RatingCount   int64     `db:"rating_count"`
	Images        []ProductImage
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
	DeletedAt     time.Time `db:"deleted_at" json:"-"`
}

type ProductImage struct {
	ID        int64  `db:"id"`
	ProductID int64  `db:"product_id"`
	URL       string `db:"url"`
	Position  int32  `db:"position"`
	IsPrimary bool   `db:"is_primary"`
}

type UpdateProductInput struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price"`
	Unit          *string `json:"unit"`
	StockQuantity *int64  `json:"stock_quantity"`
	MadeToOrder   *bool   `json:"made_to_order"`
	LeadTimeDays  *int32  `json:"lead_time_days"`
	Available     *bool   `json:"available"`
	Category      *string `json:"category"`
}

// HasStock reports whether qty units can be fulfilled. Made-to-order
// products never check stock.
func (p *Product) HasStock(qty int64) bool {
	if p.MadeToOrder {
		return true
	}

	return p.StockQuantity >= qty
}

// ValidateImages enforces the image invariant: at most five images and
// exactly one primary when any exist.
func ValidateImages(images []ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	if len(images) > MaxProductImages {
		return ErrInvalidImageSet
	}

	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		return ErrInvalidImageSet
	}

	return nil
}
