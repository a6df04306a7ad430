package domain

import "time"

// Review always names a producer. ProductID is set for product reviews and
// nil for producer-only reviews; OrderID ties the review to the completed
// order that made it eligible. No placeholder rows, nullable references are
// the schema.
type Review struct {
	ID         int64     `db:"id"`
	ConsumerID int64     `db:"consumer_id"`
	ProducerID int64     `db:"producer_id"`
	ProductID  *int64    `db:"product_id"`
	OrderID    *int64    `db:"order_id"`
	Rating     int32     `db:"rating"`
	Comment    string    `db:"comment"`
	CreatedAt  time.Time `db:"created_at"`
}

const MaxReviewCommentLen = 2000

func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	if len(r.Comment) > MaxReviewCommentLen {
		return ErrCommentTooLong
	}

	return nil
}

// RatingSummary is derived from the review set, never patched incrementally.
type RatingSummary struct {
	Average float64 `db:"rating_avg"`
	Count   int64   `db:"rating_count"`
}

// ProducerProfile is the seller-facing profile carrying the derived rating.
type ProducerProfile struct {
	UserID      int64     `db:"user_id"`
	DisplayName string    `db:"display_name"`
	Bio         string    `db:"bio"`
	RatingAvg   float64   `db:"rating_avg"`
	RatingCount int64     `db:"rating_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
