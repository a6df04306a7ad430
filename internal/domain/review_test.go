package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReview_Validate(t *testing.T) {
	r := Review{ConsumerID: 1, ProducerID: 2, Rating: 4, Comment: "Great bread"}
	require.NoError(t, r.Validate())

	for _, rating := range []int32{0, 6, -1} {
		r := Review{ConsumerID: 1, ProducerID: 2, Rating: rating}
		require.ErrorIs(t, r.Validate(), ErrInvalidRating)
	}
}

func TestReview_ValidateRejectsOverlongComment(t *testing.T) {
	r := Review{
		ConsumerID: 1,
		ProducerID: 2,
		Rating:     5,
		Comment:    strings.Repeat("a", MaxReviewCommentLen+1),
	}

	require.ErrorIs(t, r.Validate(), ErrCommentTooLong)

	r.Comment = strings.Repeat("a", MaxReviewCommentLen)
	require.NoError(t, r.Validate())
}
