package domain

import "github.com/bookclubapp/bookclub-server/internal/errors"

// Review is the rating and text a reader attaches to a tracked book.
// Exactly one of SimpleRating and Ratings is populated, matching RatingType.
type Review struct {
	Text         string     `json:"text"`
	RatingType   RatingType `json:"rating_type"`
	SimpleRating *float64   `json:"simple_rating"`
	Ratings      Ratings    `json:"ratings"`
	Overall      float64    `json:"overall"`
}

// ValidateSubmission rejects a review that carries no rating signal:
// a simple review without a value, or a detailed review with no criteria.
// An explicit 0 counts as a signal.
func ValidateSubmission(ratingType RatingType, simple *float64, ratings Ratings) error {
	switch ratingType {
	case RatingSimple:
		if simple == nil {
			return errors.RequiresRating("choose a star rating before saving your review")
		}
	case RatingDetailed:
		if len(ratings) == 0 {
			return errors.RequiresRating("rate at least one criterion before saving your review")
		}
	default:
		return errors.InvalidRating("unknown rating type %q", ratingType)
	}
	return nil
}

// NewReview validates a submission and builds the stored review.
// The field belonging to the inactive rating type is cleared.
func NewReview(text string, ratingType RatingType, simple *float64, ratings Ratings) (*Review, error) {
	if err := ValidateSubmission(ratingType, simple, ratings); err != nil {
		return nil, err
	}

	overall, err := ComputeOverall(ratingType, simple, ratings)
	if err != nil {
		return nil, err
	}

	review := &Review{
		Text:       text,
		RatingType: ratingType,
		Overall:    overall,
	}
	switch ratingType {
	case RatingSimple:
		v := *simple
		review.SimpleRating = &v
	case RatingDetailed:
		review.Ratings = ratings.Clone()
	}
	return review, nil
}

// Stars returns the value a star control should display for criterion c,
// or nil when the criterion was never rated.
func (r *Review) Stars(c Criterion) *float64 {
	if r == nil || r.RatingType != RatingDetailed {
		return nil
	}
	v, ok := r.Ratings.Get(c)
	if !ok {
		return nil
	}
	return &v
}
