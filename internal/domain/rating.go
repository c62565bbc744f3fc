package domain

import (
	"math"

	"github.com/bookclubapp/bookclub-server/internal/errors"
)

// MaxStars is the highest value any rating can take.
const MaxStars = 5

// RatingStep is the quantum of the star scale: every rating is a multiple of it.
const RatingStep = 0.5

// RatingType selects which rating field of a review is active.
type RatingType string

const (
	// RatingSimple means the reader supplied one overall star value.
	RatingSimple RatingType = "simple"
	// RatingDetailed means the reader rated each criterion separately.
	RatingDetailed RatingType = "detailed"
)

// ParseRatingType converts a raw string into a RatingType.
func ParseRatingType(s string) (RatingType, error) {
	switch RatingType(s) {
	case RatingSimple, RatingDetailed:
		return RatingType(s), nil
	default:
		return "", errors.InvalidRating("unknown rating type %q", s)
	}
}

// Criterion names one axis of a detailed rating.
type Criterion string

// The fixed criterion set for detailed ratings.
const (
	CriterionStory       Criterion = "Story"
	CriterionLanguage    Criterion = "Language"
	CriterionCharacters  Criterion = "Characters"
	CriterionPacing      Criterion = "Pacing"
	CriterionOriginality Criterion = "Originality"
)

// Criteria lists every criterion in display order.
// The overall score of a detailed rating is always divided by len(Criteria).
var Criteria = []Criterion{
	CriterionStory,
	CriterionLanguage,
	CriterionCharacters,
	CriterionPacing,
	CriterionOriginality,
}

// IsCriterion reports whether c belongs to the fixed criterion set.
func IsCriterion(c Criterion) bool {
	for _, known := range Criteria {
		if c == known {
			return true
		}
	}
	return false
}

// Ratings maps criteria to star values.
// A key present with value 0 means "cleared"; a missing key means "never rated".
type Ratings map[Criterion]float64

// Get returns the value for c and whether it was ever set.
func (r Ratings) Get(c Criterion) (float64, bool) {
	v, ok := r[c]
	return v, ok
}

// Clone returns an independent copy. A nil map stays nil.
func (r Ratings) Clone() Ratings {
	if r == nil {
		return nil
	}
	out := make(Ratings, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Set returns a copy of r with c set to value, after validating both.
func (r Ratings) Set(c Criterion, value float64) (Ratings, error) {
	if !IsCriterion(c) {
		return nil, errors.InvalidRating("unknown criterion %q", c)
	}
	if err := ValidateRating(value); err != nil {
		return nil, err
	}
	out := r.Clone()
	if out == nil {
		out = make(Ratings, 1)
	}
	out[c] = value
	return out, nil
}

// Clear returns a copy of r with c explicitly set to 0.
// Unlike deleting the key, the criterion remains "rated".
func (r Ratings) Clear(c Criterion) (Ratings, error) {
	return r.Set(c, 0)
}

// ValidateRating checks that v lies in [0, MaxStars] on the half-star grid.
func ValidateRating(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.InvalidRating("rating must be a finite number")
	}
	if v < 0 || v > MaxStars {
		return errors.InvalidRating("rating %v is outside 0-%d", v, MaxStars)
	}
	if v/RatingStep != math.Trunc(v/RatingStep) {
		return errors.InvalidRating("rating %v is not a multiple of %v", v, RatingStep)
	}
	return nil
}

func validateRatings(ratings Ratings) error {
	for c, v := range ratings {
		if !IsCriterion(c) {
			return errors.InvalidRating("unknown criterion %q", c)
		}
		if err := ValidateRating(v); err != nil {
			return errors.InvalidRating("%s: %s", c, err.Error())
		}
	}
	return nil
}

// ComputeOverall derives the overall score of a review.
//
// For simple ratings the overall is the simple value, or 0 when absent.
// For detailed ratings it is the sum over all five criteria divided by five,
// with unrated criteria counting as 0, rounded to two decimals.
func ComputeOverall(ratingType RatingType, simple *float64, ratings Ratings) (float64, error) {
	switch ratingType {
	case RatingSimple:
		if simple == nil {
			return 0, nil
		}
		if err := ValidateRating(*simple); err != nil {
			return 0, err
		}
		return roundScore(*simple), nil

	case RatingDetailed:
		if err := validateRatings(ratings); err != nil {
			return 0, err
		}
		var sum float64
		for _, c := range Criteria {
			sum += ratings[c]
		}
		return roundScore(sum / float64(len(Criteria))), nil

	default:
		return 0, errors.InvalidRating("unknown rating type %q", ratingType)
	}
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// StarValue maps a click on star n (1-based) to a rating.
// A click on the left half yields n-0.5, on the right half n.
func StarValue(star int, leftHalf bool) (float64, error) {
	if star < 1 || star > MaxStars {
		return 0, errors.InvalidRating("star %d is outside 1-%d", star, MaxStars)
	}
	if leftHalf {
		return float64(star) - RatingStep, nil
	}
	return float64(star), nil
}

// StarFill describes how one star of a rating control is drawn.
type StarFill string

const (
	StarEmpty StarFill = "empty"
	StarHalf  StarFill = "half"
	StarFull  StarFill = "full"
)

// StarFills renders a rating as MaxStars fills. A nil value is drawn all empty,
// the same as an explicit 0.
func StarFills(value *float64) []StarFill {
	fills := make([]StarFill, MaxStars)
	for i := range fills {
		star := float64(i + 1)
		switch {
		case value == nil || *value <= star-1:
			fills[i] = StarEmpty
		case *value >= star:
			fills[i] = StarFull
		default:
			fills[i] = StarHalf
		}
	}
	return fills
}
