package task

import (
	terrors "github.com/taskline/taskline/internal/errors"
	"github.com/taskline/taskline/internal/model"
)

// validateReview checks the review preconditions: the task must be in
// Done, unreviewed, and the rating within [1,5]. Any fractional value
// in range is accepted, so half-star ratings work.
func validateReview(t *model.Task, rating float64) error {
	if t.Review != nil {
		return terrors.ErrAlreadyReviewed
	}
	if t.Status != model.StatusDone {
		return terrors.ErrInvalidReviewState
	}
	if rating < 1 || rating > 5 {
		return terrors.ErrInvalidRating
	}
	return nil
}
