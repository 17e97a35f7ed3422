package data

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DefaultReportReason is recorded when a report arrives without a reason.
const DefaultReportReason = "abusive/misleading"

var (
	ErrDuplicateReview = errors.New("movie already reviewed by this user")
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyVoted    = errors.New("review already voted on by this user")
)

// Review is embedded in its Movie document.
type Review struct {
	ID        bson.ObjectID   `json:"id" bson:"_id"`
	User      bson.ObjectID   `json:"user" bson:"user"`
	Name      string          `json:"name" bson:"name"`
	Rating    float64         `json:"rating" bson:"rating"`
	Comment   string          `json:"comment" bson:"comment"`
	Upvotes   int             `json:"upvotes" bson:"upvotes"`
	Downvotes int             `json:"downvotes" bson:"downvotes"`
	Voters    []bson.ObjectID `json:"-" bson:"voters"`
	Reports   []Report        `json:"reports" bson:"reports"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}

type Report struct {
	User      bson.ObjectID `json:"user" bson:"user"`
	Reason    string        `json:"reason" bson:"reason"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// AverageRating returns the mean of ratings rounded to one decimal place.
// An empty list averages to zero.
func AverageRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}

	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return math.Round(sum/float64(len(ratings))*10) / 10
}

// RecomputeRating refreshes AvgRating and NumReviews from the embedded reviews.
func (m *Movie) RecomputeRating() {
	ratings := make([]float64, len(m.Reviews))
	for i, r := range m.Reviews {
		ratings[i] = r.Rating
	}

	m.NumReviews = len(m.Reviews)
	m.AvgRating = AverageRating(ratings)
}

func (m *Movie) review(id bson.ObjectID) *Review {
	for i := range m.Reviews {
		if m.Reviews[i].ID == id {
			return &m.Reviews[i]
		}
	}
	return nil
}

// AddReview records user's review. A user reviews a movie at most once.
func (m *Movie) AddReview(user *User, rating float64, comment string, now time.Time) (*Review, error) {
	for _, r := range m.Reviews {
		if r.User == user.ID {
			return nil, ErrDuplicateReview
		}
	}

	m.Reviews = append(m.Reviews, Review{
		ID:        bson.NewObjectID(),
		User:      user.ID,
		Name:      user.Name,
		Rating:    rating,
		Comment:   comment,
		Voters:    []bson.ObjectID{},
		Reports:   []Report{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	m.RecomputeRating()

	return &m.Reviews[len(m.Reviews)-1], nil
}

// Vote counts one up or down vote per user per review.
func (m *Movie) Vote(reviewID, userID bson.ObjectID, up bool, now time.Time) error {
	r := m.review(reviewID)
	if r == nil {
		return ErrReviewNotFound
	}

	for _, voter := range r.Voters {
		if voter == userID {
			return ErrAlreadyVoted
		}
	}

	if up {
		r.Upvotes++
	} else {
		r.Downvotes++
	}
	r.Voters = append(r.Voters, userID)
	r.UpdatedAt = now
	return nil
}

// Report flags a review for moderation. The same user may report repeatedly.
func (m *Movie) Report(reviewID, userID bson.ObjectID, reason string, now time.Time) error {
	r := m.review(reviewID)
	if r == nil {
		return ErrReviewNotFound
	}

	if reason == "" {
		reason = DefaultReportReason
	}

	r.Reports = append(r.Reports, Report{User: userID, Reason: reason, CreatedAt: now})
	r.UpdatedAt = now
	return nil
}

// RemoveReview deletes a review and refreshes the aggregates.
func (m *Movie) RemoveReview(reviewID bson.ObjectID) error {
	for i := range m.Reviews {
		if m.Reviews[i].ID == reviewID {
			m.Reviews = append(m.Reviews[:i], m.Reviews[i+1:]...)
			m.RecomputeRating()
			return nil
		}
	}
	return ErrReviewNotFound
}

// ReportedReviews returns the reviews with at least one report.
func (m *Movie) ReportedReviews() []Review {
	var reported []Review
	for _, r := range m.Reviews {
		if len(r.Reports) > 0 {
			reported = append(reported, r)
		}
	}
	return reported
}
