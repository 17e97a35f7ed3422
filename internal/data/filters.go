package data

import (
	"math"
	"strings"

	"github.com/hafizmfadli/cinescope/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MovieSortSafelist holds every sort value a client may request for movie listings.
var MovieSortSafelist = []string{
	"title", "year", "avg_rating", "num_reviews", "created_at",
	"-title", "-year", "-avg_rating", "-num_reviews", "-created_at",
}

type Filters struct {
	Page         int
	PageSize     int
	Sort         string
	SortSafelist []string
}

// sortColumn returns the document field named by Sort. Handlers validate
// Sort first, so a value outside the safelist is a programming error.
func (f Filters) sortColumn() string {
	if !validator.In(f.Sort, f.SortSafelist...) {
		panic("unsafe sort parameter: " + f.Sort)
	}
	return strings.TrimPrefix(f.Sort, "-")
}

// sortDirection is -1 for a "-" prefixed Sort and 1 otherwise.
func (f Filters) sortDirection() int {
	if f.Sort != "" && f.Sort[0] == '-' {
		return -1
	}
	return 1
}

// sortDocument builds the MongoDB sort document. A rating sort falls back
// to the review count in the same direction, and _id always comes last so
// that pagination is stable.
func (f Filters) sortDocument() bson.D {
	column := f.sortColumn()
	direction := f.sortDirection()

	sort := bson.D{{Key: column, Value: direction}}
	if column == "avg_rating" {
		sort = append(sort, bson.E{Key: "num_reviews", Value: direction})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}

func (f Filters) limit() int {
	return f.PageSize
}

func (f Filters) offset() int {
	return (f.Page - 1) * f.PageSize
}

// ValidateFilters records a failure on v for each pagination or sort value
// that is out of range.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize > 0, "page_size", "must be greater than zero")
	v.Check(f.PageSize <= 500, "page_size", "must be a maximum of 500")
	v.Check(validator.In(f.Sort, f.SortSafelist...), "sort", "invalid sort value")
}

// Metadata describes the page returned alongside a listing. It is empty when
// nothing matched.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

// calculateMetadata rounds the last page up, so 12 records at 5 per page
// give a last page of 3.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}

	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
