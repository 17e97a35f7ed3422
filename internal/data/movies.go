package data

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hafizmfadli/cinescope/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Movie struct {
	ID        bson.ObjectID `json:"id" bson:"_id,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`

	Title string `json:"title" bson:"title"`
	// Detail is the synopsis shown on the movie page.
	Detail string `json:"detail" bson:"detail"`
	// Image is the poster URL.
	Image      string `json:"image" bson:"image"`
	TrailerURL string `json:"trailer_url" bson:"trailer_url"`
	// Year is zero when unknown.
	Year   int32    `json:"year,omitempty" bson:"year,omitempty"`
	Genres []string `json:"genres" bson:"genres"`
	Cast   []string `json:"cast" bson:"cast"`

	// Embedded reviews plus the aggregates cached from them
	Reviews    []Review `json:"reviews" bson:"reviews"`
	AvgRating  float64  `json:"avg_rating" bson:"avg_rating"`
	NumReviews int      `json:"num_reviews" bson:"num_reviews"`

	// Version starts at 1 and is bumped by every successful write, reviews
	// included. Updates are conditional on it.
	Version int32 `json:"version" bson:"version"`
}

// ValidateMovie checks movie against the catalog rules.
func ValidateMovie(v *validator.Validator, movie *Movie) {
	v.Check(movie.Title != "", "title", "must be provided")
	v.Check(len(movie.Title) <= 500, "title", "must not be more than 500 bytes long")

	v.Check(movie.Year == 0 || movie.Year >= 1888, "year", "must be greater than 1888")
	v.Check(movie.Year <= int32(time.Now().Year()+5), "year", "must not be in the far future")

	v.Check(len(movie.Genres) <= 10, "genres", "must not contain more than 10 genres")
	v.Check(validator.Unique(movie.Genres), "genres", "must not contain duplicate values")

	v.Check(len(movie.Cast) <= 50, "cast", "must not contain more than 50 entries")
}

// CleanList trims every entry and drops the empty ones.
func CleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// MovieQuery narrows a movie listing. Zero values mean "no constraint".
type MovieQuery struct {
	// Genres matches movies tagged with any of the given genres.
	Genres    []string
	Year      int32
	MinRating float64
	// Title is a case-insensitive literal substring.
	Title string
}

func (q MovieQuery) filter() bson.D {
	filter := bson.D{}
	if len(q.Genres) > 0 {
		filter = append(filter, bson.E{Key: "genres", Value: bson.D{{Key: "$in", Value: q.Genres}}})
	}
	if q.Year != 0 {
		filter = append(filter, bson.E{Key: "year", Value: q.Year})
	}
	if q.MinRating > 0 {
		filter = append(filter, bson.E{Key: "avg_rating", Value: bson.D{{Key: "$gte", Value: q.MinRating}}})
	}
	if q.Title != "" {
		filter = append(filter, bson.E{Key: "title", Value: bson.Regex{Pattern: regexp.QuoteMeta(q.Title), Options: "i"}})
	}
	return filter
}

func (q MovieQuery) matches(m *Movie) bool {
	if len(q.Genres) > 0 {
		found := false
		for _, g := range q.Genres {
			if validator.In(g, m.Genres...) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Year != 0 && m.Year != q.Year {
		return false
	}
	if q.MinRating > 0 && m.AvgRating < q.MinRating {
		return false
	}
	if q.Title != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(q.Title)) {
		return false
	}
	return true
}

// prepareInsert stamps a new movie with its identity, timestamps and version.
func prepareInsert(movie *Movie, now time.Time) {
	movie.ID = bson.NewObjectID()
	movie.CreatedAt = now
	movie.UpdatedAt = now
	movie.Version = 1
	if movie.Genres == nil {
		movie.Genres = []string{}
	}
	if movie.Cast == nil {
		movie.Cast = []string{}
	}
	if movie.Reviews == nil {
		movie.Reviews = []Review{}
	}
}

// MovieModel struct type which wraps the MongoDB movies collection.
type MovieModel struct {
	DB *mongo.Database
}

func (m MovieModel) collection() *mongo.Collection {
	return m.DB.Collection(moviesCollection)
}

// Insert adds a new movie document. ID, timestamps and version are set on movie.
func (m MovieModel) Insert(ctx context.Context, movie *Movie) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	prepareInsert(movie, time.Now().UTC().Truncate(time.Millisecond))

	_, err := m.collection().InsertOne(ctx, movie)
	return err
}

// Get fetches a specific movie by ID.
func (m MovieModel) Get(ctx context.Context, id bson.ObjectID) (*Movie, error) {
	return m.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindByTitleYear fetches the movie with exactly this title and year.
func (m MovieModel) FindByTitleYear(ctx context.Context, title string, year int32) (*Movie, error) {
	filter := bson.D{{Key: "title", Value: title}}
	if year != 0 {
		filter = append(filter, bson.E{Key: "year", Value: year})
	}
	return m.findOne(ctx, filter)
}

func (m MovieModel) findOne(ctx context.Context, filter bson.D) (*Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var movie Movie
	err := m.collection().FindOne(ctx, filter).Decode(&movie)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &movie, nil
}

// GetMany fetches the movies with the given IDs, in the order of ids.
// Unknown IDs are skipped.
func (m MovieModel) GetMany(ctx context.Context, ids []bson.ObjectID) ([]*Movie, error) {
	if len(ids) == 0 {
		return []*Movie{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := m.collection().Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}

	var found []*Movie
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	return orderByIDs(found, ids), nil
}

func orderByIDs(movies []*Movie, ids []bson.ObjectID) []*Movie {
	byID := make(map[bson.ObjectID]*Movie, len(movies))
	for _, movie := range movies {
		byID[movie.ID] = movie
	}

	ordered := make([]*Movie, 0, len(movies))
	for _, id := range ids {
		if movie, ok := byID[id]; ok {
			ordered = append(ordered, movie)
			delete(byID, id)
		}
	}
	return ordered
}

// Update writes movie back, provided nobody else changed it since it was read.
// On success the version is incremented on movie as well.
func (m MovieModel) Update(ctx context.Context, movie *Movie) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)

	filter := bson.D{
		{Key: "_id", Value: movie.ID},
		{Key: "version", Value: movie.Version},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "title", Value: movie.Title},
			{Key: "detail", Value: movie.Detail},
			{Key: "image", Value: movie.Image},
			{Key: "trailer_url", Value: movie.TrailerURL},
			{Key: "year", Value: movie.Year},
			{Key: "genres", Value: movie.Genres},
			{Key: "cast", Value: movie.Cast},
			{Key: "reviews", Value: movie.Reviews},
			{Key: "avg_rating", Value: movie.AvgRating},
			{Key: "num_reviews", Value: movie.NumReviews},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	}

	result, err := m.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrEditConflict
	}

	movie.Version++
	movie.UpdatedAt = now
	return nil
}

// Delete removes a specific movie.
func (m MovieModel) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := m.collection().DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// GetAll returns one page of movies matching query, plus pagination metadata.
func (m MovieModel) GetAll(ctx context.Context, query MovieQuery, filters Filters) ([]*Movie, Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := query.filter()

	total, err := m.collection().CountDocuments(ctx, filter)
	if err != nil {
		return nil, Metadata{}, err
	}

	opts := options.Find().
		SetSort(filters.sortDocument()).
		SetSkip(int64(filters.offset())).
		SetLimit(int64(filters.limit()))

	cursor, err := m.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, Metadata{}, err
	}

	movies := []*Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, Metadata{}, err
	}

	return movies, calculateMetadata(int(total), filters.Page, filters.PageSize), nil
}

// Sample returns up to size movies picked at random by the server.
func (m MovieModel) Sample(ctx context.Context, size int) ([]*Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}},
	}

	cursor, err := m.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	movies := []*Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Genres returns the distinct, non-empty genres in use, sorted.
func (m MovieModel) Genres(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var genres []string
	if err := m.collection().Distinct(ctx, "genres", bson.D{}).Decode(&genres); err != nil {
		return nil, err
	}

	genres = CleanList(genres)
	sort.Strings(genres)
	return genres, nil
}

// Reported returns the movies carrying at least one reported review, most
// recently changed first.
func (m MovieModel) Reported(ctx context.Context) ([]*Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.D{{Key: "reviews.reports.0", Value: bson.D{{Key: "$exists", Value: true}}}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := m.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	movies := []*Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}
