// Package seed creates the initial admin account and loads the embedded
// catalog of classic movies.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"time"

	"github.com/hafizmfadli/cinescope/internal/config"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/jsonlog"
	"github.com/hafizmfadli/cinescope/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const (
	DefaultAdminEmail = "admin@cinescope.local"

	seederName     = "Seeder"
	seederEmail    = "seeder@example.com"
	seederPassword = "Seeder123!"

	placeholderTrailer = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	minSampleRating = 3.5
	maxSampleRating = 5.0
)

// CatalogEntry is one movie of the embedded catalog.
type CatalogEntry struct {
	Title  string   `yaml:"title"`
	Year   int32    `yaml:"year"`
	Genres []string `yaml:"genres"`
	Cast   []string `yaml:"cast"`
}

// Catalog parses the embedded catalog.
func Catalog() ([]CatalogEntry, error) {
	var doc struct {
		Movies []CatalogEntry `yaml:"movies"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return doc.Movies, nil
}

type Seeder struct {
	Models data.Models
	Logger *jsonlog.Logger
	Rand   *rand.Rand
	Now    func() time.Time
}

func New(models data.Models, logger *jsonlog.Logger) *Seeder {
	return &Seeder{
		Models: models,
		Logger: logger,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// ErrInvalidAdmin wraps validation failures of the configured admin account.
var ErrInvalidAdmin = errors.New("invalid admin account")

// Admin creates the configured admin account. When a user with that email
// already exists it is returned unchanged and created is false.
func (s *Seeder) Admin(ctx context.Context, cfg config.AdminConfig) (user *data.User, created bool, err error) {
	email := data.NormalizeEmail(cfg.Email)
	if email == "" {
		email = DefaultAdminEmail
	}

	existing, err := s.Models.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.Logger.PrintInfo("admin already exists", map[string]string{"email": email})
		return existing, false, nil
	case !errors.Is(err, data.ErrRecordNotFound):
		return nil, false, err
	}

	v := validator.New()
	data.ValidatePasswordPlaintext(v, cfg.Password)
	if !v.Valid() {
		return nil, false, fmt.Errorf("%w: password %s", ErrInvalidAdmin, v.Errors["password"])
	}

	name := cfg.Name
	if name == "" {
		name = "Admin"
	}
	user = &data.User{Name: name, Email: email, IsAdmin: true}
	if err := user.SetPassword(cfg.Password); err != nil {
		return nil, false, err
	}

	if data.ValidateUser(v, user); !v.Valid() {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidAdmin, v.Errors)
	}
	if err := s.Models.Users.Insert(ctx, user); err != nil {
		return nil, false, err
	}

	s.Logger.PrintInfo("admin created", map[string]string{"email": email})
	return user, true, nil
}

// MoviesResult lists the catalog titles that were inserted or already present.
type MoviesResult struct {
	Inserted []string
	Skipped  []string
}

// Movies inserts every catalog title that is not stored yet (same title and
// year). Each new movie carries two sample reviews written by the review
// author: the first admin, else any user, else a newly created seeder.
func (s *Seeder) Movies(ctx context.Context) (MoviesResult, error) {
	var result MoviesResult

	catalog, err := Catalog()
	if err != nil {
		return result, err
	}

	author, err := s.reviewAuthor(ctx)
	if err != nil {
		return result, fmt.Errorf("resolve review author: %w", err)
	}

	for _, entry := range catalog {
		_, err := s.Models.Movies.FindByTitleYear(ctx, entry.Title, entry.Year)
		switch {
		case err == nil:
			result.Skipped = append(result.Skipped, entry.Title)
			continue
		case !errors.Is(err, data.ErrRecordNotFound):
			return result, err
		}

		movie := s.build(entry, author)
		if err := s.Models.Movies.Insert(ctx, movie); err != nil {
			return result, fmt.Errorf("insert %q: %w", entry.Title, err)
		}
		result.Inserted = append(result.Inserted, entry.Title)
	}

	s.Logger.PrintInfo("catalog seeded", map[string]string{
		"inserted": fmt.Sprint(len(result.Inserted)),
		"skipped":  fmt.Sprint(len(result.Skipped)),
	})
	return result, nil
}

func (s *Seeder) reviewAuthor(ctx context.Context) (*data.User, error) {
	admin, err := s.Models.Users.FirstAdmin(ctx)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, data.ErrRecordNotFound) {
		return nil, err
	}

	users, err := s.Models.Users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return users[0], nil
	}

	seeder := &data.User{Name: seederName, Email: seederEmail}
	if err := seeder.SetPassword(seederPassword); err != nil {
		return nil, err
	}
	if err := s.Models.Users.Insert(ctx, seeder); err != nil {
		return nil, err
	}
	return seeder, nil
}

func (s *Seeder) build(entry CatalogEntry, author *data.User) *data.Movie {
	now := s.Now()

	movie := &data.Movie{
		Title:      entry.Title,
		Year:       entry.Year,
		Image:      "https://dummyimage.com/600x900/222/fff.jpg&text=" + url.PathEscape(entry.Title),
		TrailerURL: placeholderTrailer,
		Genres:     data.CleanList(entry.Genres),
		Cast:       data.CleanList(entry.Cast),
		Detail:     fmt.Sprintf("%s (%d), seeded entry.", entry.Title, entry.Year),
	}

	for _, comment := range []string{
		fmt.Sprintf("Great movie: %s!", entry.Title),
		fmt.Sprintf("Loved the pacing in %s.", entry.Title),
	} {
		movie.Reviews = append(movie.Reviews, data.Review{
			ID:        bson.NewObjectID(),
			User:      author.ID,
			Name:      seederName,
			Rating:    s.sampleRating(),
			Comment:   comment,
			Voters:    []bson.ObjectID{},
			Reports:   []data.Report{},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	movie.RecomputeRating()

	return movie
}

// sampleRating draws a rating in [minSampleRating, maxSampleRating] with one decimal.
func (s *Seeder) sampleRating() float64 {
	r := minSampleRating + s.Rand.Float64()*(maxSampleRating-minSampleRating)
	return math.Round(r*10) / 10
}
