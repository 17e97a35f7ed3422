package data

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryMovieModel keeps movies in process memory. It follows the MongoDB
// model's semantics (copies in and out, version checks, filters, sorting)
// and backs the "memory" database driver as well as the tests.
type MemoryMovieModel struct {
	mu     sync.RWMutex
	movies map[bson.ObjectID]*Movie
	now    func() time.Time
}

func NewMemoryMovieModel() *MemoryMovieModel {
	return &MemoryMovieModel{
		movies: make(map[bson.ObjectID]*Movie),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func cloneMovie(m *Movie) *Movie {
	c := *m
	c.Genres = append([]string{}, m.Genres...)
	c.Cast = append([]string{}, m.Cast...)
	c.Reviews = make([]Review, len(m.Reviews))
	for i, r := range m.Reviews {
		r.Voters = append([]bson.ObjectID{}, r.Voters...)
		r.Reports = append([]Report{}, r.Reports...)
		c.Reviews[i] = r
	}
	return &c
}

func (m *MemoryMovieModel) Insert(_ context.Context, movie *Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prepareInsert(movie, m.now())
	m.movies[movie.ID] = cloneMovie(movie)
	return nil
}

func (m *MemoryMovieModel) Get(_ context.Context, id bson.ObjectID) (*Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, ok := m.movies[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneMovie(movie), nil
}

func (m *MemoryMovieModel) GetMany(_ context.Context, ids []bson.ObjectID) ([]*Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := []*Movie{}
	for _, id := range ids {
		if movie, ok := m.movies[id]; ok {
			found = append(found, cloneMovie(movie))
		}
	}
	return orderByIDs(found, ids), nil
}

func (m *MemoryMovieModel) FindByTitleYear(_ context.Context, title string, year int32) (*Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, movie := range m.sorted(Filters{Sort: "created_at", SortSafelist: MovieSortSafelist}) {
		if movie.Title == title && (year == 0 || movie.Year == year) {
			return cloneMovie(movie), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryMovieModel) Update(_ context.Context, movie *Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.movies[movie.ID]
	if !ok || stored.Version != movie.Version {
		return ErrEditConflict
	}

	movie.Version++
	movie.UpdatedAt = m.now()
	movie.CreatedAt = stored.CreatedAt
	m.movies[movie.ID] = cloneMovie(movie)
	return nil
}

func (m *MemoryMovieModel) Delete(_ context.Context, id bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[id]; !ok {
		return ErrRecordNotFound
	}
	delete(m.movies, id)
	return nil
}

func (m *MemoryMovieModel) GetAll(_ context.Context, query MovieQuery, filters Filters) ([]*Movie, Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []*Movie{}
	for _, movie := range m.sorted(filters) {
		if query.matches(movie) {
			matched = append(matched, movie)
		}
	}

	page := []*Movie{}
	for i := filters.offset(); i < len(matched) && len(page) < filters.limit(); i++ {
		page = append(page, cloneMovie(matched[i]))
	}

	return page, calculateMetadata(len(matched), filters.Page, filters.PageSize), nil
}

// sorted returns the stored movies ordered the way MongoDB would order them
// for filters.sortDocument(). Callers must hold the lock.
func (m *MemoryMovieModel) sorted(filters Filters) []*Movie {
	all := make([]*Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		all = append(all, movie)
	}

	order := filters.sortDocument()
	sort.Slice(all, func(i, j int) bool {
		for _, key := range order {
			c := compareField(all[i], all[j], key.Key)
			if c == 0 {
				continue
			}
			if key.Value.(int) < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return all
}

func compareField(a, b *Movie, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "year":
		return compareOrdered(a.Year, b.Year)
	case "avg_rating":
		return compareOrdered(a.AvgRating, b.AvgRating)
	case "num_reviews":
		return compareOrdered(a.NumReviews, b.NumReviews)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "_id":
		return strings.Compare(a.ID.Hex(), b.ID.Hex())
	}
	return 0
}

func compareOrdered[T int | int32 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (m *MemoryMovieModel) Sample(_ context.Context, size int) ([]*Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sorted(Filters{Sort: "created_at", SortSafelist: MovieSortSafelist})
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	if size > len(all) {
		size = len(all)
	}

	sample := make([]*Movie, 0, size)
	for _, movie := range all[:size] {
		sample = append(sample, cloneMovie(movie))
	}
	return sample, nil
}

func (m *MemoryMovieModel) Genres(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]bool{}
	genres := []string{}
	for _, movie := range m.movies {
		for _, g := range CleanList(movie.Genres) {
			if !seen[g] {
				seen[g] = true
				genres = append(genres, g)
			}
		}
	}
	sort.Strings(genres)
	return genres, nil
}

func (m *MemoryMovieModel) Reported(_ context.Context) ([]*Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reported := []*Movie{}
	for _, movie := range m.movies {
		if len(movie.ReportedReviews()) > 0 {
			reported = append(reported, cloneMovie(movie))
		}
	}
	sort.Slice(reported, func(i, j int) bool {
		return reported[i].UpdatedAt.After(reported[j].UpdatedAt)
	})
	return reported, nil
}

// MemoryUserModel is the in-memory counterpart of UserModel.
type MemoryUserModel struct {
	mu    sync.RWMutex
	users map[bson.ObjectID]*User
	now   func() time.Time
}

func NewMemoryUserModel() *MemoryUserModel {
	return &MemoryUserModel{
		users: make(map[bson.ObjectID]*User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func cloneUser(u *User) *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.Watchlist = append([]bson.ObjectID{}, u.Watchlist...)
	c.FavoriteGenres = append([]string{}, u.FavoriteGenres...)
	return &c
}

func (m *MemoryUserModel) emailTaken(email string, except bson.ObjectID) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m *MemoryUserModel) Insert(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, bson.NilObjectID) {
		return ErrDuplicateEmail
	}

	prepareUserInsert(user, m.now())
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *MemoryUserModel) Get(_ context.Context, id bson.ObjectID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneUser(user), nil
}

func (m *MemoryUserModel) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryUserModel) ordered() []*User {
	all := make([]*User, 0, len(m.users))
	for _, user := range m.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.Hex() < all[j].ID.Hex()
	})
	return all
}

func (m *MemoryUserModel) GetAll(_ context.Context) ([]*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []*User{}
	for _, user := range m.ordered() {
		users = append(users, cloneUser(user))
	}
	return users, nil
}

func (m *MemoryUserModel) FirstAdmin(_ context.Context) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.ordered() {
		if user.IsAdmin {
			return cloneUser(user), nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemoryUserModel) Update(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok || stored.Version != user.Version {
		return ErrEditConflict
	}
	if m.emailTaken(user.Email, user.ID) {
		return ErrDuplicateEmail
	}

	updated := cloneUser(user)
	// The watchlist is changed only through its own operations.
	updated.Watchlist = stored.Watchlist
	updated.CreatedAt = stored.CreatedAt
	updated.Version++
	m.users[user.ID] = updated

	user.Version++
	return nil
}

func (m *MemoryUserModel) AddToWatchlist(_ context.Context, userID, movieID bson.ObjectID) ([]bson.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}

	for _, id := range user.Watchlist {
		if id == movieID {
			return append([]bson.ObjectID{}, user.Watchlist...), nil
		}
	}
	user.Watchlist = append(user.Watchlist, movieID)
	return append([]bson.ObjectID{}, user.Watchlist...), nil
}

func (m *MemoryUserModel) RemoveFromWatchlist(_ context.Context, userID, movieID bson.ObjectID) ([]bson.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}

	kept := []bson.ObjectID{}
	for _, id := range user.Watchlist {
		if id != movieID {
			kept = append(kept, id)
		}
	}
	user.Watchlist = kept
	return append([]bson.ObjectID{}, kept...), nil
}
