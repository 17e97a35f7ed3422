package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// queryTimeout bounds every single store call.
const queryTimeout = 3 * time.Second

const (
	moviesCollection = "movies"
	usersCollection  = "users"
)

var (
	// ErrRecordNotFound is returned when looking up a document that doesn't
	// exist in our database.
	ErrRecordNotFound = errors.New("record not found")
	// ErrEditConflict is returned when a document changed (or disappeared)
	// between being read and written back.
	ErrEditConflict   = errors.New("edit conflict")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// MovieStore is implemented by MovieModel (MongoDB) and MemoryMovieModel.
type MovieStore interface {
	Insert(ctx context.Context, movie *Movie) error
	Get(ctx context.Context, id bson.ObjectID) (*Movie, error)
	GetMany(ctx context.Context, ids []bson.ObjectID) ([]*Movie, error)
	FindByTitleYear(ctx context.Context, title string, year int32) (*Movie, error)
	Update(ctx context.Context, movie *Movie) error
	Delete(ctx context.Context, id bson.ObjectID) error
	GetAll(ctx context.Context, query MovieQuery, filters Filters) ([]*Movie, Metadata, error)
	Sample(ctx context.Context, size int) ([]*Movie, error)
	Genres(ctx context.Context) ([]string, error)
	Reported(ctx context.Context) ([]*Movie, error)
}

// UserStore is implemented by UserModel (MongoDB) and MemoryUserModel.
type UserStore interface {
	Insert(ctx context.Context, user *User) error
	Get(ctx context.Context, id bson.ObjectID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
	AddToWatchlist(ctx context.Context, userID, movieID bson.ObjectID) ([]bson.ObjectID, error)
	RemoveFromWatchlist(ctx context.Context, userID, movieID bson.ObjectID) ([]bson.ObjectID, error)
	FirstAdmin(ctx context.Context) (*User, error)
}

// Models is 'container' which can hold and respresent all your database models
type Models struct {
	Movies MovieStore
	Users  UserStore
}

// NewModels return a Models struct backed by the given MongoDB database.
func NewModels(db *mongo.Database) Models {
	return Models{
		Movies: MovieModel{DB: db},
		Users:  UserModel{DB: db},
	}
}

// NewMemoryModels return a Models struct whose stores live in process memory.
func NewMemoryModels() Models {
	return Models{
		Movies: NewMemoryMovieModel(),
		Users:  NewMemoryUserModel(),
	}
}

// EnsureIndexes creates the indexes both collections rely on. The unique
// email index is what turns a duplicate registration into ErrDuplicateEmail.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = db.Collection(moviesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "genres", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "avg_rating", Value: -1}, {Key: "num_reviews", Value: -1}}},
		{Keys: bson.D{{Key: "title", Value: 1}, {Key: "year", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create movies indexes: %w", err)
	}

	return nil
}
