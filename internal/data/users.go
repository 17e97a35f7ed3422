package data

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hafizmfadli/cinescope/internal/validator"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor for stored password hashes.
var passwordCost = 12

// AnonymousUser represents a request without a valid session.
var AnonymousUser = &User{}

type User struct {
	ID             bson.ObjectID   `json:"id" bson:"_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	Name           string          `json:"name" bson:"name"`
	Email          string          `json:"email" bson:"email"`
	PasswordHash   []byte          `json:"-" bson:"password_hash"`
	IsAdmin        bool            `json:"is_admin" bson:"is_admin"`
	IsBlocked      bool            `json:"is_blocked" bson:"is_blocked"`
	Watchlist      []bson.ObjectID `json:"watchlist" bson:"watchlist"`
	FavoriteGenres []string        `json:"favorite_genres" bson:"favorite_genres"`
	Version        int32           `json:"-" bson:"version"`
}

// IsAnonymous reports whether u is the AnonymousUser sentinel.
func (u *User) IsAnonymous() bool {
	return u == AnonymousUser
}

// SetPassword stores the bcrypt hash of plaintext.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), passwordCost)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	return nil
}

// PasswordMatches checks whether plaintext matches the stored hash.
func (u *User) PasswordMatches(plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(plaintext))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(v *validator.Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
}

func ValidatePasswordPlaintext(v *validator.Validator, password string) {
	v.Check(password != "", "password", "must be provided")
	v.Check(len(password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(password) <= 72, "password", "must not be more than 72 bytes long")
}

// ValidateUser checks the stored shape of a user. Plaintext passwords are
// validated separately, before hashing.
func ValidateUser(v *validator.Validator, user *User) {
	v.Check(user.Name != "", "name", "must be provided")
	v.Check(len(user.Name) <= 500, "name", "must not be more than 500 bytes long")

	ValidateEmail(v, user.Email)

	v.Check(len(user.FavoriteGenres) <= 10, "favorite_genres", "must not contain more than 10 genres")

	// If the password hash is ever nil, this will be due to a logic error in our
	// codebase, not a problem with the client data.
	if user.PasswordHash == nil {
		panic("missing password hash for user")
	}
}

func prepareUserInsert(user *User, now time.Time) {
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.Version = 1
	if user.Watchlist == nil {
		user.Watchlist = []bson.ObjectID{}
	}
	if user.FavoriteGenres == nil {
		user.FavoriteGenres = []string{}
	}
}

// UserModel struct type which wraps the MongoDB users collection.
type UserModel struct {
	DB *mongo.Database
}

func (m UserModel) collection() *mongo.Collection {
	return m.DB.Collection(usersCollection)
}

// Insert adds a new user. A taken email address yields ErrDuplicateEmail.
func (m UserModel) Insert(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	prepareUserInsert(user, time.Now().UTC().Truncate(time.Millisecond))

	_, err := m.collection().InsertOne(ctx, user)
	if err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err):
			return ErrDuplicateEmail
		default:
			return err
		}
	}
	return nil
}

func (m UserModel) Get(ctx context.Context, id bson.ObjectID) (*User, error) {
	return m.findOne(ctx, bson.D{{Key: "_id", Value: id}}, nil)
}

func (m UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	return m.findOne(ctx, bson.D{{Key: "email", Value: email}}, nil)
}

// FirstAdmin returns the earliest created admin account.
func (m UserModel) FirstAdmin(ctx context.Context) (*User, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return m.findOne(ctx, bson.D{{Key: "is_admin", Value: true}}, opts)
}

func (m UserModel) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptionsBuilder) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var result *mongo.SingleResult
	if opts != nil {
		result = m.collection().FindOne(ctx, filter, opts)
	} else {
		result = m.collection().FindOne(ctx, filter)
	}

	var user User
	if err := result.Decode(&user); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &user, nil
}

// GetAll returns every user, oldest first.
func (m UserModel) GetAll(ctx context.Context) ([]*User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	users := []*User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update writes user back using the same optimistic version check as movies.
func (m UserModel) Update(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.D{
		{Key: "_id", Value: user.ID},
		{Key: "version", Value: user.Version},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "name", Value: user.Name},
			{Key: "email", Value: user.Email},
			{Key: "password_hash", Value: user.PasswordHash},
			{Key: "is_admin", Value: user.IsAdmin},
			{Key: "is_blocked", Value: user.IsBlocked},
			{Key: "favorite_genres", Value: user.FavoriteGenres},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
	}

	result, err := m.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		switch {
		case mongo.IsDuplicateKeyError(err):
			return ErrDuplicateEmail
		default:
			return err
		}
	}
	if result.MatchedCount == 0 {
		return ErrEditConflict
	}

	user.Version++
	return nil
}

// AddToWatchlist adds movieID to the user's watchlist unless already present
// and returns the resulting list.
func (m UserModel) AddToWatchlist(ctx context.Context, userID, movieID bson.ObjectID) ([]bson.ObjectID, error) {
	return m.changeWatchlist(ctx, userID, bson.D{{Key: "$addToSet", Value: bson.D{{Key: "watchlist", Value: movieID}}}})
}

// RemoveFromWatchlist removes movieID from the user's watchlist and returns
// the resulting list.
func (m UserModel) RemoveFromWatchlist(ctx context.Context, userID, movieID bson.ObjectID) ([]bson.ObjectID, error) {
	return m.changeWatchlist(ctx, userID, bson.D{{Key: "$pull", Value: bson.D{{Key: "watchlist", Value: movieID}}}})
}

func (m UserModel) changeWatchlist(ctx context.Context, userID bson.ObjectID, update bson.D) ([]bson.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user User
	err := m.collection().FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: userID}}, update, opts).Decode(&user)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	if user.Watchlist == nil {
		return []bson.ObjectID{}, nil
	}
	return user.Watchlist, nil
}
