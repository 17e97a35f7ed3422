package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hafizmfadli/cinescope/internal/auth"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/validator"
)

// maxFavoriteGenres is how many favorite genres a profile keeps. Longer
// lists are cut rather than rejected.
const maxFavoriteGenres = 10

func (app *application) sessionCookie(token string, expires time.Time) *http.Cookie {
	return auth.SessionCookie(token, expires, app.config.Secure())
}

func (app *application) clearSessionCookie() *http.Cookie {
	return auth.ClearCookie(app.config.Secure())
}

// startSession issues a token for user, sets the session cookie and returns
// the response body shared by registration and login.
func (app *application) startSession(w http.ResponseWriter, user *data.User) (envelope, error) {
	token, expires, err := app.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, app.sessionCookie(token, expires))

	return envelope{
		"user":       user,
		"token":      token,
		"expires_at": expires,
	}, nil
}

// registerUserHandler for the "POST /api/v1/users" endpoint.
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required,max=500"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = data.NormalizeEmail(input.Email)

	// The plaintext is checked here, before hashing. ValidateUser below only
	// sees the hash.
	v := validator.New()
	if v.Struct(input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user := &data.User{Name: input.Name, Email: input.Email}

	err = user.SetPassword(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if data.ValidateUser(v, user); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Users.Insert(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			v.AddError("email", "a user with this email address already exists")
			app.failedValidationResponse(w, r, v.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	env, err := app.startSession(w, user)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	mailData := map[string]any{
		"Name": user.Name,
		"ID":   user.ID.Hex(),
	}
	app.background(func() {
		err := app.mailer.Send(user.Email, "user_welcome.tmpl", mailData)
		if err != nil {
			app.logger.PrintError(err, map[string]string{"user_id": user.ID.Hex()})
		}
	})

	err = app.writeJSON(w, http.StatusCreated, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// loginUserHandler for the "POST /api/v1/users/login" endpoint.
func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	input.Email = data.NormalizeEmail(input.Email)

	v := validator.New()
	if v.Struct(input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	user, err := app.models.Users.GetByEmail(r.Context(), input.Email)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.invalidCredentialsResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	match, err := user.PasswordMatches(input.Password)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !match {
		app.invalidCredentialsResponse(w, r)
		return
	}

	if user.IsBlocked {
		app.blockedAccountResponse(w, r)
		return
	}

	env, err := app.startSession(w, user)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// logoutUserHandler for the "POST /api/v1/users/logout" endpoint.
func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, app.clearSessionCookie())

	err := app.writeJSON(w, http.StatusOK, envelope{"message": "logged out successfully"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showProfileHandler for the "GET /api/v1/users/profile" endpoint.
func (app *application) showProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	err := app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateProfileHandler for the "PUT /api/v1/users/profile" endpoint.
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	var input struct {
		Name           *string  `json:"name"`
		Email          *string  `json:"email"`
		Password       *string  `json:"password" validate:"omitnil,min=8,max=72"`
		FavoriteGenres []string `json:"favorite_genres"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if v.Struct(input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = data.NormalizeEmail(*input.Email)
	}
	if input.FavoriteGenres != nil {
		genres := data.CleanList(input.FavoriteGenres)
		if len(genres) > maxFavoriteGenres {
			genres = genres[:maxFavoriteGenres]
		}
		user.FavoriteGenres = genres
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	}

	if data.ValidateUser(v, user); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Users.Update(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			v.AddError("email", "a user with this email address already exists")
			app.failedValidationResponse(w, r, v.Errors)
		case errors.Is(err, data.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listUsersHandler for the "GET /api/v1/admin/users" endpoint.
func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := app.models.Users.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"users": users}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// blockUserHandler for the "PATCH /api/v1/admin/users/:id/block" endpoint.
// A newly blocked user is told by email.
func (app *application) blockUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundMessageResponse(w, r, "user")
		return
	}

	var input struct {
		IsBlocked *bool `json:"is_blocked" validate:"required"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if v.Struct(input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if id == app.contextGetUser(r).ID {
		app.badRequestResponse(w, r, errors.New("you cannot block your own account"))
		return
	}

	user, err := app.models.Users.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundMessageResponse(w, r, "user")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	newlyBlocked := *input.IsBlocked && !user.IsBlocked
	user.IsBlocked = *input.IsBlocked

	err = app.models.Users.Update(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	if newlyBlocked {
		email, mailData := user.Email, map[string]any{"Name": user.Name}
		app.background(func() {
			err := app.mailer.Send(email, "account_blocked.tmpl", mailData)
			if err != nil {
				app.logger.PrintError(err, map[string]string{"user_id": id.Hex()})
			}
		})
	}

	message := "user unblocked"
	if user.IsBlocked {
		message = "user blocked"
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": message, "user": user}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
