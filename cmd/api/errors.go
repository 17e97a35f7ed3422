package main

import (
	"fmt"
	"net/http"
)

// Messages shared by more than one response helper or asserted by clients.
const (
	msgServerError  = "the server encountered a problem and could not process your request"
	msgNotFound     = "the requested resource could not be found"
	msgEditConflict = "unable to update the record due to an edit conflict, please try again"
)

func (app *application) logError(r *http.Request, err error) {
	app.logger.PrintError(err, map[string]string{
		"request_method": r.Method,
		"request_url":    r.URL.String(),
		"request_id":     requestIDFromContext(r.Context()),
	})
}

// errorResponse writes {"error": message}. message is usually a string but
// validation failures pass their field map through unchanged.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if err := app.writeJSON(w, status, envelope{"error": message}, nil); err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs err and hides its detail from the client.
func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, msgServerError)
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, msgNotFound)
}

// notFoundMessageResponse names the missing thing, e.g. "movie not found".
func (app *application) notFoundMessageResponse(w http.ResponseWriter, r *http.Request, what string) {
	app.errorResponse(w, r, http.StatusNotFound, what+" not found")
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed,
		fmt.Sprintf("the %s method is not supported for this resource", r.Method))
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, fields)
}

func (app *application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusConflict, msgEditConflict)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

func (app *application) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, "invalid email or password")
}

// invalidAuthenticationTokenResponse covers tokens that are malformed, expired
// or point at a deleted user. The stale session cookie is cleared as well.
func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Add("Set-Cookie", app.clearSessionCookie().String())
	app.errorResponse(w, r, http.StatusUnauthorized, "not authorized, token failed")
}

// authenticationRequiredResponse is for anonymous requests to protected routes.
func (app *application) authenticationRequiredResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusUnauthorized, "not authorized, no token")
}

func (app *application) blockedAccountResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, "your account has been blocked")
}

func (app *application) notPermittedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, "not authorized as an admin")
}
