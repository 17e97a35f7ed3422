package main

import (
	"context"
	"net/http"

	"github.com/hafizmfadli/cinescope/internal/data"
)

// contextKey is a custom type so our keys can't collide with keys set by
// other packages.
type contextKey string

const (
	userContextKey      = contextKey("user")
	requestIDContextKey = contextKey("request_id")
	routeContextKey     = contextKey("route")
)

// contextSetUser returns a new copy of the request with the provided User
// struct added to the context.
func (app *application) contextSetUser(r *http.Request, user *data.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

// contextGetUser retrieves the User struct from the request context. The only
// time we'll use this helper is when we logically expect there to be User
// struct value in the context, and if it doesn't exist it will firmly be an
// 'unexpected' error, so we panic.
func (app *application) contextGetUser(r *http.Request) *data.User {
	user, ok := r.Context().Value(userContextKey).(*data.User)
	if !ok {
		panic("missing user value in request context")
	}

	return user
}

func contextSetRequestID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestIDContextKey, id))
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// routeHolder is placed in the context by the metrics middleware and filled
// in by app.handle once the router has matched a pattern.
type routeHolder struct {
	pattern string
}

func contextSetRouteHolder(r *http.Request, h *routeHolder) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), routeContextKey, h))
}

func routeHolderFromContext(ctx context.Context) *routeHolder {
	h, _ := ctx.Value(routeContextKey).(*routeHolder)
	return h
}
