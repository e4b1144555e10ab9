package httputil

import (
	"context"
	"net/http"
)

type (
	userIDKey    struct{}
	requestIDKey struct{}
)

// WithUserID returns r with the authenticated user's id in its context
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID))
}

// GetUserID returns the authenticated user's id, or "" when auth is disabled
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey{}).(string)
	return userID
}

// WithRequestID returns r with id in its context
func WithRequestID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))
}

// GetRequestID returns the id assigned by the request ID middleware, or ""
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}
