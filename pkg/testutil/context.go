package testutil

import (
	"context"
	"net/http"

	"notaria/pkg/domain"
	"notaria/pkg/requestcontext"
)

// WithPrincipal adds an authenticated principal to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID or the role is unknown, the request is returned unchanged.
func WithPrincipal(req *http.Request, userID, role string) *http.Request {
	parsedUserID, err := domain.ParseUserID(userID)
	if err != nil {
		return req
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithPrincipal(req.Context(), domain.Principal{ID: parsedUserID, Role: parsedRole})
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
