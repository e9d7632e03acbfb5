package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/communities/internal/apperror"
	"github.com/sakif/communities/internal/model"
	"github.com/sakif/communities/internal/response"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so no other package
// can read or shadow the signed-in user stored in the request context.
type contextKey string

const userKey contextKey = "user"

// UserLookup resolves the subject of a verified token to a user record.
// repository.UserRepository satisfies it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, validates
// it, loads the user it names and stores that user in the request context. A
// missing, malformed, expired or forged token, or one whose user no longer
// exists, gets a 401 NOT_SIGNEDIN envelope and stops the chain.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			if err != nil {
				if !errors.Is(err, errNoIdentity) {
					// Lookup failed for a reason other than a bad token.
					response.Error(w, r, logger, err)
					return
				}
				response.NotSignedIn(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the signed-in user from the request context.
//
// Returns (nil, false) if the request is anonymous.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// errNoIdentity covers every way a request can fail to identify a user.
var errNoIdentity = errors.New("auth: no identity")

func authenticate(r *http.Request, tokens *TokenService, users UserLookup) (*model.User, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, errNoIdentity
	}

	userID, err := tokens.Validate(raw)
	if err != nil {
		return nil, errNoIdentity
	}

	user, err := users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errNoIdentity
		}
		return nil, err
	}
	return user, nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
