package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type contextKey string

const identityKey contextKey = "identity"

// Claims are the JWT claims issued to customers and staff
type Claims struct {
	Role          string `json:"role,omitempty"`
	InstitutionID string `json:"institution_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a request
type Identity struct {
	UserID        string
	Role          string
	InstitutionID string
}

// Authenticator validates bearer tokens signed with a shared HMAC secret
type Authenticator struct {
	secret     []byte
	staffRoles map[string]struct{}
}

// NewAuthenticator creates an authenticator. staffRoles lists the roles allowed on staff routes.
func NewAuthenticator(secret string, staffRoles []string) *Authenticator {
	roles := make(map[string]struct{}, len(staffRoles))
	for _, role := range staffRoles {
		roles[strings.TrimSpace(role)] = struct{}{}
	}
	return &Authenticator{secret: []byte(secret), staffRoles: roles}
}

// WithIdentity returns a copy of ctx carrying id. The request logger, when
// present, is tagged with the user so access logs can be attributed.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("user_id", id.UserID)
	})
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller identity, if any
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// UserIDFromContext returns the caller's user id or an empty string
func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func (a *Authenticator) parse(r *http.Request) (Identity, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Identity{}, false, nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, true, jwt.ErrTokenMalformed
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Identity{}, true, err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return Identity{}, true, jwt.ErrTokenInvalidClaims
	}

	return Identity{UserID: subject, Role: claims.Role, InstitutionID: claims.InstitutionID}, true, nil
}

// Optional attaches the caller identity when a valid token is present. Requests
// without a token pass through anonymously; invalid tokens are rejected.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, present, err := a.parse(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if present {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, present, err := a.parse(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if !present {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireStaff rejects requests whose caller does not hold a staff role
func (a *Authenticator) RequireStaff(next http.Handler) http.Handler {
	return a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		if _, ok := a.staffRoles[id.Role]; !ok {
			writeError(w, http.StatusForbidden, "staff role required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
