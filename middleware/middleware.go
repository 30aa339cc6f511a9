package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type contextKey string

const (
	userIDKey  contextKey = "userId"
	isAdminKey contextKey = "isAdmin"
)

const accessTokenTTL = 7 * 24 * time.Hour

// Claims carried in the access token.
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenChecker reports whether a token has been revoked before its expiry.
type TokenChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Auth verifies bearer tokens and stamps the caller's identity into the
// request context. Handlers read it back with UserID and IsAdmin.
type Auth struct {
	Secret  []byte
	Revoked TokenChecker
}

func NewAuth(secret string, revoked TokenChecker) *Auth {
	return &Auth{Secret: []byte(secret), Revoked: revoked}
}

// NewToken issues a signed access token for the given identity.
func (a *Auth) NewToken(userID, email, name string, isAdmin bool) (string, error) {
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		Name:    name,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// ParseToken validates a raw token string and returns its claims.
func (a *Auth) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return a.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// rawToken extracts the bearer token. Browser WebSocket clients cannot set
// headers, so upgrade requests may carry the token as a query parameter
// instead.
func rawToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return header[7:]
	}
	if websocket.IsWebSocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}
	return ""
}

func (a *Auth) parse(r *http.Request) (*Claims, string, bool) {
	raw := rawToken(r)
	if raw == "" {
		return nil, "", false
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return a.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, "", false
	}
	return claims, raw, true
}

// Authenticate rejects requests without a valid bearer token.
func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		claims, raw, ok := a.parse(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if a.Revoked != nil {
			if revoked, err := a.Revoked.IsRevoked(r.Context(), raw); err == nil && revoked {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, isAdminKey, claims.IsAdmin)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireAdmin rejects authenticated non-admin callers. Must be wrapped
// inside Authenticate.
func (a *Auth) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return a.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !IsAdmin(r) {
			http.Error(w, "Access denied", http.StatusForbidden)
			return
		}
		next(w, r, ps)
	})
}

// UserID returns the authenticated caller's id, or "" when the request
// carried no valid token.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func IsAdmin(r *http.Request) bool {
	admin, _ := r.Context().Value(isAdminKey).(bool)
	return admin
}
