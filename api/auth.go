/*
auth.go - Accounts, tokens and the auth middleware

PURPOSE:
  Registration and login endpoints plus the Bearer token middleware that
  scopes every tracker endpoint to one user.

TOKENS:
  HS256 JWT with claims {uid, name, exp}. A token close to expiry is
  renewed on use and the new one returned in the X-New-Token header.

PASSWORDS:
  bcrypt hashes, never stored or logged in clear.

SEE ALSO:
  - server.go: which routes are protected
  - store/sqlite/sqlite.go: CreateUser writes the default ProfileTarget
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warp/job-tracker/tracker"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 150
)

// =============================================================================
// AUTHENTICATOR
// =============================================================================

// Authenticator issues and verifies user tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims is what a verified token says about its bearer.
type Claims struct {
	UserID    tracker.UserID
	Username  string
	ExpiresAt time.Time
}

// IssueToken signs a token for the user.
func (a *Authenticator) IssueToken(userID tracker.UserID, username string) (string, time.Time, error) {
	expires := a.now().Add(a.ttl)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  int64(userID),
		"name": username,
		"exp":  expires.Unix(),
	}).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expires, nil
}

// ParseToken verifies signature and expiry.
func (a *Authenticator) ParseToken(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return nil, tracker.ErrUnauthorized
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, tracker.ErrUnauthorized
	}
	uid, ok := mc["uid"].(float64)
	if !ok || uid <= 0 {
		return nil, tracker.ErrUnauthorized
	}
	name, _ := mc["name"].(string)
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, tracker.ErrUnauthorized
	}
	return &Claims{UserID: tracker.UserID(uid), Username: name, ExpiresAt: exp.Time}, nil
}

type contextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// UserFrom returns the authenticated user of the request.
func UserFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

// Middleware rejects requests without a valid Bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		claims, err := a.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}

		// Renew when less than a quarter of the lifetime is left.
		if claims.ExpiresAt.Sub(a.now()) < a.ttl/4 {
			if renewed, _, err := a.IssueToken(claims.UserID, claims.Username); err == nil {
				w.Header().Set("X-New-Token", renewed)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
	})
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ValidateCredentials checks the shape of a new username and password.
func ValidateCredentials(username, password string) error {
	if username == "" || len(username) > maxUsernameLength {
		return &tracker.ValidationError{Field: "username", Message: fmt.Sprintf("username must be 1 to %d characters", maxUsernameLength)}
	}
	if len(password) < minPasswordLength {
		return &tracker.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	return nil
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates an account with the default profile target.
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := ValidateCredentials(req.Username, req.Password); err != nil {
		writeDomainError(w, "Registration failed", err)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed", err)
		return
	}
	user, err := h.Store.CreateUser(r.Context(), req.Username, hash)
	if err != nil {
		writeDomainError(w, "Registration failed", err)
		return
	}

	h.logger(r).WithField("user_id", user.ID).Info("user registered")
	h.writeToken(w, http.StatusCreated, user.ID, user.Username)
}

// Login exchanges a username and password for a token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}
	// Same response for unknown user and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.logger(r).WithField("username", req.Username).Warn("login rejected")
		writeError(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}

	h.writeToken(w, http.StatusOK, user.ID, user.Username)
}

func (h *Handler) writeToken(w http.ResponseWriter, status int, userID tracker.UserID, username string) {
	token, expires, err := h.Auth.IssueToken(userID, username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, status, TokenResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		UserID:    int64(userID),
		Username:  username,
	})
}

// currentUser returns the authenticated user id; the middleware guarantees one.
func currentUser(r *http.Request) tracker.UserID {
	c, ok := UserFrom(r.Context())
	if !ok {
		return 0
	}
	return c.UserID
}
