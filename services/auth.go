package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cafe-order/metrics"
	"cafe-order/models"
	"cafe-order/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultTokenTTL = 24 * time.Hour

type AuthOptions struct {
	TokenTTL   time.Duration
	BcryptCost int
	Now        func() time.Time
	Log        *slog.Logger
	Metrics    *metrics.Metrics
}

// AuthService issues and checks admin tokens. Tokens are HS256 JWTs with the
// username as subject and an absolute expiry. There is no revocation list:
// every authenticated request re-checks that the admin still exists.
type AuthService struct {
	admins   store.AdminStore
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
	throttle *LoginThrottle
	log      *slog.Logger
	metrics  *metrics.Metrics

	dummyOnce sync.Once
	dummyHash []byte
}

// AuthStore is what AuthService needs from persistence.
type AuthStore interface {
	store.AdminStore
	store.ThrottleStore
}

func NewAuthService(st AuthStore, secret string, opts AuthOptions) *AuthService {
	s := &AuthService{
		admins:  st,
		secret:  []byte(secret),
		ttl:     opts.TokenTTL,
		cost:    opts.BcryptCost,
		now:     opts.Now,
		log:     opts.Log,
		metrics: opts.Metrics,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.throttle = NewLoginThrottle(st, s.now)
	return s
}

// HashPassword returns a bcrypt hash at the service's cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// burnCompare spends a bcrypt comparison so unknown usernames cost the same
// as wrong passwords.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// Login checks the password and returns a signed token (do not log password).
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", invalid("", "username and password are required")
	}
	wait, err := s.throttle.Wait(ctx, username)
	if err != nil {
		return "", fmt.Errorf("login throttle: %w", err)
	}
	if wait > 0 {
		s.metrics.LoginAttempt("throttled")
		return "", &ThrottleError{RetryAfter: ceilSeconds(wait)}
	}

	u, err := s.admins.GetAdminByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("get admin: %w", err)
		}
		s.burnCompare(password)
		s.failLogin(ctx, username)
		return "", errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.failLogin(ctx, username)
		return "", errInvalidCredentials
	}

	if err := s.throttle.RecordSuccess(ctx, username); err != nil {
		s.log.Warn("reset login throttle", "username", username, "error", err)
	}
	s.metrics.LoginAttempt("ok")
	s.log.Info("admin logged in", "username", username)
	return s.IssueToken(username)
}

func (s *AuthService) failLogin(ctx context.Context, username string) {
	if err := s.throttle.RecordFailed(ctx, username); err != nil {
		s.log.Warn("record login failure", "username", username, "error", err)
	}
	s.metrics.LoginAttempt("failed")
	s.log.Warn("admin login failed", "username", username)
}

// IssueToken signs a token for subject valid for the configured TTL.
func (s *AuthService) IssueToken(subject string) (string, error) {
	return s.issue(subject, s.now().Add(s.ttl))
}

func (s *AuthService) issue(subject string, expiresAt time.Time) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry only and returns the subject.
func (s *AuthService) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}

// Authenticate verifies the token and then confirms the admin still exists,
// so deleting an admin locks them out before their token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	username, err := s.Verify(token)
	if err != nil {
		return "", err
	}
	if _, err := s.admins.GetAdminByUsername(ctx, username); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errUnknownAdmin
		}
		return "", fmt.Errorf("get admin: %w", err)
	}
	return username, nil
}

// CreateAdmin stores a new admin with a hashed password.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "is required")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.AdminUser{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.admins.InsertAdmin(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, invalid("username", "already exists")
		}
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return u, nil
}

// RemoveAdmin deletes the admin; outstanding tokens stop working at once.
func (s *AuthService) RemoveAdmin(ctx context.Context, username string) error {
	if err := s.admins.DeleteAdmin(ctx, username); err != nil {
		return notFound(err, "admin", username, "delete admin")
	}
	return nil
}
