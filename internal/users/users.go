// Package users covers accounts, sessions, and profiles: email/password
// sign-up and sign-in, opaque session tokens with a TTL, and one mutable
// profile per identity created with defaults on first sign-in.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/umbrella-forecast/backend/internal/store"
)

const (
	credentialsCollection = "credentials"
	profilesCollection    = "users"
	sessionsCollection    = "sessions"

	// minPasswordLen matches the upstream auth provider's rule.
	minPasswordLen = 6
)

var (
	// ErrEmailInUse is returned by SignUp for an already-registered email.
	ErrEmailInUse = errors.New("email is already registered")

	// ErrInvalidCredentials is returned by SignIn when the email is unknown
	// or the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword is returned by SignUp for passwords under six characters.
	ErrWeakPassword = errors.New("password must be at least 6 characters")

	// ErrInvalidSession is returned by Authenticate for unknown or expired tokens.
	ErrInvalidSession = errors.New("invalid or expired session")
)

// Default profile values assigned on first sign-in.
const (
	DefaultUsername     = "新しいユーザー"
	DefaultIntroduction = "自己紹介文をこちらに記入してください。"
	DefaultImageURL     = "/icons/default.png"
)

// Profile is the user-visible identity document.
type Profile struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	SelfIntroduction string `json:"selfIntroduction"`
	ImageURL         string `json:"imageUrl"`
}

// Session is an authenticated login: an opaque token tied to a user id.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type credentials struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"passwordHash"`
}

// Service implements account and profile operations on the document store.
type Service struct {
	store      store.Documents
	clock      clockwork.Clock
	logger     *slog.Logger
	sessionTTL time.Duration
}

// NewService creates a users Service. A nil clock falls back to real time.
func NewService(docs store.Documents, clock clockwork.Clock, logger *slog.Logger, sessionTTL time.Duration) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: docs, clock: clock, logger: logger, sessionTTL: sessionTTL}
}

// SignUp registers a new account, creates its default profile, and opens
// a session.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Session{}, ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return Session{}, ErrWeakPassword
	}

	var existing credentials
	err := s.store.Get(ctx, credentialsCollection, email, &existing)
	if err == nil {
		return Session{}, ErrEmailInUse
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Session{}, fmt.Errorf("check account %q: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	cred := credentials{UserID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := s.store.Set(ctx, credentialsCollection, email, cred, 0); err != nil {
		return Session{}, fmt.Errorf("store account %q: %w", email, err)
	}

	if _, err := s.Profile(ctx, cred.UserID); err != nil {
		return Session{}, err
	}

	s.logger.Info("account created", "user_id", cred.UserID)
	return s.openSession(ctx, cred.UserID)
}

// SignIn verifies the password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	var cred credentials
	err := s.store.Get(ctx, credentialsCollection, email, &cred)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load account %q: %w", email, err)
	}

	if bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	// First sign-in on an imported account still gets a default profile.
	if _, err := s.Profile(ctx, cred.UserID); err != nil {
		return Session{}, err
	}

	return s.openSession(ctx, cred.UserID)
}

// SignOut deletes the session. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.store.Delete(ctx, sessionsCollection, token)
}

// Authenticate resolves a session token to a user id.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}

	var sess Session
	err := s.store.Get(ctx, sessionsCollection, token, &sess)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidSession
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if s.clock.Now().After(sess.ExpiresAt) {
		return "", ErrInvalidSession
	}
	return sess.UserID, nil
}

// Profile returns the user's profile, creating it with defaults on first
// access.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.store.Get(ctx, profilesCollection, userID, &p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Profile{}, fmt.Errorf("load profile %q: %w", userID, err)
	}

	p = Profile{
		ID:               userID,
		Username:         DefaultUsername,
		SelfIntroduction: DefaultIntroduction,
		ImageURL:         DefaultImageURL,
	}
	if err := s.store.Set(ctx, profilesCollection, userID, p, 0); err != nil {
		return Profile{}, fmt.Errorf("create profile %q: %w", userID, err)
	}
	s.logger.Info("profile created with defaults", "user_id", userID)
	return p, nil
}

// SaveProfile merges non-empty fields of the update into the stored
// profile. The caller must have verified ownership: the update's ID
// selects the document.
func (s *Service) SaveProfile(ctx context.Context, update Profile) (Profile, error) {
	current, err := s.Profile(ctx, update.ID)
	if err != nil {
		return Profile{}, err
	}

	if update.Username != "" {
		current.Username = update.Username
	}
	if update.SelfIntroduction != "" {
		current.SelfIntroduction = update.SelfIntroduction
	}
	if update.ImageURL != "" {
		current.ImageURL = update.ImageURL
	}

	if err := s.store.Set(ctx, profilesCollection, update.ID, current, 0); err != nil {
		return Profile{}, fmt.Errorf("save profile %q: %w", update.ID, err)
	}
	return current, nil
}

func (s *Service) openSession(ctx context.Context, userID string) (Session, error) {
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.clock.Now().Add(s.sessionTTL),
	}
	if err := s.store.Set(ctx, sessionsCollection, sess.Token, sess, s.sessionTTL); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
