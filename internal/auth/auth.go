// Package auth provides operator login against a static credential list.
// This authenticates operators of the local agent only; message origin is
// deliberately unauthenticated.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrkrexx/404AI/internal/storage"
)

// ErrInvalidCredentials is returned for unknown users or bad passwords.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is an operator account.
type User struct {
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	Role         string `json:"role"`
	passwordHash []byte
}

// Session is an authenticated operator session.
type Session struct {
	Token     string    `json:"token"` // UUIDv7
	User      User      `json:"user"`
	LoginTime time.Time `json:"loginTime"`
}

// OperatorStats tracks per-operator activity, persisted in the shared
// store under "stats:<username>".
type OperatorStats struct {
	MessagesAnswered int        `json:"messagesAnswered"`
	SessionsCount    int        `json:"sessionsCount"`
	LastSession      *time.Time `json:"lastSession,omitempty"`
}

// Credential pairs a username with a plaintext password for seeding the
// service. Passwords are hashed with bcrypt at construction and the
// plaintext is not retained.
type Credential struct {
	Username    string
	Password    string
	DisplayName string
	Role        string
}

// DefaultCredentials mirror the original operator roster. Deployments
// override these through configuration.
func DefaultCredentials() []Credential {
	return []Credential{
		{Username: "admin", Password: "admin123", DisplayName: "Администратор", Role: "admin"},
		{Username: "operator", Password: "operator123", DisplayName: "Оператор", Role: "operator"},
		{Username: "support", Password: "support123", DisplayName: "Служба поддержки", Role: "support"},
	}
}

// Service performs credential lookups and keeps operator stats.
type Service struct {
	users  map[string]User
	store  *storage.Adapter
	logger zerolog.Logger
}

// NewService builds a service from the given credentials. Store may be
// nil; operator stats are then kept out of persistence.
func NewService(creds []Credential, store *storage.Adapter, logger zerolog.Logger) (*Service, error) {
	users := make(map[string]User, len(creds))
	for _, c := range creds {
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		users[c.Username] = User{
			Username:     c.Username,
			DisplayName:  c.DisplayName,
			Role:         c.Role,
			passwordHash: hash,
		}
	}
	return &Service{users: users, store: store, logger: logger}, nil
}

// Login checks username/password and opens a session. The session count
// in the operator's stats is bumped on success.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, ok := s.users[username]
	if !ok {
		// Burn a comparison anyway so unknown users cost the same.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000"), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	session := &Session{
		Token:     uuid.Must(uuid.NewV7()).String(),
		User:      user,
		LoginTime: now,
	}

	stats := s.Stats(ctx, username)
	stats.SessionsCount++
	stats.LastSession = &now
	s.saveStats(ctx, username, stats)

	s.logger.Info().Str("username", username).Str("role", user.Role).Msg("operator logged in")
	return session, nil
}

// Stats returns the operator's stats, zero-valued when absent.
func (s *Service) Stats(ctx context.Context, username string) OperatorStats {
	var stats OperatorStats
	if s.store != nil {
		s.store.Load(ctx, statsKey(username), &stats)
	}
	return stats
}

// RecordAnswer bumps the operator's answered-message counter.
func (s *Service) RecordAnswer(ctx context.Context, username string) {
	stats := s.Stats(ctx, username)
	stats.MessagesAnswered++
	s.saveStats(ctx, username, stats)
}

func (s *Service) saveStats(ctx context.Context, username string, stats OperatorStats) {
	if s.store != nil {
		s.store.Save(ctx, statsKey(username), stats)
	}
}

func statsKey(username string) string {
	return "stats:" + username
}
