package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"haven-backend/internal/models"
	"haven-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestWindow and RequestLimit bound how many login links one address
	// may request.
	RequestWindow = 10 * time.Minute
	RequestLimit  = 5
)

var (
	ErrEmailRequired = errors.New("email is required")
	ErrRateLimited   = errors.New("too many login requests")
	ErrUnknownToken  = errors.New("unknown login token")
	ErrTokenExpired  = errors.New("login token has expired")
	ErrTokenUsed     = errors.New("login token has already been used")
)

// LinkSender delivers a login link to an address.
type LinkSender interface {
	SendLoginLink(ctx context.Context, to, link string) error
}

// Session is a signed-in user and the bearer token for their requests.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// MagicLinks issues single-use email login tokens and trades them for sessions.
type MagicLinks struct {
	tokens *repository.AuthTokenRepo
	users  *repository.UserRepo
	issuer *Issuer
	sender LinkSender
	ttl    time.Duration
	logger *zap.Logger
}

func NewMagicLinks(tokens *repository.AuthTokenRepo, users *repository.UserRepo, issuer *Issuer,
	sender LinkSender, ttl time.Duration, logger *zap.Logger) *MagicLinks {
	return &MagicLinks{tokens: tokens, users: users, issuer: issuer, sender: sender, ttl: ttl, logger: logger}
}

// Request stores a login token for email and sends the link linkFor builds
// from it. delivered is false when sending failed; the token stays usable.
func (m *MagicLinks) Request(ctx context.Context, email string, linkFor func(token string) string) (delivered bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, ErrEmailRequired
	}

	recent, err := m.tokens.CountRecentByEmail(ctx, email, RequestWindow)
	if err != nil {
		return false, fmt.Errorf("count recent login tokens: %w", err)
	}
	if recent >= RequestLimit {
		return false, ErrRateLimited
	}

	token := &models.AuthToken{
		Email:     email,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(m.ttl),
	}
	if err := m.tokens.Create(ctx, token); err != nil {
		return false, fmt.Errorf("store login token: %w", err)
	}

	if err := m.sender.SendLoginLink(ctx, email, linkFor(token.Token)); err != nil {
		m.logger.Error("login link delivery failed", zap.String("email", email), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Verify consumes token and opens a session for its address, creating the
// user on first login.
func (m *MagicLinks) Verify(ctx context.Context, token string) (*Session, error) {
	stored, err := m.tokens.FindByToken(ctx, token)
	switch {
	case err != nil:
		return nil, fmt.Errorf("find login token: %w", err)
	case stored == nil:
		return nil, ErrUnknownToken
	case stored.IsExpired():
		return nil, ErrTokenExpired
	case stored.IsUsed:
		return nil, ErrTokenUsed
	}

	claimed, err := m.tokens.MarkUsed(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("consume login token: %w", err)
	}
	if !claimed {
		// a concurrent request consumed it after our read
		return nil, ErrTokenUsed
	}
	user, err := m.users.FindOrCreate(ctx, stored.Email)
	if err != nil {
		return nil, err
	}
	signed, err := m.issuer.GenerateToken(user.UserID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	m.logger.Info("user logged in", zap.String("user_id", user.UserID))
	return &Session{Token: signed, User: user}, nil
}
