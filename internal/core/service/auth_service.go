package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/core/ports"
	"github.com/taskbox/task-api/internal/token"
)

// TokenCodec abstracts the signed-token codec for the auth service.
type TokenCodec interface {
	IssueAccess(user *domain.User) (string, error)
	IssueRefresh(user *domain.User) (string, error)
	Verify(raw string) (*token.Claims, error)
}

// AuthService orchestrates registration, login, logout, and refresh by
// combining the credential store, token codec, and token registry.
type AuthService struct {
	users    ports.UserRepository
	registry ports.TokenRegistry
	codec    TokenCodec
	log      zerolog.Logger
}

func NewAuthService(users ports.UserRepository, registry ports.TokenRegistry, codec TokenCodec, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, registry: registry, codec: codec, log: log}
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Uniqueness is enforced by the store's indexes, not by a pre-check, so
	// two racing registrations with the same email cannot both commit.
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokenPair(ctx, created, now)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same error as a bad password, to prevent user enumeration.
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	// Prior sessions stay valid: login on a second device must not log the
	// first one out. Only Logout revokes.
	now := time.Now().UTC()
	result, err := s.issueTokenPair(ctx, user, now)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	return result, nil
}

// Logout revokes every token of the owning user, across both kinds. The
// presented token only identifies whom to log out; if it cannot be verified
// the client is already effectively logged out, so that is still a success.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		s.log.Debug().Msg("logout with unverifiable token, nothing to revoke")
		return nil
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil
	}

	if err := s.registry.RevokeAll(ctx, userID, ""); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", userID).Msg("all sessions revoked")
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.RefreshResult, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	if claims.TokenKind() != domain.TokenKindRefresh {
		return nil, domain.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	// The signature may still check out, but the registry is authoritative
	// for revocation: a revoked or swept refresh token is dead.
	now := time.Now().UTC()
	row, err := s.registry.FindValid(ctx, refreshToken, now)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrInvalidToken
	}

	// Only a new access token is issued; the refresh token is not rotated.
	accessToken, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	if _, err := s.registry.Record(ctx, user.ID, accessToken, domain.TokenKindAccess, now); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("access token refreshed")
	return &ports.RefreshResult{AccessToken: accessToken}, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User, now time.Time) (*ports.AuthResult, error) {
	accessToken, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, err := s.codec.IssueRefresh(user)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if _, err := s.registry.Record(ctx, user.ID, accessToken, domain.TokenKindAccess, now); err != nil {
		return nil, err
	}
	if _, err := s.registry.Record(ctx, user.ID, refreshToken, domain.TokenKindRefresh, now); err != nil {
		return nil, err
	}

	return &ports.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
