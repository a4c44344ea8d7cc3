package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/model"
	"github.com/sakif/snippets/internal/repository"
	"github.com/sakif/snippets/internal/serializer"
)

// AuthService handles the authentication business logic:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It never touches cookies or requests; the handler owns those.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Login checks a username/password pair and issues a token.
//
// An unknown username and a wrong password produce the same error, so the
// response doesn't reveal which usernames exist.
func (s *AuthService) Login(ctx context.Context, in *serializer.LoginInput) (*AuthResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, *in.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, badCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", *in.Username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, *in.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn("failed login", slog.String("username", user.Username))
			return nil, badCredentials()
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return s.issue(user, "password")
}

func badCredentials() error {
	return apperror.ValidationFailed(apperror.NonFieldErrors, serializer.MsgBadCredentials)
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback.
//
//  1. If a user is already linked to this GitHub account, sign them in.
//  2. Otherwise create one. The GitHub login becomes the username; if that
//     is taken by someone else, the GitHub id is appended to keep it unique.
//  3. Issue a JWT for the user.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.ID == 0 {
		return nil, fmt.Errorf("service/auth: GitHub user must not be empty")
	}

	user, err := s.users.GetUserByGitHubID(ctx, ghUser.ID)
	switch {
	case err == nil:
		return s.issue(user, "github")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: finding GitHub user %d: %w", ghUser.ID, err)
	}

	username, err := s.freeUsername(ctx, ghUser)
	if err != nil {
		return nil, err
	}

	user = &model.User{
		Username: username,
		Email:    ghUser.Email,
		GitHubID: ghUser.ID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user for GitHub %d: %w", ghUser.ID, err)
	}

	s.logger.Info("user registered via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issue(user, "github")
}

func (s *AuthService) freeUsername(ctx context.Context, ghUser *auth.GitHubUser) (string, error) {
	candidates := []string{
		ghUser.Login,
		ghUser.Login + "-" + strconv.FormatInt(ghUser.ID, 10),
	}
	for _, name := range candidates {
		if name == "" || name[0] == '-' {
			continue
		}
		taken, err := s.users.UsernameTaken(ctx, name, 0)
		if err != nil {
			return "", fmt.Errorf("service/auth: checking username %q: %w", name, err)
		}
		if !taken {
			return name, nil
		}
	}
	return "", fmt.Errorf("service/auth: no free username for GitHub user %d", ghUser.ID)
}

func (s *AuthService) issue(user *model.User, method string) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.Int64("userID", user.ID),
		slog.String("method", method),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user behind a validated token (GET /auth/me).
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// ValidateToken validates a JWT string and returns the userID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (int64, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return 0, fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}
