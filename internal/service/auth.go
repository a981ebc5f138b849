package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/auth"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository"
)

// Registration rules.
const (
	MinUsernameLength          = 3
	MaxUsernameLength          = 20
	MinPasswordLength          = 4
	MaxRegistrationDisplayName = 50
)

// Messages shown to the user on the sign-in page.
const (
	MsgFieldsRequired     = "All fields are required"
	MsgUsernameLength     = "Username must be 3-20 characters"
	MsgPasswordLength     = "Password must be at least 4 characters"
	MsgPasswordTooLong    = "Password must be 72 bytes or less"
	MsgDisplayNameLength  = "Display name must be 50 characters or less"
	MsgUsernameTaken      = "Username already taken"
	MsgInvalidCredentials = "Invalid username or password"
	MsgGitHubNotLinked    = "No account is linked to this GitHub login yet. Sign in and link it from your profile."
)

// AuthService registers users, checks credentials and issues session tokens.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → sign session JWTs
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

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

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
}

// NormalizeUsername trims and lowercases a username the way it is stored.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register validates the form and creates the account.
//
// VALIDATION ORDER matters because only the first failure is reported:
// missing fields, username length, password length, display name length,
// then the uniqueness check.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := NormalizeUsername(in.Username)
	displayName := strings.TrimSpace(in.DisplayName)

	if username == "" || in.Password == "" || displayName == "" {
		return nil, apperror.ValidationFailed("", MsgFieldsRequired)
	}
	if n := utf8.RuneCountInString(username); n < MinUsernameLength || n > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username", MsgUsernameLength)
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", MsgPasswordLength)
	}
	if utf8.RuneCountInString(displayName) > MaxRegistrationDisplayName {
		return nil, apperror.ValidationFailed("display_name", MsgDisplayNameLength)
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperror.Conflict("username", MsgUsernameTaken)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", MsgPasswordTooLong)
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	u := &model.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		ColorTheme:   model.DefaultColorTheme,
		PawStyle:     model.DefaultPawStyle,
	}
	// The repository reports a concurrent registration of the same name as
	// a conflict too, so that race ends with the same message.
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", u.ID),
		slog.String("username", u.Username),
	)
	return u, nil
}

// Login checks a username/password pair. Any mismatch, including an unknown
// username, yields the same unauthorized error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetUserByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	if err := s.passwords.Verify(u.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	at := utcNow()
	if err := s.users.TouchLastActive(ctx, u.ID, at); err != nil {
		return nil, fmt.Errorf("service/auth: touching last_active: %w", err)
	}
	u.LastActive = at

	s.logger.Info("user logged in", slog.Int64("userID", u.ID))
	return u, nil
}

// LoginWithGitHub finishes the GitHub callback.
//
//   - GitHub id already linked: sign that user in (currentUserID must be 0
//     or the same user).
//   - Not linked, caller signed in: link it to the caller.
//   - Not linked, anonymous caller: unauthorized. Accounts are only created
//     through the registration form.
func (s *AuthService) LoginWithGitHub(ctx context.Context, currentUserID int64, gh *auth.GitHubUser) (*model.User, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	linked, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	switch {
	case err == nil:
		if currentUserID != 0 && currentUserID != linked.ID {
			return nil, apperror.Conflict("github_id", "GitHub account is already linked to another user")
		}
		if err := s.users.TouchLastActive(ctx, linked.ID, utcNow()); err != nil {
			return nil, fmt.Errorf("service/auth: touching last_active: %w", err)
		}
		s.logger.Info("user logged in via GitHub",
			slog.Int64("userID", linked.ID),
			slog.String("githubLogin", gh.Login),
		)
		return linked, nil
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up GitHub link: %w", err)
	}

	if currentUserID == 0 {
		return nil, apperror.Unauthorized(MsgGitHubNotLinked)
	}

	if err := s.users.LinkGitHub(ctx, currentUserID, gh.ID); err != nil {
		return nil, err
	}
	u, err := s.users.GetUserByID(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: reloading user %d: %w", currentUserID, err)
	}

	s.logger.Info("GitHub account linked",
		slog.Int64("userID", u.ID),
		slog.String("githubLogin", gh.Login),
	)
	return u, nil
}

// IssueSession signs a session token for userID.
func (s *AuthService) IssueSession(userID int64) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %d: %w", userID, err)
	}
	return token, nil
}

// ValidateSession returns the user id a session token was issued for.
func (s *AuthService) ValidateSession(token string) (int64, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return 0, fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}
