package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository"
)

var colorThemePattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// UserService covers profiles, per-user counters and presence timestamps.
type UserService struct {
	users  repository.UserRepository
	boops  repository.BoopRepository
	badges *BadgeService
	limits Limits
	logger *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	boops repository.BoopRepository,
	badges *BadgeService,
	limits Limits,
	logger *slog.Logger,
) *UserService {
	return &UserService{users: users, boops: boops, badges: badges, limits: limits, logger: logger}
}

// Get returns the user or an apperror.ErrNotFound.
func (s *UserService) Get(ctx context.Context, userID int64) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetUserByUsername(ctx, NormalizeUsername(username))
}

// List returns everyone except excludeID, most recently active first.
func (s *UserService) List(ctx context.Context, excludeID int64) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx, excludeID)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies the non-empty fields of upd and returns the fresh
// record.
//
// FIELD RULES:
//   - display_name: ignored when blank, trimmed, capped by MaxDisplayNameLength
//   - tagline:      applied whenever present, even as "", capped by MaxTaglineLength
//   - color_theme:  ignored when blank, must look like #RRGGBB
//   - paw_style:    ignored when blank, must be a catalog paw the user has unlocked
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, upd model.ProfileUpdate) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var clean model.ProfileUpdate

	if upd.DisplayName != nil {
		if name := strings.TrimSpace(*upd.DisplayName); name != "" {
			if utf8.RuneCountInString(name) > s.limits.MaxDisplayNameLength {
				return nil, apperror.ValidationFailed("display_name",
					fmt.Sprintf("Display name must be %d characters or less", s.limits.MaxDisplayNameLength))
			}
			clean.DisplayName = &name
		}
	}

	if upd.Tagline != nil {
		tagline := strings.TrimSpace(*upd.Tagline)
		if utf8.RuneCountInString(tagline) > s.limits.MaxTaglineLength {
			return nil, apperror.ValidationFailed("tagline",
				fmt.Sprintf("Tagline must be %d characters or less", s.limits.MaxTaglineLength))
		}
		clean.Tagline = &tagline
	}

	if upd.ColorTheme != nil && *upd.ColorTheme != "" {
		if !colorThemePattern.MatchString(*upd.ColorTheme) {
			return nil, apperror.ValidationFailed("color_theme", "Color theme must look like #RRGGBB")
		}
		clean.ColorTheme = upd.ColorTheme
	}

	if upd.PawStyle != nil && *upd.PawStyle != "" {
		if _, ok := model.LookupPaw(*upd.PawStyle); !ok {
			return nil, apperror.ValidationFailed("paw_style", "Unknown paw style")
		}
		ok, err := s.badges.CanUsePaw(ctx, u, *upd.PawStyle)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.Forbidden("That paw style is still locked")
		}
		clean.PawStyle = upd.PawStyle
	}

	if err := s.users.UpdateProfile(ctx, userID, clean); err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, userID)
}

// Stats returns the user's sent and received counts.
func (s *UserService) Stats(ctx context.Context, userID int64) (model.UserStats, error) {
	sent, err := s.boops.CountBoops(ctx, userID, model.Sent)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("service/user: counting sent boops: %w", err)
	}
	received, err := s.boops.CountBoops(ctx, userID, model.Received)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("service/user: counting received boops: %w", err)
	}
	return model.UserStats{BoopsSent: sent, BoopsReceived: received}, nil
}

// Ping marks the user as active now.
func (s *UserService) Ping(ctx context.Context, userID int64) error {
	return s.users.TouchLastActive(ctx, userID, utcNow())
}

// MarkSeen moves the "new boops" watermark to now.
func (s *UserService) MarkSeen(ctx context.Context, userID int64) error {
	return s.users.TouchLastLogin(ctx, userID, utcNow())
}
