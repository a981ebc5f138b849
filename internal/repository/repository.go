// Package repository declares the storage contracts the service layer depends on.
//
// The services only ever see these interfaces; the concrete implementation
// lives in repository/sqldb and is picked once at startup. Tests substitute
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/booping/internal/model"
)

type UserRepository interface {
	// CreateUser inserts u and bumps the global user counter in the same
	// transaction. A taken username yields apperror.ErrConflict.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	LinkGitHub(ctx context.Context, userID, githubID int64) error
	// ListUsers returns every user except excludeID, most recently active first.
	ListUsers(ctx context.Context, excludeID int64) ([]model.User, error)
	UpdateProfile(ctx context.Context, userID int64, upd model.ProfileUpdate) error
	TouchLastActive(ctx context.Context, userID int64, at time.Time) error
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}

type BoopRepository interface {
	// CreateBoop inserts the boop and increments total_boops atomically,
	// returning the new boop id.
	CreateBoop(ctx context.Context, senderID, recipientID int64, pawStyle string, at time.Time) (int64, error)
	CountBoops(ctx context.Context, userID int64, dir model.Direction) (int64, error)
	CountSentSince(ctx context.Context, userID int64, since time.Time) (int64, error)
	ListReceived(ctx context.Context, userID int64, limit int) ([]model.ReceivedBoop, error)
	ListSent(ctx context.Context, userID int64, limit int) ([]model.SentBoop, error)
	ListReceivedSince(ctx context.Context, userID int64, since time.Time) ([]model.ReceivedBoop, error)
	ListMutuals(ctx context.Context, userID int64) ([]model.PublicProfile, error)
}

type BadgeRepository interface {
	ListBadges(ctx context.Context) ([]model.Badge, error)
	ListUserBadges(ctx context.Context, userID int64) ([]model.EarnedBadge, error)
	// ListEligibleBadges returns badges with threshold <= count that the user
	// has not earned yet, lowest threshold first.
	ListEligibleBadges(ctx context.Context, userID, count int64) ([]model.Badge, error)
	// AwardBadge records the award. It reports false, with a nil error, when
	// the user already holds the badge.
	AwardBadge(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error)
}

type FavoriteRepository interface {
	// AddFavorite reports false when the pair already exists.
	AddFavorite(ctx context.Context, userID, favoriteID int64, at time.Time) (bool, error)
	RemoveFavorite(ctx context.Context, userID, favoriteID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]model.PublicProfile, error)
	FavoriteIDs(ctx context.Context, userID int64) ([]int64, error)
	IsFavorite(ctx context.Context, userID, favoriteID int64) (bool, error)
}

type StatsRepository interface {
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
}

// Store is everything the application needs from storage.
type Store interface {
	UserRepository
	BoopRepository
	BadgeRepository
	FavoriteRepository
	StatsRepository

	InitSchema(ctx context.Context) error
	Close() error
}
