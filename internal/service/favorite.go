package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository"
)

const MsgCannotFavoriteSelf = "Cannot favorite yourself"

// FavoriteService manages a user's starred contacts.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

func NewFavoriteService(favorites repository.FavoriteRepository, users repository.UserRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{favorites: favorites, users: users, logger: logger}
}

// Add stars favoriteID for userID. It reports false when the pair already
// existed.
func (s *FavoriteService) Add(ctx context.Context, userID, favoriteID int64) (bool, error) {
	if userID == favoriteID {
		return false, apperror.ValidationFailed("user_id", MsgCannotFavoriteSelf)
	}
	if _, err := s.users.GetUserByID(ctx, favoriteID); err != nil {
		return false, err
	}

	added, err := s.favorites.AddFavorite(ctx, userID, favoriteID, utcNow())
	if err != nil {
		return false, fmt.Errorf("service/favorite: adding: %w", err)
	}
	return added, nil
}

// IsFavorite reports whether userID has starred favoriteID.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, favoriteID int64) (bool, error) {
	ok, err := s.favorites.IsFavorite(ctx, userID, favoriteID)
	if err != nil {
		return false, fmt.Errorf("service/favorite: checking: %w", err)
	}
	return ok, nil
}

// Remove is a no-op when the pair does not exist.
func (s *FavoriteService) Remove(ctx context.Context, userID, favoriteID int64) error {
	if err := s.favorites.RemoveFavorite(ctx, userID, favoriteID); err != nil {
		return fmt.Errorf("service/favorite: removing: %w", err)
	}
	return nil
}

func (s *FavoriteService) List(ctx context.Context, userID int64) ([]model.PublicProfile, error) {
	favs, err := s.favorites.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/favorite: listing: %w", err)
	}
	return favs, nil
}

func (s *FavoriteService) IDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.favorites.FavoriteIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/favorite: listing ids: %w", err)
	}
	return ids, nil
}
