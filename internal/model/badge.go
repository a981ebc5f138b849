package model

import "time"

// Badge is a catalog entry: reaching Threshold sent boops earns it.
type Badge struct {
	ID          int64   `json:"id"          db:"id"`
	Name        string  `json:"name"        db:"name"`
	Description string  `json:"description" db:"description"`
	Threshold   int64   `json:"threshold"   db:"threshold"`
	Icon        string  `json:"icon"        db:"icon"`
	UnlocksPaw  *string `json:"unlocks_paw" db:"unlocks_paw"`
}

// EarnedBadge is a badge together with the moment the user earned it.
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

// BadgeCatalog is the seed data for the badges table. The catalog is merged
// by name on every startup, so edits here reach existing databases.
func BadgeCatalog() []Badge {
	paw := func(s string) *string { return &s }
	return []Badge{
		{Name: "First Boop", Description: "Send your very first boop", Threshold: 1, Icon: "🐾"},
		{Name: "Friendly Booper", Description: "Send 10 boops", Threshold: 10, Icon: "😊"},
		{Name: "Boop Enthusiast", Description: "Send 50 boops", Threshold: 50, Icon: "💕"},
		{Name: "Century Booper", Description: "Send 100 boops", Threshold: 100, Icon: "💯", UnlocksPaw: paw("lightning")},
		{Name: "Boop Master", Description: "Send 500 boops", Threshold: 500, Icon: "🎖️", UnlocksPaw: paw("snowflake")},
		{Name: "Boop Legend", Description: "Send 1,000 boops", Threshold: 1000, Icon: "👑", UnlocksPaw: paw("ghost")},
		{Name: "Stellar Booper", Description: "Send 1,000 boops", Threshold: 1000, Icon: "🌟", UnlocksPaw: paw("star")},
		{Name: "Boop Titan", Description: "Send 10,000 boops", Threshold: 10000, Icon: "🔥", UnlocksPaw: paw("fire")},
		{Name: "Boop Deity", Description: "Send 100,000 boops", Threshold: 100000, Icon: "🌈", UnlocksPaw: paw("rainbow")},
		{Name: "Cosmic Booper", Description: "Send 100,000 boops", Threshold: 100000, Icon: "🌌", UnlocksPaw: paw("galaxy")},
	}
}
