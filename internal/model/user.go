// Package model defines the data structures used throughout the application.
//
// The `db:"..."` tags are read by sqlx when scanning rows into structs; the
// `json:"..."` tags shape the API responses. Columns the client must never see
// (the password hash, the GitHub link) are tagged json:"-".
package model

import "time"

// Default profile values applied at registration.
const (
	DefaultColorTheme = "#FF69B4"
	DefaultPawStyle   = "default"
)

// User is a registered account.
//
// LastLogin doubles as the "seen" watermark for new-boop notifications: it is
// only advanced when the client explicitly marks boops as seen.
type User struct {
	ID           int64      `json:"id"           db:"id"`
	Username     string     `json:"username"     db:"username"`
	PasswordHash string     `json:"-"            db:"password_hash"`
	DisplayName  string     `json:"display_name" db:"display_name"`
	Tagline      string     `json:"tagline"      db:"tagline"`
	ColorTheme   string     `json:"color_theme"  db:"color_theme"`
	PawStyle     string     `json:"paw_style"    db:"paw_style"`
	GitHubID     *int64     `json:"-"            db:"github_id"`
	CreatedAt    time.Time  `json:"created_at"   db:"created_at"`
	LastActive   time.Time  `json:"last_active"  db:"last_active"`
	LastLogin    *time.Time `json:"-"            db:"last_login"`
}

// PublicProfile is the subset of a user other users get to see, e.g. the
// sender block of a boop_received event or an entry in a favorites list.
type PublicProfile struct {
	ID          int64     `json:"id"                    db:"id"`
	Username    string    `json:"username,omitempty"    db:"username"`
	DisplayName string    `json:"display_name"          db:"display_name"`
	ColorTheme  string    `json:"color_theme"           db:"color_theme"`
	PawStyle    string    `json:"paw_style"             db:"paw_style"`
	LastActive  time.Time `json:"last_active,omitzero"  db:"last_active"`
}

// Profile returns the public view of u.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		ColorTheme:  u.ColorTheme,
		PawStyle:    u.PawStyle,
		LastActive:  u.LastActive,
	}
}

// ProfileUpdate carries a partial profile edit. A nil field is left untouched.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name"`
	Tagline     *string `json:"tagline"`
	ColorTheme  *string `json:"color_theme"`
	PawStyle    *string `json:"paw_style"`
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.DisplayName == nil && p.Tagline == nil && p.ColorTheme == nil && p.PawStyle == nil
}

// UserStats is the per-user counter pair shown on the profile page.
type UserStats struct {
	BoopsSent     int64 `json:"boops_sent"`
	BoopsReceived int64 `json:"boops_received"`
}
