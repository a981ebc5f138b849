package model

import "time"

// Direction selects which side of the boop edge a count or listing is about.
type Direction int

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Received {
		return "received"
	}
	return "sent"
}

// Boop is one directed poke. Rows are append-only.
type Boop struct {
	ID          int64     `json:"id"           db:"id"`
	SenderID    int64     `json:"sender_id"    db:"sender_id"`
	RecipientID int64     `json:"recipient_id" db:"recipient_id"`
	PawStyle    string    `json:"paw_style"    db:"paw_style"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
}

// ReceivedBoop is a boop joined with the sender's current profile fields.
type ReceivedBoop struct {
	Boop
	SenderName  string `json:"sender_name"  db:"sender_name"`
	SenderColor string `json:"sender_color" db:"sender_color"`
	SenderPaw   string `json:"sender_paw"   db:"sender_paw"`
}

// SentBoop is a boop joined with the recipient's current profile fields.
type SentBoop struct {
	Boop
	RecipientName  string `json:"recipient_name"  db:"recipient_name"`
	RecipientColor string `json:"recipient_color" db:"recipient_color"`
}

// GlobalStats is the singleton counters row.
type GlobalStats struct {
	TotalBoops  int64     `json:"total_boops"  db:"total_boops"`
	TotalUsers  int64     `json:"total_users"  db:"total_users"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}
