package model

// Paw is an avatar style in the catalog.
type Paw struct {
	Name   string
	Emoji  string
	Unlock string // "starter", a hint like "Send 1,000 boops", "Secret" or "Exclusive"
}

// PawStatus is a catalog entry annotated for one user.
type PawStatus struct {
	Name       string  `json:"name"`
	Emoji      string  `json:"emoji"`
	Unlocked   bool    `json:"unlocked"`
	UnlockHint *string `json:"unlock_hint"`
}

// ExclusivePaw is only ever available to the account named ExclusivePawOwner.
const (
	ExclusivePaw      = "frog"
	ExclusivePawOwner = "frog"
)

// StarterPaws are available to everyone.
var StarterPaws = []string{"default", "cat", "sparkle", "heart", "moon"}

// PawCatalog lists every paw in display order.
var PawCatalog = []Paw{
	{Name: "default", Emoji: "🐾", Unlock: "starter"},
	{Name: "cat", Emoji: "🐱", Unlock: "starter"},
	{Name: "sparkle", Emoji: "✨", Unlock: "starter"},
	{Name: "heart", Emoji: "💖", Unlock: "starter"},
	{Name: "moon", Emoji: "🌙", Unlock: "starter"},
	{Name: "ghost", Emoji: "👻", Unlock: "Send 1,000 boops"},
	{Name: "fire", Emoji: "🔥", Unlock: "Send 10,000 boops"},
	{Name: "rainbow", Emoji: "🌈", Unlock: "Send 100,000 boops"},
	{Name: "star", Emoji: "⭐", Unlock: "Send 1,000 boops"},
	{Name: "galaxy", Emoji: "🌌", Unlock: "Send 100,000 boops"},
	{Name: "skeleton", Emoji: "💀", Unlock: "Secret"},
	{Name: "alien", Emoji: "👽", Unlock: "Secret"},
	{Name: "robot", Emoji: "🤖", Unlock: "Secret"},
	{Name: "sun", Emoji: "☀️", Unlock: "Secret"},
	{Name: "lightning", Emoji: "⚡", Unlock: "Send 100 boops"},
	{Name: "snowflake", Emoji: "❄️", Unlock: "Send 500 boops"},
	{Name: ExclusivePaw, Emoji: "🐸", Unlock: "Exclusive"},
}

// LookupPaw returns the catalog entry for name.
func LookupPaw(name string) (Paw, bool) {
	for _, p := range PawCatalog {
		if p.Name == name {
			return p, true
		}
	}
	return Paw{}, false
}
