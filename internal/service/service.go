// Package service contains the business rules of the application.
//
// THE LAYERS:
//
//	Handler / realtime (transport) → Service (rules) → Repository (storage)
//
// Handlers parse HTTP requests and socket events, services validate and
// orchestrate, repositories talk SQL. Services never see an http.Request or
// a websocket, so the CLI in cmd/boopctl reuses them unchanged.
//
// IDENTITY IS EXPLICIT:
// Every method that acts on behalf of someone takes that user's id as a
// parameter. The caller (session middleware, live connection) resolves who
// is asking; nothing here reads ambient "current user" state.
//
// ERRORS:
// Rule violations come back as *apperror.AppError values so the HTTP layer
// can map them to status codes. Storage failures are wrapped with the
// operation name and passed through.
package service

import "time"

// Limits holds the configurable caps enforced by the services.
type Limits struct {
	MaxBoopsPerMinute    int
	MaxDisplayNameLength int
	MaxTaglineLength     int
}

// DefaultLimits mirrors the configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxBoopsPerMinute:    60,
		MaxDisplayNameLength: 200,
		MaxTaglineLength:     300,
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
