package repo

import (
	"context"
	"time"

	"friday/internal/biz/domain"
)

// Identity is the result of logging in to the chat service.
type Identity struct {
	UserID      string
	DeviceID    string
	AccessToken string
}

// DirectoryRoom is a room as listed by the homeserver admin directory.
type DirectoryRoom struct {
	RoomID      string
	Name        string
	Creator     string
	MemberCount int
	CreatedAt   time.Time
}

// ChatRepo is the chat gateway interface.
// Implementations talk to the messaging service; every failure propagates
// as an error so the worker can retry on the next cycle.
type ChatRepo interface {
	// Login authenticates and caches the access token in memory.
	// Token refresh is the caller's responsibility.
	Login(ctx context.Context) (*Identity, error)

	// FetchMessages returns messages strictly after since (when non-zero),
	// oldest first. Pagination is fully drained before the time cutoff is
	// applied, because the cutoff is client-side.
	FetchMessages(ctx context.Context, roomID string, since time.Time, limit int) ([]domain.Message, error)

	// LastMessage returns the most recent message in the room, or nil if
	// the room has none.
	LastMessage(ctx context.Context, roomID string) (*domain.Message, error)

	// SendMessage sends a plain-text message and returns the event ID.
	SendMessage(ctx context.Context, roomID, body string) (string, error)

	// DisplayName resolves a user ID to a display name, best-effort.
	// Returns "" when the user has no display name or the lookup fails.
	DisplayName(ctx context.Context, userID string) (string, error)

	// ListRooms returns the homeserver room directory, draining pagination.
	ListRooms(ctx context.Context) ([]DirectoryRoom, error)
}
