package domain

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Subscriber is a user of the room observation service.
// Subscribers are created by the signup flow; the worker only reads them.
type Subscriber struct {
	ID            int64
	FullName      string
	Email         string
	PhoneNumber   string
	ControlRoomID string // Matrix room where the bot talks to the subscriber
	IsActive      bool
	CreatedAt     time.Time
}

// Platform identifiers for watched rooms
const (
	PlatformWhatsApp = "whatsapp"
	PlatformTeams    = "teams"
	PlatformMatrix   = "matrix"
)

// Room is a chat room a subscriber wants observed.
type Room struct {
	ID         int64
	Subscriber int64
	Platform   string
	RemoteID   string // platform room ID, e.g. "!abc:matrix.org"
	Alias      string // short code the subscriber uses in commands
	Name       string // cached display name
	LastReadAt time.Time
	IsActive   bool
	CreatedAt  time.Time
}

// DisplayName returns the room name, falling back to the remote ID.
func (r *Room) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.RemoteID
}

// Alias alphabet: alphanumeric without visually confusing characters (0/O, 1/l/I)
const (
	aliasAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	aliasLength   = 4
	aliasAttempts = 10
)

// NewAlias generates a room alias that is not present in taken.
// After aliasAttempts collisions it falls back to appending one more
// random character to the last candidate.
func NewAlias(taken map[string]bool) string {
	var code string
	for i := 0; i < aliasAttempts; i++ {
		code = randomAlias(aliasLength)
		if !taken[code] {
			return code
		}
	}
	return code + randomAlias(1)
}

func randomAlias(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(aliasAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			idx = big.NewInt(int64(i) % int64(len(aliasAlphabet)))
		}
		b[i] = aliasAlphabet[idx.Int64()]
	}
	return string(b)
}
