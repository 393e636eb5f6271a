package domain

import "time"

// Processing statuses for a room's conversation state
const (
	StateIdle       = "idle"
	StateReady      = "ready" // reserved in the schema; the worker moves idle -> processing directly
	StateProcessing = "processing"
	StateFailed     = "failed"
)

// ProcessingState tracks where summarization stands for one room.
// There is at most one state per room; LastSyncedAt never moves backwards.
type ProcessingState struct {
	ID                  int64
	RoomID              int64
	Status              string
	StagedContext       string // serialized context document awaiting processing
	LastSyncedAt        time.Time
	LastSummarizedAt    time.Time
	ProcessingStartedAt time.Time
	FailureReason       string
	UpdatedAt           time.Time
}

// AdvanceSyncedAt moves the sync watermark forward, never backwards.
func (s *ProcessingState) AdvanceSyncedAt(t time.Time) {
	if t.After(s.LastSyncedAt) {
		s.LastSyncedAt = t
	}
}

// Summary is an immutable record of one completed summarization run.
// Only the delivery outcome is written after creation, exactly once.
type Summary struct {
	ID            int64
	RoomID        int64
	Text          string
	Reply         string
	NeedsMoreInfo bool
	NewTasks      []string // descriptions of tasks created by this run
	MessageCount  int
	FromTime      time.Time
	ToTime        time.Time
	SentAt        time.Time
	SendFailedAt  time.Time
	SendError     string
	CreatedAt     time.Time
}

// Delivered reports whether the summary reached the subscriber.
func (s *Summary) Delivered() bool {
	return !s.SentAt.IsZero()
}

// DailyCount tracks completed summarization runs per room per calendar date.
type DailyCount struct {
	ID     int64
	RoomID int64
	Date   string // YYYY-MM-DD
	Count  int
}

// DateKey formats t as the calendar-date key used by DailyCount.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
