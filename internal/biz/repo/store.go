package repo

import (
	"context"
	"time"

	"friday/internal/biz/domain"
)

// Store is the persistence interface for all worker state.
type Store interface {
	// Subscribers (read-only to the worker)
	ActiveSubscribers(ctx context.Context) ([]*domain.Subscriber, error)
	CreateSubscriber(ctx context.Context, s *domain.Subscriber) error

	// Watched rooms
	RoomsBySubscriber(ctx context.Context, subscriberID int64) ([]*domain.Room, error)
	RoomByAlias(ctx context.Context, subscriberID int64, alias string) (*domain.Room, error)
	SaveRoom(ctx context.Context, room *domain.Room) error
	TakenAliases(ctx context.Context, subscriberID int64) (map[string]bool, error)
	UpdateRoomName(ctx context.Context, remoteID, name string) error
	AdvanceLastRead(ctx context.Context, roomID int64, t time.Time) error

	// Processing state (one per room)
	StateByRoom(ctx context.Context, roomID int64) (*domain.ProcessingState, error)
	SaveState(ctx context.Context, state *domain.ProcessingState) error

	// Summaries (append-only; delivery outcome recorded exactly once)
	CreateSummary(ctx context.Context, s *domain.Summary) error
	MarkSummarySent(ctx context.Context, summaryID int64, at time.Time) error
	MarkSummaryFailed(ctx context.Context, summaryID int64, at time.Time, reason string) error
	LastDeliveredSummaryAt(ctx context.Context, subscriberID int64) (time.Time, error)
	LastSummaryByRoom(ctx context.Context, roomID int64) (*domain.Summary, error)

	// Tasks
	CreateTask(ctx context.Context, t *domain.Task) error
	TaskByIDAndRoom(ctx context.Context, id, roomID int64) (*domain.Task, error)
	SaveTask(ctx context.Context, t *domain.Task) error
	PendingTasksBySubscriber(ctx context.Context, subscriberID int64, limit int) ([]*domain.Task, error)
	PendingTasksByRoom(ctx context.Context, roomID int64, limit int) ([]*domain.Task, error)

	// Daily counts. The increment happens in SQL so it stays atomic if
	// the worker is ever parallelized.
	IncrementDailyCount(ctx context.Context, roomID int64, date string) (int, error)

	Close() error
}
