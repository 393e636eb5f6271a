package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"friday/internal/biz/domain"
	"friday/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// store implements the Store repository on SQLite
type store struct {
	db *sql.DB
}

// NewStore opens the database and bootstraps the schema
func NewStore(dbPath string) (repo.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscribers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			control_room_id TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subscriber_id INTEGER NOT NULL REFERENCES subscribers(id) ON DELETE CASCADE,
			platform TEXT NOT NULL DEFAULT 'matrix',
			remote_id TEXT NOT NULL,
			alias TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			last_read_at INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			UNIQUE(subscriber_id, remote_id),
			UNIQUE(subscriber_id, alias)
		)`,
		`CREATE TABLE IF NOT EXISTS processing_states (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL UNIQUE REFERENCES rooms(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'idle',
			staged_context TEXT NOT NULL DEFAULT '',
			last_synced_at INTEGER NOT NULL DEFAULT 0,
			last_summarized_at INTEGER NOT NULL DEFAULT 0,
			processing_started_at INTEGER NOT NULL DEFAULT 0,
			failure_reason TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			summary TEXT NOT NULL,
			reply TEXT NOT NULL DEFAULT '',
			needs_more_info INTEGER NOT NULL DEFAULT 0,
			new_tasks TEXT NOT NULL DEFAULT '[]',
			message_count INTEGER NOT NULL DEFAULT 0,
			from_time INTEGER NOT NULL DEFAULT 0,
			to_time INTEGER NOT NULL DEFAULT 0,
			sent_at INTEGER,
			send_failed_at INTEGER,
			send_error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS daily_counts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id INTEGER NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
			date TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(room_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_subscriber ON rooms(subscriber_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_room_sent ON summaries(room_id, sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_room_status ON tasks(room_id, status)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}

	// Cascade deletes rely on foreign key enforcement
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	fmt.Println("[Store] Database initialized")
	return &store{db: db}, nil
}

// ========== Subscribers ==========

// ActiveSubscribers returns subscribers with an active flag and a control room
func (s *store) ActiveSubscribers(ctx context.Context) ([]*domain.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, email, phone_number, control_room_id, is_active, created_at
		FROM subscribers
		WHERE is_active = 1 AND control_room_id != ''
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []*domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		var createdAt int64
		if err := rows.Scan(&sub.ID, &sub.FullName, &sub.Email, &sub.PhoneNumber, &sub.ControlRoomID, &sub.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		sub.CreatedAt = time.Unix(createdAt, 0)
		subscribers = append(subscribers, &sub)
	}
	return subscribers, rows.Err()
}

// CreateSubscriber inserts a new subscriber
func (s *store) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO subscribers (full_name, email, phone_number, control_room_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.FullName, sub.Email, sub.PhoneNumber, sub.ControlRoomID, sub.IsActive, sub.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}
	sub.ID, _ = result.LastInsertId()
	return nil
}

// ========== Rooms ==========

// RoomsBySubscriber returns the subscriber's active watched rooms
func (s *store) RoomsBySubscriber(ctx context.Context, subscriberID int64) ([]*domain.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subscriber_id, platform, remote_id, alias, name, last_read_at, is_active, created_at
		FROM rooms
		WHERE subscriber_id = ? AND is_active = 1
		ORDER BY created_at DESC
	`, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

// RoomByAlias looks up one of the subscriber's own rooms by alias,
// case-insensitively. Other subscribers' aliases are never visible here.
func (s *store) RoomByAlias(ctx context.Context, subscriberID int64, alias string) (*domain.Room, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subscriber_id, platform, remote_id, alias, name, last_read_at, is_active, created_at
		FROM rooms
		WHERE subscriber_id = ? AND alias = ? COLLATE NOCASE AND is_active = 1
	`, subscriberID, alias)

	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query room by alias: %w", err)
	}
	return room, nil
}

// SaveRoom creates or updates a watched room. A new room without an alias
// gets one generated, unique among the subscriber's existing aliases.
func (s *store) SaveRoom(ctx context.Context, room *domain.Room) error {
	if room.ID == 0 {
		if room.Alias == "" {
			taken, err := s.TakenAliases(ctx, room.Subscriber)
			if err != nil {
				return err
			}
			room.Alias = domain.NewAlias(taken)
		}
		if room.CreatedAt.IsZero() {
			room.CreatedAt = time.Now()
		}
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO rooms (subscriber_id, platform, remote_id, alias, name, last_read_at, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, room.Subscriber, room.Platform, room.RemoteID, room.Alias, room.Name,
			zeroOrUnixMilli(room.LastReadAt), room.IsActive, room.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}
		room.ID, _ = result.LastInsertId()
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE rooms
		SET platform = ?, remote_id = ?, alias = ?, name = ?, last_read_at = ?, is_active = ?
		WHERE id = ?
	`, room.Platform, room.RemoteID, room.Alias, room.Name, zeroOrUnixMilli(room.LastReadAt), room.IsActive, room.ID)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	return nil
}

// TakenAliases returns the subscriber's existing aliases, lowercased
func (s *store) TakenAliases(ctx context.Context, subscriberID int64) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT LOWER(alias) FROM rooms WHERE subscriber_id = ?
	`, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]bool)
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		taken[alias] = true
	}
	return taken, rows.Err()
}

// UpdateRoomName refreshes the cached display name on every watched copy
// of the remote room
func (s *store) UpdateRoomName(ctx context.Context, remoteID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET name = ? WHERE remote_id = ?
	`, name, remoteID)
	if err != nil {
		return fmt.Errorf("failed to update room name: %w", err)
	}
	return nil
}

// AdvanceLastRead moves the read watermark forward; it never goes back
func (s *store) AdvanceLastRead(ctx context.Context, roomID int64, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE rooms SET last_read_at = ? WHERE id = ? AND last_read_at < ?
	`, t.UnixMilli(), roomID, t.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to advance last read: %w", err)
	}
	return nil
}

// ========== Processing state ==========

// StateByRoom returns the room's processing state, creating an idle one
// on first use. There is at most one state per room.
func (s *store) StateByRoom(ctx context.Context, roomID int64) (*domain.ProcessingState, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO processing_states (room_id, status, updated_at)
		VALUES (?, 'idle', ?)
	`, roomID, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to init processing state: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, room_id, status, staged_context, last_synced_at, last_summarized_at,
		       processing_started_at, failure_reason, updated_at
		FROM processing_states
		WHERE room_id = ?
	`, roomID)

	var state domain.ProcessingState
	var lastSynced, lastSummarized, processingStarted, updatedAt int64
	err = row.Scan(&state.ID, &state.RoomID, &state.Status, &state.StagedContext,
		&lastSynced, &lastSummarized, &processingStarted, &state.FailureReason, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing state: %w", err)
	}
	state.LastSyncedAt = unixMilliOrZero(lastSynced)
	state.LastSummarizedAt = unixOrZero(lastSummarized)
	state.ProcessingStartedAt = unixOrZero(processingStarted)
	state.UpdatedAt = time.Unix(updatedAt, 0)
	return &state, nil
}

// SaveState persists the processing state. The sync watermark only moves
// forward; a stale in-memory value cannot rewind it.
func (s *store) SaveState(ctx context.Context, state *domain.ProcessingState) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE processing_states
		SET status = ?, staged_context = ?, last_synced_at = MAX(last_synced_at, ?),
		    last_summarized_at = ?, processing_started_at = ?, failure_reason = ?, updated_at = ?
		WHERE room_id = ?
	`, state.Status, state.StagedContext, zeroOrUnixMilli(state.LastSyncedAt),
		zeroOrUnix(state.LastSummarizedAt), zeroOrUnix(state.ProcessingStartedAt),
		state.FailureReason, time.Now().Unix(), state.RoomID)
	if err != nil {
		return fmt.Errorf("failed to save processing state: %w", err)
	}
	return nil
}

// ========== Summaries ==========

// CreateSummary appends a summary record
func (s *store) CreateSummary(ctx context.Context, sum *domain.Summary) error {
	if sum.CreatedAt.IsZero() {
		sum.CreatedAt = time.Now()
	}
	newTasks, err := json.Marshal(sum.NewTasks)
	if err != nil {
		return fmt.Errorf("failed to encode new tasks: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (room_id, summary, reply, needs_more_info, new_tasks,
			message_count, from_time, to_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.RoomID, sum.Text, sum.Reply, sum.NeedsMoreInfo, string(newTasks),
		sum.MessageCount, zeroOrUnixMilli(sum.FromTime), zeroOrUnixMilli(sum.ToTime), sum.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	sum.ID, _ = result.LastInsertId()
	return nil
}

// MarkSummarySent records successful delivery; a summary with an outcome
// already recorded is left untouched
func (s *store) MarkSummarySent(ctx context.Context, summaryID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE summaries SET sent_at = ?
		WHERE id = ? AND sent_at IS NULL AND send_failed_at IS NULL
	`, at.Unix(), summaryID)
	if err != nil {
		return fmt.Errorf("failed to mark summary sent: %w", err)
	}
	return nil
}

// MarkSummaryFailed records a delivery failure, once
func (s *store) MarkSummaryFailed(ctx context.Context, summaryID int64, at time.Time, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE summaries SET send_failed_at = ?, send_error = ?
		WHERE id = ? AND sent_at IS NULL AND send_failed_at IS NULL
	`, at.Unix(), reason, summaryID)
	if err != nil {
		return fmt.Errorf("failed to mark summary failed: %w", err)
	}
	return nil
}

// LastDeliveredSummaryAt returns when the subscriber last received a
// summary across all their rooms, or the zero time if never
func (s *store) LastDeliveredSummaryAt(ctx context.Context, subscriberID int64) (time.Time, error) {
	var sentAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(s.sent_at)
		FROM summaries s
		JOIN rooms r ON r.id = s.room_id
		WHERE r.subscriber_id = ? AND s.sent_at IS NOT NULL
	`, subscriberID).Scan(&sentAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last delivered summary: %w", err)
	}
	if !sentAt.Valid {
		return time.Time{}, nil
	}
	return time.Unix(sentAt.Int64, 0), nil
}

// LastSummaryByRoom returns the most recent summary for a room, or nil
func (s *store) LastSummaryByRoom(ctx context.Context, roomID int64) (*domain.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, room_id, summary, reply, needs_more_info, new_tasks,
		       message_count, from_time, to_time, sent_at, send_failed_at, send_error, created_at
		FROM summaries
		WHERE room_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, roomID)

	sum, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last summary: %w", err)
	}
	return sum, nil
}

// ========== Tasks ==========

// CreateTask inserts a new task
func (s *store) CreateTask(ctx context.Context, t *domain.Task) error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = domain.TaskPending
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (room_id, description, notes, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.RoomID, t.Description, t.Notes, t.Status, t.CreatedAt.Unix(), t.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	t.ID, _ = result.LastInsertId()
	return nil
}

// TaskByIDAndRoom looks a task up by id scoped to its room; a task that
// exists under another room is not visible here
func (s *store) TaskByIDAndRoom(ctx context.Context, id, roomID int64) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, room_id, description, notes, status, created_at, updated_at
		FROM tasks
		WHERE id = ? AND room_id = ?
	`, id, roomID)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return task, nil
}

// SaveTask updates a task's mutable fields
func (s *store) SaveTask(ctx context.Context, t *domain.Task) error {
	t.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET description = ?, notes = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, t.Description, t.Notes, t.Status, t.UpdatedAt.Unix(), t.ID)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// PendingTasksBySubscriber returns pending tasks across all the
// subscriber's rooms, newest first
func (s *store) PendingTasksBySubscriber(ctx context.Context, subscriberID int64, limit int) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.room_id, t.description, t.notes, t.status, t.created_at, t.updated_at
		FROM tasks t
		JOIN rooms r ON r.id = t.room_id
		WHERE r.subscriber_id = ? AND t.status = 'pending'
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ?
	`, subscriberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// PendingTasksByRoom returns a room's pending tasks, newest first
func (s *store) PendingTasksByRoom(ctx context.Context, roomID int64, limit int) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, description, notes, status, created_at, updated_at
		FROM tasks
		WHERE room_id = ? AND status = 'pending'
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ========== Daily counts ==========

// IncrementDailyCount bumps the counter in SQL so concurrent workers
// never lose an increment, and returns the new count
func (s *store) IncrementDailyCount(ctx context.Context, roomID int64, date string) (int, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_counts (room_id, date, count) VALUES (?, ?, 1)
		ON CONFLICT(room_id, date) DO UPDATE SET count = count + 1
	`, roomID, date)
	if err != nil {
		return 0, fmt.Errorf("failed to increment daily count: %w", err)
	}

	var count int
	err = s.db.QueryRowContext(ctx, `
		SELECT count FROM daily_counts WHERE room_id = ? AND date = ?
	`, roomID, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to read daily count: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *store) Close() error {
	return s.db.Close()
}

// ========== scan helpers ==========

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*domain.Room, error) {
	var room domain.Room
	var lastReadAt, createdAt int64
	err := row.Scan(&room.ID, &room.Subscriber, &room.Platform, &room.RemoteID,
		&room.Alias, &room.Name, &lastReadAt, &room.IsActive, &createdAt)
	if err != nil {
		return nil, err
	}
	room.LastReadAt = unixMilliOrZero(lastReadAt)
	room.CreatedAt = time.Unix(createdAt, 0)
	return &room, nil
}

func scanRooms(rows *sql.Rows) ([]*domain.Room, error) {
	var rooms []*domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func scanSummary(row rowScanner) (*domain.Summary, error) {
	var sum domain.Summary
	var newTasks string
	var fromTime, toTime, createdAt int64
	var sentAt, sendFailedAt sql.NullInt64
	err := row.Scan(&sum.ID, &sum.RoomID, &sum.Text, &sum.Reply, &sum.NeedsMoreInfo, &newTasks,
		&sum.MessageCount, &fromTime, &toTime, &sentAt, &sendFailedAt, &sum.SendError, &createdAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(newTasks), &sum.NewTasks)
	sum.FromTime = unixMilliOrZero(fromTime)
	sum.ToTime = unixMilliOrZero(toTime)
	if sentAt.Valid {
		sum.SentAt = time.Unix(sentAt.Int64, 0)
	}
	if sendFailedAt.Valid {
		sum.SendFailedAt = time.Unix(sendFailedAt.Int64, 0)
	}
	sum.CreatedAt = time.Unix(createdAt, 0)
	return &sum, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var createdAt, updatedAt int64
	err := row.Scan(&task.ID, &task.RoomID, &task.Description, &task.Notes, &task.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = time.Unix(createdAt, 0)
	task.UpdatedAt = time.Unix(updatedAt, 0)
	return &task, nil
}

func scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func unixOrZero(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

func zeroOrUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// Message-derived timestamps (read/sync watermarks, summary time ranges)
// keep Matrix's millisecond precision; a second-truncated watermark sits
// below the newest message and it would be summarized again next run.
func unixMilliOrZero(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(v)
}

func zeroOrUnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
