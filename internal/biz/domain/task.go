package domain

import "time"

// Task statuses
const (
	TaskPending   = "pending"
	TaskDone      = "done"
	TaskCancelled = "cancelled"
)

// Task is an action item extracted from a conversation or created by hand.
type Task struct {
	ID          int64
	RoomID      int64 // 0 means general (not tied to a room)
	Description string
	Notes       string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidTaskStatus reports whether s is one of the known task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskDone, TaskCancelled:
		return true
	}
	return false
}

// AppendNote appends a note, joining with a newline if notes already exist.
func (t *Task) AppendNote(note string) {
	if note == "" {
		return
	}
	if t.Notes == "" {
		t.Notes = note
		return
	}
	t.Notes = t.Notes + "\n" + note
}
