package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"friday/internal/biz/domain"
)

// stubStore implements repo.Store with just enough behavior for the
// handlers under test.
type stubStore struct {
	rooms []*domain.Room
	tasks map[int64]*domain.Task
	next  int64
}

func newStubStore() *stubStore {
	return &stubStore{tasks: map[int64]*domain.Task{}, next: 1}
}

func (s *stubStore) ActiveSubscribers(ctx context.Context) ([]*domain.Subscriber, error) {
	return nil, nil
}
func (s *stubStore) CreateSubscriber(ctx context.Context, sub *domain.Subscriber) error { return nil }
func (s *stubStore) RoomsBySubscriber(ctx context.Context, subscriberID int64) ([]*domain.Room, error) {
	var out []*domain.Room
	for _, room := range s.rooms {
		if room.Subscriber == subscriberID {
			out = append(out, room)
		}
	}
	return out, nil
}
func (s *stubStore) RoomByAlias(ctx context.Context, subscriberID int64, alias string) (*domain.Room, error) {
	for _, room := range s.rooms {
		if room.Subscriber == subscriberID && room.Alias == alias {
			return room, nil
		}
	}
	return nil, nil
}
func (s *stubStore) SaveRoom(ctx context.Context, room *domain.Room) error { return nil }
func (s *stubStore) TakenAliases(ctx context.Context, subscriberID int64) (map[string]bool, error) {
	return nil, nil
}
func (s *stubStore) UpdateRoomName(ctx context.Context, remoteID, name string) error { return nil }
func (s *stubStore) AdvanceLastRead(ctx context.Context, roomID int64, t time.Time) error {
	return nil
}
func (s *stubStore) StateByRoom(ctx context.Context, roomID int64) (*domain.ProcessingState, error) {
	return &domain.ProcessingState{RoomID: roomID, Status: domain.StateIdle}, nil
}
func (s *stubStore) SaveState(ctx context.Context, state *domain.ProcessingState) error { return nil }
func (s *stubStore) CreateSummary(ctx context.Context, sum *domain.Summary) error       { return nil }
func (s *stubStore) MarkSummarySent(ctx context.Context, summaryID int64, at time.Time) error {
	return nil
}
func (s *stubStore) MarkSummaryFailed(ctx context.Context, summaryID int64, at time.Time, reason string) error {
	return nil
}
func (s *stubStore) LastDeliveredSummaryAt(ctx context.Context, subscriberID int64) (time.Time, error) {
	return time.Time{}, nil
}
func (s *stubStore) LastSummaryByRoom(ctx context.Context, roomID int64) (*domain.Summary, error) {
	return nil, nil
}
func (s *stubStore) CreateTask(ctx context.Context, t *domain.Task) error {
	t.ID = s.next
	s.next++
	s.tasks[t.ID] = t
	return nil
}
func (s *stubStore) TaskByIDAndRoom(ctx context.Context, id, roomID int64) (*domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok || task.RoomID != roomID {
		return nil, nil
	}
	return task, nil
}
func (s *stubStore) SaveTask(ctx context.Context, t *domain.Task) error {
	s.tasks[t.ID] = t
	return nil
}
func (s *stubStore) PendingTasksBySubscriber(ctx context.Context, subscriberID int64, limit int) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, task := range s.tasks {
		if task.Status == domain.TaskPending && len(out) < limit {
			out = append(out, task)
		}
	}
	return out, nil
}
func (s *stubStore) PendingTasksByRoom(ctx context.Context, roomID int64, limit int) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, task := range s.tasks {
		if task.RoomID == roomID && task.Status == domain.TaskPending && len(out) < limit {
			out = append(out, task)
		}
	}
	return out, nil
}
func (s *stubStore) IncrementDailyCount(ctx context.Context, roomID int64, date string) (int, error) {
	return 1, nil
}
func (s *stubStore) Close() error { return nil }

func TestAuthRejectsMissingToken(t *testing.T) {
	server := &Server{token: "secret"}
	handler := server.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthAllowsHealthWithoutToken(t *testing.T) {
	server := &Server{token: "secret"}
	handler := server.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCreateAndPatchTask(t *testing.T) {
	store := newStubStore()
	server := &Server{store: store}

	body := strings.NewReader(`{"room_id": 5, "description": "  send agenda  "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", body)
	rec := httptest.NewRecorder()
	server.handleTasks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created domain.Task
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Description != "send agenda" {
		t.Errorf("Description = %q, want trimmed", created.Description)
	}
	if created.Status != domain.TaskPending {
		t.Errorf("Status = %q", created.Status)
	}

	patch := strings.NewReader(`{"room_id": 5, "status": "done", "note": "sent this morning"}`)
	req = httptest.NewRequest(http.MethodPatch, "/api/tasks/1", patch)
	rec = httptest.NewRecorder()
	server.handleTaskItem(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.tasks[1].Status != domain.TaskDone {
		t.Errorf("Status = %q, want done", store.tasks[1].Status)
	}
	if store.tasks[1].Notes != "sent this morning" {
		t.Errorf("Notes = %q", store.tasks[1].Notes)
	}
}

func TestPatchTaskRejectsInvalidStatus(t *testing.T) {
	store := newStubStore()
	store.tasks[1] = &domain.Task{ID: 1, RoomID: 5, Status: domain.TaskPending}
	server := &Server{store: store}

	patch := strings.NewReader(`{"room_id": 5, "status": "finished"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/1", patch)
	rec := httptest.NewRecorder()
	server.handleTaskItem(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPatchTaskWrongRoomIs404(t *testing.T) {
	store := newStubStore()
	store.tasks[1] = &domain.Task{ID: 1, RoomID: 5, Status: domain.TaskPending}
	server := &Server{store: store}

	patch := strings.NewReader(`{"room_id": 6, "status": "done"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/1", patch)
	rec := httptest.NewRecorder()
	server.handleTaskItem(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListRooms(t *testing.T) {
	store := newStubStore()
	store.rooms = []*domain.Room{
		{ID: 1, Subscriber: 7, Alias: "x7k2", Name: "Design Team"},
		{ID: 2, Subscriber: 8, Alias: "m3p9", Name: "Other"},
	}
	server := &Server{store: store}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms?subscriber_id=7", nil)
	rec := httptest.NewRecorder()
	server.handleRooms(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Rooms []domain.Room `json:"rooms"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Rooms) != 1 || resp.Rooms[0].Alias != "x7k2" {
		t.Errorf("rooms = %+v", resp.Rooms)
	}
}
