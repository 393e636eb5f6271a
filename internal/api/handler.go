package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"friday/internal/biz/domain"
	"friday/internal/biz/repo"
	"friday/internal/biz/usecase"
	"friday/internal/service"
)

// Server provides a small HTTP API over the same services the worker
// uses: task management, room listing, on-demand context construction
// and on-demand summarization.
type Server struct {
	store   repo.Store
	builder *usecase.ContextBuilderUsecase
	worker  *service.Worker

	token  string // static bearer token; empty disables auth
	server *http.Server
	addr   string
}

// NewServer creates a new API server
func NewServer(store repo.Store, builder *usecase.ContextBuilderUsecase, worker *service.Worker, addr, token string) *Server {
	return &Server{
		store:   store,
		builder: builder,
		worker:  worker,
		token:   token,
		addr:    addr,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Task management
	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/tasks/", s.handleTaskItem)

	// Room listing
	mux.HandleFunc("/api/rooms", s.handleRooms)

	// LLM context construction
	mux.HandleFunc("/api/context", s.handleContext)

	// On-demand summarization
	mux.HandleFunc("/api/summarize/", s.handleSummarize)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.withAuth(mux),
	}

	fmt.Printf("[API] Starting HTTP server on %s\n", s.addr)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

// withAuth requires the static bearer token on every endpoint except the
// health check. An empty configured token disables the check entirely.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.URL.Path != "/health" {
			header := r.Header.Get("Authorization")
			if header != "Bearer "+s.token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ============ Task Handlers ============

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		limit := 50
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil {
				limit = parsed
			}
		}

		if roomID, err := strconv.ParseInt(r.URL.Query().Get("room_id"), 10, 64); err == nil {
			tasks, err := s.store.PendingTasksByRoom(ctx, roomID, limit)
			if err != nil {
				s.writeError(w, err)
				return
			}
			s.writeJSON(w, map[string]interface{}{"tasks": tasks})
			return
		}

		subscriberID, err := strconv.ParseInt(r.URL.Query().Get("subscriber_id"), 10, 64)
		if err != nil {
			http.Error(w, "subscriber_id or room_id is required", http.StatusBadRequest)
			return
		}
		tasks, err := s.store.PendingTasksBySubscriber(ctx, subscriberID, limit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, map[string]interface{}{"tasks": tasks})

	case http.MethodPost:
		var req struct {
			RoomID      int64  `json:"room_id"`
			Description string `json:"description"`
			Notes       string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Description = strings.TrimSpace(req.Description)
		if req.Description == "" {
			http.Error(w, "description is required", http.StatusBadRequest)
			return
		}

		task := &domain.Task{
			RoomID:      req.RoomID,
			Description: req.Description,
			Notes:       req.Notes,
			Status:      domain.TaskPending,
		}
		if err := s.store.CreateTask(ctx, task); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, task)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTaskItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/tasks/"), 10, 64)
	if err != nil {
		http.Error(w, "invalid task id", http.StatusBadRequest)
		return
	}

	var req struct {
		RoomID int64  `json:"room_id"`
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status != "" && !domain.ValidTaskStatus(req.Status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	task, err := s.store.TaskByIDAndRoom(ctx, id, req.RoomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if task == nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Note != "" {
		task.AppendNote(req.Note)
	}
	if err := s.store.SaveTask(ctx, task); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, task)
}

// ============ Room Handlers ============

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	subscriberID, err := strconv.ParseInt(r.URL.Query().Get("subscriber_id"), 10, 64)
	if err != nil {
		http.Error(w, "subscriber_id is required", http.StatusBadRequest)
		return
	}

	rooms, err := s.store.RoomsBySubscriber(r.Context(), subscriberID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"rooms": rooms})
}

// ============ Context Handler ============

// ContextRequest carries messages to turn into an LLM context document
type ContextRequest struct {
	SubscriberID int64  `json:"subscriber_id"`
	RoomAlias    string `json:"room_alias"`
	SelfID       string `json:"self_id"`
	Messages     []struct {
		Sender    string `json:"sender"`
		Body      string `json:"body"`
		Timestamp int64  `json:"timestamp"` // unix seconds
	} `json:"messages"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "messages are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	room, err := s.store.RoomByAlias(ctx, req.SubscriberID, req.RoomAlias)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	messages := make([]domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, domain.Message{
			RoomID:    room.RemoteID,
			Sender:    m.Sender,
			Body:      m.Body,
			Timestamp: time.Unix(m.Timestamp, 0),
		})
	}

	prior, err := s.store.LastSummaryByRoom(ctx, room.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pending, err := s.store.PendingTasksByRoom(ctx, room.ID, 20)
	if err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := s.builder.Build(ctx, room, messages, req.SelfID, prior, pending)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, doc)
}

// ============ Summarize Handler ============

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	alias := strings.TrimPrefix(r.URL.Path, "/api/summarize/")
	if alias == "" {
		http.Error(w, "room alias is required", http.StatusBadRequest)
		return
	}

	var req struct {
		SubscriberID int64 `json:"subscriber_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	sub, err := s.subscriberByID(ctx, req.SubscriberID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sub == nil {
		http.Error(w, "subscriber not found", http.StatusNotFound)
		return
	}

	room, err := s.store.RoomByAlias(ctx, sub.ID, alias)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	produced, err := s.worker.SummarizeNow(ctx, sub, room)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"summarized": produced})
}

func (s *Server) subscriberByID(ctx context.Context, id int64) (*domain.Subscriber, error) {
	subscribers, err := s.store.ActiveSubscribers(ctx)
	if err != nil {
		return nil, err
	}
	for _, sub := range subscribers {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, nil
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
