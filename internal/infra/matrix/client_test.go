package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func loginHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(LoginResult{
		AccessToken: "tok-123",
		UserID:      "@bot:example.org",
		DeviceID:    "DEV",
	})
}

func TestLoginCachesToken(t *testing.T) {
	logins := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/_matrix/client/v3/login" {
			logins++
			var payload map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["type"] != "m.login.password" {
				t.Errorf("login type = %v", payload["type"])
			}
			loginHandler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		token, err := client.AccessToken(ctx)
		if err != nil {
			t.Fatalf("AccessToken: %v", err)
		}
		if token != "tok-123" {
			t.Errorf("token = %q", token)
		}
	}
	if logins != 1 {
		t.Errorf("Expected 1 login, got %d", logins)
	}
}

func TestMessagesDrainsPagination(t *testing.T) {
	// Two pages, newest first: page one holds events 30..21, page two 20..11.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_matrix/client/v3/login":
			loginHandler(w, r)
		case strings.HasSuffix(r.URL.Path, "/messages"):
			if r.URL.Query().Get("dir") != "b" {
				t.Errorf("dir = %q, want b", r.URL.Query().Get("dir"))
			}
			from := r.URL.Query().Get("from")
			resp := messagesResponse{}
			start := 30
			if from == "page2" {
				start = 20
			} else if from != "" {
				t.Errorf("unexpected from token %q", from)
			}
			for i := 0; i < 10; i++ {
				resp.Chunk = append(resp.Chunk, Event{
					Type:           "m.room.message",
					EventID:        fmt.Sprintf("$ev%d", start-i),
					Sender:         "@alice:example.org",
					OriginServerTS: int64(start-i) * 1000,
					Content:        Content{MsgType: "m.text", Body: fmt.Sprintf("msg %d", start-i)},
				})
			}
			if from == "" {
				resp.End = "page2"
			}
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret")
	events, err := client.Messages(context.Background(), "!room:example.org", 10, 100)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}

	if len(events) != 20 {
		t.Fatalf("Expected 20 events across both pages, got %d", len(events))
	}
	// Newest first, exactly as the transport delivers
	if events[0].EventID != "$ev30" {
		t.Errorf("First event = %s, want $ev30", events[0].EventID)
	}
	if events[19].EventID != "$ev11" {
		t.Errorf("Last event = %s, want $ev11", events[19].EventID)
	}
}

func TestMessagesFiltersNonMessageEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_matrix/client/v3/login":
			loginHandler(w, r)
		case strings.HasSuffix(r.URL.Path, "/messages"):
			json.NewEncoder(w).Encode(messagesResponse{
				Chunk: []Event{
					{Type: "m.room.message", EventID: "$m1", OriginServerTS: 3000, Content: Content{Body: "hi"}},
					{Type: "m.room.member", EventID: "$j1", OriginServerTS: 2000},
					{Type: "m.room.message", EventID: "$m2", OriginServerTS: 1000, Content: Content{Body: "hello"}},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret")
	events, err := client.Messages(context.Background(), "!room:example.org", 10, 100)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 message events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Type != "m.room.message" {
			t.Errorf("Non-message event %s leaked through", ev.EventID)
		}
	}
}

func TestMessagesStopsAtMaxEvents(t *testing.T) {
	pages := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_matrix/client/v3/login":
			loginHandler(w, r)
		case strings.HasSuffix(r.URL.Path, "/messages"):
			pages++
			resp := messagesResponse{End: fmt.Sprintf("page%d", pages+1)}
			for i := 0; i < 5; i++ {
				resp.Chunk = append(resp.Chunk, Event{
					Type:    "m.room.message",
					EventID: fmt.Sprintf("$p%d-%d", pages, i),
				})
			}
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret")
	events, err := client.Messages(context.Background(), "!room:example.org", 5, 10)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(events) != 10 {
		t.Errorf("Expected 10 events, got %d", len(events))
	}
	if pages != 2 {
		t.Errorf("Expected 2 pages fetched, got %d", pages)
	}
}

func TestSendUsesFreshTransactionIDs(t *testing.T) {
	var txnIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_matrix/client/v3/login":
			loginHandler(w, r)
		case strings.Contains(r.URL.Path, "/send/m.room.message/"):
			if r.Method != http.MethodPut {
				t.Errorf("method = %s, want PUT", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
				t.Errorf("Authorization = %q", got)
			}
			parts := strings.Split(r.URL.Path, "/")
			txnIDs = append(txnIDs, parts[len(parts)-1])

			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["msgtype"] != "m.text" {
				t.Errorf("msgtype = %q", payload["msgtype"])
			}
			json.NewEncoder(w).Encode(map[string]string{"event_id": "$sent"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		eventID, err := client.Send(ctx, "!room:example.org", "hello")
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		if eventID != "$sent" {
			t.Errorf("eventID = %q", eventID)
		}
	}
	if len(txnIDs) != 2 || txnIDs[0] == txnIDs[1] {
		t.Errorf("Expected distinct transaction IDs, got %v", txnIDs)
	}
}

func TestUserDisplayNameMissingProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret")
	name, err := client.UserDisplayName(context.Background(), "@ghost:example.org")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name != "" {
		t.Errorf("name = %q, want empty", name)
	}
}

func TestAdminRoomsDrainsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_matrix/client/v3/login":
			loginHandler(w, r)
		case r.URL.Path == "/_synapse/admin/v1/rooms":
			resp := adminRoomsResponse{}
			if r.URL.Query().Get("from") == "" {
				resp.Rooms = []RoomInfo{{RoomID: "!a:example.org", Name: "Alpha"}}
				resp.NextBatch = "batch2"
			} else {
				resp.Rooms = []RoomInfo{{RoomID: "!b:example.org", Name: "Beta"}}
			}
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "bot", "secret")
	rooms, err := client.AdminRooms(context.Background())
	if err != nil {
		t.Fatalf("AdminRooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Name != "Alpha" || rooms[1].Name != "Beta" {
		t.Errorf("Unexpected rooms %+v", rooms)
	}
}
