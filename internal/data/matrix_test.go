package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"friday/internal/infra/matrix"
)

// fakeHomeserver serves a login endpoint plus a fixed reverse-chronological
// message timeline.
func fakeHomeserver(t *testing.T, events []matrix.Event) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_matrix/client/v3/login":
			json.NewEncoder(w).Encode(matrix.LoginResult{AccessToken: "tok", UserID: "@bot:example.org"})
		case strings.HasSuffix(r.URL.Path, "/messages"):
			json.NewEncoder(w).Encode(map[string]any{"chunk": events})
		default:
			http.NotFound(w, r)
		}
	}))
}

func messageEvent(id int, sender, body string, ts time.Time) matrix.Event {
	return matrix.Event{
		Type:           "m.room.message",
		EventID:        fmt.Sprintf("$ev%d", id),
		Sender:         sender,
		OriginServerTS: ts.UnixMilli(),
		Content:        matrix.Content{MsgType: "m.text", Body: body},
	}
}

func TestFetchMessagesAscendingAfterCutoff(t *testing.T) {
	base := time.Unix(10000, 0)
	// Newest first, as the homeserver delivers
	server := fakeHomeserver(t, []matrix.Event{
		messageEvent(3, "@alice:example.org", "third", base.Add(3*time.Minute)),
		messageEvent(2, "@bob:example.org", "second", base.Add(2*time.Minute)),
		messageEvent(1, "@alice:example.org", "first", base.Add(1*time.Minute)),
	})
	defer server.Close()

	repo := NewMatrixRepo(matrix.NewClient(server.URL, "bot", "secret"))

	// Cutoff sits exactly on the first message: strictly-after excludes it
	since := base.Add(1 * time.Minute)
	messages, err := repo.FetchMessages(context.Background(), "!room:example.org", since, 100)
	if err != nil {
		t.Fatalf("FetchMessages: %v", err)
	}

	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages after cutoff, got %d", len(messages))
	}
	if messages[0].Body != "second" || messages[1].Body != "third" {
		t.Errorf("Expected ascending order, got %q then %q", messages[0].Body, messages[1].Body)
	}
	for _, m := range messages {
		if !m.Timestamp.After(since) {
			t.Errorf("Message %q at %v is not strictly after %v", m.Body, m.Timestamp, since)
		}
	}
}

func TestFetchMessagesZeroSinceReturnsAll(t *testing.T) {
	base := time.Unix(10000, 0)
	server := fakeHomeserver(t, []matrix.Event{
		messageEvent(2, "@bob:example.org", "second", base.Add(2*time.Minute)),
		messageEvent(1, "@alice:example.org", "first", base.Add(1*time.Minute)),
	})
	defer server.Close()

	repo := NewMatrixRepo(matrix.NewClient(server.URL, "bot", "secret"))
	messages, err := repo.FetchMessages(context.Background(), "!room:example.org", time.Time{}, 100)
	if err != nil {
		t.Fatalf("FetchMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("Expected all messages with zero cutoff, got %d", len(messages))
	}
}

func TestLastMessage(t *testing.T) {
	base := time.Unix(10000, 0)
	server := fakeHomeserver(t, []matrix.Event{
		messageEvent(2, "@bob:example.org", "newest", base.Add(2*time.Minute)),
		messageEvent(1, "@alice:example.org", "older", base.Add(1*time.Minute)),
	})
	defer server.Close()

	repo := NewMatrixRepo(matrix.NewClient(server.URL, "bot", "secret"))
	msg, err := repo.LastMessage(context.Background(), "!room:example.org")
	if err != nil {
		t.Fatalf("LastMessage: %v", err)
	}
	if msg == nil || msg.Body != "newest" {
		t.Fatalf("Expected newest message, got %+v", msg)
	}
	if msg.Sender != "@bob:example.org" {
		t.Errorf("Sender = %q", msg.Sender)
	}
}

func TestLastMessageEmptyRoom(t *testing.T) {
	server := fakeHomeserver(t, nil)
	defer server.Close()

	repo := NewMatrixRepo(matrix.NewClient(server.URL, "bot", "secret"))
	msg, err := repo.LastMessage(context.Background(), "!room:example.org")
	if err != nil {
		t.Fatalf("LastMessage: %v", err)
	}
	if msg != nil {
		t.Errorf("Expected nil for empty room, got %+v", msg)
	}
}
