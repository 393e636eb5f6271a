package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"friday/internal/infra/matrix"
)

// Fetches the most recent messages from a room and prints them in
// chronological order, for verifying pagination and ordering against a
// live homeserver.
func main() {
	godotenv.Load()

	homeserver := os.Getenv("MATRIX_HOMESERVER")
	username := os.Getenv("MATRIX_USERNAME")
	password := os.Getenv("MATRIX_PASSWORD")

	if len(os.Args) < 2 {
		fmt.Println("Usage: debug-api <room_id> [limit]")
		os.Exit(1)
	}
	roomID := os.Args[1]

	limit := 10
	if len(os.Args) > 2 {
		if parsed, err := strconv.Atoi(os.Args[2]); err == nil {
			limit = parsed
		}
	}

	client := matrix.NewClient(homeserver, username, password)
	ctx := context.Background()

	login, err := client.Login(ctx)
	if err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	fmt.Printf("Logged in as %s\n\n", login.UserID)

	events, err := client.Messages(ctx, roomID, limit, limit)
	if err != nil {
		fmt.Printf("Fetch failed: %v\n", err)
		return
	}

	// Reverse to chronological order
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	fmt.Printf("Returned %d messages (sorted in chronological order):\n", len(events))
	for i, ev := range events {
		t := time.UnixMilli(ev.OriginServerTS)
		body := ev.Content.Body
		if len(body) > 50 {
			body = body[:50] + "..."
		}
		fmt.Printf("  %d. [%s] %s: %s\n", i+1, t.Format("15:04:05"), ev.Sender, body)
	}
}
