package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"friday/internal/infra/matrix"
)

func main() {
	godotenv.Load()

	homeserver := os.Getenv("MATRIX_HOMESERVER")
	username := os.Getenv("MATRIX_USERNAME")
	password := os.Getenv("MATRIX_PASSWORD")

	if homeserver == "" || username == "" || password == "" {
		fmt.Println("Error: MATRIX_HOMESERVER, MATRIX_USERNAME and MATRIX_PASSWORD must be set")
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-message <room_id> <message>")
		os.Exit(1)
	}

	roomID := os.Args[1]
	message := os.Args[2]

	client := matrix.NewClient(homeserver, username, password)

	eventID, err := client.Send(context.Background(), roomID, message)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message sent: %s\n", eventID)
}
