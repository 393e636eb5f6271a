package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"friday/internal/api"
	"friday/internal/biz"
	"friday/internal/biz/usecase"
	"friday/internal/conf"
	"friday/internal/data"
	"friday/internal/infra/matrix"
	"friday/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := conf.LoadFromEnv()
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := data.NewStore(config.Store.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	matrixClient := matrix.NewClient(config.Matrix.Homeserver, config.Matrix.Username, config.Matrix.Password)
	chatRepo := data.NewMatrixRepo(matrixClient)

	identity, err := chatRepo.Login(context.Background())
	if err != nil {
		log.Fatalf("Failed to log in to homeserver: %v", err)
	}
	fmt.Printf("[Main] Logged in as %s (device %s)\n", identity.UserID, identity.DeviceID)

	llmRepo := data.NewLLMRepo(config.OpenAI.APIKey, config.OpenAI.BaseURL, config.OpenAI.Model)
	usecases := biz.Usecases{
		ContextBuilder: usecase.NewContextBuilderUsecase(chatRepo),
		Reconcile:      usecase.NewReconcileUsecase(store),
	}

	worker := service.NewWorker(
		store, chatRepo, llmRepo, usecases.ContextBuilder, usecases.Reconcile,
		config.Matrix.BotUserID,
		config.Worker.PollInterval,
		config.Worker.SummaryCooldown,
		config.Worker.FetchLimit,
	)
	syncer := service.NewRoomSyncer(store, chatRepo)
	server := api.NewServer(store, usecases.ContextBuilder, worker, config.API.Addr, config.API.BearerToken)

	syncer.Start()
	worker.Start()
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")
	worker.Stop()
	syncer.Stop()
	if err := server.Stop(); err != nil {
		fmt.Printf("[Main] API shutdown error: %v\n", err)
	}
}
