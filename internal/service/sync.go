package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"friday/internal/biz/repo"
)

const roomSyncInterval = 6 * time.Hour

// RoomSyncer keeps stored room names in line with the homeserver
// directory. Names drift when rooms are renamed remotely; the alias and
// everything else stays local.
type RoomSyncer struct {
	store repo.Store
	chat  repo.ChatRepo

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRoomSyncer creates a new room syncer
func NewRoomSyncer(store repo.Store, chat repo.ChatRepo) *RoomSyncer {
	return &RoomSyncer{
		store:  store,
		chat:   chat,
		stopCh: make(chan struct{}),
	}
}

// Start syncs once immediately, then periodically in the background
func (s *RoomSyncer) Start() {
	if s.running {
		return
	}
	s.running = true

	if err := s.SyncOnce(context.Background()); err != nil {
		fmt.Printf("[RoomSync] Initial sync failed: %v\n", err)
	}

	s.wg.Add(1)
	go s.loop()
	fmt.Printf("[RoomSync] Started with interval %v\n", roomSyncInterval)
}

// Stop stops the background loop
func (s *RoomSyncer) Stop() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.wg.Wait()
	fmt.Println("[RoomSync] Stopped")
}

func (s *RoomSyncer) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(roomSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.SyncOnce(context.Background()); err != nil {
				fmt.Printf("[RoomSync] Sync failed: %v\n", err)
			}
		}
	}
}

// SyncOnce pulls the homeserver room directory and refreshes the stored
// name of every room that appears in it.
func (s *RoomSyncer) SyncOnce(ctx context.Context) error {
	rooms, err := s.chat.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("list directory: %w", err)
	}

	updated := 0
	for _, room := range rooms {
		if room.Name == "" {
			continue
		}
		if err := s.store.UpdateRoomName(ctx, room.RoomID, room.Name); err != nil {
			fmt.Printf("[RoomSync] Failed to update room %s: %v\n", room.RoomID, err)
			continue
		}
		updated++
	}

	fmt.Printf("[RoomSync] Synced %d rooms from directory\n", updated)
	return nil
}
