package service

import (
	"context"
	"testing"

	"friday/internal/biz/repo"
)

func TestSyncOnceRefreshesNames(t *testing.T) {
	store := newStubStore()
	chat := newStubChat()
	chat.directory = []repo.DirectoryRoom{
		{RoomID: "!a:example.org", Name: "Design Team"},
		{RoomID: "!b:example.org", Name: ""}, // unnamed rooms are skipped
		{RoomID: "!c:example.org", Name: "Ops"},
	}

	syncer := NewRoomSyncer(store, chat)
	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if store.renamed["!a:example.org"] != "Design Team" {
		t.Errorf("renamed = %v", store.renamed)
	}
	if _, ok := store.renamed["!b:example.org"]; ok {
		t.Error("Unnamed room must not be written")
	}
	if store.renamed["!c:example.org"] != "Ops" {
		t.Errorf("renamed = %v", store.renamed)
	}
}
