package usecase

import (
	"context"
	"fmt"
	"strings"

	"friday/internal/biz/domain"
	"friday/internal/biz/repo"
)

// ReconcileUsecase applies LLM-proposed task mutations to the store.
type ReconcileUsecase struct {
	store repo.Store
}

// NewReconcileUsecase creates a new reconcile usecase
func NewReconcileUsecase(store repo.Store) *ReconcileUsecase {
	return &ReconcileUsecase{store: store}
}

// Reconcile applies task updates and creates new tasks from an LLM result.
// Tasks are resolved by id AND room, never id alone, so the model can
// never mutate another room's tasks. Stale ids and invalid statuses are
// skipped without error. Returns the tasks created by this run.
func (uc *ReconcileUsecase) Reconcile(ctx context.Context, roomID int64, result *domain.ProcessResult) ([]*domain.Task, error) {
	for _, update := range result.TaskUpdates {
		task, err := uc.store.TaskByIDAndRoom(ctx, update.ID, roomID)
		if err != nil {
			return nil, fmt.Errorf("lookup task %d: %w", update.ID, err)
		}
		if task == nil {
			// The model may reference a stale or foreign id.
			continue
		}

		changed := false
		if domain.ValidTaskStatus(update.Status) && update.Status != task.Status {
			task.Status = update.Status
			changed = true
		}
		if update.Note != "" {
			task.AppendNote(update.Note)
			changed = true
		}
		if !changed {
			continue
		}
		if err := uc.store.SaveTask(ctx, task); err != nil {
			return nil, fmt.Errorf("save task %d: %w", task.ID, err)
		}
	}

	var created []*domain.Task
	for _, desc := range result.NewTasks {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		task := &domain.Task{
			RoomID:      roomID,
			Description: desc,
			Status:      domain.TaskPending,
		}
		if err := uc.store.CreateTask(ctx, task); err != nil {
			return nil, fmt.Errorf("create task: %w", err)
		}
		created = append(created, task)
	}

	return created, nil
}
