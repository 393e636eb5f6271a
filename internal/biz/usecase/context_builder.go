package usecase

import (
	"context"

	"friday/internal/biz/domain"
	"friday/internal/biz/repo"
)

// ContextBuilderUsecase assembles LLM context documents
type ContextBuilderUsecase struct {
	chatRepo repo.ChatRepo
}

// NewContextBuilderUsecase creates a new context builder usecase
func NewContextBuilderUsecase(chatRepo repo.ChatRepo) *ContextBuilderUsecase {
	return &ContextBuilderUsecase{chatRepo: chatRepo}
}

// Build assembles a context document for one room.
// Returns nil when there are no messages: nothing to do, not an error.
// selfID is the bot's own chat identity; it maps to the SelfSender
// sentinel so the model can tell the operator's messages apart. Every
// other sender maps to its display name, falling back to the raw ID.
func (uc *ContextBuilderUsecase) Build(
	ctx context.Context,
	room *domain.Room,
	messages []domain.Message,
	selfID string,
	prior *domain.Summary,
	pending []*domain.Task,
) (*domain.ContextDocument, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	mapping := map[string]string{selfID: domain.SelfSender}
	ctxMessages := make([]domain.ContextMessage, 0, len(messages))
	for _, m := range messages {
		if _, seen := mapping[m.Sender]; !seen && m.Sender != "" {
			mapping[m.Sender] = uc.resolveSender(ctx, m.Sender)
		}
		ctxMessages = append(ctxMessages, domain.ContextMessage{
			Sender:  m.Sender,
			Content: m.Body,
		})
	}

	doc := &domain.ContextDocument{
		Room:          domain.ContextRoom{ID: room.ID, Name: room.DisplayName()},
		Messages:      ctxMessages,
		SenderMapping: mapping,
		Goals: domain.ContextGoals{
			ReplyGeneration: map[string]bool{
				"direct_answer_if_possible": true,
				"acknowledge_if_unclear":    true,
			},
			TaskExtraction: map[string]bool{
				"enabled":            true,
				"only_if_actionable": true,
			},
			TaskReconciliation: map[string]bool{
				"enabled":               true,
				"update_existing_by_id": true,
				"only_listed_task_ids":  true,
			},
			ConversationSummary: map[string]string{
				"enabled": "true",
				"length":  "short",
			},
		},
		ResponseRules: map[string]string{
			"language":    "same as sender",
			"tone":        "natural, polite, concise",
			"emoji_usage": "only_if_user_used",
			"no_markdown": "true",
		},
		OutputFormat: map[string]string{
			"summary":                "string",
			"reply":                  "string | null",
			"needs_more_information": "boolean",
			"todo_updates":           "array of {id: number, status: pending|done|cancelled, note: string|null} | empty",
			"new_todos":              "array of strings | empty",
		},
	}

	if prior != nil {
		text := prior.Text
		doc.PreviousSummary = &text
		doc.PreviousTasks = prior.NewTasks
	}

	for _, t := range pending {
		doc.PendingTasks = append(doc.PendingTasks, domain.ContextTask{
			ID:          t.ID,
			Description: t.Description,
			Notes:       t.Notes,
		})
	}

	return doc, nil
}

// resolveSender looks up a display name, falling back to the raw ID.
// The caller memoizes results in the sender mapping, so repeated
// senders cost one lookup each.
func (uc *ContextBuilderUsecase) resolveSender(ctx context.Context, userID string) string {
	name, err := uc.chatRepo.DisplayName(ctx, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}
