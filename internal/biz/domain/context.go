package domain

// SelfSender is the sentinel value the configured bot identity maps to in
// the sender mapping, so the model knows which messages are the operator's.
const SelfSender = "yourself"

// ContextMessage is one message as presented to the model.
type ContextMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// ContextTask is a pending task as presented to the model.
type ContextTask struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
}

// ContextRoom describes the room under summarization.
type ContextRoom struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ContextGoals is the fixed declarative policy block.
type ContextGoals struct {
	ReplyGeneration     map[string]bool   `json:"reply_generation"`
	TaskExtraction      map[string]bool   `json:"task_extraction"`
	TaskReconciliation  map[string]bool   `json:"task_reconciliation"`
	ConversationSummary map[string]string `json:"conversation_summary"`
}

// ContextDocument is the structured request handed to the LLM client.
// PreviousSummary and PreviousTasks are nil pointers (explicit nulls in
// JSON) when there is no prior run.
type ContextDocument struct {
	Room            ContextRoom       `json:"room"`
	Messages        []ContextMessage  `json:"messages"`
	SenderMapping   map[string]string `json:"sender_mapping"`
	PreviousSummary *string           `json:"previous_summary"`
	PreviousTasks   []string          `json:"previous_tasks"`
	PendingTasks    []ContextTask     `json:"pending_tasks"`
	Goals           ContextGoals      `json:"goals"`
	ResponseRules   map[string]string `json:"response_rules"`
	OutputFormat    map[string]string `json:"output_format"`
}

// TaskUpdate is an LLM-proposed mutation of an existing task.
type TaskUpdate struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// ProcessResult is the parsed output of one LLM completion.
type ProcessResult struct {
	Summary       string       `json:"summary"`
	Reply         string       `json:"reply"`
	NeedsMoreInfo bool         `json:"needs_more_information"`
	TaskUpdates   []TaskUpdate `json:"todo_updates"`
	NewTasks      []string     `json:"new_todos"`
}
