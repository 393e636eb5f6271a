package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"friday/internal/biz/domain"
	"friday/internal/biz/repo"
	"friday/internal/biz/usecase"
)

const helpText = `Available commands:

• help - Show this help message
• rooms - List your monitored rooms
• summary all - Get summaries for all rooms
• summary {room_code} - Get summary for a specific room
• todo all - Show all pending tasks
• todo {room_code} - Show tasks for a specific room`

const pendingTaskLimit = 20

// Worker is the processing orchestrator: a polling loop that serves each
// active subscriber's control room in turn. Failures are contained per
// subscriber, and per room within a summary run.
type Worker struct {
	store      repo.Store
	chat       repo.ChatRepo
	llm        repo.LLMRepo
	builder    *usecase.ContextBuilderUsecase
	reconciler *usecase.ReconcileUsecase

	botUserID  string
	cooldown   time.Duration
	fetchLimit int

	pollInterval time.Duration
	running      bool
	stopCh       chan struct{}
	wg           sync.WaitGroup

	now func() time.Time
}

// NewWorker creates a new worker
func NewWorker(
	store repo.Store,
	chat repo.ChatRepo,
	llm repo.LLMRepo,
	builder *usecase.ContextBuilderUsecase,
	reconciler *usecase.ReconcileUsecase,
	botUserID string,
	pollInterval, cooldown time.Duration,
	fetchLimit int,
) *Worker {
	return &Worker{
		store:        store,
		chat:         chat,
		llm:          llm,
		builder:      builder,
		reconciler:   reconciler,
		botUserID:    botUserID,
		cooldown:     cooldown,
		fetchLimit:   fetchLimit,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
		now:          time.Now,
	}
}

// Start starts the polling loop
func (w *Worker) Start() {
	if w.running {
		return
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
	fmt.Printf("[Worker] Started with poll interval %v\n", w.pollInterval)
}

// Stop stops the loop. The in-flight subscriber is finished; no new
// cycle is started.
func (w *Worker) Stop() {
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	w.wg.Wait()
	fmt.Println("[Worker] Stopped")
}

func (w *Worker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunCycle(context.Background())
		}
	}
}

// RunCycle runs one full pass over all active subscribers. A subscriber's
// failure never prevents the rest from being served.
func (w *Worker) RunCycle(ctx context.Context) {
	subscribers, err := w.store.ActiveSubscribers(ctx)
	if err != nil {
		fmt.Printf("[Worker] Failed to list subscribers: %v\n", err)
		return
	}

	for _, sub := range subscribers {
		select {
		case <-w.stopCh:
			return
		default:
		}
		if err := w.serveSubscriber(ctx, sub); err != nil {
			fmt.Printf("[Worker] Failed to process subscriber %d: %v\n", sub.ID, err)
		}
	}
}

// serveSubscriber contains anything that goes wrong for one subscriber,
// panics included, so one bad subscriber cannot take down the loop.
func (w *Worker) serveSubscriber(ctx context.Context, sub *domain.Subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processSubscriber(ctx, sub)
}

// processSubscriber reads the latest control-room message and dispatches
// the command it carries, if any.
func (w *Worker) processSubscriber(ctx context.Context, sub *domain.Subscriber) error {
	last, err := w.chat.LastMessage(ctx, sub.ControlRoomID)
	if err != nil {
		return fmt.Errorf("fetch last message: %w", err)
	}
	if last == nil {
		return nil
	}

	// The most recent message being our own means we already responded;
	// reacting to it would loop forever.
	if last.IsFrom(w.botUserID) {
		return nil
	}

	cmd := domain.ParseCommand(last.Body)
	switch cmd.Kind {
	case domain.CmdNone:
		return nil
	case domain.CmdUnknown:
		return w.reply(ctx, sub, "Sorry, I didn't recognize that command. Type 'help' to see what I can do.")
	}

	fmt.Printf("[Worker] Command %q from subscriber %d\n", strings.TrimSpace(last.Body), sub.ID)

	switch cmd.Kind {
	case domain.CmdHelp:
		return w.reply(ctx, sub, helpText)
	case domain.CmdRooms:
		return w.handleRooms(ctx, sub)
	case domain.CmdSummaryAll:
		return w.handleSummaryAll(ctx, sub)
	case domain.CmdSummaryRoom:
		return w.handleSummaryRoom(ctx, sub, cmd.Alias)
	case domain.CmdTodoAll:
		return w.handleTodoAll(ctx, sub)
	case domain.CmdTodoRoom:
		return w.handleTodoRoom(ctx, sub, cmd.Alias)
	}
	return nil
}

func (w *Worker) reply(ctx context.Context, sub *domain.Subscriber, body string) error {
	if _, err := w.chat.SendMessage(ctx, sub.ControlRoomID, body); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (w *Worker) handleRooms(ctx context.Context, sub *domain.Subscriber) error {
	rooms, err := w.store.RoomsBySubscriber(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	if len(rooms) == 0 {
		return w.reply(ctx, sub, "You don't have any monitored rooms yet.")
	}

	lines := []string{"Your monitored rooms:\n"}
	for _, room := range rooms {
		lines = append(lines, fmt.Sprintf("• %s - %s", room.Alias, room.DisplayName()))
	}
	return w.reply(ctx, sub, strings.Join(lines, "\n"))
}

func (w *Worker) handleSummaryAll(ctx context.Context, sub *domain.Subscriber) error {
	rooms, err := w.store.RoomsBySubscriber(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	if len(rooms) == 0 {
		return w.reply(ctx, sub, "You don't have any monitored rooms.")
	}

	ok, err := w.checkCooldown(ctx, sub)
	if err != nil || !ok {
		return err
	}
	return w.processSummaries(ctx, sub, rooms)
}

func (w *Worker) handleSummaryRoom(ctx context.Context, sub *domain.Subscriber, alias string) error {
	room, err := w.store.RoomByAlias(ctx, sub.ID, alias)
	if err != nil {
		return fmt.Errorf("lookup room: %w", err)
	}
	if room == nil {
		return w.reply(ctx, sub, fmt.Sprintf("Room '%s' not found. Use 'rooms' to see your room codes.", alias))
	}

	ok, err := w.checkCooldown(ctx, sub)
	if err != nil || !ok {
		return err
	}
	return w.processSummaries(ctx, sub, []*domain.Room{room})
}

func (w *Worker) handleTodoAll(ctx context.Context, sub *domain.Subscriber) error {
	tasks, err := w.store.PendingTasksBySubscriber(ctx, sub.ID, pendingTaskLimit)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return w.reply(ctx, sub, "No pending tasks. You're all caught up!")
	}

	// Tag each line with the room alias it belongs to
	aliases := make(map[int64]string)
	rooms, err := w.store.RoomsBySubscriber(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	for _, room := range rooms {
		aliases[room.ID] = room.Alias
	}

	lines := []string{"Your pending tasks:\n"}
	for _, task := range tasks {
		alias := aliases[task.RoomID]
		if alias == "" {
			alias = "General"
		}
		lines = append(lines, fmt.Sprintf("• [%s] %s", alias, task.Description))
	}
	return w.reply(ctx, sub, strings.Join(lines, "\n"))
}

func (w *Worker) handleTodoRoom(ctx context.Context, sub *domain.Subscriber, alias string) error {
	room, err := w.store.RoomByAlias(ctx, sub.ID, alias)
	if err != nil {
		return fmt.Errorf("lookup room: %w", err)
	}
	if room == nil {
		return w.reply(ctx, sub, fmt.Sprintf("Room '%s' not found. Use 'rooms' to see your room codes.", alias))
	}

	tasks, err := w.store.PendingTasksByRoom(ctx, room.ID, pendingTaskLimit)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return w.reply(ctx, sub, fmt.Sprintf("No pending tasks for %s.", room.DisplayName()))
	}

	lines := []string{fmt.Sprintf("Pending tasks for %s:\n", room.DisplayName())}
	for _, task := range tasks {
		lines = append(lines, fmt.Sprintf("• %s", task.Description))
	}
	return w.reply(ctx, sub, strings.Join(lines, "\n"))
}

// SummarizeNow runs the summary pipeline for one room on demand,
// bypassing the cooldown. Returns false when the room had nothing new.
func (w *Worker) SummarizeNow(ctx context.Context, sub *domain.Subscriber, room *domain.Room) (bool, error) {
	return w.summarizeRoom(ctx, sub, room, domain.DateKey(w.now()))
}

// checkCooldown reports whether the subscriber may request a summary.
// The window is measured from their most recently delivered summary
// across all rooms; a pending or failed delivery does not count.
func (w *Worker) checkCooldown(ctx context.Context, sub *domain.Subscriber) (bool, error) {
	lastAt, err := w.store.LastDeliveredSummaryAt(ctx, sub.ID)
	if err != nil {
		return false, fmt.Errorf("check cooldown: %w", err)
	}
	if lastAt.IsZero() {
		return true, nil
	}

	elapsed := w.now().Sub(lastAt)
	if elapsed >= w.cooldown {
		return true, nil
	}

	remaining := int(w.cooldown.Minutes()) - int(elapsed.Minutes())
	return false, w.reply(ctx, sub, fmt.Sprintf("Please wait %d more minutes for the next summary.", remaining))
}

// processSummaries summarizes each room independently; one room's failure
// does not abort its siblings. When nothing produced a summary, a single
// notice is sent instead of silence.
func (w *Worker) processSummaries(ctx context.Context, sub *domain.Subscriber, rooms []*domain.Room) error {
	today := domain.DateKey(w.now())
	sent := 0

	for _, room := range rooms {
		produced, err := w.summarizeRoom(ctx, sub, room, today)
		if err != nil {
			fmt.Printf("[Worker] Failed to summarize room %d: %v\n", room.ID, err)
			continue
		}
		if produced {
			sent++
			fmt.Printf("[Worker] Sent summary for room %d\n", room.ID)
		}
	}

	if sent == 0 {
		return w.reply(ctx, sub, "No new messages to summarize.")
	}
	return nil
}

// summarizeRoom runs the full pipeline for one room: fetch, build
// context, complete, reconcile tasks, format, deliver, record outcome.
// Returns true when a summary was produced and delivered.
func (w *Worker) summarizeRoom(ctx context.Context, sub *domain.Subscriber, room *domain.Room, today string) (bool, error) {
	state, err := w.store.StateByRoom(ctx, room.ID)
	if err != nil {
		return false, fmt.Errorf("load state: %w", err)
	}

	since := state.LastSyncedAt
	if since.IsZero() {
		since = room.LastReadAt
	}

	messages, err := w.chat.FetchMessages(ctx, room.RemoteID, since, w.fetchLimit)
	if err != nil {
		return false, fmt.Errorf("fetch messages: %w", err)
	}

	prior, err := w.store.LastSummaryByRoom(ctx, room.ID)
	if err != nil {
		return false, fmt.Errorf("load prior summary: %w", err)
	}
	pending, err := w.store.PendingTasksByRoom(ctx, room.ID, pendingTaskLimit)
	if err != nil {
		return false, fmt.Errorf("load pending tasks: %w", err)
	}

	doc, err := w.builder.Build(ctx, room, messages, w.botUserID, prior, pending)
	if err != nil {
		return false, fmt.Errorf("build context: %w", err)
	}
	if doc == nil {
		// No new messages; nothing to do for this room.
		return false, nil
	}

	// Stage the context and mark the room processing before the LLM call,
	// so a crash leaves enough behind to see what was in flight.
	staged, _ := json.Marshal(doc)
	state.Status = domain.StateProcessing
	state.StagedContext = string(staged)
	state.ProcessingStartedAt = w.now()
	if err := w.store.SaveState(ctx, state); err != nil {
		return false, fmt.Errorf("save state: %w", err)
	}

	result, err := w.llm.Complete(ctx, doc)
	if err != nil {
		w.failState(ctx, state, fmt.Sprintf("llm completion: %v", err))
		return false, fmt.Errorf("llm completion: %w", err)
	}

	created, err := w.reconciler.Reconcile(ctx, room.ID, result)
	if err != nil {
		w.failState(ctx, state, fmt.Sprintf("reconcile tasks: %v", err))
		return false, fmt.Errorf("reconcile tasks: %w", err)
	}

	newest := messages[len(messages)-1].Timestamp
	summary := &domain.Summary{
		RoomID:        room.ID,
		Text:          result.Summary,
		Reply:         result.Reply,
		NeedsMoreInfo: result.NeedsMoreInfo,
		MessageCount:  len(messages),
		FromTime:      since,
		ToTime:        newest,
	}
	for _, task := range created {
		summary.NewTasks = append(summary.NewTasks, task.Description)
	}
	if err := w.store.CreateSummary(ctx, summary); err != nil {
		w.failState(ctx, state, fmt.Sprintf("record summary: %v", err))
		return false, fmt.Errorf("record summary: %w", err)
	}

	count, err := w.store.IncrementDailyCount(ctx, room.ID, today)
	if err != nil {
		return false, fmt.Errorf("increment daily count: %w", err)
	}

	remaining, err := w.store.PendingTasksByRoom(ctx, room.ID, pendingTaskLimit)
	if err != nil {
		return false, fmt.Errorf("load remaining tasks: %w", err)
	}

	body := FormatSummaryMessage(room, summary, remaining, count)
	now := w.now()
	if _, err := w.chat.SendMessage(ctx, sub.ControlRoomID, body); err != nil {
		if markErr := w.store.MarkSummaryFailed(ctx, summary.ID, now, err.Error()); markErr != nil {
			fmt.Printf("[Worker] Failed to record delivery failure for summary %d: %v\n", summary.ID, markErr)
		}
		w.failState(ctx, state, fmt.Sprintf("send summary: %v", err))
		return false, fmt.Errorf("send summary: %w", err)
	}
	if err := w.store.MarkSummarySent(ctx, summary.ID, now); err != nil {
		return false, fmt.Errorf("mark summary sent: %w", err)
	}

	state.Status = domain.StateIdle
	state.StagedContext = ""
	state.FailureReason = ""
	state.AdvanceSyncedAt(newest)
	state.LastSummarizedAt = now
	if err := w.store.SaveState(ctx, state); err != nil {
		return false, fmt.Errorf("save state: %w", err)
	}
	if err := w.store.AdvanceLastRead(ctx, room.ID, newest); err != nil {
		return false, fmt.Errorf("advance watermark: %w", err)
	}

	return true, nil
}

// failState leaves the room in failed with the reason visible to the
// operator. The next summary request retries from the same watermark.
func (w *Worker) failState(ctx context.Context, state *domain.ProcessingState, reason string) {
	state.Status = domain.StateFailed
	state.FailureReason = reason
	if err := w.store.SaveState(ctx, state); err != nil {
		fmt.Printf("[Worker] Failed to save failed state for room %d: %v\n", state.RoomID, err)
	}
}

// FormatSummaryMessage renders the multi-section plain-text reply for one
// delivered summary.
func FormatSummaryMessage(room *domain.Room, summary *domain.Summary, remaining []*domain.Task, dailyCount int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Summary for %s\n\n", room.DisplayName()))
	sb.WriteString(summary.Text)

	if summary.Reply != "" {
		sb.WriteString("\n\nSuggested reply:\n")
		sb.WriteString(summary.Reply)
	}
	if summary.NeedsMoreInfo {
		sb.WriteString("\n\nI could use more context to summarize this room accurately.")
	}
	if len(summary.NewTasks) > 0 {
		sb.WriteString("\n\nNew tasks:")
		for _, desc := range summary.NewTasks {
			sb.WriteString(fmt.Sprintf("\n• %s", desc))
		}
	}
	if len(remaining) > 0 {
		sb.WriteString("\n\nStill pending:")
		for _, task := range remaining {
			sb.WriteString(fmt.Sprintf("\n• %s", task.Description))
		}
	}

	sb.WriteString(fmt.Sprintf("\n\nCovered %d new messages. Summary #%d today for this room.",
		summary.MessageCount, dailyCount))
	return sb.String()
}
