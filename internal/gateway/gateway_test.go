package gateway

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/domain/models"
	"github.com/parleybot/parley/internal/infra/telegram"
)

// --- fakes ---

type sentMessage struct {
	chatID int64
	text   string
}

type fakeMessenger struct {
	mu      sync.Mutex
	batches [][]telegram.Update
	pollErr error

	offsets []int64
	sent    []sentMessage
	actions []string
}

// GetUpdates pops one queued batch per call; once drained it blocks until
// ctx is cancelled, like a real long poll with no traffic.
func (f *fakeMessenger) GetUpdates(ctx context.Context, offset int64, _ int) ([]telegram.Update, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	if f.pollErr != nil {
		err := f.pollErr
		f.pollErr = nil
		f.mu.Unlock()
		return nil, err
	}
	if len(f.batches) > 0 {
		batch := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) SendChatAction(_ context.Context, _ int64, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeMessenger) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.text
	}
	return out
}

func (f *fakeMessenger) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeCompleter struct {
	mu    sync.Mutex
	keys  []conversation.Key
	texts []string

	chunks    []string
	persisted bool
	delay     time.Duration
}

func (f *fakeCompleter) Complete(_ context.Context, key conversation.Key, text string) ([]string, bool) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.texts = append(f.texts, text)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.chunks, f.persisted
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

// --- helpers ---

func newTestGateway(t *testing.T, fm *fakeMessenger, fc Completer, cfg Config) (*Gateway, *conversation.Store, *models.Registry) {
	t.Helper()

	store := conversation.NewStore(10)
	registry, err := models.NewRegistry(models.DefaultCatalog(), "deepseek-chat")
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return New(fm, fc, store, registry, cfg), store, registry
}

func textUpdate(id, chatID int64, text string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message: &telegram.Message{
			MessageID: id,
			Chat:      telegram.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// --- poll loop ---

func TestRun_RelaysMessageAndAdvancesOffset(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{batches: [][]telegram.Update{{textUpdate(7, 123, "hello")}}}
	fc := &fakeCompleter{chunks: []string{"hi"}, persisted: true}
	g, _, _ := newTestGateway(t, fm, fc, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	waitFor(t, 2*time.Second, func() bool {
		fm.mu.Lock()
		defer fm.mu.Unlock()
		return len(fm.sent) == 1 && len(fm.offsets) >= 2
	})

	fm.mu.Lock()
	defer fm.mu.Unlock()
	if fm.sent[0].chatID != 123 || fm.sent[0].text != "hi" {
		t.Errorf("unexpected reply: %+v", fm.sent[0])
	}
	if fm.offsets[0] != 0 {
		t.Errorf("first poll offset = %d; want 0", fm.offsets[0])
	}
	if fm.offsets[1] != 8 {
		t.Errorf("second poll offset = %d; want update_id+1 = 8", fm.offsets[1])
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.keys) != 1 || fc.keys[0] != "telegram:123" || fc.texts[0] != "hello" {
		t.Errorf("unexpected pipeline call: keys=%v texts=%v", fc.keys, fc.texts)
	}
}

func TestRun_RecoversFromPollError(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{
		pollErr: context.DeadlineExceeded,
		batches: [][]telegram.Update{{textUpdate(1, 5, "still there?")}},
	}
	fc := &fakeCompleter{chunks: []string{"yes"}}
	g, _, _ := newTestGateway(t, fm, fc, Config{PollRetryDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	waitFor(t, 2*time.Second, func() bool { return fm.sentCount() == 1 })

	if texts := fm.sentTexts(); texts[0] != "yes" {
		t.Errorf("unexpected reply after retry: %q", texts[0])
	}
}

func TestRun_SkipsAttachmentOnlyMessages(t *testing.T) {
	t.Parallel()

	photoOnly := telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			Chat:  telegram.Chat{ID: 9},
			Photo: []telegram.PhotoSize{{FileID: "p1"}},
		},
	}
	fm := &fakeMessenger{batches: [][]telegram.Update{{photoOnly, textUpdate(2, 9, "a question")}}}
	fc := &fakeCompleter{chunks: []string{"an answer"}}
	g, _, _ := newTestGateway(t, fm, fc, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	waitFor(t, 2*time.Second, func() bool { return fm.sentCount() == 1 })

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.texts) != 1 || fc.texts[0] != "a question" {
		t.Errorf("expected only the text message to relay, got %v", fc.texts)
	}
}

func TestDispatch_IgnoresUpdatesWithoutMessage(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	fc := &fakeCompleter{}
	g, _, _ := newTestGateway(t, fm, fc, Config{})

	g.dispatch(context.Background(), telegram.Update{UpdateID: 1})

	if fm.sentCount() != 0 || fc.callCount() != 0 {
		t.Error("expected message-less update to be ignored")
	}
}

// --- delivery ---

func TestDeliver_OrderedWithDelay(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, _, _ := newTestGateway(t, fm, &fakeCompleter{}, Config{SplitDelay: 25 * time.Millisecond})

	start := time.Now()
	g.deliver(context.Background(), 1, []string{"part one", "part two", "part three"})
	elapsed := time.Since(start)

	texts := fm.sentTexts()
	if len(texts) != 3 || texts[0] != "part one" || texts[1] != "part two" || texts[2] != "part three" {
		t.Errorf("unexpected delivery order: %v", texts)
	}
	// two gaps between three parts
	if elapsed < 50*time.Millisecond {
		t.Errorf("delivery took %v; want at least 50ms of inter-chunk delay", elapsed)
	}
}

func TestRelay_ShowsTypingIndicator(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	fc := &fakeCompleter{chunks: []string{"done"}, delay: 30 * time.Millisecond}
	g, _, _ := newTestGateway(t, fm, fc, Config{})

	g.dispatch(context.Background(), textUpdate(1, 77, "think hard"))

	waitFor(t, 2*time.Second, func() bool {
		fm.mu.Lock()
		defer fm.mu.Unlock()
		return len(fm.sent) == 1 && len(fm.actions) > 0
	})

	fm.mu.Lock()
	defer fm.mu.Unlock()
	if fm.actions[0] != "typing" {
		t.Errorf("expected typing action while completing, got %v", fm.actions)
	}
}

// --- commands ---

func TestCommand_ClearDistinguishesEmpty(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, store, _ := newTestGateway(t, fm, &fakeCompleter{}, Config{})
	store.Append(conversationKey(42), conversation.Turn{Role: conversation.RoleUser, Content: "q"})

	g.dispatch(context.Background(), textUpdate(1, 42, "/clear"))
	g.dispatch(context.Background(), textUpdate(2, 99, "/clear"))

	texts := fm.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(texts))
	}
	if texts[0] != "Conversation history cleared." {
		t.Errorf("seeded chat reply = %q", texts[0])
	}
	if texts[1] != "No conversation history to clear." {
		t.Errorf("fresh chat reply = %q", texts[1])
	}
}

func TestCommand_CloseRemovesConversation(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, store, _ := newTestGateway(t, fm, &fakeCompleter{}, Config{})
	store.Append(conversationKey(42), conversation.Turn{Role: conversation.RoleUser, Content: "q"})

	g.dispatch(context.Background(), textUpdate(1, 42, "/close"))
	// after /close the key is gone entirely, so /clear finds nothing
	g.dispatch(context.Background(), textUpdate(2, 42, "/clear"))

	texts := fm.sentTexts()
	if len(texts) != 2 || texts[0] != "Conversation closed." {
		t.Fatalf("unexpected replies: %v", texts)
	}
	if texts[1] != "No conversation history to clear." {
		t.Errorf("expected key removed by /close, got %q", texts[1])
	}
}

func TestCommand_ModelsMarksActive(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, _, _ := newTestGateway(t, fm, &fakeCompleter{}, Config{})

	g.dispatch(context.Background(), textUpdate(1, 42, "/models"))

	texts := fm.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(texts))
	}
	if !strings.Contains(texts[0], "* deepseek-chat") {
		t.Errorf("expected active model starred, got %q", texts[0])
	}
	if !strings.Contains(texts[0], "deepseek-reasoner") {
		t.Errorf("expected full catalog listed, got %q", texts[0])
	}
}

func TestCommand_SetModelSwitches(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, _, registry := newTestGateway(t, fm, &fakeCompleter{}, Config{})

	g.dispatch(context.Background(), textUpdate(1, 42, "/setmodel deepseek-coder"))

	if got := registry.Active().ID; got != "deepseek-coder" {
		t.Errorf("active model = %q; want deepseek-coder", got)
	}
	if texts := fm.sentTexts(); !strings.Contains(texts[0], "deepseek-coder") {
		t.Errorf("expected confirmation, got %q", texts[0])
	}
}

func TestCommand_SetModelRejectsUnknown(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, _, registry := newTestGateway(t, fm, &fakeCompleter{}, Config{})

	g.dispatch(context.Background(), textUpdate(1, 42, "/setmodel gpt-99"))

	if got := registry.Active().ID; got != "deepseek-chat" {
		t.Errorf("active model changed to %q on unknown id", got)
	}
	texts := fm.sentTexts()
	if !strings.Contains(texts[0], "Unknown model") || !strings.Contains(texts[0], "deepseek-chat") {
		t.Errorf("expected rejection with catalog, got %q", texts[0])
	}
}

func TestCommand_SetModelAdminGate(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, _, registry := newTestGateway(t, fm, &fakeCompleter{}, Config{AdminChatID: 99})

	g.dispatch(context.Background(), textUpdate(1, 42, "/setmodel deepseek-coder"))
	if got := registry.Active().ID; got != "deepseek-chat" {
		t.Errorf("non-admin chat switched the model to %q", got)
	}
	if texts := fm.sentTexts(); !strings.Contains(texts[0], "admin") {
		t.Errorf("expected admin refusal, got %q", texts[0])
	}

	g.dispatch(context.Background(), textUpdate(2, 99, "/setmodel deepseek-coder"))
	if got := registry.Active().ID; got != "deepseek-coder" {
		t.Errorf("admin chat could not switch, active = %q", got)
	}
}

func TestCommand_BotSuffixStripped(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, _, _ := newTestGateway(t, fm, &fakeCompleter{}, Config{})

	g.dispatch(context.Background(), textUpdate(1, 42, "/models@parley_bot"))

	texts := fm.sentTexts()
	if len(texts) != 1 || !strings.Contains(texts[0], "Available models:") {
		t.Errorf("expected /models@bot to behave like /models, got %v", texts)
	}
}

func TestCommand_UnknownIgnored(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	fc := &fakeCompleter{}
	g, _, _ := newTestGateway(t, fm, fc, Config{})

	g.dispatch(context.Background(), textUpdate(1, 42, "/frobnicate now"))

	if fm.sentCount() != 0 {
		t.Errorf("unknown command answered: %v", fm.sentTexts())
	}
	if fc.callCount() != 0 {
		t.Error("unknown command reached the pipeline")
	}
}

func TestHelp_ShowsActiveModelAndWindow(t *testing.T) {
	t.Parallel()

	fm := &fakeMessenger{}
	g, _, _ := newTestGateway(t, fm, &fakeCompleter{}, Config{MaxHistory: 10})

	g.dispatch(context.Background(), textUpdate(1, 42, "/help"))

	texts := fm.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(texts))
	}
	if !strings.Contains(texts[0], "deepseek-chat") || !strings.Contains(texts[0], "5 exchanges") {
		t.Errorf("unexpected help text: %q", texts[0])
	}
}
