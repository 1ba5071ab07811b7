package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

type chatAPIFake struct {
	history []domain.Message

	mu        sync.Mutex
	sent      []string
	sendErr   error
	sendDelay time.Duration

	deleted   []string
	deleteErr error
}

func (f *chatAPIFake) ListMessages(context.Context, string) ([]domain.Message, error) {
	return f.history, nil
}

func (f *chatAPIFake) SendMessage(_ context.Context, _ string, content string) ([]domain.Message, error) {
	if f.sendDelay > 0 {
		time.Sleep(f.sendDelay)
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, content)
	f.mu.Unlock()
	return []domain.Message{
		{ID: "echo-" + content, Role: domain.MessageRoleUser, Content: content},
		{ID: "reply-" + content, Role: domain.MessageRoleAssistant, Content: "re: " + content},
	}, nil
}

func (f *chatAPIFake) DeleteMessage(_ context.Context, _, messageID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func newChatFixture(sessions sessionSource, api *chatAPIFake) (*ChatUseCase, *cache.Store) {
	store := cache.New(time.Minute, nil)
	coord := NewMutationCoordinator(store, nil, testLogger())
	return NewChatUseCase(api, store, coord, sessions, testLogger()), store
}

func TestSendReplacesPendingWithServerPair(t *testing.T) {
	api := &chatAPIFake{history: []domain.Message{{ID: "m0", Role: domain.MessageRoleAssistant, Content: "hello"}}}
	uc, store := newChatFixture(clientSession(), api)
	if _, err := uc.History(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	var sawPending bool
	cancel := store.Subscribe(func(e cache.Entry) {
		msgs, ok := e.Value.([]domain.Message)
		if !ok || e.Freshness != cache.Loading {
			return
		}
		last := msgs[len(msgs)-1]
		if strings.HasPrefix(last.ID, "pending-") && last.Role == domain.MessageRoleUser {
			sawPending = true
		}
	})
	defer cancel()

	got, err := uc.Send(context.Background(), "c1", "What is discovery?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !sawPending {
		t.Fatal("pending message was never observable")
	}
	if len(got) != 3 {
		t.Fatalf("history length = %d, want history + pair", len(got))
	}
	for _, m := range got {
		if strings.HasPrefix(m.ID, "pending-") {
			t.Fatalf("pending message survived reconciliation: %+v", m)
		}
	}
	if got[1].Role != domain.MessageRoleUser || got[2].Role != domain.MessageRoleAssistant {
		t.Fatalf("pair order wrong: %+v", got[1:])
	}
}

func TestSendRollbackRemovesPendingMessage(t *testing.T) {
	api := &chatAPIFake{
		history: []domain.Message{{ID: "m0", Role: domain.MessageRoleAssistant}},
		sendErr: domain.WrapError(domain.ErrTemporary, "send", errors.New("llm timeout")),
	}
	uc, store := newChatFixture(clientSession(), api)
	if _, err := uc.History(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	if _, err := uc.Send(context.Background(), "c1", "hello?"); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("error kind = %v, want ErrTemporary", err)
	}
	entry := store.Get(messagesKey("c1"))
	msgs := entry.Value.([]domain.Message)
	if len(msgs) != 1 || msgs[0].ID != "m0" {
		t.Fatalf("history after rollback = %+v, want the original only", msgs)
	}
	if entry.LastError == nil {
		t.Fatal("rollback must record the cause")
	}
}

func TestRapidSendsStayOrdered(t *testing.T) {
	api := &chatAPIFake{sendDelay: 20 * time.Millisecond}
	uc, store := newChatFixture(clientSession(), api)
	store.Write(messagesKey("c1"), []domain.Message{})

	var wg sync.WaitGroup
	for i, content := range []string{"first", "second", "third"} {
		wg.Add(1)
		go func(i int, content string) {
			defer wg.Done()
			time.Sleep(time.Duration(i) * 30 * time.Millisecond)
			if _, err := uc.Send(context.Background(), "c1", content); err != nil {
				t.Errorf("Send(%q) error = %v", content, err)
			}
		}(i, content)
	}
	wg.Wait()

	msgs := store.Get(messagesKey("c1")).Value.([]domain.Message)
	if len(msgs) != 6 {
		t.Fatalf("history length = %d, want 3 pairs", len(msgs))
	}
	var userOrder []string
	for _, m := range msgs {
		if m.Role == domain.MessageRoleUser {
			userOrder = append(userOrder, m.Content)
		}
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if userOrder[i] != want[i] {
			t.Fatalf("submission order = %v, want %v", userOrder, want)
		}
	}
}

func TestSendRejectsEmptyContent(t *testing.T) {
	uc, _ := newChatFixture(clientSession(), &chatAPIFake{})
	if _, err := uc.Send(context.Background(), "c1", "   "); !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("error kind = %v, want ErrValidation", err)
	}
}

func TestSendOnColdCacheLeavesHistoryToServer(t *testing.T) {
	api := &chatAPIFake{history: []domain.Message{{ID: "m0", Role: domain.MessageRoleAssistant}}}
	uc, store := newChatFixture(clientSession(), api)

	// No History call first: the reply pair alone must not be written
	// as the case's whole conversation.
	if _, err := uc.Send(context.Background(), "c1", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	entry := store.Get(messagesKey("c1"))
	msgs, _ := entry.Value.([]domain.Message)
	if !entry.Present || len(msgs) != 1 || msgs[0].ID != "m0" {
		t.Fatalf("history after cold send = %+v, want the server's list", entry.Value)
	}
}

func TestDeleteOnColdCacheLeavesHistoryToServer(t *testing.T) {
	api := &chatAPIFake{history: []domain.Message{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}}
	uc, store := newChatFixture(adminSession(), api)

	if err := uc.Delete(context.Background(), "c1", "m2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if entry := store.Get(messagesKey("c1")); entry.Present {
		t.Fatalf("cold delete fabricated a history: %+v", entry.Value)
	}
	msgs, err := uc.History(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("history = %+v, want the server's list", msgs)
	}
}

func TestDeleteFiltersOptimistically(t *testing.T) {
	api := &chatAPIFake{history: []domain.Message{{ID: "m1"}, {ID: "m2"}}}
	uc, store := newChatFixture(adminSession(), api)
	if _, err := uc.History(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	if err := uc.Delete(context.Background(), "c1", "m1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	msgs := store.Get(messagesKey("c1")).Value.([]domain.Message)
	if len(msgs) != 1 || msgs[0].ID != "m2" {
		t.Fatalf("history after delete = %+v", msgs)
	}
}
