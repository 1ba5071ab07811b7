package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/core/ports"
)

// ChatUseCase manages the per-case conversation. A submission shows the
// user's message immediately under a temporary id; the server's atomic
// [echo, reply] pair replaces it on confirmation.
type ChatUseCase struct {
	api      ports.ChatAPI
	store    *cache.Store
	coord    *MutationCoordinator
	sessions sessionSource
	log      *slog.Logger
}

func NewChatUseCase(
	api ports.ChatAPI,
	store *cache.Store,
	coord *MutationCoordinator,
	sessions sessionSource,
	log *slog.Logger,
) *ChatUseCase {
	return &ChatUseCase{api: api, store: store, coord: coord, sessions: sessions, log: log}
}

func (uc *ChatUseCase) History(ctx context.Context, caseID string) ([]domain.Message, error) {
	value, err := uc.store.Fetch(ctx, messagesKey(caseID), func(ctx context.Context) (any, error) {
		return uc.api.ListMessages(ctx, caseID)
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.Message), nil
}

// Send serializes on the case's message list, so rapid submissions land
// in order and each prediction builds on the previous reply. The pending
// message never survives: it is replaced by the server pair or removed on
// rollback.
func (uc *ChatUseCase) Send(ctx context.Context, caseID, content string) ([]domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.WrapError(domain.ErrValidation, "send message", errEmptyMessage)
	}
	if _, err := gate(uc.sessions, "send message", domain.ActionSendMessage); err != nil {
		return nil, err
	}

	pending := domain.Message{
		ID:        "pending-" + uuid.NewString(),
		Role:      domain.MessageRoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	value, err := uc.coord.Mutate(ctx, Mutation{
		Key: messagesKey(caseID),
		Predict: func(prev cache.Entry) (any, bool) {
			if !prev.Present {
				return nil, false
			}
			return appendMessages(messageList(prev), pending), true
		},
		Apply: func(ctx context.Context, prev cache.Entry) (any, error) {
			pair, err := uc.api.SendMessage(ctx, caseID, content)
			if err != nil {
				return nil, err
			}
			if !prev.Present {
				// A never-fetched history cannot be rebuilt from the
				// pair alone.
				return nil, nil
			}
			return appendMessages(messageList(prev), pair...), nil
		},
	})
	if err != nil {
		return nil, err
	}
	if list, ok := value.([]domain.Message); ok {
		return list, nil
	}
	return uc.History(ctx, caseID)
}

func (uc *ChatUseCase) Delete(ctx context.Context, caseID, messageID string) error {
	if _, err := gate(uc.sessions, "delete message", domain.ActionDeleteMessage); err != nil {
		return err
	}
	_, err := uc.coord.Mutate(ctx, Mutation{
		Key: messagesKey(caseID),
		Predict: func(prev cache.Entry) (any, bool) {
			if !prev.Present {
				return nil, false
			}
			return withoutMessage(messageList(prev), messageID), true
		},
		Apply: func(ctx context.Context, prev cache.Entry) (any, error) {
			if err := uc.api.DeleteMessage(ctx, caseID, messageID); err != nil {
				return nil, err
			}
			if !prev.Present {
				return nil, nil
			}
			return withoutMessage(messageList(prev), messageID), nil
		},
	})
	return err
}

func messageList(entry cache.Entry) []domain.Message {
	if list, ok := entry.Value.([]domain.Message); entry.Present && ok {
		return list
	}
	return nil
}

func appendMessages(list []domain.Message, msgs ...domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(list)+len(msgs))
	out = append(out, list...)
	return append(out, msgs...)
}

func withoutMessage(list []domain.Message, id string) []domain.Message {
	out := make([]domain.Message, 0, len(list))
	for _, m := range list {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
