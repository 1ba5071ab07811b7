package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/core/ports"
)

// StatusTracker polls a document under analysis until it reaches a
// terminal state. The backend exposes no push channel, so polling is the
// contract; manual refreshes share a rate limiter so an impatient caller
// cannot hammer the endpoint.
type StatusTracker struct {
	api      ports.DocumentAPI
	docs     *DocumentUseCase
	interval time.Duration
	limiter  *rate.Limiter
	log      *slog.Logger
}

func NewStatusTracker(api ports.DocumentAPI, docs *DocumentUseCase, interval time.Duration, log *slog.Logger) *StatusTracker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &StatusTracker{
		api:      api,
		docs:     docs,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval/2), 1),
		log:      log,
	}
}

// Watch emits the document each time its status advances and closes the
// channel once the lifecycle ends or ctx is cancelled. The first poll
// runs immediately, so a document that is already terminal yields exactly
// one emission.
func (t *StatusTracker) Watch(ctx context.Context, caseID, documentID string) <-chan domain.Document {
	updates := make(chan domain.Document, 1)
	go func() {
		defer close(updates)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		var last domain.DocumentStatus
		for {
			doc, err := t.poll(ctx, caseID, documentID)
			switch {
			case err != nil:
				// Transient poll failures are expected while the backend
				// is busy analyzing; keep the previous state and retry.
				t.log.Debug("status_poll_failed", "document_id", documentID, "error", err)
			case doc.Status != last:
				if last != "" && !domain.Progressed(last, doc.Status) {
					// A regressive report is stale data from the
					// server's side; the lifecycle only moves forward.
					t.log.Warn("status_regression_ignored",
						"document_id", documentID, "from", last, "to", doc.Status)
				} else {
					last = doc.Status
					select {
					case updates <- *doc:
					case <-ctx.Done():
						return
					}
				}
			}
			if last.Terminal() {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return updates
}

// Refresh is the user-initiated poll. Rate limited: inside the window it
// serves the cached document without touching the network.
func (t *StatusTracker) Refresh(ctx context.Context, caseID, documentID string) (*domain.Document, error) {
	if !t.limiter.Allow() {
		return t.docs.Get(ctx, caseID, documentID)
	}
	return t.poll(ctx, caseID, documentID)
}

func (t *StatusTracker) poll(ctx context.Context, caseID, documentID string) (*domain.Document, error) {
	doc, err := t.api.GetDocument(ctx, caseID, documentID)
	if err != nil {
		return nil, err
	}
	t.docs.store.Write(documentKey(caseID, documentID), *doc)
	t.docs.replaceInList(caseID, *doc)
	return doc, nil
}
