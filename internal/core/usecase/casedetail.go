package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

// Tab is the active pane of a case detail view.
type Tab string

const (
	TabDetails   Tab = "details"
	TabChat      Tab = "chat"
	TabDocuments Tab = "documents"
)

func (t Tab) Valid() bool {
	return t == TabDetails || t == TabChat || t == TabDocuments
}

// PendingConfirm is a destructive action awaiting explicit confirmation.
// At most one is pending per controller; requesting a new one replaces
// the old, so a stale prompt can never fire the wrong action.
type PendingConfirm struct {
	Action   domain.Action
	TargetID string
}

// DetailView is a point-in-time render model of one case.
type DetailView struct {
	Case      *domain.Case
	Messages  []domain.Message
	Documents []domain.Document
	ActiveTab Tab
	Confirm   *PendingConfirm
	LastError error
}

// DetailController composes the case entry with its messages and
// documents into one view, tracks the active tab and the confirm prompt,
// and re-renders whenever a cached resource it depends on changes.
type DetailController struct {
	caseID string
	cases  *CaseUseCase
	chat   *ChatUseCase
	docs   *DocumentUseCase
	store  *cache.Store
	log    *slog.Logger

	mu      sync.Mutex
	tab     Tab
	confirm *PendingConfirm
	closed  bool

	unsubscribe func()
	onChange    func(DetailView)
}

func NewDetailController(
	caseID string,
	cases *CaseUseCase,
	chat *ChatUseCase,
	docs *DocumentUseCase,
	store *cache.Store,
	log *slog.Logger,
) *DetailController {
	c := &DetailController{
		caseID: caseID,
		cases:  cases,
		chat:   chat,
		docs:   docs,
		store:  store,
		log:    log,
		tab:    TabDetails,
	}
	c.unsubscribe = store.Subscribe(c.handleChange)
	return c
}

// SetOnChange installs the render callback. It fires after every cache
// change scoped to this case; the view passed is a consistent snapshot.
func (c *DetailController) SetOnChange(fn func(DetailView)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Load pulls the case and the active tab's collection through the cache.
// Cached data renders instantly; only truly absent resources block.
func (c *DetailController) Load(ctx context.Context) (DetailView, error) {
	if _, err := c.cases.Get(ctx, c.caseID); err != nil {
		return c.View(), err
	}
	var err error
	switch c.ActiveTab() {
	case TabChat:
		_, err = c.chat.History(ctx, c.caseID)
	case TabDocuments:
		_, err = c.docs.List(ctx, c.caseID)
	}
	return c.View(), err
}

func (c *DetailController) ActiveTab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// SelectTab switches panes. Switching away and back does not refetch;
// whatever the cache holds renders until it goes stale.
func (c *DetailController) SelectTab(ctx context.Context, tab Tab) (DetailView, error) {
	if !tab.Valid() {
		return c.View(), domain.WrapError(domain.ErrValidation, "select tab", errUnknownTab)
	}
	c.mu.Lock()
	c.tab = tab
	c.mu.Unlock()
	return c.Load(ctx)
}

// RequestConfirm arms the confirm prompt for a destructive action.
func (c *DetailController) RequestConfirm(action domain.Action, targetID string) {
	c.mu.Lock()
	c.confirm = &PendingConfirm{Action: action, TargetID: targetID}
	c.mu.Unlock()
	c.render()
}

// DismissConfirm disarms the prompt without acting. Idempotent.
func (c *DetailController) DismissConfirm() {
	c.mu.Lock()
	c.confirm = nil
	c.mu.Unlock()
	c.render()
}

// Confirm executes the pending destructive action and disarms the
// prompt. With nothing pending it is a no-op, so double confirmation
// cannot delete twice.
func (c *DetailController) Confirm(ctx context.Context) error {
	c.mu.Lock()
	pending := c.confirm
	c.confirm = nil
	c.mu.Unlock()
	if pending == nil {
		return nil
	}

	var err error
	switch pending.Action {
	case domain.ActionDeleteMessage:
		err = c.chat.Delete(ctx, c.caseID, pending.TargetID)
	case domain.ActionDeleteDocument:
		err = c.docs.Delete(ctx, c.caseID, pending.TargetID)
	case domain.ActionDeleteCase:
		err = c.cases.Delete(ctx, c.caseID)
	default:
		err = domain.WrapError(domain.ErrValidation, "confirm", errUnknownConfirmAction)
	}
	c.render()
	return err
}

// View assembles the current render model from cache snapshots only; it
// never touches the network.
func (c *DetailController) View() DetailView {
	c.mu.Lock()
	view := DetailView{ActiveTab: c.tab, Confirm: c.confirm}
	c.mu.Unlock()

	if entry := c.store.Get(caseKey(c.caseID)); entry.Present {
		if cs, ok := entry.Value.(domain.Case); ok {
			view.Case = &cs
		}
		view.LastError = entry.LastError
	}
	if entry := c.store.Get(messagesKey(c.caseID)); entry.Present {
		if msgs, ok := entry.Value.([]domain.Message); ok {
			view.Messages = msgs
		}
		if view.LastError == nil {
			view.LastError = entry.LastError
		}
	}
	if entry := c.store.Get(documentsKey(c.caseID)); entry.Present {
		if docs, ok := entry.Value.([]domain.Document); ok {
			view.Documents = docs
		}
		if view.LastError == nil {
			view.LastError = entry.LastError
		}
	}
	return view
}

// Close cancels the cache subscription. After Close returns, the change
// callback does not fire again.
func (c *DetailController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.unsubscribe()
}

func (c *DetailController) handleChange(entry cache.Entry) {
	if !c.concerns(entry.Key) {
		return
	}
	c.render()
}

func (c *DetailController) concerns(key cache.Key) bool {
	if key.Parent == c.caseID {
		return true
	}
	return key.Kind == cache.KindCase && key.ID == c.caseID
}

func (c *DetailController) render() {
	c.mu.Lock()
	fn := c.onChange
	closed := c.closed
	c.mu.Unlock()
	if fn == nil || closed {
		return
	}
	fn(c.View())
}
