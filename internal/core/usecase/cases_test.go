package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

type caseAPIFake struct {
	cases     []domain.Case
	listCalls atomic.Int32

	created   *domain.Case
	createErr error

	updated   *domain.Case
	updateErr error

	deleted   []string
	deleteErr error
}

func (f *caseAPIFake) ListCases(context.Context) ([]domain.Case, error) {
	f.listCalls.Add(1)
	return f.cases, nil
}

func (f *caseAPIFake) CreateCase(_ context.Context, title, description string) (*domain.Case, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &domain.Case{ID: "c-new", Title: title, Description: description, Status: domain.CaseOpen}
	return f.created, nil
}

func (f *caseAPIFake) GetCase(_ context.Context, id string) (*domain.Case, error) {
	for _, c := range f.cases {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get case", errors.New("no such case"))
}

func (f *caseAPIFake) UpdateCase(_ context.Context, id string, patch domain.CasePatch) (*domain.Case, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	base, err := f.GetCase(context.Background(), id)
	if err != nil {
		return nil, err
	}
	merged := patch.Merged(*base)
	f.updated = &merged
	return &merged, nil
}

func (f *caseAPIFake) AssignCase(_ context.Context, id, lawyerID, clientID string) (*domain.Case, error) {
	base, err := f.GetCase(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if lawyerID != "" {
		base.LawyerID = lawyerID
	}
	if clientID != "" {
		base.ClientID = clientID
	}
	return base, nil
}

func (f *caseAPIFake) DeleteCase(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newCaseFixture(sessions sessionSource, api *caseAPIFake) (*CaseUseCase, *cache.Store) {
	store := cache.New(time.Minute, nil)
	coord := NewMutationCoordinator(store, nil, testLogger())
	return NewCaseUseCase(api, store, coord, sessions, testLogger()), store
}

func TestListServesSecondReadFromCache(t *testing.T) {
	api := &caseAPIFake{cases: []domain.Case{{ID: "c1", Title: "Estate"}}}
	uc, _ := newCaseFixture(lawyerSession(), api)

	for i := 0; i < 2; i++ {
		got, err := uc.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "c1" {
			t.Fatalf("List() = %+v", got)
		}
	}
	if calls := api.listCalls.Load(); calls != 1 {
		t.Fatalf("backend calls = %d, want the second read served from cache", calls)
	}
}

func TestCreateRequiresPermission(t *testing.T) {
	uc, _ := newCaseFixture(clientSession(), &caseAPIFake{})
	_, err := uc.Create(context.Background(), "t", "d")
	if !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("error kind = %v, want ErrForbidden", err)
	}
	uc, _ = newCaseFixture(adminSession(), &caseAPIFake{})
	if _, err := uc.Create(context.Background(), "t", "d"); !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("admin create error = %v, want ErrForbidden", err)
	}
}

func TestCreateWritesThroughAndInvalidatesList(t *testing.T) {
	api := &caseAPIFake{}
	uc, store := newCaseFixture(lawyerSession(), api)
	store.Write(caseListKey(), []domain.Case{})

	created, err := uc.Create(context.Background(), "Estate of K", "probate")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry := store.Get(caseKey(created.ID)); !entry.Present {
		t.Fatal("created case not cached")
	}
	if entry := store.Get(caseListKey()); entry.Freshness != cache.Stale {
		t.Fatalf("list freshness = %v, want stale after create", entry.Freshness)
	}
}

func TestChangeStatusIsOptimisticAndRollsBack(t *testing.T) {
	api := &caseAPIFake{
		cases:     []domain.Case{{ID: "c1", Title: "Estate", Status: domain.CaseOpen}},
		updateErr: domain.WrapError(domain.ErrForbidden, "update case", errors.New("not yours")),
	}
	uc, store := newCaseFixture(lawyerSession(), api)
	if _, err := uc.Get(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}

	var sawPredicted atomic.Bool
	cancel := store.Subscribe(func(e cache.Entry) {
		if c, ok := e.Value.(domain.Case); ok && e.Freshness == cache.Loading && c.Status == domain.CaseClosed {
			sawPredicted.Store(true)
		}
	})
	defer cancel()

	_, err := uc.ChangeStatus(context.Background(), "c1", domain.CaseClosed)
	if !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("error kind = %v, want ErrForbidden", err)
	}
	if !sawPredicted.Load() {
		t.Fatal("predicted status was never observable")
	}
	entry := store.Get(caseKey("c1"))
	if c, ok := entry.Value.(domain.Case); !ok || c.Status != domain.CaseOpen {
		t.Fatalf("status after rollback = %+v, want open", entry.Value)
	}
	if entry.LastError == nil {
		t.Fatal("rollback must record the cause")
	}
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	uc, _ := newCaseFixture(lawyerSession(), &caseAPIFake{})
	_, err := uc.ChangeStatus(context.Background(), "c1", domain.CaseStatus("archived"))
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("error kind = %v, want ErrValidation", err)
	}
}

func TestDeleteRemovesRowAndScopedResources(t *testing.T) {
	api := &caseAPIFake{cases: []domain.Case{{ID: "c1"}, {ID: "c2"}}}
	uc, store := newCaseFixture(adminSession(), api)
	if _, err := uc.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	store.Write(messagesKey("c1"), []domain.Message{{ID: "m1"}})
	store.Write(documentsKey("c1"), []domain.Document{{ID: "d1"}})
	store.Write(documentKey("c1", "d1"), domain.Document{ID: "d1"})

	if err := uc.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list := store.Get(caseListKey()).Value.([]domain.Case)
	if len(list) != 1 || list[0].ID != "c2" {
		t.Fatalf("list after delete = %+v", list)
	}
	if store.Get(messagesKey("c1")).Present || store.Get(documentsKey("c1")).Present {
		t.Fatal("case-scoped resources survive deletion")
	}
	if store.Get(documentKey("c1", "d1")).Present {
		t.Fatal("per-document entry survives case deletion")
	}
}

func TestDeleteOnColdCacheLeavesListToServer(t *testing.T) {
	api := &caseAPIFake{cases: []domain.Case{{ID: "c1"}, {ID: "c2"}}}
	uc, store := newCaseFixture(adminSession(), api)

	// No List call first: deletion must not conjure up a list.
	if err := uc.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if entry := store.Get(caseListKey()); entry.Present {
		t.Fatalf("cold delete fabricated a case list: %+v", entry.Value)
	}
	list, err := uc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %+v, want the server's list", list)
	}
	if calls := api.listCalls.Load(); calls != 1 {
		t.Fatalf("backend list calls = %d, want the read to reach the server", calls)
	}
}

func TestDeleteRollbackRestoresRow(t *testing.T) {
	api := &caseAPIFake{
		cases:     []domain.Case{{ID: "c1"}, {ID: "c2"}},
		deleteErr: domain.WrapError(domain.ErrForbidden, "delete case", errors.New("nope")),
	}
	uc, store := newCaseFixture(adminSession(), api)
	if _, err := uc.List(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := uc.Delete(context.Background(), "c1"); err == nil {
		t.Fatal("Delete() must surface the rejection")
	}
	list := store.Get(caseListKey()).Value.([]domain.Case)
	if len(list) != 2 {
		t.Fatalf("list after rollback = %+v, want both rows back", list)
	}
}
