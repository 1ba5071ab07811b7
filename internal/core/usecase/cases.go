package usecase

import (
	"context"
	"log/slog"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/core/ports"
)

// CaseUseCase serves case reads through the cache and dispatches case
// mutations through the coordinator.
type CaseUseCase struct {
	api      ports.CaseAPI
	store    *cache.Store
	coord    *MutationCoordinator
	sessions sessionSource
	log      *slog.Logger
}

func NewCaseUseCase(
	api ports.CaseAPI,
	store *cache.Store,
	coord *MutationCoordinator,
	sessions sessionSource,
	log *slog.Logger,
) *CaseUseCase {
	return &CaseUseCase{api: api, store: store, coord: coord, sessions: sessions, log: log}
}

func (uc *CaseUseCase) List(ctx context.Context) ([]domain.Case, error) {
	value, err := uc.store.Fetch(ctx, caseListKey(), func(ctx context.Context) (any, error) {
		return uc.api.ListCases(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.Case), nil
}

func (uc *CaseUseCase) Get(ctx context.Context, id string) (*domain.Case, error) {
	value, err := uc.store.Fetch(ctx, caseKey(id), func(ctx context.Context) (any, error) {
		c, err := uc.api.GetCase(ctx, id)
		if err != nil {
			return nil, err
		}
		return *c, nil
	})
	if err != nil {
		return nil, err
	}
	c := value.(domain.Case)
	return &c, nil
}

// Create is deliberately not optimistic: the server assigns the id and
// the initial assignment, so there is nothing sensible to predict. The
// confirmed case lands in the cache and the list is marked stale.
func (uc *CaseUseCase) Create(ctx context.Context, title, description string) (*domain.Case, error) {
	if _, err := gate(uc.sessions, "create case", domain.ActionCreateCase); err != nil {
		return nil, err
	}
	created, err := uc.api.CreateCase(ctx, title, description)
	if err != nil {
		return nil, err
	}
	uc.store.Write(caseKey(created.ID), *created)
	uc.store.Invalidate(cache.KindCaseList, "")
	return created, nil
}

func (uc *CaseUseCase) ChangeStatus(ctx context.Context, id string, status domain.CaseStatus) (*domain.Case, error) {
	if !status.Valid() {
		return nil, domain.WrapError(domain.ErrValidation, "change case status", errUnknownCaseStatus)
	}
	if _, err := gate(uc.sessions, "change case status", domain.ActionChangeCaseStatus); err != nil {
		return nil, err
	}
	patch := domain.CasePatch{Status: &status}
	return uc.mutateCase(ctx, id, "change case status",
		func(prev domain.Case) domain.Case { return patch.Merged(prev) },
		func(ctx context.Context) (*domain.Case, error) {
			return uc.api.UpdateCase(ctx, id, patch)
		})
}

func (uc *CaseUseCase) Assign(ctx context.Context, id, lawyerID, clientID string) (*domain.Case, error) {
	if _, err := gate(uc.sessions, "assign case", domain.ActionAssignCase); err != nil {
		return nil, err
	}
	return uc.mutateCase(ctx, id, "assign case",
		func(prev domain.Case) domain.Case {
			predicted := prev
			if lawyerID != "" {
				predicted.LawyerID = lawyerID
			}
			if clientID != "" {
				predicted.ClientID = clientID
			}
			return predicted
		},
		func(ctx context.Context) (*domain.Case, error) {
			return uc.api.AssignCase(ctx, id, lawyerID, clientID)
		})
}

// Delete predicts against the case list: the row disappears immediately
// and reappears if the server refuses. On confirmation every resource
// scoped to the case is dropped as well.
func (uc *CaseUseCase) Delete(ctx context.Context, id string) error {
	if _, err := gate(uc.sessions, "delete case", domain.ActionDeleteCase); err != nil {
		return err
	}
	_, err := uc.coord.Mutate(ctx, Mutation{
		Key: caseListKey(),
		Predict: func(prev cache.Entry) (any, bool) {
			list, ok := prev.Value.([]domain.Case)
			if !prev.Present || !ok {
				return nil, false
			}
			return withoutCase(list, id), true
		},
		Apply: func(ctx context.Context, prev cache.Entry) (any, error) {
			if err := uc.api.DeleteCase(ctx, id); err != nil {
				return nil, err
			}
			if list, ok := prev.Value.([]domain.Case); prev.Present && ok {
				return withoutCase(list, id), nil
			}
			// A never-fetched list has nothing to reconcile against.
			return nil, nil
		},
	})
	if err != nil {
		return err
	}

	uc.store.Delete(caseKey(id))
	uc.store.DeleteScoped(id)
	return nil
}

func (uc *CaseUseCase) mutateCase(
	ctx context.Context,
	id, operation string,
	predict func(prev domain.Case) domain.Case,
	apply func(ctx context.Context) (*domain.Case, error),
) (*domain.Case, error) {
	value, err := uc.coord.Mutate(ctx, Mutation{
		Key: caseKey(id),
		Predict: func(prev cache.Entry) (any, bool) {
			c, ok := prev.Value.(domain.Case)
			if !prev.Present || !ok {
				return nil, false
			}
			return predict(c), true
		},
		Apply: func(ctx context.Context, _ cache.Entry) (any, error) {
			updated, err := apply(ctx)
			if err != nil {
				return nil, err
			}
			return *updated, nil
		},
	})
	if err != nil {
		return nil, err
	}
	updated := value.(domain.Case)
	// The list renders status and assignment, so it must refetch.
	uc.store.Invalidate(cache.KindCaseList, "")
	return &updated, nil
}

func withoutCase(list []domain.Case, id string) []domain.Case {
	out := make([]domain.Case, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
