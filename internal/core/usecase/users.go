package usecase

import (
	"context"
	"log/slog"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/core/ports"
)

// UserUseCase resolves user references for display and carries the
// admin-only management operations.
type UserUseCase struct {
	api      ports.UserAPI
	store    *cache.Store
	coord    *MutationCoordinator
	sessions sessionSource
	log      *slog.Logger
}

func NewUserUseCase(
	api ports.UserAPI,
	store *cache.Store,
	coord *MutationCoordinator,
	sessions sessionSource,
	log *slog.Logger,
) *UserUseCase {
	return &UserUseCase{api: api, store: store, coord: coord, sessions: sessions, log: log}
}

func (uc *UserUseCase) List(ctx context.Context) ([]domain.User, error) {
	value, err := uc.store.Fetch(ctx, userListKey(), func(ctx context.Context) (any, error) {
		return uc.api.ListUsers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]domain.User), nil
}

func (uc *UserUseCase) Get(ctx context.Context, id string) (*domain.User, error) {
	value, err := uc.store.Fetch(ctx, userKey(id), func(ctx context.Context) (any, error) {
		user, err := uc.api.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		return *user, nil
	})
	if err != nil {
		return nil, err
	}
	user := value.(domain.User)
	return &user, nil
}

// Update changes another user's record. Admin only, and never against the
// actor's own account; self changes go through the profile path so the
// persisted session stays in step.
func (uc *UserUseCase) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	actor, err := gate(uc.sessions, "update user", domain.ActionManageUsers)
	if err != nil {
		return nil, err
	}
	if !domain.CanManageUser(actor, id) {
		return nil, domain.WrapError(domain.ErrForbidden, "update user", errSelfManagement)
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, domain.WrapError(domain.ErrValidation, "update user", errUnknownRole)
	}

	value, err := uc.coord.Mutate(ctx, Mutation{
		Key: userKey(id),
		Predict: func(prev cache.Entry) (any, bool) {
			user, ok := prev.Value.(domain.User)
			if !prev.Present || !ok {
				return nil, false
			}
			return patch.Merged(user), true
		},
		Apply: func(ctx context.Context, _ cache.Entry) (any, error) {
			updated, err := uc.api.UpdateUser(ctx, id, patch)
			if err != nil {
				return nil, err
			}
			return *updated, nil
		},
	})
	if err != nil {
		return nil, err
	}
	updated := value.(domain.User)
	uc.store.Invalidate(cache.KindUserList, "")
	return &updated, nil
}
