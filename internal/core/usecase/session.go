package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/core/ports"
)

// SessionStore owns the authenticated session: login, registration,
// logout, profile updates, and the forced teardown a rejected credential
// triggers. It is the API client's token source.
type SessionStore struct {
	api   ports.AuthAPI
	creds ports.CredentialStore
	store *cache.Store
	coord *MutationCoordinator
	log   *slog.Logger

	mu      sync.RWMutex
	current domain.Session
}

func NewSessionStore(
	api ports.AuthAPI,
	creds ports.CredentialStore,
	store *cache.Store,
	coord *MutationCoordinator,
	log *slog.Logger,
) (*SessionStore, error) {
	session, err := creds.Load()
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "load session", err)
	}
	return &SessionStore{
		api:     api,
		creds:   creds,
		store:   store,
		coord:   coord,
		log:     log,
		current: session,
	}, nil
}

func (s *SessionStore) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token makes the store the client's credential source.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Login is two-phase: exchange credentials for a token, then resolve the
// identity with that token explicitly. Only when both succeed does the
// session commit; a failure at either step leaves whatever session
// existed before untouched.
func (s *SessionStore) Login(ctx context.Context, usernameOrEmail, password string) (domain.Session, error) {
	grant, err := s.api.Login(ctx, usernameOrEmail, password)
	if err != nil {
		return domain.Session{}, err
	}
	identity, err := s.api.Me(ctx, grant.AccessToken)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{Token: grant.AccessToken, Identity: identity}
	s.commit(session)
	s.log.Info("session_started", "user_id", identity.ID, "role", identity.Role)
	return session, nil
}

// Register creates the account and then runs the normal login flow, so a
// fresh registration ends in an authenticated session.
func (s *SessionStore) Register(ctx context.Context, profile domain.RegisterProfile) (domain.Session, error) {
	if profile.Role != domain.RoleLawyer && profile.Role != domain.RoleClient {
		return domain.Session{}, domain.WrapError(domain.ErrValidation, "register",
			errInvalidRegistrationRole)
	}
	if _, err := s.api.Register(ctx, profile); err != nil {
		return domain.Session{}, err
	}
	return s.Login(ctx, profile.Email, profile.Password)
}

// Logout discards the credential and every cached resource. Idempotent.
func (s *SessionStore) Logout() error {
	s.teardown("logout")
	return nil
}

// HandleAuthRejected is invoked by the transport when the stored
// credential is refused. Same teardown as logout, different log line.
func (s *SessionStore) HandleAuthRejected() {
	s.teardown("credential_rejected")
}

// UpdateIdentity patches the authenticated user's own profile
// optimistically. The cached user entry shows the predicted identity
// until the server confirms; the persisted credential is refreshed with
// the confirmed one.
func (s *SessionStore) UpdateIdentity(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error) {
	session := s.Current()
	if !session.Authenticated() {
		return nil, domain.WrapError(domain.ErrAuth, "update profile", errNoSession)
	}
	if !domain.Permit(session.Identity.Role, domain.ActionUpdateSelf) {
		return nil, domain.WrapError(domain.ErrForbidden, "update profile", errActionNotAllowed)
	}

	value, err := s.coord.Mutate(ctx, Mutation{
		Key: userKey(session.Identity.ID),
		Predict: func(prev cache.Entry) (any, bool) {
			base := *session.Identity
			if u, ok := prev.Value.(domain.User); prev.Present && ok {
				base = u
			}
			return patch.Merged(base), true
		},
		Apply: func(ctx context.Context, _ cache.Entry) (any, error) {
			updated, err := s.api.UpdateMe(ctx, patch)
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
	s.mu.Lock()
	if s.current.Authenticated() && s.current.Identity.ID == updated.ID {
		s.current.Identity = &updated
		if err := s.creds.Save(s.current); err != nil {
			s.log.Warn("session_persist_failed", "error", err)
		}
	}
	s.mu.Unlock()
	return &updated, nil
}

func (s *SessionStore) commit(session domain.Session) {
	s.mu.Lock()
	s.current = session
	if err := s.creds.Save(session); err != nil {
		s.log.Warn("session_persist_failed", "error", err)
	}
	s.mu.Unlock()

	// A new identity means every cached resource may be out of scope.
	s.store.Purge()
	s.store.Write(userKey(session.Identity.ID), *session.Identity)
}

func (s *SessionStore) teardown(reason string) {
	s.mu.Lock()
	wasAuthenticated := s.current.Authenticated()
	s.current = domain.Session{}
	if err := s.creds.Clear(); err != nil {
		s.log.Warn("credential_clear_failed", "error", err)
	}
	s.mu.Unlock()

	s.store.Purge()
	if wasAuthenticated {
		s.log.Info("session_ended", "reason", reason)
	}
}
