package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easylaw/easylaw-cli/internal/core/cache"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

type authAPIFake struct {
	grant    domain.TokenGrant
	loginErr error

	identity *domain.User
	meErr    error
	meTokens []string

	registered *domain.RegisterProfile
	regErr     error

	updated   *domain.User
	updateErr error
}

func (f *authAPIFake) Login(_ context.Context, _, _ string) (domain.TokenGrant, error) {
	if f.loginErr != nil {
		return domain.TokenGrant{}, f.loginErr
	}
	return f.grant, nil
}

func (f *authAPIFake) Me(_ context.Context, tokenOverride string) (*domain.User, error) {
	f.meTokens = append(f.meTokens, tokenOverride)
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.identity, nil
}

func (f *authAPIFake) Register(_ context.Context, profile domain.RegisterProfile) (*domain.User, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	f.registered = &profile
	return &domain.User{ID: "new", Email: profile.Email, FullName: profile.FullName, Role: profile.Role, Active: true}, nil
}

func (f *authAPIFake) UpdateMe(_ context.Context, _ domain.ProfilePatch) (*domain.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func newSessionFixture(t *testing.T, api *authAPIFake, creds *credsFake) (*SessionStore, *cache.Store) {
	t.Helper()
	store := cache.New(time.Minute, nil)
	coord := NewMutationCoordinator(store, nil, testLogger())
	sessions, err := NewSessionStore(api, creds, store, coord, testLogger())
	if err != nil {
		t.Fatalf("NewSessionStore() error = %v", err)
	}
	return sessions, store
}

func TestLoginCommitsOnlyWhenBothPhasesSucceed(t *testing.T) {
	api := &authAPIFake{
		grant:    domain.TokenGrant{AccessToken: "fresh-tok", TokenType: "bearer"},
		identity: &domain.User{ID: "u1", Email: "a@b.com", Role: domain.RoleLawyer, Active: true},
	}
	creds := &credsFake{}
	sessions, _ := newSessionFixture(t, api, creds)

	got, err := sessions.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.Token != "fresh-tok" || got.Identity.ID != "u1" {
		t.Fatalf("session = %+v", got)
	}
	if len(api.meTokens) != 1 || api.meTokens[0] != "fresh-tok" {
		t.Fatalf("identity must be resolved with the fresh token, got %v", api.meTokens)
	}
	if creds.stored.Token != "fresh-tok" {
		t.Fatal("session was not persisted")
	}
	if sessions.Token() != "fresh-tok" {
		t.Fatalf("Token() = %q", sessions.Token())
	}
}

func TestLoginIdentityFailureLeavesExistingSessionIntact(t *testing.T) {
	existing := domain.Session{
		Token:    "old-tok",
		Identity: &domain.User{ID: "u-old", Email: "old@b.com", Role: domain.RoleClient, Active: true},
	}
	api := &authAPIFake{
		grant: domain.TokenGrant{AccessToken: "fresh-tok"},
		meErr: domain.WrapError(domain.ErrTemporary, "me", errors.New("backend down")),
	}
	creds := &credsFake{stored: existing}
	sessions, _ := newSessionFixture(t, api, creds)

	if _, err := sessions.Login(context.Background(), "a@b.com", "secret"); err == nil {
		t.Fatal("Login() must fail when identity resolution fails")
	}
	if got := sessions.Current(); got.Token != "old-tok" {
		t.Fatalf("current session = %+v, want the previous one untouched", got)
	}
	if creds.stored.Token != "old-tok" {
		t.Fatal("persisted session must be untouched by a failed login")
	}
}

func TestLogoutPurgesEverything(t *testing.T) {
	api := &authAPIFake{
		grant:    domain.TokenGrant{AccessToken: "tok"},
		identity: &domain.User{ID: "u1", Role: domain.RoleLawyer, Active: true},
	}
	creds := &credsFake{}
	sessions, store := newSessionFixture(t, api, creds)
	if _, err := sessions.Login(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatal(err)
	}
	store.Write(caseListKey(), []domain.Case{{ID: "c1"}})

	if err := sessions.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if sessions.Current().Authenticated() {
		t.Fatal("session survives logout")
	}
	if creds.clears == 0 {
		t.Fatal("credential file was not cleared")
	}
	if store.Get(caseListKey()).Present {
		t.Fatal("cached resources survive logout")
	}
	// Second logout is a no-op, not an error.
	if err := sessions.Logout(); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
}

func TestHandleAuthRejectedTearsDownSession(t *testing.T) {
	existing := domain.Session{
		Token:    "expired",
		Identity: &domain.User{ID: "u1", Role: domain.RoleLawyer, Active: true},
	}
	sessions, store := newSessionFixture(t, &authAPIFake{}, &credsFake{stored: existing})
	store.Write(caseListKey(), []domain.Case{{ID: "c1"}})

	sessions.HandleAuthRejected()

	if sessions.Current().Authenticated() {
		t.Fatal("session survives credential rejection")
	}
	if store.Get(caseListKey()).Present {
		t.Fatal("cache survives credential rejection")
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	sessions, _ := newSessionFixture(t, &authAPIFake{}, &credsFake{})
	_, err := sessions.Register(context.Background(), domain.RegisterProfile{
		Email: "x@y.com", Password: "pw", Role: domain.RoleAdmin,
	})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("error kind = %v, want ErrValidation", err)
	}
}

func TestRegisterLogsInAfterwards(t *testing.T) {
	api := &authAPIFake{
		grant:    domain.TokenGrant{AccessToken: "tok"},
		identity: &domain.User{ID: "u1", Email: "x@y.com", Role: domain.RoleClient, Active: true},
	}
	sessions, _ := newSessionFixture(t, api, &credsFake{})

	got, err := sessions.Register(context.Background(), domain.RegisterProfile{
		Email: "x@y.com", Password: "pw", FullName: "Xena", Role: domain.RoleClient,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !got.Authenticated() {
		t.Fatal("registration must end in an authenticated session")
	}
	if api.registered == nil || api.registered.Email != "x@y.com" {
		t.Fatalf("registered profile = %+v", api.registered)
	}
}

func TestUpdateIdentityRefreshesPersistedSession(t *testing.T) {
	identity := &domain.User{ID: "u1", Email: "a@b.com", FullName: "Old Name", Role: domain.RoleLawyer, Active: true}
	api := &authAPIFake{
		grant:    domain.TokenGrant{AccessToken: "tok"},
		identity: identity,
		updated:  &domain.User{ID: "u1", Email: "a@b.com", FullName: "New Name", Role: domain.RoleLawyer, Active: true},
	}
	creds := &credsFake{}
	sessions, _ := newSessionFixture(t, api, creds)
	if _, err := sessions.Login(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatal(err)
	}

	name := "New Name"
	got, err := sessions.UpdateIdentity(context.Background(), domain.ProfilePatch{FullName: &name})
	if err != nil {
		t.Fatalf("UpdateIdentity() error = %v", err)
	}
	if got.FullName != "New Name" {
		t.Fatalf("FullName = %q", got.FullName)
	}
	if sessions.Current().Identity.FullName != "New Name" {
		t.Fatal("in-memory session not refreshed")
	}
	if creds.stored.Identity.FullName != "New Name" {
		t.Fatal("persisted session not refreshed")
	}
}

func TestUpdateIdentityRollsBackCacheOnFailure(t *testing.T) {
	identity := &domain.User{ID: "u1", Email: "a@b.com", FullName: "Old Name", Role: domain.RoleLawyer, Active: true}
	api := &authAPIFake{
		grant:     domain.TokenGrant{AccessToken: "tok"},
		identity:  identity,
		updateErr: domain.WrapError(domain.ErrValidation, "update me", errors.New("email taken")),
	}
	sessions, store := newSessionFixture(t, api, &credsFake{})
	if _, err := sessions.Login(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatal(err)
	}

	name := "New Name"
	if _, err := sessions.UpdateIdentity(context.Background(), domain.ProfilePatch{FullName: &name}); err == nil {
		t.Fatal("UpdateIdentity() must surface the server rejection")
	}
	entry := store.Get(userKey("u1"))
	if user, ok := entry.Value.(domain.User); !ok || user.FullName != "Old Name" {
		t.Fatalf("cached identity = %+v, want rollback to Old Name", entry.Value)
	}
	if sessions.Current().Identity.FullName != "Old Name" {
		t.Fatal("in-memory session must keep the confirmed identity")
	}
}
