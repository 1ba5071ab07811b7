package ports

import (
	"context"

	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

// SessionManager is the inbound contract for the session lifecycle.
type SessionManager interface {
	Login(ctx context.Context, usernameOrEmail, password string) (domain.Session, error)
	Register(ctx context.Context, profile domain.RegisterProfile) (domain.Session, error)
	Current() domain.Session
	Logout() error
	UpdateIdentity(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error)
}

// CaseService is the inbound contract for case reads and mutations.
type CaseService interface {
	List(ctx context.Context) ([]domain.Case, error)
	Get(ctx context.Context, id string) (*domain.Case, error)
	Create(ctx context.Context, title, description string) (*domain.Case, error)
	ChangeStatus(ctx context.Context, id string, status domain.CaseStatus) (*domain.Case, error)
	Assign(ctx context.Context, id, lawyerID, clientID string) (*domain.Case, error)
	Delete(ctx context.Context, id string) error
}

// ChatService is the inbound contract for per-case conversations.
type ChatService interface {
	History(ctx context.Context, caseID string) ([]domain.Message, error)
	Send(ctx context.Context, caseID, content string) ([]domain.Message, error)
	Delete(ctx context.Context, caseID, messageID string) error
}

// DocumentService is the inbound contract for the upload/analyze
// lifecycle.
type DocumentService interface {
	List(ctx context.Context, caseID string) ([]domain.Document, error)
	Get(ctx context.Context, caseID, documentID string) (*domain.Document, error)
	Upload(ctx context.Context, caseID, path string) (*domain.Document, error)
	Analyze(ctx context.Context, caseID, documentID string) (*domain.Document, error)
	Delete(ctx context.Context, caseID, documentID string) error
}

// UserDirectory is the inbound contract for user lookups and admin
// management.
type UserDirectory interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}
