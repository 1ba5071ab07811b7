package ports

import (
	"context"
	"io"

	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

// ResourceAPI is the full REST surface of the backend. Implementations
// translate transport failures into the domain error kinds; callers never
// see raw HTTP details.
type ResourceAPI interface {
	AuthAPI
	CaseAPI
	ChatAPI
	DocumentAPI
	UserAPI
}

type AuthAPI interface {
	// Login exchanges credentials for a bearer token. It never uses the
	// stored session credential.
	Login(ctx context.Context, usernameOrEmail, password string) (domain.TokenGrant, error)
	Register(ctx context.Context, profile domain.RegisterProfile) (*domain.User, error)
	// Me fetches the identity for tokenOverride when non-empty, otherwise
	// for the current session credential.
	Me(ctx context.Context, tokenOverride string) (*domain.User, error)
	UpdateMe(ctx context.Context, patch domain.ProfilePatch) (*domain.User, error)
}

type CaseAPI interface {
	ListCases(ctx context.Context) ([]domain.Case, error)
	CreateCase(ctx context.Context, title, description string) (*domain.Case, error)
	GetCase(ctx context.Context, id string) (*domain.Case, error)
	UpdateCase(ctx context.Context, id string, patch domain.CasePatch) (*domain.Case, error)
	// AssignCase sets the lawyer and/or client reference; empty strings
	// leave the corresponding side untouched.
	AssignCase(ctx context.Context, id, lawyerID, clientID string) (*domain.Case, error)
	DeleteCase(ctx context.Context, id string) error
}

type ChatAPI interface {
	ListMessages(ctx context.Context, caseID string) ([]domain.Message, error)
	// SendMessage returns the [user echo, assistant reply] pair the server
	// produces atomically for one submission.
	SendMessage(ctx context.Context, caseID, content string) ([]domain.Message, error)
	DeleteMessage(ctx context.Context, caseID, messageID string) error
}

type DocumentAPI interface {
	ListDocuments(ctx context.Context, caseID string) ([]domain.Document, error)
	GetDocument(ctx context.Context, caseID, documentID string) (*domain.Document, error)
	UploadDocument(ctx context.Context, caseID, filename, mimeType string, body io.Reader) (*domain.Document, error)
	AnalyzeDocument(ctx context.Context, caseID, documentID string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, caseID, documentID string) error
}

type UserAPI interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
}

// CredentialStore persists the session across process restarts. Nothing
// else survives a restart.
type CredentialStore interface {
	Load() (domain.Session, error)
	Save(session domain.Session) error
	Clear() error
}
