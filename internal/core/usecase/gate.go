package usecase

import (
	"errors"

	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

var (
	errNoSession               = errors.New("no authenticated session")
	errActionNotAllowed        = errors.New("role does not permit this action")
	errInvalidRegistrationRole = errors.New("self-registration is limited to lawyer and client accounts")
	errUnknownCaseStatus       = errors.New("unknown case status")
	errEmptyMessage            = errors.New("message content is empty")
	errSelfManagement          = errors.New("own account cannot be managed through the admin path")
	errUnknownRole             = errors.New("unknown role")
	errUnknownTab              = errors.New("unknown tab")
	errUnknownConfirmAction    = errors.New("no handler for the pending action")
)

// sessionSource is the slice of the session store the services need.
type sessionSource interface {
	Current() domain.Session
}

// gate rejects a mutating action before it reaches the wire. Reads are
// never gated; the backend scopes what each role can see.
func gate(sessions sessionSource, operation string, action domain.Action) (domain.User, error) {
	session := sessions.Current()
	if !session.Authenticated() {
		return domain.User{}, domain.WrapError(domain.ErrAuth, operation, errNoSession)
	}
	if !domain.Permit(session.Identity.Role, action) {
		return domain.User{}, domain.WrapError(domain.ErrForbidden, operation, errActionNotAllowed)
	}
	return *session.Identity, nil
}
