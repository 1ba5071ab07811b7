package usecase

import (
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

type sessionsFake struct {
	session domain.Session
}

func (f *sessionsFake) Current() domain.Session { return f.session }

func lawyerSession() *sessionsFake {
	return &sessionsFake{session: domain.Session{
		Token: "tok",
		Identity: &domain.User{
			ID: "u-lawyer", Email: "l@firm.com", FullName: "Lana", Role: domain.RoleLawyer, Active: true,
		},
	}}
}

func clientSession() *sessionsFake {
	return &sessionsFake{session: domain.Session{
		Token: "tok",
		Identity: &domain.User{
			ID: "u-client", Email: "c@mail.com", FullName: "Carl", Role: domain.RoleClient, Active: true,
		},
	}}
}

func adminSession() *sessionsFake {
	return &sessionsFake{session: domain.Session{
		Token: "tok",
		Identity: &domain.User{
			ID: "u-admin", Email: "a@firm.com", FullName: "Ada", Role: domain.RoleAdmin, Active: true,
		},
	}}
}

type credsFake struct {
	stored  domain.Session
	loadErr error
	saveErr error
	clears  int
}

func (f *credsFake) Load() (domain.Session, error) {
	return f.stored, f.loadErr
}

func (f *credsFake) Save(session domain.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = session
	return nil
}

func (f *credsFake) Clear() error {
	f.clears++
	f.stored = domain.Session{}
	return nil
}
