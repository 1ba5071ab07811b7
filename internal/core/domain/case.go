package domain

import "time"

type CaseStatus string

const (
	CaseOpen       CaseStatus = "open"
	CaseInProgress CaseStatus = "in_progress"
	CaseClosed     CaseStatus = "closed"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseOpen, CaseInProgress, CaseClosed:
		return true
	}
	return false
}

// Case is a server-owned resource. LawyerID and ClientID are weak
// references resolved lazily through the user cache; empty means
// unassigned.
type Case struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      CaseStatus `json:"status"`
	LawyerID    string     `json:"lawyer_id"`
	ClientID    string     `json:"client_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CasePatch updates mutable case fields. Status transitions are unordered
// (any status may follow any other); authorization is the gate's job.
type CasePatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *CaseStatus `json:"status,omitempty"`
}

func (p CasePatch) Merged(c Case) Case {
	out := c
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	return out
}
