package domain

// Role determines which mutating actions a session may attempt. The
// Resource API is the final authority; the client gate exists so denied
// actions never reach the wire.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleLawyer Role = "lawyer"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLawyer, RoleClient:
		return true
	}
	return false
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	Active   bool   `json:"is_active"`
}

// RegisterProfile is the payload for account creation. The backend only
// accepts lawyer and client self-registration; admins are provisioned
// server-side.
type RegisterProfile struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// ProfilePatch updates the authenticated user's own record. Nil fields are
// left untouched.
type ProfilePatch struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserPatch is the admin-only update of another user's record.
type UserPatch struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *Role   `json:"role,omitempty"`
	Active   *bool   `json:"is_active,omitempty"`
}

// Merged returns a copy of u with the patch applied. Used to predict the
// server's response before it confirms.
func (p ProfilePatch) Merged(u User) User {
	out := u
	if p.FullName != nil {
		out.FullName = *p.FullName
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	return out
}

func (p UserPatch) Merged(u User) User {
	out := u
	if p.FullName != nil {
		out.FullName = *p.FullName
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Active != nil {
		out.Active = *p.Active
	}
	return out
}
