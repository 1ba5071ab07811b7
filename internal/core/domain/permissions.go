package domain

// Action is a mutating operation a session may attempt. Reads are never
// gated client-side; the Resource API scopes what each role can see.
type Action string

const (
	ActionCreateCase       Action = "create_case"
	ActionChangeCaseStatus Action = "change_case_status"
	ActionAssignCase       Action = "assign_case"
	ActionDeleteCase       Action = "delete_case"
	ActionManageUsers      Action = "manage_users"
	ActionSendMessage      Action = "send_message"
	ActionDeleteMessage    Action = "delete_message"
	ActionUploadDocument   Action = "upload_document"
	ActionAnalyzeDocument  Action = "analyze_document"
	ActionDeleteDocument   Action = "delete_document"
	ActionUpdateSelf       Action = "update_self"
)

var rolePermits = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionChangeCaseStatus: true,
		ActionAssignCase:       true,
		ActionDeleteCase:       true,
		ActionManageUsers:      true,
		ActionSendMessage:      true,
		ActionDeleteMessage:    true,
		ActionUploadDocument:   true,
		ActionAnalyzeDocument:  true,
		ActionDeleteDocument:   true,
		ActionUpdateSelf:       true,
	},
	RoleLawyer: {
		ActionCreateCase:       true,
		ActionChangeCaseStatus: true,
		ActionSendMessage:      true,
		ActionDeleteMessage:    true,
		ActionUploadDocument:   true,
		ActionAnalyzeDocument:  true,
		ActionDeleteDocument:   true,
		ActionUpdateSelf:       true,
	},
	RoleClient: {
		ActionSendMessage:     true,
		ActionDeleteMessage:   true,
		ActionUploadDocument:  true,
		ActionAnalyzeDocument: true,
		ActionDeleteDocument:  true,
		ActionUpdateSelf:      true,
	},
}

// Permit is the pure role gate consulted before every mutating dispatch.
// The Resource API enforces the same rules server-side; this is defense in
// depth so denied actions never issue a network call.
func Permit(role Role, action Action) bool {
	return rolePermits[role][action]
}

// CanManageUser covers the one ownership-sensitive rule: admins manage
// other users' roles and active flags, but never their own through this
// path (self changes go through update_self).
func CanManageUser(actor User, targetID string) bool {
	if !Permit(actor.Role, ActionManageUsers) {
		return false
	}
	return actor.ID != targetID
}
