package domain

// RoleAdmin is the role name that grants administrator override on all
// permission checks.
const RoleAdmin = "Admin"

// User is an identity known to the hub.
type User struct {
	ID    string
	Name  string
	Email string
	Roles []string
}

// IsAdmin reports whether the user carries the administrator role.
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Group membership roles.
const (
	GroupRoleOwner  = "owner"
	GroupRoleMember = "member"
)

// MaxGroupMembers bounds the membership count per group.
const MaxGroupMembers = 1000

// Group is a set of users that can own catalogs, resources, and approve
// requests.
type Group struct {
	ID            string
	Name          string
	Description   string
	Notifications []GroupNotification
}

// Group notification purposes.
const (
	GroupNotificationMemberAdded     = "memberAdded"
	GroupNotificationApprovalRequest = "approvalRequest"
)

// GroupNotification binds a group event to a notification channel.
type GroupNotification struct {
	ID         string
	Purpose    string // memberAdded or approvalRequest
	TypeID     string // notification plugin type
	Properties map[string]string
}

// GroupMember records a user's membership in a group. Unique per
// (group, user).
type GroupMember struct {
	GroupID string
	UserID  string
	Role    string // owner or member
}

// CreateUserRequest carries parameters for creating a user.
type CreateUserRequest struct {
	Name  string
	Email string
	Roles []string
}

// Validate checks required fields.
func (r *CreateUserRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("user name is required")
	}
	if r.Email == "" {
		return ErrValidation("user email is required")
	}
	return nil
}

// CreateGroupRequest carries parameters for creating a group.
type CreateGroupRequest struct {
	Name        string
	Description string
}

// Validate checks required fields.
func (r *CreateGroupRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("group name is required")
	}
	return nil
}

// AddGroupMemberRequest carries parameters for adding a group member.
type AddGroupMemberRequest struct {
	GroupID string
	UserID  string
	Role    string
}

// Validate checks required fields and the membership role.
func (r *AddGroupMemberRequest) Validate() error {
	if r.GroupID == "" || r.UserID == "" {
		return ErrValidation("group id and user id are required")
	}
	if r.Role != GroupRoleOwner && r.Role != GroupRoleMember {
		return ErrValidation("invalid membership role %q", r.Role)
	}
	return nil
}
