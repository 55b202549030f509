package access

// Global roles, mirrored from the user record.
const (
	GlobalRoleSuperAdmin  = "super-admin"
	GlobalRoleClientAdmin = "client-admin"
	GlobalRoleUser        = "user"
)

// Workspace member roles.
const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// Video access modes.
const (
	AccessPrivate   = "private"
	AccessWorkspace = "workspace"
	AccessPublic    = "public"
	AccessCustom    = "custom"
)

// Identity is the normalized authenticated caller. The zero value is the
// anonymous caller (public video reads, share-link resolution).
type Identity struct {
	ID            string
	Email         string
	GlobalRole    string
	ClientGroupID string
	Memberships   []Membership
}

func (id Identity) Anonymous() bool {
	return id.ID == ""
}

type Membership struct {
	WorkspaceID string
	Role        string
}

type Member struct {
	UserID string
	Role   string
	Email  string
}

type AllowedUser struct {
	UserID string
	Email  string
}

type Kind int

const (
	KindWorkspace Kind = iota
	KindFolder
	KindVideo
	KindClientGroup
	KindCampaign
)

// Resource is the tagged variant the evaluator switches on. Only the fields
// meaningful for the tagged kind are consulted; Members is the member list of
// the resource's workspace (for workspace-scoped kinds), TargetMemberRole is
// set by callers of member-mutation actions to the role of the member being
// modified.
type Resource struct {
	Kind             Kind
	ID               string
	WorkspaceID      string
	Members          []Member
	OwnerID          string
	AccessMode       string
	AllowedUsers     []AllowedUser
	ClientGroupID    string
	AssignedUserIDs  []string
	TargetMemberRole string
}

func (r Resource) memberFor(userID string) (Member, bool) {
	for _, m := range r.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

type Action int

const (
	// Read and content actions, open to every workspace member.
	ActionRead Action = iota
	ActionContent

	// Administrative actions, admin or owner.
	ActionRename
	ActionDelete
	ActionAddMember
	ActionRemoveMember

	// Owner-only actions.
	ActionDeleteWorkspace
	ActionChangeSettings
	ActionUpdateMemberRole
)

func (a Action) administrative() bool {
	return a >= ActionRename
}

func (a Action) ownerOnly() bool {
	return a >= ActionDeleteWorkspace
}

// Decision reasons, for logs and tests only. Responses always carry a
// generic denial.
const (
	ReasonNotAMember        = "not-a-member"
	ReasonInsufficientRole  = "insufficient-role"
	ReasonNotOwner          = "not-owner"
	ReasonCannotModifyOwner = "cannot-modify-owner"
	ReasonNotUploader       = "not-uploader"
	ReasonNotAllowed        = "not-allowed"
	ReasonWrongClientGroup  = "wrong-client-group"
	ReasonNotAssigned       = "not-assigned"
	ReasonAnonymous         = "anonymous"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
