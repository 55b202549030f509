package access

import "strings"

// Evaluate is the single access decision function. It is pure: callers log
// the decision and enforce it. Rules are checked in precedence order and the
// first match wins, with one exception: touching the owner member is refused
// before anything else, super-admin included, because no code path may break
// the one-owner invariant.
func Evaluate(id Identity, res Resource, action Action) Decision {
	if (action == ActionRemoveMember || action == ActionUpdateMemberRole) && res.TargetMemberRole == MemberRoleOwner {
		return Deny(ReasonCannotModifyOwner)
	}

	if id.GlobalRole == GlobalRoleSuperAdmin {
		return Allow()
	}

	switch res.Kind {
	case KindWorkspace:
		return evaluateWorkspaceScoped(id, res, action)
	case KindFolder:
		return evaluateWorkspaceScoped(id, res, action)
	case KindVideo:
		return evaluateVideo(id, res, action)
	case KindClientGroup:
		return evaluateClientGroupScoped(id, res, action)
	case KindCampaign:
		return evaluateClientGroupScoped(id, res, action)
	}

	return Deny(ReasonNotAllowed)
}

func evaluateWorkspaceScoped(id Identity, res Resource, action Action) Decision {
	if id.Anonymous() {
		return Deny(ReasonAnonymous)
	}

	member, ok := res.memberFor(id.ID)
	if !ok {
		return Deny(ReasonNotAMember)
	}

	if action.ownerOnly() {
		if member.Role != MemberRoleOwner {
			return Deny(ReasonNotOwner)
		}
		return Allow()
	}

	if action.administrative() {
		if member.Role != MemberRoleOwner && member.Role != MemberRoleAdmin {
			return Deny(ReasonInsufficientRole)
		}
		return Allow()
	}

	// Read and content actions are open to every member.
	return Allow()
}

func evaluateVideo(id Identity, res Resource, action Action) Decision {
	readLike := action == ActionRead || action == ActionContent

	switch res.AccessMode {
	case AccessWorkspace:
		return evaluateWorkspaceScoped(id, res, action)

	case AccessPrivate:
		if !id.Anonymous() && id.ID == res.OwnerID {
			return Allow()
		}
		return Deny(ReasonNotUploader)

	case AccessCustom:
		if readLike {
			if allowedUser(id, res.AllowedUsers) {
				return Allow()
			}
			return Deny(ReasonNotAllowed)
		}
		return videoMutation(id, res)

	case AccessPublic:
		if readLike {
			return Allow()
		}
		return videoMutation(id, res)
	}

	return Deny(ReasonNotAllowed)
}

// videoMutation covers non-read actions on public and custom videos:
// ownership or workspace admin/owner still required.
func videoMutation(id Identity, res Resource) Decision {
	if id.Anonymous() {
		return Deny(ReasonAnonymous)
	}
	if id.ID == res.OwnerID {
		return Allow()
	}
	if member, ok := res.memberFor(id.ID); ok {
		if member.Role == MemberRoleOwner || member.Role == MemberRoleAdmin {
			return Allow()
		}
		return Deny(ReasonInsufficientRole)
	}
	return Deny(ReasonNotAMember)
}

func allowedUser(id Identity, allowed []AllowedUser) bool {
	if id.Anonymous() {
		return false
	}
	for _, a := range allowed {
		if a.UserID != "" && a.UserID == id.ID {
			return true
		}
		if a.Email != "" && strings.EqualFold(a.Email, id.Email) {
			return true
		}
	}
	return false
}

func evaluateClientGroupScoped(id Identity, res Resource, action Action) Decision {
	if id.Anonymous() {
		return Deny(ReasonAnonymous)
	}

	switch id.GlobalRole {
	case GlobalRoleClientAdmin:
		if id.ClientGroupID != "" && id.ClientGroupID == res.ClientGroupID {
			return Allow()
		}
		return Deny(ReasonWrongClientGroup)

	case GlobalRoleUser:
		if action != ActionRead {
			return Deny(ReasonInsufficientRole)
		}
		for _, uid := range res.AssignedUserIDs {
			if uid == id.ID {
				return Allow()
			}
		}
		return Deny(ReasonNotAssigned)
	}

	return Deny(ReasonInsufficientRole)
}
