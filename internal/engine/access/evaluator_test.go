package access

import "testing"

func memberList() []Member {
	return []Member{
		{UserID: "u-owner", Role: "owner", Email: "owner@acme.test"},
		{UserID: "u-admin", Role: "admin", Email: "admin@acme.test"},
		{UserID: "u-member", Role: "member", Email: "member@acme.test"},
	}
}

func TestEvaluate_WorkspaceRoles(t *testing.T) {
	ws := Resource{Kind: KindWorkspace, ID: "ws1", WorkspaceID: "ws1", Members: memberList(), OwnerID: "u-owner"}

	tests := []struct {
		name    string
		id      Identity
		action  Action
		allowed bool
		reason  string
	}{
		{"member can read", Identity{ID: "u-member", GlobalRole: "user"}, ActionRead, true, ""},
		{"member can add content", Identity{ID: "u-member", GlobalRole: "user"}, ActionContent, true, ""},
		{"member cannot remove members", Identity{ID: "u-member", GlobalRole: "user"}, ActionRemoveMember, false, ReasonInsufficientRole},
		{"admin can remove members", Identity{ID: "u-admin", GlobalRole: "user"}, ActionRemoveMember, true, ""},
		{"admin cannot delete workspace", Identity{ID: "u-admin", GlobalRole: "user"}, ActionDeleteWorkspace, false, ReasonNotOwner},
		{"admin cannot change roles", Identity{ID: "u-admin", GlobalRole: "user"}, ActionUpdateMemberRole, false, ReasonNotOwner},
		{"owner can delete workspace", Identity{ID: "u-owner", GlobalRole: "user"}, ActionDeleteWorkspace, true, ""},
		{"owner can change roles", Identity{ID: "u-owner", GlobalRole: "user"}, ActionUpdateMemberRole, true, ""},
		{"non-member denied entirely", Identity{ID: "u-stranger", GlobalRole: "user"}, ActionRead, false, ReasonNotAMember},
		{"anonymous denied", Identity{}, ActionRead, false, ReasonAnonymous},
		{"super-admin bypasses membership", Identity{ID: "u-root", GlobalRole: "super-admin"}, ActionDeleteWorkspace, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.id, ws, tt.action)
			if d.Allowed != tt.allowed {
				t.Errorf("Expected allowed=%v, got %v (reason %q)", tt.allowed, d.Allowed, d.Reason)
			}
			if !tt.allowed && d.Reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, d.Reason)
			}
		})
	}
}

func TestEvaluate_OwnerMemberIsUntouchable(t *testing.T) {
	ws := Resource{Kind: KindWorkspace, ID: "ws1", Members: memberList(), OwnerID: "u-owner", TargetMemberRole: "owner"}

	// Even super-admin cannot remove or re-role the owner member.
	for _, id := range []Identity{
		{ID: "u-owner", GlobalRole: "user"},
		{ID: "u-admin", GlobalRole: "user"},
		{ID: "u-root", GlobalRole: "super-admin"},
	} {
		for _, action := range []Action{ActionRemoveMember, ActionUpdateMemberRole} {
			d := Evaluate(id, ws, action)
			if d.Allowed {
				t.Errorf("Expected deny for %s on owner member by %s", "mutation", id.ID)
			}
			if d.Reason != ReasonCannotModifyOwner {
				t.Errorf("Expected reason %q, got %q", ReasonCannotModifyOwner, d.Reason)
			}
			_ = action
		}
	}
}

func TestEvaluate_VideoAccessModes(t *testing.T) {
	base := Resource{
		Kind:        KindVideo,
		ID:          "v1",
		WorkspaceID: "ws1",
		Members:     memberList(),
		OwnerID:     "u-member",
	}

	t.Run("private only uploader", func(t *testing.T) {
		res := base
		res.AccessMode = AccessPrivate

		if d := Evaluate(Identity{ID: "u-member", GlobalRole: "user"}, res, ActionRead); !d.Allowed {
			t.Errorf("Expected uploader read allowed, got deny %q", d.Reason)
		}
		if d := Evaluate(Identity{ID: "u-admin", GlobalRole: "user"}, res, ActionRead); d.Allowed {
			t.Error("Expected non-uploader read denied on private video")
		}
	})

	t.Run("workspace mode follows membership", func(t *testing.T) {
		res := base
		res.AccessMode = AccessWorkspace

		if d := Evaluate(Identity{ID: "u-member", GlobalRole: "user"}, res, ActionRead); !d.Allowed {
			t.Errorf("Expected member read allowed, got deny %q", d.Reason)
		}
		if d := Evaluate(Identity{ID: "u-stranger", GlobalRole: "user"}, res, ActionRead); d.Allowed {
			t.Error("Expected non-member denied")
		}
	})

	t.Run("custom matches id or email", func(t *testing.T) {
		res := base
		res.AccessMode = AccessCustom
		res.AllowedUsers = []AllowedUser{{UserID: "u-ext"}, {Email: "Guest@other.test"}}

		if d := Evaluate(Identity{ID: "u-ext", GlobalRole: "user"}, res, ActionRead); !d.Allowed {
			t.Errorf("Expected allow-listed id read allowed, got deny %q", d.Reason)
		}
		if d := Evaluate(Identity{ID: "u-x", Email: "guest@other.test", GlobalRole: "user"}, res, ActionRead); !d.Allowed {
			t.Errorf("Expected allow-listed email read allowed, got deny %q", d.Reason)
		}
		if d := Evaluate(Identity{ID: "u-y", Email: "other@other.test", GlobalRole: "user"}, res, ActionRead); d.Allowed {
			t.Error("Expected unlisted identity denied")
		}
	})

	t.Run("public read open, mutation gated", func(t *testing.T) {
		res := base
		res.AccessMode = AccessPublic

		if d := Evaluate(Identity{}, res, ActionRead); !d.Allowed {
			t.Errorf("Expected anonymous read allowed on public video, got deny %q", d.Reason)
		}
		if d := Evaluate(Identity{}, res, ActionDelete); d.Allowed {
			t.Error("Expected anonymous delete denied on public video")
		}
		if d := Evaluate(Identity{ID: "u-member", GlobalRole: "user"}, res, ActionDelete); !d.Allowed {
			t.Errorf("Expected uploader delete allowed, got deny %q", d.Reason)
		}
		if d := Evaluate(Identity{ID: "u-admin", GlobalRole: "user"}, res, ActionDelete); !d.Allowed {
			t.Errorf("Expected workspace admin delete allowed, got deny %q", d.Reason)
		}
	})
}

func TestEvaluate_ClientGroupScope(t *testing.T) {
	campaign := Resource{
		Kind:            KindCampaign,
		ID:              "c1",
		ClientGroupID:   "cg1",
		AssignedUserIDs: []string{"u-assigned"},
	}

	tests := []struct {
		name    string
		id      Identity
		action  Action
		allowed bool
	}{
		{"client-admin of same group", Identity{ID: "a1", GlobalRole: "client-admin", ClientGroupID: "cg1"}, ActionDelete, true},
		{"client-admin of other group", Identity{ID: "a2", GlobalRole: "client-admin", ClientGroupID: "cg2"}, ActionRead, false},
		{"assigned user can read", Identity{ID: "u-assigned", GlobalRole: "user"}, ActionRead, true},
		{"assigned user cannot mutate", Identity{ID: "u-assigned", GlobalRole: "user"}, ActionRename, false},
		{"unassigned user denied", Identity{ID: "u-other", GlobalRole: "user"}, ActionRead, false},
		{"super-admin allowed", Identity{ID: "root", GlobalRole: "super-admin"}, ActionDelete, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.id, campaign, tt.action)
			if d.Allowed != tt.allowed {
				t.Errorf("Expected allowed=%v, got %v (reason %q)", tt.allowed, d.Allowed, d.Reason)
			}
		})
	}
}
