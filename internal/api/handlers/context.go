package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "clipdeck/internal/api/context"
	"clipdeck/internal/engine/access"
	"clipdeck/internal/engine/workspaces"
	"clipdeck/internal/platform/auth"
	"clipdeck/internal/platform/database"
)

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}

func tenantFrom(r *http.Request) *database.TenantContext {
	tenant, _ := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	return tenant
}

func paramsFrom(r *http.Request) httprouter.Params {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params
}

// identityFrom assembles the caller identity for the evaluator. Memberships
// come from the tenant database, so this only runs behind the tenant
// middleware; anonymous callers get the zero identity.
func identityFrom(r *http.Request, wsRepo *workspaces.Repository) (access.Identity, error) {
	claims := claimsFrom(r)
	if claims == nil {
		return access.Identity{}, nil
	}

	id := access.Identity{
		ID:            claims.UserID,
		Email:         claims.Email,
		GlobalRole:    claims.GlobalRole,
		ClientGroupID: claims.ClientGroupID,
	}

	if wsRepo != nil {
		memberships, err := wsRepo.ListMembershipsByUser(claims.UserID)
		if err != nil {
			return access.Identity{}, err
		}
		for _, m := range memberships {
			id.Memberships = append(id.Memberships, access.Membership{
				WorkspaceID: m.WorkspaceID,
				Role:        m.Role,
			})
		}
	}
	return id, nil
}

func accessMembers(members []workspaces.Member) []access.Member {
	out := make([]access.Member, 0, len(members))
	for _, m := range members {
		out = append(out, access.Member{UserID: m.UserID, Role: m.Role, Email: m.Email})
	}
	return out
}
