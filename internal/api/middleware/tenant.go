package middleware

import (
	"context"
	"net/http"

	apiContext "clipdeck/internal/api/context"
	"clipdeck/internal/pkg/errors"
	"clipdeck/internal/platform/auth"
	"clipdeck/internal/platform/database"
	"clipdeck/internal/platform/models"
	"clipdeck/internal/platform/repositories"
)

type TenantMiddleware struct {
	groupRepo *repositories.ClientGroupRepository
	dbPool    *database.TenantDBPool
}

func NewTenantMiddleware(groupRepo *repositories.ClientGroupRepository, dbPool *database.TenantDBPool) *TenantMiddleware {
	return &TenantMiddleware{
		groupRepo: groupRepo,
		dbPool:    dbPool,
	}
}

func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		groupID := claims.ClientGroupID
		if groupID == "" && claims.GlobalRole == models.RoleSuperAdmin {
			// Super admins are not pinned to a group and name their target.
			groupID = r.Header.Get("X-Client-Group-ID")
		}
		if groupID == "" {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "No client group in scope", nil)
			return
		}

		group, err := m.groupRepo.GetByID(groupID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load client group", nil)
			return
		}
		if group == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Client group not found", nil)
			return
		}
		if group.Status != "active" {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Client group is inactive", nil)
			return
		}

		db, err := m.dbPool.Get(group.ID, group.DBFilePath)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to connect to tenant database", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &database.TenantContext{
			ClientGroupID: group.ID,
			DB:            db,
		})

		next(w, r.WithContext(ctx))
	}
}
