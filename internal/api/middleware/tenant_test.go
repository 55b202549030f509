package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	apiContext "clipdeck/internal/api/context"
	"clipdeck/internal/platform/auth"
	"clipdeck/internal/platform/config"
	"clipdeck/internal/platform/database"
	"clipdeck/internal/platform/models"
	"clipdeck/internal/platform/repositories"
)

func TestTenantMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	groupRepo := repositories.NewClientGroupRepository(db)

	cfg := config.TenantDBConfig{BasePath: "/tmp", MaxConnectionsPerGroup: 1}
	pool := database.NewTenantDBPool(cfg)

	middleware := NewTenantMiddleware(groupRepo, pool)

	groupRows := func(id, status string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "name", "status", "db_file_path", "created_at", "updated_at"}).
			AddRow(id, "Test Group", status, ":memory:", 1234567890, 1234567890)
	}

	t.Run("Valid Tenant", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		claims := &auth.Claims{
			UserID:        "usr_1",
			ClientGroupID: "cg_123",
		}
		ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
		req = req.WithContext(ctx)

		mock.ExpectQuery("SELECT (.+) FROM client_groups WHERE id = ?").
			WithArgs("cg_123").
			WillReturnRows(groupRows("cg_123", "active"))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
			if tenant.ClientGroupID != "cg_123" {
				t.Errorf("Expected ClientGroupID cg_123, got %s", tenant.ClientGroupID)
			}
			if tenant.DB == nil {
				t.Error("Expected DB connection, got nil")
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("Group Not Found", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		claims := &auth.Claims{
			UserID:        "usr_1",
			ClientGroupID: "cg_999",
		}
		ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
		req = req.WithContext(ctx)

		mock.ExpectQuery("SELECT (.+) FROM client_groups WHERE id = ?").
			WithArgs("cg_999").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Suspended Group", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		claims := &auth.Claims{
			UserID:        "usr_1",
			ClientGroupID: "cg_123",
		}
		ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
		req = req.WithContext(ctx)

		mock.ExpectQuery("SELECT (.+) FROM client_groups WHERE id = ?").
			WithArgs("cg_123").
			WillReturnRows(groupRows("cg_123", "suspended"))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Super Admin Header Target", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client-Group-ID", "cg_456")

		claims := &auth.Claims{
			UserID:     "usr_admin",
			GlobalRole: models.RoleSuperAdmin,
		}
		ctx := context.WithValue(req.Context(), apiContext.Claims, claims)
		req = req.WithContext(ctx)

		mock.ExpectQuery("SELECT (.+) FROM client_groups WHERE id = ?").
			WithArgs("cg_456").
			WillReturnRows(groupRows("cg_456", "active"))

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
			if tenant.ClientGroupID != "cg_456" {
				t.Errorf("Expected ClientGroupID cg_456, got %s", tenant.ClientGroupID)
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("No Claims", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}
