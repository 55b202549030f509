package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "clipdeck/internal/api/context"
	"clipdeck/internal/api/handlers"
	"clipdeck/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	WorkspaceHandler *handlers.WorkspaceHandler
	FolderHandler    *handlers.FolderHandler
	VideoHandler     *handlers.VideoHandler
	StreamHandler    *handlers.StreamHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	ShareHandler     *handlers.ShareHandler
	HealthHandler    *handlers.HealthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	TenantMiddleware *middleware.TenantMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Health
	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Anonymous share resolution. Auth is optional so signed-in viewers
	// land in sessions under their own user id.
	router.GET("/share/:token", chain(deps.ShareHandler.Resolve, deps.AuthMiddleware.HandleOptional))
	router.GET("/share/:token/stream",
		chain(deps.ShareHandler.Stream, deps.AuthMiddleware.HandleOptional, middleware.RateLimit("stream")))
	router.POST("/share/:token/events/view",
		chain(deps.ShareHandler.RecordView, deps.AuthMiddleware.HandleOptional, middleware.RateLimit("analytics")))
	router.POST("/share/:token/events/quarter",
		chain(deps.ShareHandler.RecordQuarter, deps.AuthMiddleware.HandleOptional, middleware.RateLimit("analytics")))
	router.POST("/share/:token/events/cta",
		chain(deps.ShareHandler.RecordCta, deps.AuthMiddleware.HandleOptional, middleware.RateLimit("analytics")))

	// Authentication routes
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))

	// Middleware references
	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware

	// Workspace management
	router.POST("/api/v1/workspaces",
		chain(deps.WorkspaceHandler.Create, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.GET("/api/v1/workspaces/:workspace_id",
		chain(deps.WorkspaceHandler.Get, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_read")))
	router.PATCH("/api/v1/workspaces/:workspace_id/settings",
		chain(deps.WorkspaceHandler.UpdateSettings, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/workspaces/:workspace_id",
		chain(deps.WorkspaceHandler.Delete, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))

	// Workspace membership
	router.POST("/api/v1/workspaces/:workspace_id/members",
		chain(deps.WorkspaceHandler.AddMember, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/workspaces/:workspace_id/members/:user_id",
		chain(deps.WorkspaceHandler.RemoveMember, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.PATCH("/api/v1/workspaces/:workspace_id/members/:user_id/role",
		chain(deps.WorkspaceHandler.UpdateMemberRole, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))

	// Folder tree
	router.GET("/api/v1/workspaces/:workspace_id/folders",
		chain(deps.FolderHandler.ListRoot, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_read")))
	router.POST("/api/v1/folders",
		chain(deps.FolderHandler.Create, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.GET("/api/v1/folders/:folder_id",
		chain(deps.FolderHandler.Get, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_read")))
	router.PATCH("/api/v1/folders/:folder_id",
		chain(deps.FolderHandler.Rename, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.PATCH("/api/v1/folders/:folder_id/parent",
		chain(deps.FolderHandler.Move, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/folders/:folder_id",
		chain(deps.FolderHandler.Delete, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))

	// Video management
	router.POST("/api/v1/videos",
		chain(deps.VideoHandler.Upload, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.GET("/api/v1/workspaces/:workspace_id/videos",
		chain(deps.VideoHandler.ListByWorkspace, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_read")))
	router.GET("/api/v1/videos/:video_id",
		chain(deps.VideoHandler.Get, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_read")))
	router.PATCH("/api/v1/videos/:video_id",
		chain(deps.VideoHandler.Update, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.PATCH("/api/v1/videos/:video_id/access",
		chain(deps.VideoHandler.UpdateAccess, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.PATCH("/api/v1/videos/:video_id/settings",
		chain(deps.VideoHandler.UpdateSettings, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.PATCH("/api/v1/videos/:video_id/folder",
		chain(deps.VideoHandler.Move, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/videos/:video_id",
		chain(deps.VideoHandler.Delete, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))

	// Delivery
	router.GET("/api/v1/videos/:video_id/stream",
		chain(deps.StreamHandler.Stream, authMid.Handle, tenantMid.Handle, middleware.RateLimit("stream")))
	router.GET("/api/v1/videos/:video_id/url",
		chain(deps.StreamHandler.SignedURL, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_read")))

	// Analytics ingest and aggregates
	router.POST("/api/v1/videos/:video_id/events/view",
		chain(deps.AnalyticsHandler.RecordView, authMid.Handle, tenantMid.Handle, middleware.RateLimit("analytics")))
	router.POST("/api/v1/videos/:video_id/events/quarter",
		chain(deps.AnalyticsHandler.RecordQuarter, authMid.Handle, tenantMid.Handle, middleware.RateLimit("analytics")))
	router.POST("/api/v1/videos/:video_id/events/cta",
		chain(deps.AnalyticsHandler.RecordCta, authMid.Handle, tenantMid.Handle, middleware.RateLimit("analytics")))
	router.GET("/api/v1/videos/:video_id/analytics",
		chain(deps.AnalyticsHandler.GetVideoAnalytics, authMid.Handle, tenantMid.Handle, middleware.RateLimit("analytics")))

	// Share links
	router.POST("/api/v1/videos/:video_id/share",
		chain(deps.ShareHandler.Create, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))
	router.GET("/api/v1/videos/:video_id/share",
		chain(deps.ShareHandler.List, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_read")))
	router.DELETE("/api/v1/videos/:video_id/share/:share_id",
		chain(deps.ShareHandler.Revoke, authMid.Handle, tenantMid.Handle, middleware.RateLimit("api_write")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
