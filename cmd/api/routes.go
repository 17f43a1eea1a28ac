package main

import (
	"autodialer-platform/internal/auth"
	"autodialer-platform/internal/dialer"
	"autodialer-platform/internal/httpapi"
	"autodialer-platform/internal/rbac"
	"autodialer-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, authManager *auth.Manager, dialerService *dialer.Service) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	{
		h := telephony.WebhookHandlers{Sink: dialerService}
		r.GET("/voice", h.VoicePrompt)
		r.POST("/call-status", h.StatusCallback)
	}

	h := httpapi.Handlers{
		Auth:   authManager,
		Dialer: dialerService,
	}

	// AUTH routes (token issuance).
	// NOTE: Login is skeleton-only; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(authManager))
	{
		// Placeholder route to demonstrate identity extraction via context.
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})

		// Dispatching calls needs operator privileges.
		dispatch := v1.Group("/")
		dispatch.Use(rbac.RequireAnyRole(rbac.RoleOperator))
		{
			dispatch.POST("/calls", h.DispatchSingle)
			dispatch.POST("/calls/batch", h.DispatchBatch)
			dispatch.POST("/calls/command", h.DispatchFromCommand)
			dispatch.POST("/uploads/csv", h.UploadCSV)
		}

		// Reads are open to viewers as well.
		reads := v1.Group("/")
		reads.Use(rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleViewer))
		{
			reads.GET("/calls", h.ListCalls)
			reads.GET("/calls/stats", h.Stats)
			reads.GET("/calls/export", h.ExportCSV)
		}
	}
}
