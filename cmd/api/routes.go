package main

import (
	"outdial/internal/auth"
	"outdial/internal/httpapi"
	"outdial/internal/rbac"
	"outdial/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, webhooks *telephony.WebhookHandler, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by Twilio signature validation in production.
	webhooks.Register(r)

	// Conversation engine read path. Routed outside operator auth;
	// deployments should restrict it to the engine's network.
	r.GET("/internal/call-context/:provider_call_id", h.GetCallContext)

	v1 := r.Group("/v1")

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	v1.POST("/auth/login", h.Login)

	protected := v1.Group("")
	protected.Use(authMW)
	protected.Use(rbac.RequireAnyRole(rbac.RoleOperator))
	{
		protected.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "role": role})
		})

		// GROUP CALL routes
		groupCalls := protected.Group("/group-calls")
		{
			groupCalls.POST("", h.CreateGroupCall)
			groupCalls.GET("", h.ListGroupCalls)
			groupCalls.GET("/:id", h.GetGroupCall)
			groupCalls.GET("/:id/queue-status", h.GetQueueStatus)
			groupCalls.POST("/:id/start", h.StartGroupCall)
			groupCalls.POST("/:id/pause", h.PauseGroupCall)
			groupCalls.POST("/:id/resume", h.ResumeGroupCall)
			groupCalls.POST("/:id/next", h.ManualNextGroupCall)
		}

		// CALL routes (standalone calls and listings)
		calls := protected.Group("/calls")
		{
			calls.POST("", h.StartCall)
			calls.GET("", h.ListCalls)
		}

		// REPORTING routes
		protected.GET("/reports/calls-summary", h.CallsSummary)
	}
}
