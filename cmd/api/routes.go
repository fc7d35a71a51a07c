package main

import (
	"voice-agent-platform/internal/httpapi"
	"voice-agent-platform/internal/orchestrator"
	"voice-agent-platform/internal/rbac"
	"voice-agent-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, orch *orchestrator.Service, dedup *telephony.Deduper, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public).
	// NOTE: These endpoints should be protected by provider signature
	// validation in production.
	{
		twilio := telephony.TwilioWebhookHandler{Events: orch, Dedup: dedup}
		r.POST("/webhooks/twilio", twilio.Handle)
		r.POST("/webhooks/twilio/speech", twilio.HandleSpeech)
		r.POST("/webhooks/twilio/transcription", twilio.HandleTranscription)

		vapi := telephony.VapiWebhookHandler{Events: orch, Dedup: dedup}
		r.POST("/webhooks/vapi", vapi.Handle)
	}

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// CALLS routes
		callsGroup := v1.Group("/calls")
		callsGroup.Use(rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleAgent))
		{
			callsGroup.POST("/outbound", h.CreateOutboundCall)
			callsGroup.GET("", h.ListCalls)
			callsGroup.GET("/:id", h.GetCall)
		}

		// ADMIN routes
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			admin.GET("/analytics", h.GetAnalytics)
			admin.GET("/intents", h.GetIntents)
			admin.POST("/simulate-call", h.SimulateCall)
		}
	}
}
