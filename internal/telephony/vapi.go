package telephony

import (
	"net/http"

	"voice-agent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// VapiEvent is the JSON payload Vapi posts for call lifecycle events.
type VapiEvent struct {
	Event      string  `json:"event" binding:"required"`
	CallID     string  `json:"call_id" binding:"required"`
	Direction  string  `json:"direction"`
	FromNumber string  `json:"from_number"`
	ToNumber   string  `json:"to_number"`
	Language   string  `json:"language"`
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration"`
	Intent     string  `json:"intent"`
}

const (
	vapiEventCallStarted   = "call.started"
	vapiEventCallCompleted = "call.completed"
)

// VapiAssistantConfig is the structured response Vapi expects when a call
// starts: it configures voice, greeting, and recording behavior.
type VapiAssistantConfig struct {
	Assistant VapiAssistant `json:"assistant"`
	Status    string        `json:"status"`
}

type VapiAssistant struct {
	Voice           string              `json:"voice"`
	FirstMessage    string              `json:"firstMessage"`
	TimeoutSettings VapiTimeoutSettings `json:"timeoutSettings"`
	EndCallSettings VapiEndCallSettings `json:"endCallSettings"`
	Language        string              `json:"language"`
	RecordCall      bool                `json:"recordCall"`
	TranscribeCall  bool                `json:"transcribeCall"`
}

type VapiTimeoutSettings struct {
	UserResponseTimeoutMS int `json:"userResponseTimeout"`
	SilenceTimeoutMS      int `json:"silenceTimeout"`
}

type VapiEndCallSettings struct {
	EndCallThreshold float64 `json:"endCallThreshold"`
}

// NewVapiAssistantConfig builds the per-language assistant configuration.
func NewVapiAssistantConfig(language string) VapiAssistantConfig {
	voice := "alloy"
	welcome := "Welcome to our AI Voice Agent. How can I help you today?"
	if language == "hi" {
		voice = "shimmer"
		welcome = "हमारे AI वॉइस एजेंट में आपका स्वागत है। मैं आज आपकी कैसे मदद कर सकता हूँ?"
	}
	return VapiAssistantConfig{
		Assistant: VapiAssistant{
			Voice:        voice,
			FirstMessage: welcome,
			TimeoutSettings: VapiTimeoutSettings{
				UserResponseTimeoutMS: 10000,
				SilenceTimeoutMS:      3000,
			},
			EndCallSettings: VapiEndCallSettings{EndCallThreshold: 0.8},
			Language:        language,
			RecordCall:      true,
			TranscribeCall:  true,
		},
		Status: "success",
	}
}

// VapiWebhookHandler translates Vapi call events into orchestrator operations.
type VapiWebhookHandler struct {
	Events CallEventSink
	Dedup  *Deduper
}

func (h VapiWebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Events == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call events sink not configured"})
		return
	}

	var ev VapiEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	if h.Dedup != nil {
		fresh, err := h.Dedup.ClaimOnce(ctx, "vapi:"+ev.CallID+":"+ev.Event)
		if err != nil {
			log.Warn("webhook dedup unavailable", "err", err)
		} else if !fresh {
			log.Info("duplicate vapi event ignored", "call_id", ev.CallID, "event", ev.Event)
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
	}

	log.Info("vapi webhook", "call_id", ev.CallID, "event", ev.Event)

	switch ev.Event {
	case vapiEventCallStarted:
		if ev.Direction == "inbound" {
			if err := h.Events.InboundStarted(ctx, ev.CallID, ev.FromNumber, ev.ToNumber); err != nil {
				log.Error("inbound call registration failed", "call_id", ev.CallID, "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call registration failed"})
				return
			}
			language := ev.Language
			if language == "" {
				language = "en"
			}
			c.JSON(http.StatusOK, NewVapiAssistantConfig(language))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})

	case vapiEventCallCompleted:
		if ev.Transcript != "" {
			if err := h.Events.TranscriptReceived(ctx, ev.CallID, ev.Transcript, ev.Duration); err != nil {
				log.Error("transcript handling failed", "call_id", ev.CallID, "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transcript handling failed"})
				return
			}
		}
		if err := h.Events.CallCompleted(ctx, ev.CallID, ""); err != nil {
			log.Error("call completion failed", "call_id", ev.CallID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call completion failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})

	default:
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
