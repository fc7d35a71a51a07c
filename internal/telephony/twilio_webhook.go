package telephony

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"voice-agent-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TwilioInboundForm captures the subset of voice webhook fields we care about.
// Twilio sends application/x-www-form-urlencoded by default.
//
// Provider-adapter-only: no call lifecycle decisions are made here.

type TwilioInboundForm struct {
	CallSid           string
	AccountSid        string
	From              string
	To                string
	Direction         string
	CallStatus        string
	RecordingUrl      string
	RecordingSid      string
	RecordingDuration int
	TranscriptionText string
}

func ParseTwilioInboundCall(r *http.Request) (TwilioInboundForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioInboundForm{}, err
	}
	f := TwilioInboundForm{
		CallSid:           r.PostFormValue("CallSid"),
		AccountSid:        r.PostFormValue("AccountSid"),
		From:              normalizePhone(r.PostFormValue("From")),
		To:                normalizePhone(r.PostFormValue("To")),
		Direction:         r.PostFormValue("Direction"),
		CallStatus:        r.PostFormValue("CallStatus"),
		RecordingUrl:      r.PostFormValue("RecordingUrl"),
		RecordingSid:      r.PostFormValue("RecordingSid"),
		TranscriptionText: r.PostFormValue("TranscriptionText"),
	}
	if v := r.PostFormValue("RecordingDuration"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			f.RecordingDuration = n
		}
	}
	return f, nil
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}

// CallEventSink is the orchestration boundary the webhook adapters drive.
// Implemented by the call orchestrator; injected to keep this package free of
// business logic.
type CallEventSink interface {
	// InboundStarted registers a new inbound call. It must be idempotent on
	// providerCallID: duplicate deliveries return the existing call.
	InboundStarted(ctx context.Context, providerCallID, from, to string) error

	// CallCompleted marks the call completed and, when recordingURL is
	// non-empty, schedules background recording processing.
	CallCompleted(ctx context.Context, providerCallID, recordingURL string) error

	// TranscriptReceived applies a provider-delivered transcript: classify,
	// update the call, and schedule action dispatch.
	TranscriptReceived(ctx context.Context, providerCallID, transcript string, durationSeconds float64) error
}

// TwilioWebhookHandler translates Twilio voice webhook events into call
// orchestrator operations and answers with TwiML where the provider expects
// call instructions.
type TwilioWebhookHandler struct {
	Events CallEventSink

	// Dedup is optional; when set, repeated deliveries of the same event are
	// acknowledged without reprocessing (best-effort, see Deduper).
	Dedup *Deduper
}

func (h TwilioWebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Events == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call events sink not configured"})
		return
	}

	form, err := ParseTwilioInboundCall(c.Request)
	if err != nil {
		log.Warn("twilio webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing CallSid parameter"})
		return
	}

	ctx := c.Request.Context()
	if h.Dedup != nil {
		eventKey := "twilio:" + form.CallSid + ":" + form.CallStatus
		fresh, err := h.Dedup.ClaimOnce(ctx, eventKey)
		if err != nil {
			// Redis outage: let the event through; the store-level provider
			// id uniqueness absorbs the duplicate.
			log.Warn("webhook dedup unavailable", "err", err)
		} else if !fresh {
			log.Info("duplicate twilio event ignored", "call_sid", form.CallSid, "status", form.CallStatus)
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
	}

	log.Info("twilio webhook", "call_sid", form.CallSid, "status", form.CallStatus)

	switch form.CallStatus {
	case "initiated", "ringing":
		if err := h.Events.InboundStarted(ctx, form.CallSid, form.From, form.To); err != nil {
			log.Error("inbound call registration failed", "call_sid", form.CallSid, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call registration failed"})
			return
		}
		writeTwiML(c, log, WelcomeTwiML)

	case "in-progress":
		writeTwiML(c, log, GatherTwiML)

	case "completed":
		if err := h.Events.CallCompleted(ctx, form.CallSid, form.RecordingUrl); err != nil {
			log.Error("call completion failed", "call_sid", form.CallSid, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call completion failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})

	default:
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

// HandleSpeech receives the Gather speech result mid-call and answers with
// closing TwiML.
func (h TwilioWebhookHandler) HandleSpeech(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Events == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call events sink not configured"})
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	callSid := c.Request.PostFormValue("CallSid")
	if callSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing CallSid parameter"})
		return
	}
	speech := c.Request.PostFormValue("SpeechResult")

	if speech != "" {
		if err := h.Events.TranscriptReceived(c.Request.Context(), callSid, speech, 0); err != nil {
			log.Error("speech handling failed", "call_sid", callSid, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "speech handling failed"})
			return
		}
	}
	writeTwiML(c, log, GoodbyeTwiML)
}

// HandleTranscription receives Twilio's transcription callback for recorded
// calls.
func (h TwilioWebhookHandler) HandleTranscription(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Events == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call events sink not configured"})
		return
	}

	form, err := ParseTwilioInboundCall(c.Request)
	if err != nil || form.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.TranscriptionText == "" {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}
	if err := h.Events.TranscriptReceived(c.Request.Context(), form.CallSid, form.TranscriptionText, float64(form.RecordingDuration)); err != nil {
		log.Error("transcription handling failed", "call_sid", form.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "transcription handling failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func writeTwiML(c *gin.Context, log *slog.Logger, build func() (string, error)) {
	twiml, err := build()
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
