package telephony

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func postVapiEvent(t *testing.T, h VapiWebhookHandler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/vapi", h.Handle)

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/vapi", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVapiWebhook_CallStartedReturnsAssistantConfig(t *testing.T) {
	sink := &fakeSink{}
	h := VapiWebhookHandler{Events: sink}

	w := postVapiEvent(t, h, VapiEvent{
		Event:      "call.started",
		CallID:     "vapi_1",
		Direction:  "inbound",
		FromNumber: "+15550001111",
		ToNumber:   "+15552223333",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cfg VapiAssistantConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode assistant config: %v", err)
	}
	if cfg.Assistant.Voice != "alloy" {
		t.Fatalf("expected alloy voice, got %q", cfg.Assistant.Voice)
	}
	if cfg.Assistant.TimeoutSettings.UserResponseTimeoutMS != 10000 {
		t.Fatalf("unexpected response timeout: %d", cfg.Assistant.TimeoutSettings.UserResponseTimeoutMS)
	}
	if !cfg.Assistant.RecordCall || !cfg.Assistant.TranscribeCall {
		t.Fatalf("expected recording and transcription enabled")
	}
	if len(sink.calls) != 1 || sink.calls[0].op != "inbound" || sink.calls[0].providerCallID != "vapi_1" {
		t.Fatalf("expected inbound registration, got %+v", sink.calls)
	}
}

func TestVapiWebhook_HindiVoice(t *testing.T) {
	cfg := NewVapiAssistantConfig("hi")
	if cfg.Assistant.Voice != "shimmer" {
		t.Fatalf("expected shimmer voice for hindi, got %q", cfg.Assistant.Voice)
	}
	if cfg.Assistant.Language != "hi" {
		t.Fatalf("expected hi language, got %q", cfg.Assistant.Language)
	}
}

func TestVapiWebhook_CallCompletedAppliesTranscript(t *testing.T) {
	sink := &fakeSink{}
	h := VapiWebhookHandler{Events: sink}

	w := postVapiEvent(t, h, VapiEvent{
		Event:      "call.completed",
		CallID:     "vapi_2",
		Transcript: "I want to talk to an agent",
		Duration:   48,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(sink.calls) != 2 {
		t.Fatalf("expected transcript then completion, got %+v", sink.calls)
	}
	if sink.calls[0].op != "transcript" || sink.calls[0].transcript != "I want to talk to an agent" || sink.calls[0].duration != 48 {
		t.Fatalf("unexpected transcript event: %+v", sink.calls[0])
	}
	if sink.calls[1].op != "completed" || sink.calls[1].providerCallID != "vapi_2" {
		t.Fatalf("unexpected completion event: %+v", sink.calls[1])
	}
}

func TestVapiWebhook_CompletedWithoutTranscript(t *testing.T) {
	sink := &fakeSink{}
	h := VapiWebhookHandler{Events: sink}

	w := postVapiEvent(t, h, VapiEvent{Event: "call.completed", CallID: "vapi_3"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(sink.calls) != 1 || sink.calls[0].op != "completed" {
		t.Fatalf("expected only completion, got %+v", sink.calls)
	}
}

func TestVapiWebhook_InvalidPayloadRejected(t *testing.T) {
	h := VapiWebhookHandler{Events: &fakeSink{}}

	w := postVapiEvent(t, h, map[string]string{"event": "call.started"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing call_id, got %d", w.Code)
	}
}

func TestVapiWebhook_UnknownEventAcknowledged(t *testing.T) {
	sink := &fakeSink{}
	h := VapiWebhookHandler{Events: sink}

	w := postVapiEvent(t, h, VapiEvent{Event: "call.ringing", CallID: "vapi_4"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(sink.calls) != 0 {
		t.Fatalf("expected no sink calls, got %+v", sink.calls)
	}
}
