package telephony

import (
	"strings"
	"testing"
)

func TestWelcomeTwiML(t *testing.T) {
	out, err := WelcomeTwiML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "<Response>") {
		t.Fatalf("expected Response element: %s", out)
	}
	if !strings.Contains(out, `voice="alice"`) {
		t.Fatalf("expected alice voice: %s", out)
	}
	if !strings.Contains(out, "Welcome to our AI Voice Agent") {
		t.Fatalf("expected greeting: %s", out)
	}
	if !strings.Contains(out, `maxLength="60"`) || !strings.Contains(out, `transcribe="true"`) {
		t.Fatalf("expected transcribed recording: %s", out)
	}
	if !strings.Contains(out, "/webhooks/twilio/transcription") {
		t.Fatalf("expected transcription callback: %s", out)
	}
}

func TestGatherTwiML(t *testing.T) {
	out, err := GatherTwiML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `input="speech"`) {
		t.Fatalf("expected speech input: %s", out)
	}
	if !strings.Contains(out, `action="/webhooks/twilio/speech"`) {
		t.Fatalf("expected speech action: %s", out)
	}
	if !strings.Contains(out, `speechTimeout="auto"`) {
		t.Fatalf("expected auto speech timeout: %s", out)
	}
}

func TestHangupTwiML(t *testing.T) {
	out, err := HangupTwiML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "<Hangup") {
		t.Fatalf("expected Hangup verb: %s", out)
	}
}
