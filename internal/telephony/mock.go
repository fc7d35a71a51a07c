package telephony

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Mock providers for local development and tests. Enabled via
// PROVIDERS_MOCK; no network calls, deterministic outputs.

type MockSynthesizer struct{}

func (MockSynthesizer) Synthesize(_ context.Context, _, _ string) ([]byte, error) {
	return []byte("MOCK_AUDIO_DATA"), nil
}

type MockTranscriber struct{}

func (MockTranscriber) Transcribe(_ context.Context, _, language string) (string, error) {
	if language == "hi" {
		return "मुझे कल दोपहर के लिए एक कॉलबैक शेड्यूल करना होगा।", nil
	}
	return "I would like to schedule a callback for tomorrow afternoon.", nil
}

// MockDialer fabricates provider call ids without placing real calls.
type MockDialer struct{}

func (MockDialer) Dial(_ context.Context, _, _, _ string) (string, error) {
	return "out_" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}
