package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// Per-language voice ids. Rachel for English, Domi handles Hindi reasonably
// well with the multilingual model.
var elevenLabsVoices = map[string]string{
	"en": "21m00Tcm4TlvDq8ikWAM",
	"hi": "AZnzlk1XvdvUeBnXmlld",
}

// ElevenLabsSynthesizer converts text to speech via the ElevenLabs HTTP API.
type ElevenLabsSynthesizer struct {
	apiKey string
	client *http.Client
}

func NewElevenLabsSynthesizer(apiKey string) *ElevenLabsSynthesizer {
	return &ElevenLabsSynthesizer{
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type ttsRequest struct {
	Text          string      `json:"text"`
	ModelID       string      `json:"model_id"`
	VoiceSettings ttsSettings `json:"voice_settings"`
}

type ttsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	voiceID, ok := elevenLabsVoices[language]
	if !ok {
		voiceID = elevenLabsVoices["en"]
	}

	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: ttsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", elevenLabsBaseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs status %d: %s", resp.StatusCode, snippet)
	}
	return io.ReadAll(resp.Body)
}
