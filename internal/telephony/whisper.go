package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperTranscriber downloads a recording and transcribes it with OpenAI's
// whisper-1 model. The audio is staged through a temp file because the API
// client wants a file path.
type WhisperTranscriber struct {
	ai     *openai.Client
	client *http.Client
}

func NewWhisperTranscriber(apiKey string) *WhisperTranscriber {
	return &WhisperTranscriber{
		ai:     openai.NewClient(apiKey),
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioURL, language string) (string, error) {
	path, err := t.download(ctx, audioURL)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	resp, err := t.ai.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}

func (t *WhisperTranscriber) download(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("recording download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recording download status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "recording-*.wav")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
