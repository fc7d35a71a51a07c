package telephony

import "context"

// Provider contracts for the external voice stack.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Each call is a single blocking round trip; no retry, backoff, or timeout
//   policy is applied here. A provider error fails the enclosing step.

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// Transcriber converts recorded audio (by URL) to text. An empty string with
// a nil error means the provider produced no transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) (string, error)
}

// Dialer places an outbound call and returns the provider's call identifier.
// callbackURL is where the provider should fetch call instructions.
type Dialer interface {
	Dial(ctx context.Context, to, from, callbackURL string) (string, error)
}
