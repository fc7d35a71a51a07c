package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal Twilio Markup Language response builder. It intentionally avoids
// the provider SDK's TwiML helpers; only the verbs this service emits are
// modeled.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName            xml.Name `xml:"Record"`
	MaxLength          int      `xml:"maxLength,attr,omitempty"`
	Transcribe         bool     `xml:"transcribe,attr"`
	TranscribeCallback string   `xml:"transcribeCallback,attr,omitempty"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr,omitempty"`
	Action        string   `xml:"action,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	Say           *twimlSay
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

const sayVoice = "alice"

// WelcomeTwiML greets the caller and starts a transcribed recording.
func WelcomeTwiML() (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{
		twimlSay{Voice: sayVoice, Text: "Welcome to our AI Voice Agent. How can I help you today?"},
		twimlRecord{MaxLength: 60, Transcribe: true, TranscribeCallback: "/webhooks/twilio/transcription"},
	}})
}

// GatherTwiML prompts for speech input mid-call.
func GatherTwiML() (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{
		twimlGather{
			Input:         "speech",
			Action:        "/webhooks/twilio/speech",
			SpeechTimeout: "auto",
			Language:      "en-US",
			Say:           &twimlSay{Voice: sayVoice, Text: "Please tell me how I can help you today."},
		},
	}})
}

// GoodbyeTwiML acknowledges the caller's request and ends the call.
func GoodbyeTwiML() (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{
		twimlSay{Voice: sayVoice, Text: "Thank you. We have noted your request and will follow up shortly. Goodbye."},
		twimlHangup{},
	}})
}

// HangupTwiML ends the call.
func HangupTwiML() (string, error) {
	return renderTwiML(twimlResponse{Verbs: []any{twimlHangup{}}})
}

func renderTwiML(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
