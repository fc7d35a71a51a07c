package intent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Label is a closed-set summary of the caller's request purpose.
type Label string

const (
	LabelScheduleCallback Label = "schedule_callback"
	LabelCreateTicket     Label = "create_ticket"
	LabelSpeakAgent       Label = "speak_agent"
	LabelResolveIssue     Label = "resolve_issue"
	LabelGeneralInquiry   Label = "general_inquiry"
	LabelUnknown          Label = "unknown"
)

// Labels lists every label Classify can return.
func Labels() []Label {
	return []Label{
		LabelScheduleCallback,
		LabelCreateTicket,
		LabelSpeakAgent,
		LabelResolveIssue,
		LabelGeneralInquiry,
		LabelUnknown,
	}
}

// rule binds a label to its match patterns. Rule order is part of the
// classifier contract: when a transcript matches patterns of two labels, the
// label declared first wins.
type rule struct {
	label    Label
	patterns []*regexp.Regexp
}

// taxonomy holds the ordered rule set, bilingual (English and Hindi).
var taxonomy = []rule{
	{LabelScheduleCallback, compileAll(
		`schedule.*callback`,
		`call.*back`,
		`call.*later`,
		`call.*tomorrow`,
		`call.*again`,
		`कॉलबैक.*शेड्यूल`,
		`वापस.*कॉल`,
		`बाद में.*कॉल`,
	)},
	{LabelResolveIssue, compileAll(
		`resolve.*issue`,
		`fix.*problem`,
		`solve.*issue`,
		`solution`,
		`fixed`,
		`resolved`,
		`समस्या.*हल`,
		`समाधान`,
		`सुलझा`,
	)},
	{LabelSpeakAgent, compileAll(
		`speak.*agent`,
		`speak.*person`,
		`speak.*human`,
		`agent`,
		`supervisor`,
		`manager`,
		`एजेंट.*बात`,
		`व्यक्ति.*बात`,
		`सुपरवाइजर`,
	)},
	{LabelCreateTicket, compileAll(
		`create.*ticket`,
		`open.*ticket`,
		`submit.*ticket`,
		`ticket`,
		`complaint`,
		`टिकट.*बनाओ`,
		`शिकायत.*दर्ज`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// LLMClient is the external language-model boundary. Implementations receive
// the raw transcript and return a free-text label guess. A single blocking
// round trip; may fail.
type LLMClient interface {
	Complete(ctx context.Context, text string) (string, error)
}

// Classifier maps free text to a Label.
//
// Totality invariant: Classify returns one of the six labels for ANY input
// and never panics or returns an error. Provider failures fall back to the
// rule-based path; rule failures resolve to unknown.
type Classifier struct {
	llm LLMClient
	log *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLLM enables the language-model mode, keeping rules as the fallback.
func WithLLM(c LLMClient) Option {
	return func(cl *Classifier) { cl.llm = c }
}

func NewClassifier(log *slog.Logger, opts ...Option) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	cl := &Classifier{log: log}
	for _, o := range opts {
		o(cl)
	}
	return cl
}

// Classify extracts the caller intent from text.
func (c *Classifier) Classify(ctx context.Context, text string) (label Label) {
	// Classification must never take down call processing.
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("intent classification panicked", "recovered", r)
			label = LabelUnknown
		}
	}()

	if strings.TrimSpace(text) == "" {
		return LabelUnknown
	}

	if c.llm != nil {
		if l, ok := c.classifyLLM(ctx, text); ok {
			return l
		}
		// fall through to rules on provider failure
	}
	return c.classifyRules(text)
}

func (c *Classifier) classifyLLM(ctx context.Context, text string) (Label, bool) {
	raw, err := c.llm.Complete(ctx, text)
	if err != nil {
		c.log.Warn("llm intent extraction failed, falling back to rules", "err", err)
		return LabelUnknown, false
	}
	return parseLLMLabel(raw), true
}

func (c *Classifier) classifyRules(text string) Label {
	lower := strings.ToLower(text)
	for _, r := range taxonomy {
		for _, p := range r.patterns {
			if p.MatchString(lower) {
				c.log.Debug("rule-based intent detected", "intent", string(r.label))
				return r.label
			}
		}
	}
	return LabelGeneralInquiry
}

// parseLLMLabel maps a free-text model response onto the taxonomy by substring
// containment. Ambiguous output resolves to general_inquiry.
func parseLLMLabel(raw string) Label {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, string(LabelScheduleCallback)):
		return LabelScheduleCallback
	case strings.Contains(s, string(LabelCreateTicket)):
		return LabelCreateTicket
	case strings.Contains(s, string(LabelSpeakAgent)):
		return LabelSpeakAgent
	case strings.Contains(s, string(LabelResolveIssue)):
		return LabelResolveIssue
	default:
		return LabelGeneralInquiry
	}
}

var devanagari = regexp.MustCompile(`[\x{0900}-\x{097F}]`)

// DetectLanguage returns "hi" when the text contains Devanagari script,
// otherwise "en".
func DetectLanguage(text string) string {
	if devanagari.MatchString(text) {
		return "hi"
	}
	return "en"
}
