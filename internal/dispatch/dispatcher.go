package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-agent-platform/internal/audit"
	"voice-agent-platform/internal/calls"
	"voice-agent-platform/internal/intent"

	"github.com/google/uuid"
)

// Dispatcher turns a detected intent into tracked follow-up records.
//
// The selection policy substring-matches the intent LABEL STRING rather than
// consuming the classifier's enum. The two layers are intentionally kept as
// independent taxonomies (a label like "general_inquiry" containing the word
// "issue" would still open a ticket). Do not "fix" this by matching on the
// enum: it is observable behavior. Disagreements between the layers are
// reported via the audit log instead.
type Dispatcher struct {
	repo  calls.Repository
	audit *audit.Service
	log   *slog.Logger
	clock func() time.Time
}

func NewDispatcher(repo calls.Repository, auditSvc *audit.Service, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{repo: repo, audit: auditSvc, log: log, clock: time.Now}
}

// expectedAction maps each classifier label to the action type its name
// implies. Used only for mismatch monitoring, never for dispatch.
var expectedAction = map[intent.Label]calls.ActionType{
	intent.LabelScheduleCallback: calls.ActionTypeCallback,
	intent.LabelCreateTicket:     calls.ActionTypeTicket,
	intent.LabelSpeakAgent:       calls.ActionTypeEscalation,
	intent.LabelResolveIssue:     calls.ActionTypeResolved,
	intent.LabelGeneralInquiry:   calls.ActionTypeOther,
	intent.LabelUnknown:          calls.ActionTypeOther,
}

// ProcessIntentActions creates one CallAction (and possibly one Ticket) for
// the call. Policy is an ordered first-match chain over the lowered intent
// string; the order is a contract because the categories overlap lexically.
func (d *Dispatcher) ProcessIntentActions(ctx context.Context, callID, intentLabel string) error {
	call, err := d.repo.GetCall(ctx, callID)
	if err != nil {
		return fmt.Errorf("dispatch: load call %s: %w", callID, err)
	}

	lower := strings.ToLower(intentLabel)
	now := d.clock().UTC()

	var chosen calls.ActionType
	switch {
	case strings.Contains(lower, "schedule") && strings.Contains(lower, "callback"):
		chosen = calls.ActionTypeCallback
		_, err = d.repo.AddAction(ctx, calls.CallAction{
			CallID:    call.ID,
			Type:      calls.ActionTypeCallback,
			Details:   fmt.Sprintf("Callback scheduled from intent: %s", intentLabel),
			Status:    calls.ActionStatusPending,
			CreatedAt: now,
		})

	case strings.Contains(lower, "ticket") || strings.Contains(lower, "issue"):
		chosen = calls.ActionTypeTicket
		ticketNumber := NewTicketNumber()
		_, err = d.repo.AddTicket(ctx, calls.Ticket{
			CallID:       call.ID,
			TicketNumber: ticketNumber,
			Subject:      fmt.Sprintf("Issue from call %s", call.From),
			Description:  fmt.Sprintf("Ticket created from call transcript: %s", call.Transcript),
			Status:       calls.TicketStatusOpen,
			CreatedAt:    now,
		})
		if err == nil {
			_, err = d.repo.AddAction(ctx, calls.CallAction{
				CallID:    call.ID,
				Type:      calls.ActionTypeTicket,
				Details:   fmt.Sprintf("Ticket created: %s", ticketNumber),
				Status:    calls.ActionStatusCompleted,
				CreatedAt: now,
			})
		}

	case strings.Contains(lower, "escalate") || strings.Contains(lower, "supervisor") || strings.Contains(lower, "manager"):
		chosen = calls.ActionTypeEscalation
		_, err = d.repo.AddAction(ctx, calls.CallAction{
			CallID:    call.ID,
			Type:      calls.ActionTypeEscalation,
			Details:   fmt.Sprintf("Call escalated to human agent from intent: %s", intentLabel),
			Status:    calls.ActionStatusPending,
			CreatedAt: now,
		})

	case strings.Contains(lower, "resolve") || strings.Contains(lower, "solved") || strings.Contains(lower, "fixed"):
		chosen = calls.ActionTypeResolved
		_, err = d.repo.AddAction(ctx, calls.CallAction{
			CallID:    call.ID,
			Type:      calls.ActionTypeResolved,
			Details:   fmt.Sprintf("Issue resolved from intent: %s", intentLabel),
			Status:    calls.ActionStatusCompleted,
			CreatedAt: now,
		})

	default:
		chosen = calls.ActionTypeOther
		_, err = d.repo.AddAction(ctx, calls.CallAction{
			CallID:    call.ID,
			Type:      calls.ActionTypeOther,
			Details:   fmt.Sprintf("Unclassified intent: %s", intentLabel),
			Status:    calls.ActionStatusPending,
			CreatedAt: now,
		})
	}
	if err != nil {
		return fmt.Errorf("dispatch: record action for call %s: %w", callID, err)
	}

	d.monitorMismatch(ctx, call.ID, intentLabel, chosen)

	d.log.Info("processed intent", "call_id", call.ID, "intent", intentLabel, "action", string(chosen))
	return nil
}

// monitorMismatch flags calls where the substring policy disagrees with the
// action the classifier label implies. Best-effort.
func (d *Dispatcher) monitorMismatch(ctx context.Context, callID, intentLabel string, chosen calls.ActionType) {
	if d.audit == nil {
		return
	}
	expected, ok := expectedAction[intent.Label(intentLabel)]
	if !ok || expected == chosen {
		return
	}
	if err := d.audit.LogTaxonomyMismatch(ctx, callID, intentLabel, string(expected), string(chosen)); err != nil {
		d.log.Warn("taxonomy mismatch audit failed", "call_id", callID, "err", err)
	}
}

// NewTicketNumber generates a TKT-XXXXXXXX identifier (8 uppercase hex chars).
func NewTicketNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TKT-" + strings.ToUpper(hex[:8])
}
