package calls

import "time"

// Call is the core record for one inbound or outbound phone call.
//
// Invariants:
// - ProviderCallID is unique when present (it is the vendor's identifier).
// - DurationSeconds is never negative.
// - Calls are never deleted in normal operation; status transitions and
//   transcript/intent enrichment mutate the row in place.

type Call struct {
	ID             string `json:"id" db:"id"`
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to,omitempty" db:"to_number"`

	Direction Direction  `json:"direction" db:"direction"`
	Status    CallStatus `json:"status" db:"status"`

	// DurationSeconds is fractional because provider CDRs report sub-second
	// durations for very short calls.
	DurationSeconds float64 `json:"duration" db:"duration"`

	Language   string `json:"language" db:"language"`
	Transcript string `json:"transcript,omitempty" db:"transcript"`
	Intent     string `json:"intent,omitempty" db:"intent"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
)

// Recording belongs to exactly one Call. It is created after call completion
// once a recording URL is known; the transcript arrives later, if at all.

type Recording struct {
	ID                  string `json:"id" db:"id"`
	CallID              string `json:"call_id" db:"call_id"`
	ProviderRecordingID string `json:"provider_recording_id,omitempty" db:"provider_recording_id"`

	URL             string  `json:"url" db:"url"`
	DurationSeconds float64 `json:"duration" db:"duration"`
	Transcript      string  `json:"transcript,omitempty" db:"transcript"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CallAction is a tracked follow-up generated from a call's detected intent.
// Only the action dispatcher creates these.

type CallAction struct {
	ID     string     `json:"id" db:"id"`
	CallID string     `json:"call_id" db:"call_id"`
	Type   ActionType `json:"action_type" db:"action_type"`

	Details string       `json:"details,omitempty" db:"details"`
	Status  ActionStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ActionType string

const (
	ActionTypeCallback   ActionType = "callback"
	ActionTypeTicket     ActionType = "ticket"
	ActionTypeEscalation ActionType = "escalation"
	ActionTypeResolved   ActionType = "resolved"
	ActionTypeOther      ActionType = "other"
)

type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
)

// Ticket references the call that produced it. TicketNumber is unique and
// follows the TKT-XXXXXXXX pattern (8 uppercase hex characters).

type Ticket struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	TicketNumber string `json:"ticket_number" db:"ticket_number"`
	Subject      string `json:"subject" db:"subject"`
	Description  string `json:"description" db:"description"`
	Status       string `json:"status" db:"status"`
	AssignedTo   string `json:"assigned_to,omitempty" db:"assigned_to"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const TicketStatusOpen = "open"
