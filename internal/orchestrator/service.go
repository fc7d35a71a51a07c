package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-agent-platform/internal/calls"
	"voice-agent-platform/internal/dispatch"
	"voice-agent-platform/internal/intent"
	"voice-agent-platform/internal/telephony"

	"github.com/google/uuid"
)

// Simulated call constants. Outbound processing without a real dialer plays
// out a fixed conversation so the full pipeline can run locally.
const (
	simulatedOutboundResponse = "I would like to schedule a callback for tomorrow."
	simulatedOutboundDuration = 60.0
	simulatedInboundDuration  = 30.0
	simulatedInboundTo        = "+15551234567"
)

// Service drives the call lifecycle: queued → initiated → in_progress →
// completed | failed | no_answer. Inbound calls enter at initiated/ringing
// when the provider webhook arrives.
//
// Multi-step sequences are separate repository commits; a crash mid-sequence
// leaves a partially advanced call rather than rolling back.
type Service struct {
	repo        calls.Repository
	classifier  *intent.Classifier
	dispatcher  *dispatch.Dispatcher
	synth       telephony.Synthesizer
	transcriber telephony.Transcriber
	dialer      telephony.Dialer
	tasks       *Tasks
	log         *slog.Logger
	clock       func() time.Time

	// callbackURL is the public TwiML instruction URL handed to the dialer.
	callbackURL string

	// fromNumber is the caller id for outbound calls.
	fromNumber string
}

type ServiceParams struct {
	Repo        calls.Repository
	Classifier  *intent.Classifier
	Dispatcher  *dispatch.Dispatcher
	Synthesizer telephony.Synthesizer
	Transcriber telephony.Transcriber

	// Dialer is optional. When nil, outbound calls run the simulated
	// conversation instead of placing a real call.
	Dialer telephony.Dialer

	Tasks       *Tasks
	Log         *slog.Logger
	CallbackURL string
	FromNumber  string
}

func NewService(p ServiceParams) *Service {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:        p.Repo,
		classifier:  p.Classifier,
		dispatcher:  p.Dispatcher,
		synth:       p.Synthesizer,
		transcriber: p.Transcriber,
		dialer:      p.Dialer,
		tasks:       p.Tasks,
		log:         log,
		clock:       time.Now,
		callbackURL: p.CallbackURL,
		fromNumber:  p.FromNumber,
	}
}

func newProviderID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateOutboundCall records a queued outbound call and schedules processing.
// It returns before the call is placed.
func (s *Service) CreateOutboundCall(ctx context.Context, to, message, language string) (calls.Call, error) {
	if to == "" {
		return calls.Call{}, errors.New("orchestrator: destination number is required")
	}
	if language == "" {
		language = "en"
	}
	now := s.clock().UTC()

	from := s.fromNumber
	if from == "" {
		from = "system"
	}
	call, err := s.repo.CreateCall(ctx, calls.Call{
		ProviderCallID: newProviderID("out_"),
		From:           from,
		To:             to,
		Direction:      calls.DirectionOutbound,
		Status:         calls.CallStatusQueued,
		Language:       language,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return calls.Call{}, fmt.Errorf("orchestrator: create outbound call: %w", err)
	}

	callID := call.ID
	if s.tasks != nil {
		s.tasks.Submit("process_outbound_call", func(ctx context.Context) error {
			return s.ProcessOutboundCall(ctx, callID, message)
		})
	}
	return call, nil
}

// ProcessOutboundCall advances a queued outbound call. With a real dialer the
// provider webhooks drive the rest of the lifecycle; without one the
// conversation is simulated end to end.
func (s *Service) ProcessOutboundCall(ctx context.Context, callID, message string) error {
	call, err := s.repo.GetCall(ctx, callID)
	if err != nil {
		return fmt.Errorf("orchestrator: load outbound call %s: %w", callID, err)
	}

	call, err = s.setStatus(ctx, call, calls.CallStatusInitiated)
	if err != nil {
		return err
	}

	if s.dialer != nil {
		providerID, err := s.dialer.Dial(ctx, call.To, call.From, s.callbackURL)
		if err != nil {
			s.failCall(ctx, call)
			return fmt.Errorf("orchestrator: dial %s: %w", call.To, err)
		}
		call.ProviderCallID = providerID
		if _, err := s.repo.UpdateCall(ctx, s.touch(call)); err != nil {
			return fmt.Errorf("orchestrator: store provider call id: %w", err)
		}
		s.log.Info("outbound call placed", "call_id", call.ID, "provider_call_id", providerID)
		return nil
	}

	call, err = s.setStatus(ctx, call, calls.CallStatusInProgress)
	if err != nil {
		return err
	}

	if s.synth != nil {
		if _, err := s.synth.Synthesize(ctx, message, call.Language); err != nil {
			s.failCall(ctx, call)
			return fmt.Errorf("orchestrator: synthesize outbound message: %w", err)
		}
	}

	transcript := simulatedOutboundResponse
	label := s.classify(ctx, transcript)

	call.Transcript = transcript
	call.Intent = string(label)
	call.DurationSeconds = simulatedOutboundDuration
	call.Status = calls.CallStatusCompleted
	if _, err := s.repo.UpdateCall(ctx, s.touch(call)); err != nil {
		return fmt.Errorf("orchestrator: complete outbound call: %w", err)
	}

	return s.dispatchActions(ctx, call.ID, string(label))
}

// InboundStarted registers a new inbound call. Idempotent on providerCallID:
// repeated webhook deliveries find the existing call and do nothing.
func (s *Service) InboundStarted(ctx context.Context, providerCallID, from, to string) error {
	if _, err := s.repo.GetCallByProviderID(ctx, providerCallID); err == nil {
		return nil
	} else if !errors.Is(err, calls.ErrNotFound) {
		return fmt.Errorf("orchestrator: lookup inbound call: %w", err)
	}

	now := s.clock().UTC()
	_, err := s.repo.CreateCall(ctx, calls.Call{
		ProviderCallID: providerCallID,
		From:           from,
		To:             to,
		Direction:      calls.DirectionInbound,
		Status:         calls.CallStatusInitiated,
		Language:       "en",
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if errors.Is(err, calls.ErrConflict) {
		// Concurrent duplicate delivery; the other one won.
		return nil
	}
	if err != nil {
		return fmt.Errorf("orchestrator: create inbound call: %w", err)
	}
	s.log.Info("inbound call registered", "provider_call_id", providerCallID, "from", from)
	return nil
}

// CallCompleted marks the call completed and, when a recording URL is
// present, schedules background transcription of the recording.
func (s *Service) CallCompleted(ctx context.Context, providerCallID, recordingURL string) error {
	call, err := s.repo.GetCallByProviderID(ctx, providerCallID)
	if err != nil {
		return fmt.Errorf("orchestrator: lookup call %s: %w", providerCallID, err)
	}

	if call.Status != calls.CallStatusCompleted {
		call.Status = calls.CallStatusCompleted
		if call, err = s.repo.UpdateCall(ctx, s.touch(call)); err != nil {
			return fmt.Errorf("orchestrator: complete call: %w", err)
		}
	}

	if recordingURL == "" {
		return nil
	}

	now := s.clock().UTC()
	rec, err := s.repo.AddRecording(ctx, calls.Recording{
		CallID:    call.ID,
		URL:       recordingURL,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("orchestrator: store recording: %w", err)
	}

	if s.tasks != nil {
		recID := rec.ID
		callID := call.ID
		s.tasks.Submit("process_recording", func(ctx context.Context) error {
			return s.ProcessRecording(ctx, callID, recID, recordingURL)
		})
	}
	return nil
}

// ProcessRecording transcribes a stored recording and applies the result to
// the call. A transcription failure leaves the call untouched.
func (s *Service) ProcessRecording(ctx context.Context, callID, recordingID, recordingURL string) error {
	call, err := s.repo.GetCall(ctx, callID)
	if err != nil {
		return fmt.Errorf("orchestrator: load call for recording: %w", err)
	}
	if s.transcriber == nil {
		return nil
	}

	transcript, err := s.transcriber.Transcribe(ctx, recordingURL, call.Language)
	if err != nil {
		return fmt.Errorf("orchestrator: transcribe recording %s: %w", recordingID, err)
	}
	if transcript == "" {
		s.log.Info("recording produced no transcript", "call_id", callID)
		return nil
	}

	if _, err := s.repo.UpdateRecording(ctx, calls.Recording{
		ID:         recordingID,
		CallID:     callID,
		URL:        recordingURL,
		Transcript: transcript,
	}); err != nil {
		s.log.Warn("recording transcript update failed", "recording_id", recordingID, "err", err)
	}

	return s.applyTranscript(ctx, call, transcript, call.DurationSeconds)
}

// TranscriptReceived applies a provider-delivered transcript: detect
// language, classify, persist, and dispatch follow-up actions.
func (s *Service) TranscriptReceived(ctx context.Context, providerCallID, transcript string, durationSeconds float64) error {
	call, err := s.repo.GetCallByProviderID(ctx, providerCallID)
	if err != nil {
		return fmt.Errorf("orchestrator: lookup call %s: %w", providerCallID, err)
	}
	return s.applyTranscript(ctx, call, transcript, durationSeconds)
}

func (s *Service) applyTranscript(ctx context.Context, call calls.Call, transcript string, durationSeconds float64) error {
	label := s.classify(ctx, transcript)

	call.Transcript = transcript
	call.Intent = string(label)
	call.Language = intent.DetectLanguage(transcript)
	if durationSeconds > 0 {
		call.DurationSeconds = durationSeconds
	}
	if _, err := s.repo.UpdateCall(ctx, s.touch(call)); err != nil {
		return fmt.Errorf("orchestrator: apply transcript to call %s: %w", call.ID, err)
	}

	return s.dispatchActions(ctx, call.ID, string(label))
}

// UpdateCallStatus sets the call status (provider status callbacks).
func (s *Service) UpdateCallStatus(ctx context.Context, providerCallID string, status calls.CallStatus) error {
	call, err := s.repo.GetCallByProviderID(ctx, providerCallID)
	if err != nil {
		return fmt.Errorf("orchestrator: lookup call %s: %w", providerCallID, err)
	}
	_, err = s.setStatus(ctx, call, status)
	return err
}

// SimulationResult is the synchronous outcome of a simulated inbound call.
type SimulationResult struct {
	CallID     string             `json:"call_id"`
	Status     calls.CallStatus   `json:"status"`
	Transcript string             `json:"transcript"`
	Intent     string             `json:"intent"`
	Actions    []calls.CallAction `json:"actions"`
}

// SimulateInboundCall runs the full inbound pipeline synchronously: register,
// apply the caller's message as the transcript, classify, complete, dispatch.
// When message is empty the configured transcriber (mock in development)
// supplies a canned transcript. Testing surface for the admin API.
func (s *Service) SimulateInboundCall(ctx context.Context, from, message, language string) (SimulationResult, error) {
	if from == "" {
		from = "+15559876543"
	}
	if language == "" {
		language = "en"
	}
	now := s.clock().UTC()

	call, err := s.repo.CreateCall(ctx, calls.Call{
		ProviderCallID: newProviderID("sim_"),
		From:           from,
		To:             simulatedInboundTo,
		Direction:      calls.DirectionInbound,
		Status:         calls.CallStatusInProgress,
		Language:       language,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return SimulationResult{}, fmt.Errorf("orchestrator: create simulated call: %w", err)
	}

	transcript := message
	if transcript == "" && s.transcriber != nil {
		transcript, err = s.transcriber.Transcribe(ctx, "", language)
		if err != nil {
			s.failCall(ctx, call)
			return SimulationResult{}, fmt.Errorf("orchestrator: simulated transcription: %w", err)
		}
	}

	label := s.classify(ctx, transcript)

	call.Transcript = transcript
	call.Intent = string(label)
	call.DurationSeconds = simulatedInboundDuration
	call.Status = calls.CallStatusCompleted
	if call, err = s.repo.UpdateCall(ctx, s.touch(call)); err != nil {
		return SimulationResult{}, fmt.Errorf("orchestrator: complete simulated call: %w", err)
	}

	if err := s.dispatchActions(ctx, call.ID, string(label)); err != nil {
		return SimulationResult{}, err
	}

	actions, err := s.repo.ListActions(ctx, call.ID)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("orchestrator: list simulated actions: %w", err)
	}
	return SimulationResult{
		CallID:     call.ID,
		Status:     call.Status,
		Transcript: call.Transcript,
		Intent:     call.Intent,
		Actions:    actions,
	}, nil
}

func (s *Service) classify(ctx context.Context, transcript string) intent.Label {
	if s.classifier == nil {
		return intent.LabelUnknown
	}
	return s.classifier.Classify(ctx, transcript)
}

func (s *Service) dispatchActions(ctx context.Context, callID, label string) error {
	if s.dispatcher == nil {
		return nil
	}
	if err := s.dispatcher.ProcessIntentActions(ctx, callID, label); err != nil {
		return fmt.Errorf("orchestrator: dispatch actions for call %s: %w", callID, err)
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, call calls.Call, status calls.CallStatus) (calls.Call, error) {
	call.Status = status
	updated, err := s.repo.UpdateCall(ctx, s.touch(call))
	if err != nil {
		return call, fmt.Errorf("orchestrator: set call %s status %s: %w", call.ID, status, err)
	}
	return updated, nil
}

// failCall is best-effort; the original error is what the caller reports.
func (s *Service) failCall(ctx context.Context, call calls.Call) {
	call.Status = calls.CallStatusFailed
	if _, err := s.repo.UpdateCall(ctx, s.touch(call)); err != nil {
		s.log.Warn("failed-status update lost", "call_id", call.ID, "err", err)
	}
}

func (s *Service) touch(call calls.Call) calls.Call {
	call.UpdatedAt = s.clock().UTC()
	return call
}
