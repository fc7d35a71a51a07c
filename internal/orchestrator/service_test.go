package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voice-agent-platform/internal/audit"
	"voice-agent-platform/internal/calls"
	"voice-agent-platform/internal/dispatch"
	"voice-agent-platform/internal/intent"
	"voice-agent-platform/internal/telephony"
)

type failingSynth struct{}

func (failingSynth) Synthesize(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("tts unavailable")
}

type recordingTranscriber struct {
	text string
	err  error
	urls []string
}

func (r *recordingTranscriber) Transcribe(_ context.Context, audioURL, _ string) (string, error) {
	r.urls = append(r.urls, audioURL)
	return r.text, r.err
}

func newTestService(t *testing.T, repo calls.Repository, opts func(*ServiceParams)) *Service {
	t.Helper()
	auditSvc := audit.NewService(audit.NewMemoryRepo())
	p := ServiceParams{
		Repo:        repo,
		Classifier:  intent.NewClassifier(nil),
		Dispatcher:  dispatch.NewDispatcher(repo, auditSvc, nil),
		Synthesizer: telephony.MockSynthesizer{},
		Transcriber: telephony.MockTranscriber{},
	}
	if opts != nil {
		opts(&p)
	}
	return NewService(p)
}

func TestCreateOutboundCall_QueuedImmediately(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)

	call, err := svc.CreateOutboundCall(context.Background(), "+15551112222", "Hello", "en")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if call.Status != calls.CallStatusQueued {
		t.Fatalf("expected queued status, got %s", call.Status)
	}
	if call.Direction != calls.DirectionOutbound {
		t.Fatalf("expected outbound direction, got %s", call.Direction)
	}
	if !strings.HasPrefix(call.ProviderCallID, "out_") {
		t.Fatalf("expected out_ provider id, got %q", call.ProviderCallID)
	}
}

func TestProcessOutboundCall_SimulatedConversation(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)

	call, err := svc.CreateOutboundCall(context.Background(), "+15551112222", "Your appointment is tomorrow", "en")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.ProcessOutboundCall(context.Background(), call.ID, "Your appointment is tomorrow"); err != nil {
		t.Fatalf("expected processing to succeed, got %v", err)
	}

	got, err := repo.GetCall(context.Background(), call.ID)
	if err != nil {
		t.Fatalf("expected call, got %v", err)
	}
	if got.Status != calls.CallStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.DurationSeconds != 60 {
		t.Fatalf("expected 60s duration, got %v", got.DurationSeconds)
	}
	if got.Intent != "schedule_callback" {
		t.Fatalf("expected schedule_callback intent, got %q", got.Intent)
	}

	actions, err := repo.ListActions(context.Background(), call.ID)
	if err != nil {
		t.Fatalf("expected actions, got %v", err)
	}
	if len(actions) != 1 || actions[0].Type != calls.ActionTypeCallback {
		t.Fatalf("expected one callback action, got %+v", actions)
	}
	if actions[0].Status != calls.ActionStatusPending {
		t.Fatalf("expected pending callback, got %s", actions[0].Status)
	}
}

func TestProcessOutboundCall_SynthesisFailureMarksFailed(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, func(p *ServiceParams) {
		p.Synthesizer = failingSynth{}
	})

	call, err := svc.CreateOutboundCall(context.Background(), "+15551112222", "Hello", "en")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.ProcessOutboundCall(context.Background(), call.ID, "Hello"); err == nil {
		t.Fatalf("expected synthesis failure")
	}

	got, _ := repo.GetCall(context.Background(), call.ID)
	if got.Status != calls.CallStatusFailed {
		t.Fatalf("expected failed status, got %s", got.Status)
	}
}

func TestInboundStarted_Idempotent(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	if err := svc.InboundStarted(ctx, "CA100", "+15550001111", "+15552223333"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.InboundStarted(ctx, "CA100", "+15550001111", "+15552223333"); err != nil {
		t.Fatalf("expected duplicate delivery to be a no-op, got %v", err)
	}

	list, err := repo.ListCalls(ctx, calls.ListFilter{})
	if err != nil {
		t.Fatalf("expected list, got %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one call, got %d", len(list))
	}
	if list[0].Status != calls.CallStatusInitiated || list[0].Direction != calls.DirectionInbound {
		t.Fatalf("unexpected call: %+v", list[0])
	}
}

func TestTranscriptReceived_ClassifiesAndDispatches(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	if err := svc.InboundStarted(ctx, "CA200", "+15550001111", "+15552223333"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.TranscriptReceived(ctx, "CA200", "I need a callback tomorrow", 42); err != nil {
		t.Fatalf("expected transcript handling to succeed, got %v", err)
	}

	call, err := repo.GetCallByProviderID(ctx, "CA200")
	if err != nil {
		t.Fatalf("expected call, got %v", err)
	}
	if call.Transcript != "I need a callback tomorrow" {
		t.Fatalf("unexpected transcript: %q", call.Transcript)
	}
	if call.Intent != "schedule_callback" {
		t.Fatalf("expected schedule_callback, got %q", call.Intent)
	}
	if call.DurationSeconds != 42 {
		t.Fatalf("expected 42s duration, got %v", call.DurationSeconds)
	}
	if call.Language != "en" {
		t.Fatalf("expected en language, got %q", call.Language)
	}

	actions, _ := repo.ListActions(ctx, call.ID)
	if len(actions) != 1 || actions[0].Type != calls.ActionTypeCallback {
		t.Fatalf("expected one callback action, got %+v", actions)
	}
}

func TestTranscriptReceived_DetectsHindi(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	if err := svc.InboundStarted(ctx, "CA201", "+15550001111", "+15552223333"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.TranscriptReceived(ctx, "CA201", "मुझे वापस कॉल करें", 10); err != nil {
		t.Fatalf("expected transcript handling to succeed, got %v", err)
	}

	call, _ := repo.GetCallByProviderID(ctx, "CA201")
	if call.Language != "hi" {
		t.Fatalf("expected hi language, got %q", call.Language)
	}
	if call.Intent != "schedule_callback" {
		t.Fatalf("expected schedule_callback, got %q", call.Intent)
	}
}

func TestCallCompleted_SchedulesRecordingProcessing(t *testing.T) {
	repo := calls.NewMemoryRepo()
	tasks := NewTasks(1, 8, nil)
	tr := &recordingTranscriber{text: "please open a ticket for my broken router"}
	svc := newTestService(t, repo, func(p *ServiceParams) {
		p.Tasks = tasks
		p.Transcriber = tr
	})
	ctx := context.Background()

	if err := svc.InboundStarted(ctx, "CA300", "+15550001111", "+15552223333"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.CallCompleted(ctx, "CA300", "https://recordings/RE1"); err != nil {
		t.Fatalf("expected completion to succeed, got %v", err)
	}
	tasks.Close()

	call, _ := repo.GetCallByProviderID(ctx, "CA300")
	if call.Status != calls.CallStatusCompleted {
		t.Fatalf("expected completed, got %s", call.Status)
	}
	if len(tr.urls) != 1 || tr.urls[0] != "https://recordings/RE1" {
		t.Fatalf("expected recording transcription, got %+v", tr.urls)
	}
	if call.Transcript != tr.text {
		t.Fatalf("expected transcript applied, got %q", call.Transcript)
	}

	tickets, _ := repo.ListTickets(ctx, call.ID)
	if len(tickets) != 1 {
		t.Fatalf("expected ticket from transcript, got %+v", tickets)
	}
}

func TestProcessRecording_FailureLeavesCallUntouched(t *testing.T) {
	repo := calls.NewMemoryRepo()
	tr := &recordingTranscriber{err: errors.New("whisper down")}
	svc := newTestService(t, repo, func(p *ServiceParams) {
		p.Transcriber = tr
	})
	ctx := context.Background()

	if err := svc.InboundStarted(ctx, "CA301", "+15550001111", "+15552223333"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	call, _ := repo.GetCallByProviderID(ctx, "CA301")

	if err := svc.ProcessRecording(ctx, call.ID, "rec1", "https://recordings/RE2"); err == nil {
		t.Fatalf("expected transcription failure")
	}

	got, _ := repo.GetCall(ctx, call.ID)
	if got.Transcript != "" || got.Intent != "" {
		t.Fatalf("expected call untouched, got %+v", got)
	}
}

func TestSimulateInboundCall_MessageDrivesPipeline(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	res, err := svc.SimulateInboundCall(ctx, "+15550009999", "I need a callback tomorrow", "en")
	if err != nil {
		t.Fatalf("expected simulation to succeed, got %v", err)
	}
	if res.Transcript != "I need a callback tomorrow" {
		t.Fatalf("expected supplied message as transcript, got %q", res.Transcript)
	}
	if res.Intent != "schedule_callback" {
		t.Fatalf("expected schedule_callback, got %q", res.Intent)
	}
	if len(res.Actions) != 1 || res.Actions[0].Type != calls.ActionTypeCallback {
		t.Fatalf("expected one callback action, got %+v", res.Actions)
	}

	res, err = svc.SimulateInboundCall(ctx, "+15550009999", "I want to create a ticket", "en")
	if err != nil {
		t.Fatalf("expected simulation to succeed, got %v", err)
	}
	if res.Transcript != "I want to create a ticket" {
		t.Fatalf("expected supplied message as transcript, got %q", res.Transcript)
	}
	if res.Intent != "create_ticket" {
		t.Fatalf("expected create_ticket, got %q", res.Intent)
	}
	tickets, err := repo.ListTickets(ctx, res.CallID)
	if err != nil {
		t.Fatalf("expected tickets, got %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected one ticket from the message, got %+v", tickets)
	}
}

func TestSimulateInboundCall_FullPipeline(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)

	res, err := svc.SimulateInboundCall(context.Background(), "+15550009999", "", "en")
	if err != nil {
		t.Fatalf("expected simulation to succeed, got %v", err)
	}
	if res.Status != calls.CallStatusCompleted {
		t.Fatalf("expected completed, got %s", res.Status)
	}
	if res.Transcript == "" {
		t.Fatalf("expected mock transcript")
	}
	if res.Intent != "schedule_callback" {
		t.Fatalf("expected schedule_callback from mock transcript, got %q", res.Intent)
	}
	if len(res.Actions) != 1 || res.Actions[0].Type != calls.ActionTypeCallback {
		t.Fatalf("expected one callback action, got %+v", res.Actions)
	}

	call, err := repo.GetCall(context.Background(), res.CallID)
	if err != nil {
		t.Fatalf("expected stored call, got %v", err)
	}
	if !strings.HasPrefix(call.ProviderCallID, "sim_") {
		t.Fatalf("expected sim_ provider id, got %q", call.ProviderCallID)
	}
	if call.DurationSeconds != 30 {
		t.Fatalf("expected 30s duration, got %v", call.DurationSeconds)
	}
	if call.To != "+15551234567" {
		t.Fatalf("unexpected destination: %q", call.To)
	}
}

func TestUpdateCallStatus(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	if err := svc.InboundStarted(ctx, "CA400", "+15550001111", "+15552223333"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.UpdateCallStatus(ctx, "CA400", calls.CallStatusNoAnswer); err != nil {
		t.Fatalf("expected status update, got %v", err)
	}

	call, _ := repo.GetCallByProviderID(ctx, "CA400")
	if call.Status != calls.CallStatusNoAnswer {
		t.Fatalf("expected no_answer, got %s", call.Status)
	}

	if err := svc.UpdateCallStatus(ctx, "missing", calls.CallStatusFailed); !errors.Is(err, calls.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
