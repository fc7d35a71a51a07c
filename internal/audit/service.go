package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// Audit is internal-only and best-effort: callers log append failures and
// continue.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogTaxonomyMismatch records that the dispatcher's substring policy chose a
// different category than the one the classifier label implies.
func (s *Service) LogTaxonomyMismatch(ctx context.Context, callID, intentLabel, expected, chosen string) error {
	return s.Append(ctx, Event{
		Type:    EventTypeTaxonomyMismatch,
		CallID:  callID,
		Message: fmt.Sprintf("intent %q maps to %q but dispatcher chose %q", intentLabel, expected, chosen),
	})
}

// LogAdminAction records an admin surface usage (e.g., call simulation).
func (s *Service) LogAdminAction(ctx context.Context, actorUserID, actorRole, callID, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		CallID:      callID,
		Message:     message,
	})
}
