package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"voice-agent-platform/internal/calls"
)

const dateLayout = "2006-01-02"

// Service computes date-ranged aggregates over the call store.
//
// Analytics are a read-only reporting surface: any storage error degrades to
// an empty result rather than failing the request.
type Service struct {
	repo  calls.Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo calls.Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

// CallAnalytics aggregates calls between startDate and endDate (inclusive),
// both formatted 2006-01-02. Empty bounds default to the last 30 days.
func (s *Service) CallAnalytics(ctx context.Context, startDate, endDate string) CallAnalytics {
	now := s.clock().UTC()

	end := now
	if endDate != "" {
		if d, err := time.Parse(dateLayout, endDate); err == nil {
			end = d
		} else {
			s.log.Warn("invalid analytics end date", "end_date", endDate, "err", err)
		}
	}
	start := end.AddDate(0, 0, -30)
	if startDate != "" {
		if d, err := time.Parse(dateLayout, startDate); err == nil {
			start = d
		} else {
			s.log.Warn("invalid analytics start date", "start_date", startDate, "err", err)
		}
	}

	// The end date is a calendar day; include the whole of it.
	rangeEnd := end.Truncate(24 * time.Hour).Add(24 * time.Hour)
	rangeStart := start.Truncate(24 * time.Hour)

	out := CallAnalytics{
		StartDate:            rangeStart.Format(dateLayout),
		EndDate:              end.Format(dateLayout),
		Intents:              []IntentSummary{},
		CallVolumeByDay:      map[string]int{},
		CallDurationByIntent: map[string]float64{},
	}

	list, err := s.repo.ListCallsInRange(ctx, rangeStart, rangeEnd)
	if err != nil {
		s.log.Error("analytics query failed", "err", err)
		return out
	}
	return s.aggregate(out, list)
}

func (s *Service) aggregate(out CallAnalytics, list []calls.Call) CallAnalytics {
	var totalDuration float64
	intentCounts := map[string]int{}
	intentDurations := map[string]float64{}

	for _, c := range list {
		out.Metrics.TotalCalls++
		switch c.Direction {
		case calls.DirectionInbound:
			out.Metrics.InboundCalls++
		case calls.DirectionOutbound:
			out.Metrics.OutboundCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.Metrics.CompletedCalls++
		case calls.CallStatusFailed:
			out.Metrics.FailedCalls++
		}
		totalDuration += c.DurationSeconds

		out.CallVolumeByDay[c.CreatedAt.UTC().Format(dateLayout)]++

		intent := c.Intent
		if intent == "" {
			intent = "unknown"
		}
		intentCounts[intent]++
		intentDurations[intent] += c.DurationSeconds
	}

	if out.Metrics.TotalCalls > 0 {
		out.Metrics.AvgDuration = totalDuration / float64(out.Metrics.TotalCalls)
	}

	for intent, count := range intentCounts {
		out.Intents = append(out.Intents, IntentSummary{
			Intent:     intent,
			Count:      count,
			Percentage: float64(count) / float64(out.Metrics.TotalCalls) * 100,
		})
		out.CallDurationByIntent[intent] = intentDurations[intent] / float64(count)
	}
	sort.Slice(out.Intents, func(i, j int) bool {
		if out.Intents[i].Count != out.Intents[j].Count {
			return out.Intents[i].Count > out.Intents[j].Count
		}
		return out.Intents[i].Intent < out.Intents[j].Intent
	})

	return out
}

// IntentDistribution is the standalone intent frequency view.
func (s *Service) IntentDistribution(ctx context.Context, startDate, endDate string) []IntentSummary {
	return s.CallAnalytics(ctx, startDate, endDate).Intents
}
