package reporting

import (
	"context"
	"errors"

	"outdial/internal/callrecords"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service aggregates immutable call records into operator-facing
// summaries. Reads only; orchestration state is never touched.
type Service struct {
	records callrecords.Repository
}

func NewService(records callrecords.Repository) *Service {
	return &Service{records: records}
}

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.UserID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.records == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.records.List(ctx, req.UserID, callrecords.ListFilter{GroupCallID: req.GroupCallID})
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{UserID: req.UserID, GroupCallID: req.GroupCallID}
	for _, rec := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += rec.DurationSeconds
		switch rec.Status {
		case callrecords.StatusCompleted:
			out.CompletedCalls++
		case callrecords.StatusFailed:
			out.FailedCalls++
		case callrecords.StatusBusy:
			out.BusyCalls++
		case callrecords.StatusNoAnswer:
			out.NoAnswerCalls++
		case callrecords.StatusInitiated, callrecords.StatusRinging, callrecords.StatusAnswered:
			out.InFlightCalls++
		}
		if rec.Outcome == callrecords.OutcomeMeetingScheduled {
			out.MeetingsBooked++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}
