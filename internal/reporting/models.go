package reporting

// CallsSummaryRequest scopes a summary to one user and optionally one
// group call.
type CallsSummaryRequest struct {
	UserID      string
	GroupCallID string
}

// CallsSummary aggregates call attempts by lifecycle outcome.
type CallsSummary struct {
	UserID      string `json:"user_id"`
	GroupCallID string `json:"group_call_id,omitempty"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	BusyCalls       int `json:"busy_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	InFlightCalls   int `json:"in_flight_calls"`
	MeetingsBooked  int `json:"meetings_booked"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}
