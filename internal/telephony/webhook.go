package telephony

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"outdial/internal/callrecords"
)

// ErrMalformedCallback rejects callbacks missing the fields we key on.
var ErrMalformedCallback = errors.New("telephony: malformed status callback")

// StatusEvent is one provider delivery-status notification.
type StatusEvent struct {
	ProviderCallID  string
	Status          callrecords.Status
	DurationSeconds *int
}

// ParseStatusCallback decodes a Twilio form-encoded status callback.
//
// Twilio reports more statuses than the record lifecycle tracks; the
// extras collapse onto the nearest lifecycle phase (in-progress means the
// callee picked up, queued is still pre-ring).
func ParseStatusCallback(r *http.Request) (StatusEvent, error) {
	if err := r.ParseForm(); err != nil {
		return StatusEvent{}, ErrMalformedCallback
	}

	sid := strings.TrimSpace(r.PostFormValue("CallSid"))
	raw := strings.TrimSpace(r.PostFormValue("CallStatus"))
	if sid == "" || raw == "" {
		return StatusEvent{}, ErrMalformedCallback
	}

	status, ok := mapCallStatus(raw)
	if !ok {
		return StatusEvent{}, ErrMalformedCallback
	}

	ev := StatusEvent{ProviderCallID: sid, Status: status}
	if v := strings.TrimSpace(r.PostFormValue("CallDuration")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			ev.DurationSeconds = &n
		}
	}
	return ev, nil
}

func mapCallStatus(raw string) (callrecords.Status, bool) {
	switch raw {
	case "queued", "initiated":
		return callrecords.StatusInitiated, true
	case "ringing":
		return callrecords.StatusRinging, true
	case "in-progress", "answered":
		return callrecords.StatusAnswered, true
	case "completed":
		return callrecords.StatusCompleted, true
	case "busy":
		return callrecords.StatusBusy, true
	case "no-answer":
		return callrecords.StatusNoAnswer, true
	case "failed", "canceled":
		return callrecords.StatusFailed, true
	default:
		return "", false
	}
}
