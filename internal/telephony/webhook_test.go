package telephony

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"outdial/internal/callrecords"
)

func newCallback(form url.Values) *StatusEvent {
	req := httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ev, err := ParseStatusCallback(req)
	if err != nil {
		return nil
	}
	return &ev
}

func TestParseStatusCallback(t *testing.T) {
	cases := []struct {
		callStatus string
		want       callrecords.Status
	}{
		{"initiated", callrecords.StatusInitiated},
		{"queued", callrecords.StatusInitiated},
		{"ringing", callrecords.StatusRinging},
		{"in-progress", callrecords.StatusAnswered},
		{"answered", callrecords.StatusAnswered},
		{"completed", callrecords.StatusCompleted},
		{"busy", callrecords.StatusBusy},
		{"no-answer", callrecords.StatusNoAnswer},
		{"failed", callrecords.StatusFailed},
		{"canceled", callrecords.StatusFailed},
	}
	for _, tc := range cases {
		ev := newCallback(url.Values{"CallSid": {"CA123"}, "CallStatus": {tc.callStatus}})
		if ev == nil {
			t.Fatalf("CallStatus=%q: parse failed", tc.callStatus)
		}
		if ev.ProviderCallID != "CA123" || ev.Status != tc.want {
			t.Fatalf("CallStatus=%q: got %+v, want status %v", tc.callStatus, ev, tc.want)
		}
		if ev.DurationSeconds != nil {
			t.Fatalf("CallStatus=%q: unexpected duration %v", tc.callStatus, *ev.DurationSeconds)
		}
	}
}

func TestParseStatusCallback_Duration(t *testing.T) {
	ev := newCallback(url.Values{
		"CallSid":      {"CA123"},
		"CallStatus":   {"completed"},
		"CallDuration": {"42"},
	})
	if ev == nil {
		t.Fatal("parse failed")
	}
	if ev.DurationSeconds == nil || *ev.DurationSeconds != 42 {
		t.Fatalf("expected duration 42, got %+v", ev.DurationSeconds)
	}
}

func TestParseStatusCallback_Malformed(t *testing.T) {
	cases := []url.Values{
		{},
		{"CallSid": {"CA123"}},
		{"CallStatus": {"completed"}},
		{"CallSid": {"CA123"}, "CallStatus": {"abducted"}},
	}
	for _, form := range cases {
		req := httptest.NewRequest("POST", "/webhooks/twilio/status", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if _, err := ParseStatusCallback(req); !errors.Is(err, ErrMalformedCallback) {
			t.Fatalf("form %v: expected ErrMalformedCallback, got %v", form, err)
		}
	}
}

func TestStreamTwiML(t *testing.T) {
	doc := StreamTwiML("wss://convo.example.com/stream")
	for _, want := range []string{"<Connect>", `<Stream url="wss://convo.example.com/stream">`, "<Pause length=\"600\">"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("TwiML missing %q:\n%s", want, doc)
		}
	}
}
