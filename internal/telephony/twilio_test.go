package telephony

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	lastParams *twilioapi.CreateCallParams
	sid        string
	err        error
	delay      time.Duration
}

func (f *fakeCreator) CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error) {
	f.lastParams = params
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &twilioapi.ApiV2010Call{Sid: &f.sid}, nil
}

func testDialer(api callCreator) *TwilioDialer {
	return &TwilioDialer{
		api:            api,
		from:           "+15550009999",
		webhookBaseURL: "https://api.example.com",
		ringTimeout:    30,
		placeTimeout:   time.Second,
		log:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestTwilioDialer_PlaceCall(t *testing.T) {
	fake := &fakeCreator{sid: "CA42"}
	d := testDialer(fake)

	sid, err := d.PlaceCall(context.Background(), PlaceCallRequest{To: "(555) 123-4567", RecordID: "rec-1"})
	if err != nil {
		t.Fatalf("place call: %v", err)
	}
	if sid != "CA42" {
		t.Fatalf("expected CA42, got %q", sid)
	}

	p := fake.lastParams
	if p.To == nil || *p.To != "+15551234567" {
		t.Fatalf("number should be normalized before dialing: %+v", p.To)
	}
	if p.StatusCallback == nil || *p.StatusCallback != "https://api.example.com/webhooks/twilio/status?record_id=rec-1" {
		t.Fatalf("unexpected status callback: %+v", p.StatusCallback)
	}
	if p.Timeout == nil || *p.Timeout != 30 {
		t.Fatalf("ring timeout not set: %+v", p.Timeout)
	}
}

func TestTwilioDialer_InvalidNumberRejectedBeforeDialing(t *testing.T) {
	fake := &fakeCreator{sid: "CA42"}
	d := testDialer(fake)

	_, err := d.PlaceCall(context.Background(), PlaceCallRequest{To: "123", RecordID: "rec-1"})
	if !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	if fake.lastParams != nil {
		t.Fatal("no provider request should be made for an invalid number")
	}
}

func TestTwilioDialer_ProviderErrorIsTransient(t *testing.T) {
	d := testDialer(&fakeCreator{err: errors.New("401 unauthorized")})

	_, err := d.PlaceCall(context.Background(), PlaceCallRequest{To: "+15551234567", RecordID: "rec-1"})
	if !errors.Is(err, ErrTransientDial) {
		t.Fatalf("expected ErrTransientDial, got %v", err)
	}
}

func TestTwilioDialer_PlacementTimeout(t *testing.T) {
	d := testDialer(&fakeCreator{sid: "CA42", delay: 200 * time.Millisecond})
	d.placeTimeout = 20 * time.Millisecond

	_, err := d.PlaceCall(context.Background(), PlaceCallRequest{To: "+15551234567", RecordID: "rec-1"})
	if !errors.Is(err, ErrTransientDial) {
		t.Fatalf("expected ErrTransientDial on timeout, got %v", err)
	}
}
