package telephony

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outdial/internal/config"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// callCreator is the slice of the Twilio SDK we use, split out so tests
// can substitute a fake without network access.
type callCreator interface {
	CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error)
}

// TwilioDialer places calls through the Twilio Programmable Voice API.
//
// Every SDK failure maps to ErrTransientDial: the dispatcher treats the
// attempt as terminally failed and moves on, and placement is bounded by
// cfg.Dialer.PlaceCallTimeout so a hung provider request cannot hold the
// queue's critical scope.
type TwilioDialer struct {
	api            callCreator
	from           string
	webhookBaseURL string
	ringTimeout    int
	placeTimeout   time.Duration
	log            *slog.Logger
}

func NewTwilioDialer(cfg config.Config, log *slog.Logger) *TwilioDialer {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.Twilio.AccountSID,
		Password: cfg.Twilio.AuthToken,
	})
	return &TwilioDialer{
		api:            client.Api,
		from:           cfg.Twilio.FromNumber,
		webhookBaseURL: cfg.Twilio.WebhookBaseURL,
		ringTimeout:    cfg.Dialer.RingTimeoutSeconds,
		placeTimeout:   cfg.Dialer.PlaceCallTimeout,
		log:            log,
	}
}

func (d *TwilioDialer) PlaceCall(ctx context.Context, req PlaceCallRequest) (string, error) {
	to, err := NormalizeNumber(req.To)
	if err != nil {
		return "", err
	}

	params := &twilioapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetUrl(d.webhookBaseURL + "/webhooks/twilio/voice?record_id=" + req.RecordID)
	params.SetStatusCallback(d.webhookBaseURL + "/webhooks/twilio/status?record_id=" + req.RecordID)
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetMachineDetection("Enable")
	params.SetTimeout(d.ringTimeout)

	ctx, cancel := context.WithTimeout(ctx, d.placeTimeout)
	defer cancel()

	type result struct {
		call *twilioapi.ApiV2010Call
		err  error
	}
	// The SDK has no context-aware variant; run it in a goroutine and give
	// up after the placement timeout. The orphaned goroutine finishes on the
	// SDK's own HTTP timeout.
	ch := make(chan result, 1)
	go func() {
		call, err := d.api.CreateCall(params)
		ch <- result{call: call, err: err}
	}()

	select {
	case <-ctx.Done():
		d.log.Warn("call placement timed out", "to", to, "record_id", req.RecordID)
		return "", fmt.Errorf("%w: placement timeout: %v", ErrTransientDial, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			d.log.Warn("call placement failed", "to", to, "record_id", req.RecordID, "error", res.err)
			return "", fmt.Errorf("%w: %v", ErrTransientDial, res.err)
		}
		if res.call == nil || res.call.Sid == nil || *res.call.Sid == "" {
			return "", fmt.Errorf("%w: provider returned no call sid", ErrTransientDial)
		}
		return *res.call.Sid, nil
	}
}
