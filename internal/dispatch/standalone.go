package dispatch

import (
	"context"
	"time"

	"outdial/internal/callrecords"
	"outdial/internal/telephony"
	"outdial/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// CallCapper bounds standalone calls in flight per user. Group-call
// queues do not consume cap slots; they are one-at-a-time by design.
type CallCapper interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

// RedisCallCapper implements CallCapper on the shared Redis counter
// scripts, so the cap holds across API replicas. The TTL releases leaked
// slots if a process dies mid-call.
type RedisCallCapper struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisCallCapper(rdb *redis.Client, limit int, ttl time.Duration) *RedisCallCapper {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCallCapper{rdb: rdb, limit: limit, ttl: ttl}
}

func capKey(userID string) string { return "calls:active:" + userID }

func (c *RedisCallCapper) Acquire(ctx context.Context, userID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, c.rdb, capKey(userID), c.limit, c.ttl)
}

func (c *RedisCallCapper) Release(ctx context.Context, userID string) error {
	return utils.ReleaseConcurrencyCap(ctx, c.rdb, capKey(userID))
}

// StartCallRequest describes a standalone (non-queue) call to one lead.
type StartCallRequest struct {
	LeadID          string              `json:"lead_id"`
	Purpose         callrecords.Purpose `json:"purpose"`
	CustomPrompt    string              `json:"custom_prompt,omitempty"`
	AdditionalNotes string              `json:"additional_notes,omitempty"`
}

// StartLeadCall places one call outside any queue. The number is
// validated before a record exists, so an invalid number produces no
// attempt at all. The per-user cap slot is held until the call's
// terminal webhook arrives.
func (d *Dispatcher) StartLeadCall(ctx context.Context, userID string, req StartCallRequest) (callrecords.Record, error) {
	lead, err := d.leads.GetLead(ctx, userID, req.LeadID)
	if err != nil {
		return callrecords.Record{}, err
	}
	to, err := telephony.NormalizeNumber(lead.Phone)
	if err != nil {
		return callrecords.Record{}, err
	}
	if req.Purpose == "" {
		req.Purpose = callrecords.PurposeGeneral
	}
	if !req.Purpose.Valid() {
		return callrecords.Record{}, callrecords.ErrInvalidArgument
	}

	if d.caps != nil {
		ok, err := d.caps.Acquire(ctx, userID)
		if err != nil {
			return callrecords.Record{}, err
		}
		if !ok {
			return callrecords.Record{}, ErrTooManyCalls
		}
	}

	rec, err := d.records.Create(ctx, callrecords.Record{
		LeadID:          lead.ID,
		UserID:          userID,
		PhoneNumber:     to,
		Purpose:         req.Purpose,
		CustomPrompt:    req.CustomPrompt,
		AdditionalNotes: req.AdditionalNotes,
	})
	if err != nil {
		d.releaseCap(ctx, userID)
		return callrecords.Record{}, err
	}

	sid, err := d.dialer.PlaceCall(ctx, telephony.PlaceCallRequest{To: to, RecordID: rec.ID})
	if err != nil {
		if failed, terr := d.records.Transition(ctx, rec.ID, callrecords.TransitionRequest{
			To: callrecords.StatusFailed,
		}); terr == nil {
			rec = failed
		}
		d.releaseCap(ctx, userID)
		return rec, err
	}

	if aerr := d.records.AttachProviderCallID(ctx, rec.ID, sid); aerr != nil {
		d.log.Error("attaching provider call id",
			"record_id", rec.ID, "provider_call_id", sid, "error", aerr)
	}
	rec.ProviderCallID = sid

	if d.audit != nil {
		if aerr := d.audit.LogCallPlaced(ctx, userID, "", rec.ID, lead.ID); aerr != nil {
			d.log.Warn("audit append failed", "error", aerr)
		}
	}
	return rec, nil
}
