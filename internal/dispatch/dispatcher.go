package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"outdial/internal/audit"
	"outdial/internal/callrecords"
	"outdial/internal/leads"
	"outdial/internal/queue"
	"outdial/internal/telephony"
)

// TriggerResult reports what a dispatch pass did.
type TriggerResult string

const (
	// ResultPlaced: a call was placed and is now in flight.
	ResultPlaced TriggerResult = "placed"
	// ResultSkipped: no placement happened (queue not in_progress, or a
	// non-queue fault stopped dispatch).
	ResultSkipped TriggerResult = "skipped"
	// ResultDone: the queue is completed; nothing left to place.
	ResultDone TriggerResult = "done"
)

var (
	// ErrNoMoreLeads rejects a manual-next on an exhausted queue.
	ErrNoMoreLeads = errors.New("dispatch: no leads remaining")

	// ErrTooManyCalls rejects a standalone call over the per-user cap.
	ErrTooManyCalls = errors.New("dispatch: concurrent call limit reached")
)

const defaultOrphanRetryDelay = 2 * time.Second

// Deps wires the dispatcher's collaborators.
type Deps struct {
	Queues  *queue.Service
	Records callrecords.Repository
	Dialer  telephony.Dialer
	Leads   leads.Store
	Audit   *audit.Service
	Caps    CallCapper // nil disables the standalone per-user cap
	Logger  *slog.Logger

	// OrphanRetryDelay bounds the single retry for status events that
	// arrive before the provider call id is persisted. Zero means the
	// default.
	OrphanRetryDelay time.Duration
}

// Dispatcher is the control loop between the queue state machine, the
// call record repository and the telephony provider.
//
// All work for one group call is serialized through a keyed mutex:
// Start, Pause, Resume, manual next and webhook reconciliation for the
// same group call never interleave. Distinct group calls run in
// parallel. Cursor movement itself lives in queue.Service; the
// dispatcher decides when it happens.
type Dispatcher struct {
	queues  *queue.Service
	records callrecords.Repository
	dialer  telephony.Dialer
	leads   leads.Store
	audit   *audit.Service
	caps    CallCapper
	log     *slog.Logger

	locks            *keyedMutex
	orphanRetryDelay time.Duration
}

func New(d Deps) *Dispatcher {
	delay := d.OrphanRetryDelay
	if delay <= 0 {
		delay = defaultOrphanRetryDelay
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		queues:           d.Queues,
		records:          d.Records,
		dialer:           d.Dialer,
		leads:            d.Leads,
		audit:            d.Audit,
		caps:             d.Caps,
		log:              log,
		locks:            newKeyedMutex(),
		orphanRetryDelay: delay,
	}
}

// Start transitions the queue to in_progress and places the first call.
// The returned group call reflects the post-placement state, which may
// already be completed if every remaining placement failed inline.
func (d *Dispatcher) Start(ctx context.Context, userID, id string) (queue.GroupCall, error) {
	unlock := d.locks.lock(id)
	defer unlock()

	if _, err := d.queues.Get(ctx, userID, id); err != nil {
		return queue.GroupCall{}, err
	}
	gc, err := d.queues.Start(ctx, id)
	if err != nil {
		return gc, err
	}
	d.logQueueAction(ctx, userID, audit.EventTypeGroupCallStarted, id, "queue started")

	d.triggerNextLocked(ctx, id)
	return d.queues.GetByID(ctx, id)
}

// Pause stops further placements. The in-flight call, if any, keeps
// ringing at the provider; its terminal webhook is still reconciled.
func (d *Dispatcher) Pause(ctx context.Context, userID, id string) (queue.GroupCall, error) {
	unlock := d.locks.lock(id)
	defer unlock()

	if _, err := d.queues.Get(ctx, userID, id); err != nil {
		return queue.GroupCall{}, err
	}
	gc, err := d.queues.Pause(ctx, id)
	if err != nil {
		return gc, err
	}
	d.logQueueAction(ctx, userID, audit.EventTypeGroupCallPaused, id, "queue paused")
	return gc, nil
}

// Resume transitions paused -> in_progress and places the next call,
// unless the current lead's attempt is still in flight from before the
// pause.
func (d *Dispatcher) Resume(ctx context.Context, userID, id string) (queue.GroupCall, error) {
	unlock := d.locks.lock(id)
	defer unlock()

	if _, err := d.queues.Get(ctx, userID, id); err != nil {
		return queue.GroupCall{}, err
	}
	gc, err := d.queues.Resume(ctx, id)
	if err != nil {
		return gc, err
	}
	d.logQueueAction(ctx, userID, audit.EventTypeGroupCallResumed, id, "queue resumed")

	d.triggerNextLocked(ctx, id)
	return d.queues.GetByID(ctx, id)
}

// TriggerManualNext is the operator's "skip to next": one placement,
// allowed from paused without resuming the queue.
func (d *Dispatcher) TriggerManualNext(ctx context.Context, userID, id string) (TriggerResult, error) {
	unlock := d.locks.lock(id)
	defer unlock()

	gc, err := d.queues.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	switch gc.Status {
	case queue.StatusInProgress, queue.StatusPaused:
	default:
		return "", queue.ErrInvalidTransition
	}

	lead, err := d.queues.CurrentLead(ctx, id)
	if errors.Is(err, queue.ErrExhaustedQueue) {
		return "", ErrNoMoreLeads
	}
	if err != nil {
		return "", err
	}
	if d.hasOpenAttempt(ctx, gc) {
		return ResultSkipped, nil
	}
	d.logQueueAction(ctx, userID, audit.EventTypeManualNext, id, "manual next")

	if gc.Status == queue.StatusInProgress {
		return d.triggerNextLocked(ctx, id), nil
	}

	// Paused manual override: exactly one placement, queue stays paused.
	rec, err := d.dialLead(ctx, gc, lead)
	if err != nil {
		if rec.ID == "" {
			return ResultSkipped, err
		}
		// Placement failed terminally; close out the attempt without
		// cascading into further placements.
		if _, perr := d.queues.RecordTerminalWhilePaused(ctx, id); perr != nil {
			d.log.Error("cursor advance after failed manual placement",
				"group_call_id", id, "error", perr)
		}
		return ResultSkipped, nil
	}
	return ResultPlaced, nil
}

// OnProviderEvent reconciles one delivery-status event. It implements
// telephony.EventSink. Nothing here is fatal: orphan, duplicate and
// out-of-order events are logged and absorbed.
func (d *Dispatcher) OnProviderEvent(ctx context.Context, ev telephony.StatusEvent) {
	rec, err := d.records.GetByProviderCallID(ctx, ev.ProviderCallID)
	if errors.Is(err, callrecords.ErrNotFound) {
		// The webhook can beat the provider-id write after placement.
		// One bounded retry, then the event is an orphan.
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.orphanRetryDelay):
		}
		rec, err = d.records.GetByProviderCallID(ctx, ev.ProviderCallID)
		if errors.Is(err, callrecords.ErrNotFound) {
			d.log.Warn("orphan provider event dropped",
				"provider_call_id", ev.ProviderCallID, "status", ev.Status)
			return
		}
	}
	if err != nil {
		d.log.Error("provider event lookup failed",
			"provider_call_id", ev.ProviderCallID, "error", err)
		return
	}
	d.reconcile(ctx, rec, ev)
}

func (d *Dispatcher) reconcile(ctx context.Context, rec callrecords.Record, ev telephony.StatusEvent) {
	if rec.GroupCallID != "" {
		unlock := d.locks.lock(rec.GroupCallID)
		defer unlock()
	}

	updated, err := d.records.Transition(ctx, rec.ID, callrecords.TransitionRequest{
		To:              ev.Status,
		DurationSeconds: ev.DurationSeconds,
	})
	switch {
	case errors.Is(err, callrecords.ErrAlreadyTerminal):
		d.log.Info("duplicate provider event ignored",
			"record_id", rec.ID, "status", ev.Status)
		return
	case errors.Is(err, callrecords.ErrStatusRegression):
		d.log.Warn("out-of-order provider event rejected",
			"record_id", rec.ID, "current", updated.Status, "event", ev.Status)
		return
	case err != nil:
		d.log.Error("record transition failed", "record_id", rec.ID, "error", err)
		return
	}

	if !updated.Status.IsTerminal() {
		return
	}
	if updated.GroupCallID == "" {
		d.releaseCap(ctx, updated.UserID)
		return
	}
	d.advanceAfterTerminal(ctx, updated.GroupCallID)
}

// advanceAfterTerminal moves the cursor once a queue-owned attempt closed
// out, then keeps the queue moving while it is still in_progress. The
// caller holds the group call lock.
func (d *Dispatcher) advanceAfterTerminal(ctx context.Context, gcID string) {
	_, completed, err := d.queues.AdvanceCursor(ctx, gcID)
	if errors.Is(err, queue.ErrNotActive) {
		// Paused: the attempt still closes out and the cursor still
		// moves, but no new call is placed.
		if _, perr := d.queues.RecordTerminalWhilePaused(ctx, gcID); perr != nil {
			d.log.Warn("terminal event on inactive queue not applied",
				"group_call_id", gcID, "error", perr)
		}
		return
	}
	if err != nil {
		d.log.Error("cursor advance failed", "group_call_id", gcID, "error", err)
		return
	}
	if completed {
		return
	}
	d.triggerNextLocked(ctx, gcID)
}

// triggerNextLocked places the current lead's call. A failed placement is
// terminally failed and the loop moves straight to the next lead, so a
// chain of dial failures drains iteratively instead of recursing through
// webhook handling. The caller holds the group call lock.
func (d *Dispatcher) triggerNextLocked(ctx context.Context, id string) TriggerResult {
	for {
		gc, err := d.queues.GetByID(ctx, id)
		if err != nil {
			d.log.Error("group call lookup failed mid-dispatch", "group_call_id", id, "error", err)
			return ResultSkipped
		}
		switch gc.Status {
		case queue.StatusInProgress:
		case queue.StatusCompleted:
			return ResultDone
		default:
			return ResultSkipped
		}

		// The current lead's call may still be in flight, e.g. on a
		// resume before its terminal webhook arrived. That webhook owns
		// the next placement.
		if d.hasOpenAttempt(ctx, gc) {
			return ResultSkipped
		}

		lead, err := d.queues.CurrentLead(ctx, id)
		if err != nil {
			// in_progress with an exhausted cursor breaks the completion
			// invariant; log loudly but do not crash dispatch.
			d.log.Error("active queue has no current lead",
				"group_call_id", id, "error", err)
			return ResultDone
		}

		rec, err := d.dialLead(ctx, gc, lead)
		if err == nil {
			return ResultPlaced
		}
		if rec.ID == "" {
			// Record creation failed; the cursor must not move past a
			// lead that was never attempted.
			d.log.Error("call record creation failed",
				"group_call_id", id, "lead_id", lead.LeadID, "error", err)
			return ResultSkipped
		}

		d.log.Warn("placement failed, advancing to next lead",
			"group_call_id", id, "record_id", rec.ID, "lead_id", lead.LeadID, "error", err)
		_, completed, aerr := d.queues.AdvanceCursor(ctx, id)
		if aerr != nil {
			d.log.Error("cursor advance after failed placement",
				"group_call_id", id, "error", aerr)
			return ResultSkipped
		}
		if completed {
			return ResultDone
		}
	}
}

// hasOpenAttempt reports whether the group call already has a
// non-terminal record. A queue runs at most one call at a time; placing
// past an open attempt would break that. On a lookup failure the
// attempt is assumed open and the terminal webhook retries dispatch.
func (d *Dispatcher) hasOpenAttempt(ctx context.Context, gc queue.GroupCall) bool {
	recs, err := d.records.List(ctx, gc.UserID, callrecords.ListFilter{GroupCallID: gc.ID})
	if err != nil {
		d.log.Error("open attempt lookup failed", "group_call_id", gc.ID, "error", err)
		return true
	}
	for _, rec := range recs {
		if !rec.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// dialLead creates the attempt record and places the call. On a dial
// failure the record is already marked failed when returned; err carries
// the dialer error. A zero-ID record means creation itself failed.
func (d *Dispatcher) dialLead(ctx context.Context, gc queue.GroupCall, lead leads.QueueLead) (callrecords.Record, error) {
	rec, err := d.records.Create(ctx, callrecords.Record{
		LeadID:          lead.LeadID,
		UserID:          gc.UserID,
		GroupCallID:     gc.ID,
		PhoneNumber:     lead.PhoneNumber,
		Purpose:         gc.Purpose,
		CustomPrompt:    gc.CustomPrompt,
		AdditionalNotes: gc.AdditionalNotes,
	})
	if err != nil {
		return callrecords.Record{}, err
	}

	sid, err := d.dialer.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:       lead.PhoneNumber,
		RecordID: rec.ID,
	})
	if err != nil {
		if failed, terr := d.records.Transition(ctx, rec.ID, callrecords.TransitionRequest{
			To: callrecords.StatusFailed,
		}); terr == nil {
			rec = failed
		} else {
			d.log.Error("marking failed placement", "record_id", rec.ID, "error", terr)
		}
		return rec, err
	}

	if aerr := d.records.AttachProviderCallID(ctx, rec.ID, sid); aerr != nil {
		d.log.Error("attaching provider call id",
			"record_id", rec.ID, "provider_call_id", sid, "error", aerr)
	}
	rec.ProviderCallID = sid

	if d.audit != nil {
		if aerr := d.audit.LogCallPlaced(ctx, gc.UserID, gc.ID, rec.ID, lead.LeadID); aerr != nil {
			d.log.Warn("audit append failed", "error", aerr)
		}
	}
	return rec, nil
}

func (d *Dispatcher) logQueueAction(ctx context.Context, userID string, t audit.EventType, gcID, msg string) {
	if d.audit == nil {
		return
	}
	if err := d.audit.LogQueueAction(ctx, userID, t, gcID, msg); err != nil {
		d.log.Warn("audit append failed", "error", err)
	}
}

func (d *Dispatcher) releaseCap(ctx context.Context, userID string) {
	if d.caps == nil {
		return
	}
	if err := d.caps.Release(ctx, userID); err != nil {
		d.log.Warn("releasing concurrency cap", "user_id", userID, "error", err)
	}
}
