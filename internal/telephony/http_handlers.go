package telephony

import (
	"context"
	"net/http"

	"outdial/pkg/logger"

	"github.com/gin-gonic/gin"
)

// EventSink consumes parsed provider status events. Implemented by the
// dispatcher; kept as an interface here so the webhook surface does not
// depend on orchestration internals.
type EventSink interface {
	OnProviderEvent(ctx context.Context, ev StatusEvent)
}

// WebhookHandler serves the two provider-facing endpoints: the answer
// webhook (TwiML) and the delivery-status callback.
type WebhookHandler struct {
	sink      EventSink
	streamURL string
}

func NewWebhookHandler(sink EventSink, streamURL string) *WebhookHandler {
	return &WebhookHandler{sink: sink, streamURL: streamURL}
}

func (h *WebhookHandler) Register(r gin.IRouter) {
	r.POST("/webhooks/twilio/voice", h.Voice)
	r.POST("/webhooks/twilio/status", h.Status)
}

// Voice answers with the stream-connect document. Twilio retries on
// non-2xx, so any response here must be a well-formed 200.
func (h *WebhookHandler) Voice(c *gin.Context) {
	c.Data(http.StatusOK, "application/xml", []byte(StreamTwiML(h.streamURL)))
}

// Status feeds the parsed event to the dispatcher. Malformed callbacks get
// a 400 so they show up in provider debug logs; anything parseable is
// acknowledged with 200 regardless of what reconciliation decides.
// Orphan and duplicate events are the dispatcher's problem, not Twilio's.
func (h *WebhookHandler) Status(c *gin.Context) {
	ev, err := ParseStatusCallback(c.Request)
	if err != nil {
		logger.FromGin(c).Warn("malformed status callback", "error", err)
		c.String(http.StatusBadRequest, "malformed callback")
		return
	}
	h.sink.OnProviderEvent(c.Request.Context(), ev)
	c.String(http.StatusOK, "ok")
}
