package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/unidine-backend/internal/http/response"
	"github.com/yungbote/unidine-backend/internal/observability"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
	"github.com/yungbote/unidine-backend/internal/services"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	log      *logger.Logger
	webhooks services.InstagramWebhookService
}

func NewWebhookHandler(log *logger.Logger, webhooks services.InstagramWebhookService) *WebhookHandler {
	return &WebhookHandler{log: log.With("handler", "WebhookHandler"), webhooks: webhooks}
}

// GET /webhooks/instagram
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, ok := h.webhooks.VerifySubscription(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if !ok {
		c.String(http.StatusForbidden, "forbidden")
		return
	}
	c.String(http.StatusOK, challenge)
}

// POST /webhooks/instagram
//
// Events are enqueued before the response is written; processing failures are
// logged and never surface to the caller.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}
	if err := h.webhooks.VerifySignature(body, c.GetHeader("X-Hub-Signature-256"), c.GetHeader("X-Hub-Signature")); err != nil {
		observability.Current().IncWebhookEvent("delivery", "bad_signature")
		response.RespondError(c, http.StatusUnauthorized, "invalid_signature", err)
		return
	}
	payload, err := h.webhooks.Parse(body)
	if err != nil {
		observability.Current().IncWebhookEvent("delivery", "bad_payload")
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	res := h.webhooks.Ingest(c.Request.Context(), payload)
	if res.Failed > 0 {
		h.log.Warn("webhook events not enqueued", "failed", res.Failed, "events", res.Events)
	}
	c.String(http.StatusOK, "EVENT_RECEIVED")
}
