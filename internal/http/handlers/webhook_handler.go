// LINE webhook endpoint.
//
//   - POST /webhook
//
// The platform only learns whether the batch was received. Per-event
// failures are logged and the response stays 200 so LINE does not
// redeliver the batch.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/observability"
)

// Webhook acknowledgement messages.
const (
	MsgNoEvents        = "No events to process"
	MsgEventsProcessed = "Events processed"
	MsgInternalError   = "Internal server error occurred"
)

// EventParser verifies and decodes a webhook request.
type EventParser interface {
	ParseRequest(r *http.Request) ([]*linebot.Event, error)
}

// EventHandler processes a decoded batch.
type EventHandler interface {
	HandleEvents(ctx context.Context, events []*linebot.Event) error
}

// WebhookHandler serves the LINE webhook.
type WebhookHandler struct {
	parser EventParser
	bot    EventHandler
}

// NewWebhookHandler binds the parser and the conversation bot.
func NewWebhookHandler(p EventParser, bot EventHandler) *WebhookHandler {
	return &WebhookHandler{parser: p, bot: bot}
}

// Webhook godoc
// @ID          lineWebhook
// @Summary     LINE webhook
// @Description Receives a batch of LINE events. Always answers 200 once the signature is valid.
// @Tags        LINE
// @Accept      json
// @Produce     json
//
// @Param       X-Line-Signature  header  string  true  "HMAC-SHA256 signature of the body"
//
// @Success     200  {object}  handlers.StatusResponse
// @Failure     400  {object}  handlers.StatusResponse  "Bad signature or body"
// @Router      /webhook [post]
func (h *WebhookHandler) Webhook(c *gin.Context) {
	events, err := h.parser.ParseRequest(c.Request)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			observability.WebhookEvents.WithLabelValues("batch", "bad_signature").Inc()
			c.AbortWithStatusJSON(http.StatusBadRequest, StatusResponse{Status: "error", Message: "invalid signature"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, StatusResponse{Status: "error", Message: "invalid request body"})
		return
	}
	if len(events) == 0 {
		c.JSON(http.StatusOK, StatusResponse{Status: "success", Message: MsgNoEvents})
		return
	}

	if err := h.bot.HandleEvents(c.Request.Context(), events); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Int("events", len(events)).Msg("webhook processing failed")
		c.JSON(http.StatusOK, StatusResponse{Status: "error", Message: MsgInternalError})
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "success", Message: MsgEventsProcessed})
}
