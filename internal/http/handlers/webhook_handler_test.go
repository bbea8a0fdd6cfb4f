package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/khayai/repairbot/internal/observability"
)

type stubParser struct {
	events []*linebot.Event
	err    error
}

func (p stubParser) ParseRequest(*http.Request) ([]*linebot.Event, error) { return p.events, p.err }

type stubBot struct {
	calls int
	err   error
}

func (b *stubBot) HandleEvents(context.Context, []*linebot.Event) error {
	b.calls++
	return b.err
}

func webhookRouter(h *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook", h.Webhook)
	return r
}

func TestWebhook(t *testing.T) {
	one := []*linebot.Event{{Type: linebot.EventTypeFollow}}

	cases := []struct {
		name      string
		parser    stubParser
		botErr    error
		code      int
		status    string
		message   string
		wantCalls int
	}{
		{"bad signature", stubParser{err: linebot.ErrInvalidSignature}, nil, http.StatusBadRequest, "error", "invalid signature", 0},
		{"bad body", stubParser{err: errors.New("unexpected EOF")}, nil, http.StatusBadRequest, "error", "invalid request body", 0},
		{"empty batch", stubParser{}, nil, http.StatusOK, "success", MsgNoEvents, 0},
		{"processed", stubParser{events: one}, nil, http.StatusOK, "success", MsgEventsProcessed, 1},
		{"processing error still 200", stubParser{events: one}, errors.New("push failed"), http.StatusOK, "error", MsgInternalError, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bot := &stubBot{err: tc.botErr}
			w := do(webhookRouter(NewWebhookHandler(tc.parser, bot)), http.MethodPost, "/webhook", `{"events":[]}`, nil)
			m := decode(t, w)
			if w.Code != tc.code || m["status"] != tc.status || m["message"] != tc.message {
				t.Fatalf("got %d %v", w.Code, m)
			}
			if bot.calls != tc.wantCalls {
				t.Fatalf("HandleEvents calls = %d, want %d", bot.calls, tc.wantCalls)
			}
		})
	}
}

func TestWebhook_BadSignatureIsCounted(t *testing.T) {
	c := observability.WebhookEvents.WithLabelValues("batch", "bad_signature")
	before := testutil.ToFloat64(c)
	do(webhookRouter(NewWebhookHandler(stubParser{err: linebot.ErrInvalidSignature}, &stubBot{})), http.MethodPost, "/webhook", `{}`, nil)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}
