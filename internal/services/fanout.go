package services

import (
	"context"
	"errors"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/notify"
	"github.com/khayai/repairbot/internal/observability"
)

// FanoutResult reports what a fan-out delivered. Delivery errors are never
// returned by the Notifier; they are recorded here and logged.
type FanoutResult struct {
	UserPushed bool
	UserErr    error
	StaffErr   error
}

// Notifier delivers the user push and the staff notification that follow a
// persisted change.
type Notifier struct {
	Messenger line.Messenger
	Templates *line.Templates
	Staff     notify.StaffNotifier
	Location  *time.Location
	Timeout   time.Duration
}

func (n *Notifier) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	d := n.Timeout
	if d <= 0 {
		d = 15 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

// StatusChanged runs after a status write. Only final outcomes are pushed
// to the reporting user; staff always hear about the change. A failed user
// push is reported to staff as a second message.
func (n *Notifier) StatusChanged(ctx context.Context, r *domain.RepairRequest, st domain.Status, notes, actor string) FanoutResult {
	ctx, cancel := n.detach(ctx)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "services/Notifier", "StatusChanged",
		attribute.String("request.id", r.RequestID),
		attribute.String("status", st.Code()),
	)
	defer span.End()

	var res FanoutResult
	var g errgroup.Group
	if st.NotifiesUser() && r.LineUserID != "" {
		g.Go(func() error {
			res.UserErr = n.push(ctx, r.LineUserID, n.statusMessages(r, st, notes)...)
			res.UserPushed = res.UserErr == nil
			return nil
		})
	} else {
		observability.Notifications.WithLabelValues("user", "skipped").Inc()
	}
	g.Go(func() error {
		res.StaffErr = n.staff(ctx, notify.StatusUpdateMessage(r, st, notes, actor))
		return nil
	})
	_ = g.Wait()

	if res.UserErr != nil {
		log.Warn().Err(res.UserErr).Str("channel", "user").Str("request_id", r.RequestID).Msg("status push failed")
		_ = n.staff(ctx, notify.DeliveryFailureMessage(r, st, res.UserErr))
	}
	return res
}

func (n *Notifier) statusMessages(r *domain.RepairRequest, st domain.Status, notes string) []linebot.SendingMessage {
	if st == domain.StatusCompleted {
		msgs := []linebot.SendingMessage{n.Templates.CompletionWithRating(r)}
		if notes != "" {
			msgs = append(msgs, line.Text("📝 หมายเหตุจากเจ้าหน้าที่:\n"+notes))
		}
		return msgs
	}
	return []linebot.SendingMessage{n.Templates.StatusUpdate(r, st, notes)}
}

// RequestCreated confirms a new report to its author and announces it to
// staff.
func (n *Notifier) RequestCreated(ctx context.Context, r *domain.RepairRequest) FanoutResult {
	ctx, cancel := n.detach(ctx)
	defer cancel()

	var res FanoutResult
	var g errgroup.Group
	g.Go(func() error {
		res.UserErr = n.push(ctx, r.LineUserID, n.Templates.RepairConfirmation(r))
		res.UserPushed = res.UserErr == nil
		return nil
	})
	g.Go(func() error {
		res.StaffErr = n.staff(ctx, notify.NewRequestMessage(r, n.Location))
		return nil
	})
	_ = g.Wait()
	if res.UserErr != nil {
		log.Warn().Err(res.UserErr).Str("channel", "user").Str("request_id", r.RequestID).Msg("confirmation push failed")
	}
	return res
}

// push sends messages to a user, counting the outcome.
func (n *Notifier) push(ctx context.Context, userID string, msgs ...linebot.SendingMessage) error {
	if n.Messenger == nil {
		observability.Notifications.WithLabelValues("user", "skipped").Inc()
		return nil
	}
	if err := n.Messenger.Push(ctx, userID, msgs...); err != nil {
		observability.Notifications.WithLabelValues("user", "error").Inc()
		return err
	}
	observability.Notifications.WithLabelValues("user", "ok").Inc()
	return nil
}

func (n *Notifier) staff(ctx context.Context, text string) error {
	if n.Staff == nil {
		observability.Notifications.WithLabelValues("staff", "skipped").Inc()
		return notify.ErrDisabled
	}
	err := n.Staff.Notify(ctx, text)
	switch {
	case errors.Is(err, notify.ErrDisabled):
		observability.Notifications.WithLabelValues("staff", "skipped").Inc()
	case err != nil:
		observability.Notifications.WithLabelValues("staff", "error").Inc()
		log.Warn().Err(err).Str("channel", "staff").Msg("staff notification failed")
	default:
		observability.Notifications.WithLabelValues("staff", "ok").Inc()
	}
	return err
}
