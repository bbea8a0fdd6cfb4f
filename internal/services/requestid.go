package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/observability"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/store"
)

var (
	periodPattern    = regexp.MustCompile(`^[0-9]{2}(0[1-9]|1[0-2])$`)
	requestIDPattern = regexp.MustCompile(`^([0-9]{4})-([0-9]{3,})$`)
)

// Period returns the counter bucket of t in loc: two-digit Gregorian year
// followed by the two-digit month, e.g. "2506" for June 2025.
func Period(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%02d%02d", t.Year()%100, int(t.Month()))
}

// ValidPeriod reports whether p is a well-formed period token.
func ValidPeriod(p string) bool { return periodPattern.MatchString(p) }

// FormatRequestID renders a ticket number, zero-padding the sequence to
// three digits.
func FormatRequestID(period string, seq int64) string {
	return fmt.Sprintf("%s-%03d", period, seq)
}

// ParseRequestID splits a sequential ticket number. Fallback IDs do not
// parse.
func ParseRequestID(id string) (period string, seq int64, ok bool) {
	m := requestIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// FallbackRequestID is used when the counter path fails: "REQ-" and the
// last six digits of the Unix millisecond clock.
func FallbackRequestID(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "REQ-" + ms
}

// RequestIDGenerator allocates ticket numbers from a CounterStore.
type RequestIDGenerator struct {
	Counters store.CounterStore
	Location *time.Location
	Now      func() time.Time
}

// NewRequestIDGenerator returns a generator bucketing by loc.
func NewRequestIDGenerator(c store.CounterStore, loc *time.Location) *RequestIDGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &RequestIDGenerator{Counters: c, Location: loc, Now: time.Now}
}

// Next returns the next ticket number of the current period. It never
// fails: when the counter store errors, a fallback ID is returned and the
// error is logged.
func (g *RequestIDGenerator) Next(ctx context.Context) string {
	ctx, span := observability.StartSpan(ctx, "services/RequestIDGenerator", "Next")
	defer span.End()

	now := g.Now()
	period := Period(now, g.Location)
	seq, err := g.Counters.Next(ctx, domain.CounterRequestID, period)
	if err != nil {
		id := FallbackRequestID(now)
		observability.RequestIDFallbacks.Inc()
		_ = observability.Fail(span, err)
		span.SetAttributes(attribute.Bool("fallback", true))
		log.Error().Err(err).Str("period", period).Str("request_id", id).Msg("counter failed; using fallback ticket number")
		return id
	}
	id := FormatRequestID(period, seq)
	span.SetAttributes(attribute.String("request.id", id))
	return id
}

// Resync moves the counter of taken's period past the highest ticket number
// already stored for that period. It runs after an insert clashed with an
// existing row, which happens once a counter was reset below its issued
// tickets. Fallback IDs carry no period and are left alone.
func (g *RequestIDGenerator) Resync(ctx context.Context, db *gorm.DB, taken string) error {
	period, _, ok := ParseRequestID(taken)
	if !ok {
		return nil
	}
	ids, err := repo.RequestIDsInPeriod(ctx, db, period)
	if err != nil {
		return err
	}
	var highest int64
	for _, id := range ids {
		if p, seq, ok := ParseRequestID(id); ok && p == period && seq > highest {
			highest = seq
		}
	}
	if highest == 0 {
		return nil
	}
	log.Warn().Str("period", period).Int64("highest", highest).Msg("counter behind issued tickets; raising")
	return g.Counters.Raise(ctx, domain.CounterRequestID, period, highest)
}
