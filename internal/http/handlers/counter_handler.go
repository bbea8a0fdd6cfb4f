// Ticket counter maintenance (admin only).
//
//   - GET  /admin/counters
//   - POST /admin/counters/{period}/reset
//   - POST /admin/counters/backup
//   - POST /admin/counters/cleanup?keepYears=2
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/services"
	"github.com/khayai/repairbot/internal/utils"
)

// CounterMaintenance is the manual surface of the ticket counters.
type CounterMaintenance interface {
	Stats(ctx context.Context) ([]services.PeriodStats, error)
	Reset(ctx context.Context, period string) error
	Backup(ctx context.Context) (services.CounterBackup, error)
	Cleanup(ctx context.Context, keepYears int) (services.CleanupResult, error)
}

// CounterHandler serves /admin/counters.
type CounterHandler struct {
	counters CounterMaintenance
}

// NewCounterHandler constructs a CounterHandler.
func NewCounterHandler(counters CounterMaintenance) *CounterHandler {
	return &CounterHandler{counters: counters}
}

// Stats godoc
// @ID          counterStats
// @Summary     Ticket counters per period, newest first
// @Tags        Counters
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  services.PeriodStats
// @Router      /admin/counters [get]
func (h *CounterHandler) Stats(c *gin.Context) {
	stats, err := h.counters.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if stats == nil {
		stats = []services.PeriodStats{}
	}
	ok(c, http.StatusOK, stats)
}

// Reset godoc
// @ID          resetCounter
// @Summary     Reset a period counter to zero
// @Description The next ticket of the period becomes NNN=001. Existing tickets are not touched.
// @Tags        Counters
// @Security    BearerAuth
// @Param       period  path  string  true  "YYMM"  example(2506)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed period"
// @Router      /admin/counters/{period}/reset [post]
func (h *CounterHandler) Reset(c *gin.Context) {
	period := c.Param("period")
	if err := h.counters.Reset(c.Request.Context(), period); err != nil {
		failErr(c, err)
		return
	}
	middleware.LoggerFrom(c).Warn().Str("period", period).Str("by", middleware.Username(c)).Msg("counter reset")
	noContent(c)
}

// Backup godoc
// @ID          backupCounters
// @Summary     Snapshot every counter
// @Tags        Counters
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.CounterBackup
// @Router      /admin/counters/backup [post]
func (h *CounterHandler) Backup(c *gin.Context) {
	b, err := h.counters.Backup(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, b)
}

// Cleanup godoc
// @ID          cleanupCounters
// @Summary     Delete counters of old periods
// @Tags        Counters
// @Produce     json
// @Security    BearerAuth
// @Param       keepYears  query  int  false  "Years to keep"  default(2)
// @Success     200  {object}  services.CleanupResult
// @Router      /admin/counters/cleanup [post]
func (h *CounterHandler) Cleanup(c *gin.Context) {
	keep := utils.AtoiDefault(c.Query("keepYears"), services.DefaultKeepYears)
	if keep < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "keepYears must be at least 1")
		return
	}
	res, err := h.counters.Cleanup(c.Request.Context(), keep)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
