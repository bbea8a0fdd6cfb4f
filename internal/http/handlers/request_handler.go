// Repair request management for the dashboard.
//
//   - GET /admin/requests               (list; limit, sort, status)
//   - GET /admin/requests/summary       (counts per bucket)
//   - GET /admin/requests/export.csv    (CSV download)
//   - GET /admin/requests/{id}          (detail)
//   - PUT /admin/requests/{id}/status   (status, notes, signature)
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/services"
	"github.com/khayai/repairbot/internal/utils"
)

const (
	defaultRequestLimit = 100
	maxRequestLimit     = 1000
)

// RequestManager is the dashboard's view of repair requests.
type RequestManager interface {
	List(ctx context.Context, opt services.ListOptions) ([]domain.RepairRequest, error)
	Summary(ctx context.Context) (services.Summary, error)
	Detail(ctx context.Context, requestID string) (*services.RequestDetail, error)
	UpdateStatus(ctx context.Context, requestID string, u services.StatusUpdate, actor services.Actor) (*domain.RepairRequest, error)
	ExportCSV(ctx context.Context, w io.Writer, loc *time.Location) error
	Version(ctx context.Context) (string, error)
}

// RequestHandler serves /admin/requests.
type RequestHandler struct {
	requests RequestManager
	loc      *time.Location
}

// NewRequestHandler constructs a RequestHandler. loc formats CSV dates.
func NewRequestHandler(requests RequestManager, loc *time.Location) *RequestHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &RequestHandler{requests: requests, loc: loc}
}

// StatusUpdateRequest is the body of a status change. Omitted fields are
// left unchanged; at least one must be present.
type StatusUpdateRequest struct {
	// Thai label or English code
	Status            *string    `json:"status,omitempty" example:"COMPLETED"`
	TechnicianNotes   *string    `json:"technicianNotes,omitempty" example:"เปลี่ยนหลอดแล้ว"`
	SignatureURL      *string    `json:"signatureUrl,omitempty"`
	ApprovalTimestamp *time.Time `json:"approvalTimestamp,omitempty"`
}

// ListRequests godoc
// @ID          listRequests
// @Summary     List repair requests
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Param       limit   query  int     false  "Max items (1..1000)"  default(100)
// @Param       sort    query  string  false  "newest | oldest"      default(newest)
// @Param       status  query  string  false  "Status label or code"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.RepairRequest
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /admin/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	opt := services.ListOptions{
		Limit:  utils.ClampLimit(utils.AtoiDefault(c.Query("limit"), defaultRequestLimit), maxRequestLimit),
		Sort:   c.DefaultQuery("sort", "newest"),
		Status: c.Query("status"),
	}
	scope := fmt.Sprintf("list:%d:%s:%s", opt.Limit, url.QueryEscape(opt.Sort), url.QueryEscape(opt.Status))
	if h.notModified(c, scope) {
		return
	}
	rows, err := h.requests.List(c.Request.Context(), opt)
	if err != nil {
		failErr(c, err)
		return
	}
	if rows == nil {
		rows = []domain.RepairRequest{}
	}
	ok(c, http.StatusOK, rows)
}

// Summary godoc
// @ID          requestSummary
// @Summary     Request counts per dashboard bucket
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  services.Summary
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Router      /admin/requests/summary [get]
func (h *RequestHandler) Summary(c *gin.Context) {
	if h.notModified(c, "summary") {
		return
	}
	s, err := h.requests.Summary(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// Get godoc
// @ID          getRequest
// @Summary     One repair request
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Request ID"  example(2506-001)
// @Success     200  {object}  services.RequestDetail
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	d, err := h.requests.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// UpdateStatus godoc
// @ID          updateRequestStatus
// @Summary     Change status, notes or signature of a request
// @Description Approval and rejection need the executive or admin role. The caller is recorded as approver; the reporting user and staff are notified.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                          true  "Request ID"
// @Param       body  body  handlers.StatusUpdateRequest    true  "Changes"
// @Success     200  {object}  domain.RepairRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Nothing to update or unknown status"
// @Failure     403  {object}  handlers.ErrorResponse  "Role may not set this status"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/requests/{id}/status [put]
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u := services.StatusUpdate{
		TechnicianNotes:   req.TechnicianNotes,
		SignatureURL:      req.SignatureURL,
		ApprovalTimestamp: req.ApprovalTimestamp,
	}
	if req.Status != nil && strings.TrimSpace(*req.Status) != "" {
		st, err := domain.ParseStatus(*req.Status)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		u.Status = &st
	}
	actor := services.Actor{Username: middleware.Username(c), Role: middleware.Role(c)}
	r, err := h.requests.UpdateStatus(c.Request.Context(), c.Param("id"), u, actor)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ExportCSV godoc
// @ID          exportRequests
// @Summary     Download all requests as CSV
// @Tags        Requests
// @Produce     text/csv
// @Security    BearerAuth
// @Success     200  {string}  string  "CSV"
// @Router      /admin/requests/export.csv [get]
func (h *RequestHandler) ExportCSV(c *gin.Context) {
	name := fmt.Sprintf("repair_requests_%s.csv", time.Now().In(h.loc).Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	// Excel needs the BOM to read UTF-8 Thai text.
	if _, err := c.Writer.WriteString("\ufeff"); err != nil {
		return
	}
	if err := h.requests.ExportCSV(c.Request.Context(), c.Writer, h.loc); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("csv export failed")
		_ = c.Error(err)
		c.Abort()
	}
}

// notModified sets a weak ETag derived from the table version and answers
// 304 when the client already holds it. A failing version lookup only
// skips the check.
func (h *RequestHandler) notModified(c *gin.Context, scope string) bool {
	v, err := h.requests.Version(c.Request.Context())
	if err != nil {
		return false
	}
	etag := fmt.Sprintf(`W/"requests:%s:%s"`, scope, v)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
