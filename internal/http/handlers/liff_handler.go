// LIFF HTTP handlers.
//
// These endpoints back the forms opened inside the LINE app:
//   - POST /form-submit                   (personal info)
//   - POST /repair-form-submit            (repair report, Idempotency-Key honoured)
//   - POST /rating-submit                 (satisfaction rating)
//   - GET  /check-user?userId=            (prefill)
//   - GET  /liff-config
//   - GET  /poles-list
//   - GET  /user-repair-history?userId=
//   - GET  /repair-request-detail/{id}
//
// Bodies keep the {status, message} shape the LIFF pages parse.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/services"
	"github.com/khayai/repairbot/internal/utils"
)

// LIFF error messages.
const (
	MsgBadBody          = "ข้อมูลไม่ครบถ้วน"
	MsgUserIDRequired   = "กรุณาระบุ userId"
	MsgRequestIDMissing = "กรุณาระบุ Request ID"
	MsgRequestNotFound  = "ไม่พบข้อมูลการแจ้งซ่อม"
	MsgNotOwner         = "คุณไม่มีสิทธิ์เข้าถึงข้อมูลนี้"
	MsgCheckFailed      = "เกิดข้อผิดพลาดในการตรวจสอบข้อมูล"
	MsgFetchFailed      = "เกิดข้อผิดพลาดในการดึงข้อมูล"
	MsgPolesFailed      = "ไม่สามารถโหลดข้อมูลเสาไฟฟ้าได้"
	MsgLIFFNotSet       = "LIFF ID ไม่ได้ถูกตั้งค่าในระบบ"
	MsgRatingFailed     = "เกิดข้อผิดพลาดในการบันทึกคะแนน"
)

const (
	historyLimit = 50
	polesLimit   = 1000
)

// FormSubmitter handles the two LIFF form submissions.
type FormSubmitter interface {
	SubmitPersonalInfo(ctx context.Context, in domain.PersonalInfoInput) (string, error)
	SubmitRepair(ctx context.Context, in domain.RepairInput, idempotencyKey string) (*services.RepairSubmission, error)
	CheckUser(ctx context.Context, lineUserID string) (services.UserCheck, error)
}

// RatingSubmitter stores form ratings.
type RatingSubmitter interface {
	Submit(ctx context.Context, in domain.RatingInput) (*domain.Rating, error)
}

// RequestReader answers a user's own request lookups.
type RequestReader interface {
	History(ctx context.Context, lineUserID string, limit int) ([]domain.RepairRequest, error)
	Detail(ctx context.Context, requestID string) (*services.RequestDetail, error)
}

// PoleLister feeds the pole picker.
type PoleLister interface {
	Options(ctx context.Context, limit int) ([]services.PoleOption, error)
}

// LIFFConfig is what the pages need to bootstrap the LIFF SDK.
type LIFFConfig struct {
	LIFFID  string `json:"liffId"`
	BaseURL string `json:"baseUrl"`
}

// LIFFHandler groups the LIFF endpoints.
type LIFFHandler struct {
	forms    FormSubmitter
	ratings  RatingSubmitter
	requests RequestReader
	poles    PoleLister
	cfg      LIFFConfig
}

// NewLIFFHandler constructs a LIFFHandler.
func NewLIFFHandler(forms FormSubmitter, ratings RatingSubmitter, requests RequestReader, poles PoleLister, cfg LIFFConfig) *LIFFHandler {
	return &LIFFHandler{forms: forms, ratings: ratings, requests: requests, poles: poles, cfg: cfg}
}

// RepairSubmitResponse is the success body of repair-form-submit.
type RepairSubmitResponse struct {
	Status    string `json:"status" example:"success"`
	Message   string `json:"message" example:"ส่งข้อมูลการแจ้งซ่อมสำเร็จ"`
	RequestID string `json:"requestId" example:"2506-001"`
}

// liffSubmitFail maps a submission error: validation messages go back
// verbatim, anything else becomes the generic save failure.
func liffSubmitFail(c *gin.Context, err error, generic string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		liffFail(c, http.StatusBadRequest, verr.Error(), nil)
	case errors.Is(err, services.ErrRequestNotFound):
		liffFail(c, http.StatusNotFound, MsgRequestNotFound, nil)
	default:
		liffFail(c, http.StatusInternalServerError, generic, err)
	}
}

// SubmitPersonalInfo godoc
// @ID          submitPersonalInfo
// @Summary     Submit personal information
// @Description Validates the personal-info form and sends a confirmation card to the user's LINE chat.
// @Tags        LIFF
// @Accept      json
// @Produce     json
// @Param       body  body  domain.PersonalInfoInput  true  "Personal info"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     400  {object}  handlers.StatusResponse  "Validation failed"
// @Failure     500  {object}  handlers.StatusResponse  "Save failed"
// @Router      /form-submit [post]
func (h *LIFFHandler) SubmitPersonalInfo(c *gin.Context) {
	var in domain.PersonalInfoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		liffFail(c, http.StatusBadRequest, MsgBadBody, nil)
		return
	}
	msg, err := h.forms.SubmitPersonalInfo(c.Request.Context(), in)
	if err != nil {
		liffSubmitFail(c, err, services.MsgSaveFailed)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "success", Message: msg})
}

// SubmitRepair godoc
// @ID          submitRepairForm
// @Summary     Submit a repair report
// @Description Creates a repair request with a fresh YYMM-NNN ticket number. Retries with the same Idempotency-Key return the first ticket.
// @Tags        LIFF
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Client-generated retry key"
// @Param       X-Line-User-ID   header  string  false  "LINE user ID (scopes the idempotency key)"
// @Param       body  body  domain.RepairInput  true  "Repair report"
// @Success     200  {object}  handlers.RepairSubmitResponse
// @Failure     400  {object}  handlers.StatusResponse  "Validation failed"
// @Failure     500  {object}  handlers.StatusResponse  "Save failed"
// @Router      /repair-form-submit [post]
func (h *LIFFHandler) SubmitRepair(c *gin.Context) {
	var in domain.RepairInput
	if err := c.ShouldBindJSON(&in); err != nil {
		liffFail(c, http.StatusBadRequest, MsgBadBody, nil)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.forms.SubmitRepair(c.Request.Context(), in, key)
	if err != nil {
		liffSubmitFail(c, err, services.MsgSaveFailed)
		return
	}
	if res.Replayed {
		c.Header("Idempotent-Replay", "true")
	}
	c.JSON(http.StatusOK, RepairSubmitResponse{Status: "success", Message: res.Message, RequestID: res.RequestID})
}

// SubmitRating godoc
// @ID          submitRating
// @Summary     Submit a satisfaction rating
// @Description Overall rating 1-5 is required; speed and quality are optional (0-5).
// @Tags        LIFF
// @Accept      json
// @Produce     json
// @Param       body  body  domain.RatingInput  true  "Rating"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     400  {object}  handlers.StatusResponse  "Validation failed"
// @Failure     404  {object}  handlers.StatusResponse  "Unknown request"
// @Failure     500  {object}  handlers.StatusResponse  "Save failed"
// @Router      /rating-submit [post]
func (h *LIFFHandler) SubmitRating(c *gin.Context) {
	var in domain.RatingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		liffFail(c, http.StatusBadRequest, MsgBadBody, nil)
		return
	}
	if _, err := h.ratings.Submit(c.Request.Context(), in); err != nil {
		liffSubmitFail(c, err, MsgRatingFailed)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "success", Message: services.MsgRatingSaved})
}

// CheckUser godoc
// @ID          checkUser
// @Summary     Check for a stored profile
// @Tags        LIFF
// @Produce     json
// @Param       userId  query  string  true  "LINE user ID"
// @Success     200  {object}  map[string]any
// @Failure     400  {object}  handlers.StatusResponse
// @Router      /check-user [get]
func (h *LIFFHandler) CheckUser(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("userId"))
	if uid == "" {
		liffFail(c, http.StatusBadRequest, MsgUserIDRequired, nil)
		return
	}
	chk, err := h.forms.CheckUser(c.Request.Context(), uid)
	if err != nil {
		liffFail(c, http.StatusInternalServerError, MsgCheckFailed, err)
		return
	}
	body := gin.H{"hasData": chk.HasData}
	if chk.HasData {
		body["personalData"] = chk.PersonalInfo
	}
	liffOK(c, body)
}

// Config godoc
// @ID          liffConfig
// @Summary     LIFF bootstrap configuration
// @Tags        LIFF
// @Produce     json
// @Success     200  {object}  map[string]any
// @Failure     500  {object}  handlers.StatusResponse  "LIFF ID not configured"
// @Router      /liff-config [get]
func (h *LIFFHandler) Config(c *gin.Context) {
	if h.cfg.LIFFID == "" {
		liffFail(c, http.StatusInternalServerError, MsgLIFFNotSet, nil)
		return
	}
	liffOK(c, gin.H{"data": h.cfg})
}

// PolesList godoc
// @ID          polesList
// @Summary     Pole picker options
// @Tags        LIFF
// @Produce     json
// @Success     200  {object}  map[string]any
// @Router      /poles-list [get]
func (h *LIFFHandler) PolesList(c *gin.Context) {
	opts, err := h.poles.Options(c.Request.Context(), polesLimit)
	if err != nil {
		liffFail(c, http.StatusInternalServerError, MsgPolesFailed, err)
		return
	}
	if opts == nil {
		opts = []services.PoleOption{}
	}
	liffOK(c, gin.H{"data": opts})
}

// UserHistory godoc
// @ID          userRepairHistory
// @Summary     A user's repair requests, newest first
// @Tags        LIFF
// @Produce     json
// @Param       userId  query  string  true  "LINE user ID"
// @Param       limit   query  int     false "Max items" default(50)
// @Success     200  {object}  map[string]any
// @Failure     400  {object}  handlers.StatusResponse
// @Router      /user-repair-history [get]
func (h *LIFFHandler) UserHistory(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("userId"))
	if uid == "" {
		liffFail(c, http.StatusBadRequest, MsgUserIDRequired, nil)
		return
	}
	limit := utils.ClampLimit(utils.AtoiDefault(c.Query("limit"), historyLimit), historyLimit)
	reqs, err := h.requests.History(c.Request.Context(), uid, limit)
	if err != nil {
		liffFail(c, http.StatusInternalServerError, MsgFetchFailed, err)
		return
	}
	if reqs == nil {
		reqs = []domain.RepairRequest{}
	}
	liffOK(c, gin.H{"data": gin.H{
		"userId":        uid,
		"totalRequests": len(reqs),
		"requests":      reqs,
	}})
}

// RequestDetail godoc
// @ID          repairRequestDetail
// @Summary     One repair request
// @Description When userId is given the request must belong to that user.
// @Tags        LIFF
// @Produce     json
// @Param       id      path   string  true   "Request ID"  example(2506-001)
// @Param       userId  query  string  false  "Owner check"
// @Success     200  {object}  map[string]any
// @Failure     403  {object}  handlers.StatusResponse
// @Failure     404  {object}  handlers.StatusResponse
// @Router      /repair-request-detail/{id} [get]
func (h *LIFFHandler) RequestDetail(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		liffFail(c, http.StatusBadRequest, MsgRequestIDMissing, nil)
		return
	}
	d, err := h.requests.Detail(c.Request.Context(), id)
	if errors.Is(err, services.ErrRequestNotFound) {
		liffFail(c, http.StatusNotFound, MsgRequestNotFound, nil)
		return
	}
	if err != nil {
		liffFail(c, http.StatusInternalServerError, MsgFetchFailed, err)
		return
	}
	if uid := strings.TrimSpace(c.Query("userId")); uid != "" && uid != d.LineUserID {
		liffFail(c, http.StatusForbidden, MsgNotOwner, nil)
		return
	}
	liffOK(c, gin.H{"data": d})
}
