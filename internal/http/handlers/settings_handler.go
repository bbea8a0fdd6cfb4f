// Runtime settings and signature handlers.
//
//   - GET  /admin/settings/telegram
//   - PUT  /admin/settings/telegram
//   - POST /admin/settings/telegram/test
//   - GET  /admin/settings/flex
//   - PUT  /admin/settings/flex
//   - POST /admin/signatures
//   - GET  /admin/signatures/{name}
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/line"
	"github.com/khayai/repairbot/internal/services"
)

// SettingsStore reads and writes the runtime settings.
type SettingsStore interface {
	GetTelegram(ctx context.Context) (services.TelegramSettings, error)
	SaveTelegram(ctx context.Context, in services.TelegramSettings) error
	TestTelegram(ctx context.Context, override *services.TelegramSettings) error
	GetFlex() line.FlexSettings
	SaveFlex(ctx context.Context, patch line.FlexSettings) (line.FlexSettings, error)
}

// SignatureStore stores executive signatures.
type SignatureStore interface {
	Upload(ctx context.Context, dataURL, prefix, username string) (*domain.Signature, error)
	Get(ctx context.Context, fileName string) (*services.SignatureFile, error)
}

// SettingsHandler serves /admin/settings and /admin/signatures.
type SettingsHandler struct {
	settings   SettingsStore
	signatures SignatureStore
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(settings SettingsStore, signatures SignatureStore) *SettingsHandler {
	return &SettingsHandler{settings: settings, signatures: signatures}
}

// SignatureUploadRequest carries a drawn signature.
type SignatureUploadRequest struct {
	// data:image/png;base64,...
	SignatureData string `json:"signatureData" binding:"required"`
	Prefix        string `json:"prefix,omitempty" example:"approval"`
}

// GetTelegram godoc
// @ID          getTelegramSettings
// @Summary     Staff channel settings
// @Tags        Settings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.TelegramSettings
// @Router      /admin/settings/telegram [get]
func (h *SettingsHandler) GetTelegram(c *gin.Context) {
	s, err := h.settings.GetTelegram(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// SaveTelegram godoc
// @ID          saveTelegramSettings
// @Summary     Save staff channel settings
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.TelegramSettings  true  "Settings"
// @Success     200  {object}  services.TelegramSettings
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /admin/settings/telegram [put]
func (h *SettingsHandler) SaveTelegram(c *gin.Context) {
	var in services.TelegramSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.settings.SaveTelegram(c.Request.Context(), in); err != nil {
		failErr(c, err)
		return
	}
	h.GetTelegram(c)
}

// TestTelegram godoc
// @ID          testTelegram
// @Summary     Send a test message to the staff channel
// @Description Uses the body's token and chat ID when given, otherwise the saved settings.
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.TelegramSettings  false  "Settings to try"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     409  {object}  handlers.ErrorResponse  "No channel configured"
// @Failure     502  {object}  handlers.ErrorResponse  "Delivery failed"
// @Router      /admin/settings/telegram/test [post]
func (h *SettingsHandler) TestTelegram(c *gin.Context) {
	var override *services.TelegramSettings
	var in services.TelegramSettings
	if err := c.ShouldBindJSON(&in); err == nil {
		override = &in
	} else if !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.settings.TestTelegram(c.Request.Context(), override)
	if errors.Is(err, services.ErrStaffChannelDisabled) {
		failErr(c, err)
		return
	}
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("telegram test failed")
		fail(c, http.StatusBadGateway, ErrCodeDeliveryFailed, "ส่งข้อความทดสอบไม่สำเร็จ")
		return
	}
	ok(c, http.StatusOK, StatusResponse{Status: "success", Message: "ส่งข้อความทดสอบสำเร็จ"})
}

// GetFlex godoc
// @ID          getFlexSettings
// @Summary     Chat card appearance
// @Tags        Settings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  line.FlexSettings
// @Router      /admin/settings/flex [get]
func (h *SettingsHandler) GetFlex(c *gin.Context) {
	ok(c, http.StatusOK, h.settings.GetFlex())
}

// SaveFlex godoc
// @ID          saveFlexSettings
// @Summary     Update chat card appearance
// @Description Empty fields keep their current value. Applies immediately.
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  line.FlexSettings  true  "Settings"
// @Success     200  {object}  line.FlexSettings
// @Router      /admin/settings/flex [put]
func (h *SettingsHandler) SaveFlex(c *gin.Context) {
	var patch line.FlexSettings
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	next, err := h.settings.SaveFlex(c.Request.Context(), patch)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, next)
}

// UploadSignature godoc
// @ID          uploadSignature
// @Summary     Upload a signature image
// @Tags        Signatures
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.SignatureUploadRequest  true  "Signature"
// @Success     201  {object}  domain.Signature
// @Failure     400  {object}  handlers.ErrorResponse  "Not a base64 data URL"
// @Failure     502  {object}  handlers.ErrorResponse  "Object store unavailable"
// @Router      /admin/signatures [post]
func (h *SettingsHandler) UploadSignature(c *gin.Context) {
	var req SignatureUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "signatureData is required")
		return
	}
	sig, err := h.signatures.Upload(c.Request.Context(), req.SignatureData, req.Prefix, middleware.Username(c))
	if err != nil {
		if status, _ := classify(err); status >= http.StatusInternalServerError {
			_ = c.Error(err)
			fail(c, http.StatusBadGateway, ErrCodeStorageFailed, "could not store signature")
			return
		}
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, sig)
}

// GetSignature godoc
// @ID          getSignature
// @Summary     Fetch a signature
// @Description Returns a presigned link when stored in object storage, else the data URL.
// @Tags        Signatures
// @Produce     json
// @Security    BearerAuth
// @Param       name  path  string  true  "File name"
// @Success     200  {object}  services.SignatureFile
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/signatures/{name} [get]
func (h *SettingsHandler) GetSignature(c *gin.Context) {
	f, err := h.signatures.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}
