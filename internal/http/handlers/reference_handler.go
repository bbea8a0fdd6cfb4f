// Reference data handlers: the pole catalog and repair material stock.
//
//   - GET  /admin/poles                 (list, or ?q= ranked search)
//   - POST /admin/poles
//   - GET  /admin/poles/{id}
//   - PUT  /admin/poles/{id}
//   - GET  /admin/inventory
//   - POST /admin/inventory
//   - PUT  /admin/inventory/{name}
//   - POST /admin/inventory/{name}/adjust
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/search"
	"github.com/khayai/repairbot/internal/services"
	"github.com/khayai/repairbot/internal/utils"
)

const (
	defaultPoleLimit  = 500
	maxPoleLimit      = 5000
	defaultSearchTopK = 10
)

// PoleCatalog manages poles.
type PoleCatalog interface {
	List(ctx context.Context, limit int) ([]domain.Pole, error)
	Get(ctx context.Context, poleID string) (*domain.Pole, error)
	Create(ctx context.Context, p *domain.Pole) error
	Update(ctx context.Context, poleID string, fields map[string]any) (*domain.Pole, error)
	Search(ctx context.Context, query string, k int) ([]search.Result, error)
}

// Inventory manages material stock.
type Inventory interface {
	List(ctx context.Context) ([]domain.InventoryItem, error)
	Create(ctx context.Context, it *domain.InventoryItem) error
	Update(ctx context.Context, name string, p services.InventoryPatch) (*domain.InventoryItem, error)
	Adjust(ctx context.Context, name, kind string, qty int) (*domain.InventoryItem, error)
}

// ReferenceHandler serves the pole and inventory endpoints.
type ReferenceHandler struct {
	poles     PoleCatalog
	inventory Inventory
}

// NewReferenceHandler constructs a ReferenceHandler.
func NewReferenceHandler(poles PoleCatalog, inventory Inventory) *ReferenceHandler {
	return &ReferenceHandler{poles: poles, inventory: inventory}
}

// PolePatch is a partial pole update. The pole ID itself is immutable.
type PolePatch struct {
	Village        *string  `json:"village,omitempty"`
	PoleType       *string  `json:"poleType,omitempty"`
	PoleSubtype    *string  `json:"poleSubtype,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	LampType       *string  `json:"lampType,omitempty"`
	Wattage        *string  `json:"wattage,omitempty"`
	InstallDate    *string  `json:"installDate,omitempty"`
	InstallCompany *string  `json:"installCompany,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	QRCode         *string  `json:"qrCode,omitempty"`
}

func (p PolePatch) columns() map[string]any {
	out := map[string]any{}
	str := func(col string, v *string) {
		if v != nil {
			out[col] = strings.TrimSpace(*v)
		}
	}
	str("village", p.Village)
	str("pole_type", p.PoleType)
	str("pole_subtype", p.PoleSubtype)
	str("lamp_type", p.LampType)
	str("wattage", p.Wattage)
	str("install_date", p.InstallDate)
	str("install_company", p.InstallCompany)
	str("notes", p.Notes)
	str("qr_code", p.QRCode)
	if p.Latitude != nil {
		out["latitude"] = *p.Latitude
	}
	if p.Longitude != nil {
		out["longitude"] = *p.Longitude
	}
	return out
}

// PoleSearchHit is one ranked search result.
type PoleSearchHit struct {
	Score float64     `json:"score" example:"0.75"`
	Pole  domain.Pole `json:"pole"`
}

// AdjustRequest records materials used or received.
type AdjustRequest struct {
	// "เบิกจ่าย" / "used" or "รับเข้า" / "added"
	Type     string `json:"type" binding:"required" example:"เบิกจ่าย"`
	Quantity int    `json:"quantity" binding:"required" example:"2"`
}

// ListPoles godoc
// @ID          listPoles
// @Summary     List or search poles
// @Description Without q, returns up to limit poles. With q, returns the best matches over village, type and notes.
// @Tags        Reference
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query  int     false  "Max items"  default(500)
// @Param       q      query  string  false  "Free-text search"
// @Param       k      query  int     false  "Search results"  default(10)
// @Success     200  {array}   domain.Pole
// @Router      /admin/poles [get]
func (h *ReferenceHandler) ListPoles(c *gin.Context) {
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		k := utils.ClampLimit(utils.AtoiDefault(c.Query("k"), defaultSearchTopK), 100)
		res, err := h.poles.Search(c.Request.Context(), q, k)
		if err != nil {
			failErr(c, err)
			return
		}
		hits := make([]PoleSearchHit, 0, len(res))
		for _, r := range res {
			hits = append(hits, PoleSearchHit{Score: r.Score, Pole: r.Source})
		}
		ok(c, http.StatusOK, hits)
		return
	}
	limit := utils.ClampLimit(utils.AtoiDefault(c.Query("limit"), defaultPoleLimit), maxPoleLimit)
	poles, err := h.poles.List(c.Request.Context(), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if poles == nil {
		poles = []domain.Pole{}
	}
	ok(c, http.StatusOK, poles)
}

// GetPole godoc
// @ID          getPole
// @Summary     One pole
// @Tags        Reference
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Pole ID"
// @Success     200  {object}  domain.Pole
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/poles/{id} [get]
func (h *ReferenceHandler) GetPole(c *gin.Context) {
	p, err := h.poles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// CreatePole godoc
// @ID          createPole
// @Summary     Add a pole
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  domain.Pole  true  "Pole"
// @Success     201  {object}  domain.Pole
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Pole ID taken"
// @Router      /admin/poles [post]
func (h *ReferenceHandler) CreatePole(c *gin.Context) {
	var p domain.Pole
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.poles.Create(c.Request.Context(), &p); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// UpdatePole godoc
// @ID          updatePole
// @Summary     Update a pole
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string              true  "Pole ID"
// @Param       body  body  handlers.PolePatch  true  "Changes"
// @Success     200  {object}  domain.Pole
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/poles/{id} [put]
func (h *ReferenceHandler) UpdatePole(c *gin.Context) {
	var p PolePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	pole, err := h.poles.Update(c.Request.Context(), c.Param("id"), p.columns())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, pole)
}

// ListInventory godoc
// @ID          listInventory
// @Summary     List stock lines
// @Tags        Reference
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.InventoryItem
// @Router      /admin/inventory [get]
func (h *ReferenceHandler) ListInventory(c *gin.Context) {
	items, err := h.inventory.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	ok(c, http.StatusOK, items)
}

// CreateInventory godoc
// @ID          createInventory
// @Summary     Add a stock line
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  domain.InventoryItem  true  "Stock line"
// @Success     201  {object}  domain.InventoryItem
// @Failure     409  {object}  handlers.ErrorResponse  "Name taken"
// @Router      /admin/inventory [post]
func (h *ReferenceHandler) CreateInventory(c *gin.Context) {
	var it domain.InventoryItem
	if err := c.ShouldBindJSON(&it); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.inventory.Create(c.Request.Context(), &it); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, it)
}

// UpdateInventory godoc
// @ID          updateInventory
// @Summary     Update a stock line
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       name  path  string                   true  "Item name"
// @Param       body  body  services.InventoryPatch  true  "Changes"
// @Success     200  {object}  domain.InventoryItem
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/inventory/{name} [put]
func (h *ReferenceHandler) UpdateInventory(c *gin.Context) {
	var p services.InventoryPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	it, err := h.inventory.Update(c.Request.Context(), c.Param("name"), p)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, it)
}

// AdjustInventory godoc
// @ID          adjustInventory
// @Summary     Record materials used or received
// @Description Using more than the current stock is rejected with insufficient_stock.
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       name  path  string                  true  "Item name"
// @Param       body  body  handlers.AdjustRequest  true  "Adjustment"
// @Success     200  {object}  domain.InventoryItem
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Insufficient stock"
// @Router      /admin/inventory/{name}/adjust [post]
func (h *ReferenceHandler) AdjustInventory(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type and quantity are required")
		return
	}
	it, err := h.inventory.Adjust(c.Request.Context(), c.Param("name"), req.Type, req.Quantity)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, it)
}
