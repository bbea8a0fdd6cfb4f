// Rating queries for the dashboard.
//
//   - GET /admin/ratings            (minRating, maxRating, sort, limit)
//   - GET /admin/ratings/averages
//   - GET /admin/ratings/monthly
//   - GET /admin/ratings/request/{id}
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/utils"
)

const (
	defaultRatingLimit = 100
	maxRatingLimit     = 1000
)

// RatingReader answers the dashboard's rating queries.
type RatingReader interface {
	List(ctx context.Context, q repo.RatingQuery) ([]domain.Rating, error)
	Averages(ctx context.Context) (repo.RatingAverages, error)
	Monthly(ctx context.Context) ([]repo.MonthlyRating, error)
	ByRequest(ctx context.Context, requestID string) ([]domain.Rating, error)
}

// RatingHandler serves /admin/ratings.
type RatingHandler struct {
	ratings RatingReader
}

// NewRatingHandler constructs a RatingHandler.
func NewRatingHandler(ratings RatingReader) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// RequestRatings is the rating state of one request.
type RequestRatings struct {
	RequestID string          `json:"requestId" example:"2506-001"`
	HasRating bool            `json:"hasRating"`
	Ratings   []domain.Rating `json:"ratings"`
}

// List godoc
// @ID          listRatings
// @Summary     List ratings
// @Tags        Ratings
// @Produce     json
// @Security    BearerAuth
// @Param       minRating  query  int     false  "Minimum overall rating"
// @Param       maxRating  query  int     false  "Maximum overall rating"
// @Param       sort       query  string  false  "newest | rating-high | rating-low"  default(newest)
// @Param       limit      query  int     false  "Max items"  default(100)
// @Success     200  {array}   domain.Rating
// @Router      /admin/ratings [get]
func (h *RatingHandler) List(c *gin.Context) {
	q := repo.RatingQuery{
		MinOverall: utils.AtoiDefault(c.Query("minRating"), 0),
		MaxOverall: utils.AtoiDefault(c.Query("maxRating"), 0),
		Sort:       c.DefaultQuery("sort", "newest"),
		Limit:      utils.ClampLimit(utils.AtoiDefault(c.Query("limit"), defaultRatingLimit), maxRatingLimit),
	}
	rows, err := h.ratings.List(c.Request.Context(), q)
	if err != nil {
		failErr(c, err)
		return
	}
	if rows == nil {
		rows = []domain.Rating{}
	}
	ok(c, http.StatusOK, rows)
}

// Averages godoc
// @ID          ratingAverages
// @Summary     Average scores and completion time
// @Tags        Ratings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  repo.RatingAverages
// @Router      /admin/ratings/averages [get]
func (h *RatingHandler) Averages(c *gin.Context) {
	avg, err := h.ratings.Averages(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, avg)
}

// Monthly godoc
// @ID          ratingMonthly
// @Summary     Average overall rating per month
// @Tags        Ratings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  repo.MonthlyRating
// @Router      /admin/ratings/monthly [get]
func (h *RatingHandler) Monthly(c *gin.Context) {
	m, err := h.ratings.Monthly(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if m == nil {
		m = []repo.MonthlyRating{}
	}
	ok(c, http.StatusOK, m)
}

// ByRequest godoc
// @ID          ratingsByRequest
// @Summary     Ratings of one request
// @Tags        Ratings
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Request ID"
// @Success     200  {object}  handlers.RequestRatings
// @Router      /admin/ratings/request/{id} [get]
func (h *RatingHandler) ByRequest(c *gin.Context) {
	id := c.Param("id")
	rows, err := h.ratings.ByRequest(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	if rows == nil {
		rows = []domain.Rating{}
	}
	ok(c, http.StatusOK, RequestRatings{RequestID: id, HasRating: len(rows) > 0, Ratings: rows})
}
