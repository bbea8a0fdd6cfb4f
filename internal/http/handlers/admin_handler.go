// Dashboard account handlers.
//
//   - POST   /admin/login
//   - GET    /admin/users
//   - POST   /admin/users
//   - PUT    /admin/users/{username}
//   - DELETE /admin/users/{username}
//
// Everything except login sits behind the admin role.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/services"
)

// MsgLoginOK greets a successful dashboard login.
const MsgLoginOK = "เข้าสู่ระบบสำเร็จ!"

// AccountService is what the account handlers need.
type AccountService interface {
	List(ctx context.Context) ([]domain.AdminUser, error)
	Create(ctx context.Context, in services.NewAdminUser) (*domain.AdminUser, error)
	Update(ctx context.Context, username string, p services.AdminUserPatch) (*domain.AdminUser, error)
	Delete(ctx context.Context, username string) error
	Login(ctx context.Context, username, password string) (*services.Session, error)
}

// AdminHandler serves login and account management.
type AdminHandler struct {
	accounts AccountService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(accounts AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Message   string      `json:"message" example:"เข้าสู่ระบบสำเร็จ!"`
	Token     string      `json:"token"`
	Username  string      `json:"username" example:"admin"`
	Role      domain.Role `json:"role" example:"admin"`
	FullName  string      `json:"fullName,omitempty"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Login godoc
// @ID          adminLogin
// @Summary     Dashboard login
// @Description Checks credentials of an active account and returns a bearer token (username and role claims).
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing username or password"
// @Failure     401  {object}  handlers.ErrorResponse  "Wrong credentials"
// @Router      /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}
	sess, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if status, _ := classify(err); status == http.StatusUnauthorized {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "ชื่อผู้ใช้งานหรือรหัสผ่านไม่ถูกต้อง")
			return
		}
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		Message:   MsgLoginOK,
		Token:     sess.Token,
		Username:  sess.User.Username,
		Role:      sess.User.Role,
		FullName:  sess.User.FullName,
		ExpiresAt: sess.ExpiresAt,
	})
}

// ListUsers godoc
// @ID          listAdminUsers
// @Summary     List dashboard accounts
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}   domain.AdminUser
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if users == nil {
		users = []domain.AdminUser{}
	}
	ok(c, http.StatusOK, users)
}

// CreateUser godoc
// @ID          createAdminUser
// @Summary     Create a dashboard account
// @Description Role defaults to technician. Usernames are unique.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  services.NewAdminUser  true  "Account"
// @Success     201  {object}  domain.AdminUser
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Username taken"
// @Router      /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var in services.NewAdminUser
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.accounts.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// UpdateUser godoc
// @ID          updateAdminUser
// @Summary     Update a dashboard account
// @Description Omitted fields are kept; a password field changes the password.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       username  path  string                   true  "Username"
// @Param       body      body  services.AdminUserPatch  true  "Changes"
// @Success     200  {object}  domain.AdminUser
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/users/{username} [put]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var p services.AdminUserPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	u, err := h.accounts.Update(c.Request.Context(), c.Param("username"), p)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteAdminUser
// @Summary     Delete a dashboard account
// @Tags        Admin
// @Security    BearerAuth
// @Param       username  path  string  true  "Username"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/users/{username} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("username")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
