package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/auth"
	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/repo"
)

// NewAdminUser is the input for creating a dashboard account.
type NewAdminUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// AdminUserPatch is a partial account update; nil fields are kept.
type AdminUserPatch struct {
	Password *string `json:"password"`
	Role     *string `json:"role"`
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"isActive"`
}

// Session is a successful login.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      domain.AdminUser `json:"user"`
}

// AdminService manages dashboard accounts and logins.
type AdminService struct {
	DB     *gorm.DB
	Tokens *auth.Issuer
	Now    func() time.Time
}

func (s *AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns all accounts.
func (s *AdminService) List(ctx context.Context) ([]domain.AdminUser, error) {
	return repo.ListAdminUsers(ctx, s.DB)
}

// Create adds an account with a bcrypt-hashed password. The role defaults
// to technician.
func (s *AdminService) Create(ctx context.Context, in NewAdminUser) (*domain.AdminUser, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "username", Message: domain.MsgRequiredFields}}}
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "role", Message: err.Error()}}}
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.AdminUser{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.TrimSpace(in.Email),
		IsActive:     true,
	}
	if err := repo.CreateAdminUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	log.Info().Str("username", username).Str("role", string(role)).Msg("admin user created")
	return u, nil
}

// Update applies a patch. A non-empty password is re-hashed.
func (s *AdminService) Update(ctx context.Context, username string, p AdminUserPatch) (*domain.AdminUser, error) {
	fields := map[string]any{}
	if p.Password != nil && *p.Password != "" {
		hash, err := auth.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if p.Role != nil {
		role, err := domain.ParseRole(*p.Role)
		if err != nil {
			return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "role", Message: err.Error()}}}
		}
		fields["role"] = role
	}
	if p.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*p.FullName)
	}
	if p.Email != nil {
		fields["email"] = strings.TrimSpace(*p.Email)
	}
	if p.IsActive != nil {
		fields["is_active"] = *p.IsActive
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}
	if _, err := repo.UpdateAdminUser(ctx, s.DB, username, fields); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return repo.GetAdminUser(ctx, s.DB, username)
}

// Delete removes an account.
func (s *AdminService) Delete(ctx context.Context, username string) error {
	err := repo.DeleteAdminUser(ctx, s.DB, username)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Login checks credentials of an active account, stamps the login time and
// issues a session token. Unknown users, inactive users and wrong passwords
// all yield ErrInvalidCredentials.
func (s *AdminService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := repo.GetAdminUser(ctx, s.DB, strings.TrimSpace(username))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive || !auth.CheckPassword(password, u.PasswordHash) {
		log.Warn().Str("username", u.Username).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}
	now := s.now()
	if _, err := repo.UpdateAdminUser(ctx, s.DB, u.Username, map[string]any{"last_login": &now}); err != nil {
		log.Warn().Err(err).Str("username", u.Username).Msg("stamp last login failed")
	} else {
		u.LastLogin = &now
	}
	token, exp, err := s.Tokens.Issue(u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: *u}, nil
}
