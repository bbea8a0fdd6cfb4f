package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/auth"
	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/services"
)

type stubRequestManager struct {
	gotOpt    services.ListOptions
	gotUpdate services.StatusUpdate
	gotActor  services.Actor
	updateErr error
	version   string
	lists     int
}

func (s *stubRequestManager) List(_ context.Context, opt services.ListOptions) ([]domain.RepairRequest, error) {
	s.gotOpt = opt
	s.lists++
	return nil, nil
}

func (s *stubRequestManager) Summary(context.Context) (services.Summary, error) {
	return services.Summary{Total: 3, Pending: 1, Completed: 2}, nil
}

func (s *stubRequestManager) Detail(_ context.Context, id string) (*services.RequestDetail, error) {
	if id != "2506-001" {
		return nil, services.ErrRequestNotFound
	}
	return &services.RequestDetail{RepairRequest: domain.RepairRequest{RequestID: id}, PhotoURL: "https://minio.local/p"}, nil
}

func (s *stubRequestManager) UpdateStatus(_ context.Context, id string, u services.StatusUpdate, a services.Actor) (*domain.RepairRequest, error) {
	s.gotUpdate, s.gotActor = u, a
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	if u.Empty() {
		return nil, services.ErrNothingToUpdate
	}
	if u.Status != nil && !a.Role.CanSetStatus(*u.Status) {
		return nil, services.ErrForbiddenStatus
	}
	return &domain.RepairRequest{RequestID: id}, nil
}

func (s *stubRequestManager) Version(context.Context) (string, error) {
	if s.version == "" {
		return "", errors.New("no version")
	}
	return s.version, nil
}

func (s *stubRequestManager) ExportCSV(_ context.Context, w io.Writer, _ *time.Location) error {
	_, err := io.WriteString(w, "เลขที่คำขอ\n2506-001\n")
	return err
}

func requestRouter(m RequestManager) (*gin.Engine, *auth.Issuer) {
	gin.SetMode(gin.TestMode)
	issuer := auth.NewIssuer("test-secret", time.Hour)
	h := NewRequestHandler(m, time.FixedZone("ICT", 7*3600))

	r := gin.New()
	g := r.Group("/api/admin/requests", middleware.Authenticate(issuer))
	g.GET("", h.List)
	g.GET("/summary", h.Summary)
	g.GET("/export.csv", h.ExportCSV)
	g.GET("/:id", h.Get)
	g.PUT("/:id/status", h.UpdateStatus)
	return r, issuer
}

func bearer(t *testing.T, iss *auth.Issuer, user string, role domain.Role) map[string]string {
	t.Helper()
	tok, _, err := iss.Issue(user, role)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestRequests_ListPassesFiltersAndClampsLimit(t *testing.T) {
	m := &stubRequestManager{}
	r, iss := requestRouter(m)
	hdr := bearer(t, iss, "tech1", domain.RoleTechnician)

	w := do(r, http.MethodGet, "/api/admin/requests?limit=99999&sort=oldest&status=PENDING", "", hdr)
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	if m.gotOpt.Limit != maxRequestLimit || m.gotOpt.Sort != "oldest" || m.gotOpt.Status != "PENDING" {
		t.Fatalf("options: %+v", m.gotOpt)
	}

	w = do(r, http.MethodGet, "/api/admin/requests", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", w.Code)
	}
}

func TestRequests_SummaryAndDetail(t *testing.T) {
	r, iss := requestRouter(&stubRequestManager{})
	hdr := bearer(t, iss, "exec", domain.RoleExecutive)

	w := do(r, http.MethodGet, "/api/admin/requests/summary", "", hdr)
	if m := decode(t, w); m["total"] != float64(3) || m["completed"] != float64(2) {
		t.Fatalf("summary: %v", m)
	}
	w = do(r, http.MethodGet, "/api/admin/requests/2506-001", "", hdr)
	if m := decode(t, w); m["photoUrl"] != "https://minio.local/p" {
		t.Fatalf("detail: %v", m)
	}
	w = do(r, http.MethodGet, "/api/admin/requests/2506-999", "", hdr)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: %d", w.Code)
	}
}

func TestRequests_ConditionalGet(t *testing.T) {
	m := &stubRequestManager{version: "3-100"}
	r, iss := requestRouter(m)
	hdr := bearer(t, iss, "tech1", domain.RoleTechnician)

	w := do(r, http.MethodGet, "/api/admin/requests/summary", "", hdr)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || !strings.HasPrefix(etag, `W/"requests:summary:`) {
		t.Fatalf("summary: %d etag=%q", w.Code, etag)
	}
	hdr["If-None-Match"] = etag
	if w = do(r, http.MethodGet, "/api/admin/requests/summary", "", hdr); w.Code != http.StatusNotModified {
		t.Fatalf("matching etag: %d", w.Code)
	}

	m.version = "4-200"
	if w = do(r, http.MethodGet, "/api/admin/requests/summary", "", hdr); w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("after change: %d etag=%q", w.Code, w.Header().Get("ETag"))
	}

	delete(hdr, "If-None-Match")
	w = do(r, http.MethodGet, "/api/admin/requests?status=PENDING", "", hdr)
	listTag := w.Header().Get("ETag")
	hdr["If-None-Match"] = listTag
	if w = do(r, http.MethodGet, "/api/admin/requests?status=PENDING", "", hdr); w.Code != http.StatusNotModified || m.lists != 1 {
		t.Fatalf("list revalidation: %d lists=%d", w.Code, m.lists)
	}
	if w = do(r, http.MethodGet, "/api/admin/requests?status=COMPLETED", "", hdr); w.Code != http.StatusOK {
		t.Fatalf("other filter shares the etag: %d", w.Code)
	}

	m.version = ""
	if w = do(r, http.MethodGet, "/api/admin/requests/summary", "", hdr); w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("version failure must fall through: %d", w.Code)
	}
}

func TestRequests_UpdateStatusUsesAuthenticatedActor(t *testing.T) {
	m := &stubRequestManager{}
	r, iss := requestRouter(m)

	w := do(r, http.MethodPut, "/api/admin/requests/2506-001/status",
		`{"status":"เสร็จสิ้น","technicianNotes":"เปลี่ยนหลอดแล้ว"}`, bearer(t, iss, "tech1", domain.RoleTechnician))
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	if m.gotActor.Username != "tech1" || m.gotActor.Role != domain.RoleTechnician {
		t.Fatalf("actor: %+v", m.gotActor)
	}
	if m.gotUpdate.Status == nil || *m.gotUpdate.Status != domain.StatusCompleted {
		t.Fatalf("status: %+v", m.gotUpdate.Status)
	}

	cases := []struct {
		name string
		body string
		role domain.Role
		want int
		code string
	}{
		{"technician cannot approve", `{"status":"APPROVED_AWAITING_TECH"}`, domain.RoleTechnician, http.StatusForbidden, ErrCodeForbiddenStatus},
		{"executive approves", `{"status":"APPROVED_AWAITING_TECH"}`, domain.RoleExecutive, http.StatusOK, ""},
		{"unknown status", `{"status":"ON_FIRE"}`, domain.RoleAdmin, http.StatusBadRequest, ErrCodeBadRequest},
		{"nothing to update", `{}`, domain.RoleAdmin, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPut, "/api/admin/requests/2506-001/status", tc.body, bearer(t, iss, "u", tc.role))
			if w.Code != tc.want {
				t.Fatalf("status %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
			if tc.code != "" {
				if got := decode(t, w)["code"]; got != tc.code {
					t.Fatalf("code %v, want %s", got, tc.code)
				}
			}
		})
	}
}

func TestRequests_UpdateStatusStorageErrorIs500(t *testing.T) {
	r, iss := requestRouter(&stubRequestManager{updateErr: errors.New("database is locked")})
	w := do(r, http.MethodPut, "/api/admin/requests/2506-001/status", `{"technicianNotes":"x"}`, bearer(t, iss, "a", domain.RoleAdmin))
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "locked") {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestRequests_ExportCSV(t *testing.T) {
	r, iss := requestRouter(&stubRequestManager{})
	w := do(r, http.MethodGet, "/api/admin/requests/export.csv", "", bearer(t, iss, "a", domain.RoleAdmin))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "repair_requests_") {
		t.Fatalf("disposition %q", w.Header().Get("Content-Disposition"))
	}
	if body := w.Body.String(); !strings.HasPrefix(body, "\ufeff") || !strings.Contains(body, "2506-001") {
		t.Fatalf("body %q", body)
	}
}
