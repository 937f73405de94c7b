package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pln-care/complaint-service/internal/api/http/handlers"
	"github.com/pln-care/complaint-service/internal/auth"
	"github.com/pln-care/complaint-service/internal/cache"
	"github.com/pln-care/complaint-service/internal/config"
	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/events"
	"github.com/pln-care/complaint-service/internal/observability"
	"github.com/pln-care/complaint-service/internal/repository/repositorytest"
	"github.com/pln-care/complaint-service/internal/service"
	"github.com/pln-care/complaint-service/pkg/ticket"
)

// memTrackingCache is a map-backed stand-in for the Redis tracking cache.
type memTrackingCache struct {
	store map[string][]byte
}

func newMemTrackingCache() *memTrackingCache {
	return &memTrackingCache{store: map[string][]byte{}}
}

func (c *memTrackingCache) Get(ctx context.Context, ticketNumber string) ([]byte, error) {
	payload, ok := c.store[ticketNumber]
	if !ok {
		return nil, cache.ErrMiss
	}
	return payload, nil
}

func (c *memTrackingCache) Set(ctx context.Context, ticketNumber string, payload []byte) error {
	c.store[ticketNumber] = payload
	return nil
}

func (c *memTrackingCache) Invalidate(ctx context.Context, ticketNumber string) error {
	delete(c.store, ticketNumber)
	return nil
}

type apiEnv struct {
	app      *fiber.App
	db       *repositorytest.DB
	tokens   *auth.TokenManager
	tracking *memTrackingCache
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
		PasswordMinLength:     8,
	}}
	logger := zap.NewNop()
	db := repositorytest.New()
	repos := db.Repos()
	atomic := db.Atomic()
	dispatcher := events.NewInMemoryDispatcher()

	tracking := newMemTrackingCache()
	cache.RegisterInvalidation(dispatcher, tracking, logger)

	authService := service.NewAuthService(cfg, service.AuthDependencies{Repos: repos, Atomic: atomic})
	userService := service.NewUserService(cfg, service.UserDependencies{Repos: repos, Atomic: atomic})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{Repos: repos, Atomic: atomic, Dispatcher: dispatcher})
	reportService := service.NewWorkReportService(service.WorkReportDependencies{Repos: repos, Atomic: atomic, Dispatcher: dispatcher})

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		WorkReports:    handlers.NewWorkReportsHandler(reportService),
		Public:         handlers.NewPublicHandler(complaintService, tracking, logger),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.Users),
	})

	return &apiEnv{app: app, db: db, tokens: authService.TokenManager(), tracking: tracking}
}

func (e *apiEnv) seedAdmin(t *testing.T) (domain.User, string) {
	t.Helper()
	return e.seedUser(t, domain.User{Name: "Admin PLN", Email: "admin@pln.test", Role: domain.RoleAdminUtama, IsActive: true})
}

func (e *apiEnv) seedOfficer(t *testing.T) (domain.User, string) {
	t.Helper()
	return e.seedUser(t, domain.User{Name: "Budi Santoso", Email: "budi@pln.test", Role: domain.RolePetugasLapangan, IsActive: true})
}

func (e *apiEnv) seedUser(t *testing.T, user domain.User) (domain.User, string) {
	t.Helper()
	seeded := e.db.AddUser(user)
	token, _, err := e.tokens.GenerateToken(&seeded)
	require.NoError(t, err)
	return seeded, token
}

// request performs an in-process HTTP call and decodes the JSON body.
func (e *apiEnv) request(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func dataField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data object, got %v", body)
	return data
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error object, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func publicComplaintBody() map[string]any {
	return map[string]any{
		"title":          "Kabel listrik putus",
		"description":    "Kabel menjuntai di depan rumah setelah hujan deras",
		"location":       "Jl. Merdeka No. 12, Bandung",
		"priority":       "HIGH",
		"reporter_name":  "Siti Aminah",
		"reporter_email": "siti@example.com",
		"reporter_phone": "081234567890",
	}
}

func TestPublicComplaintSubmission(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, fiber.MethodPost, "/api/public/complaints", "", publicComplaintBody())
	require.Equal(t, http.StatusCreated, status)

	data := dataField(t, body)
	ticketNumber, _ := data["ticket_number"].(string)
	require.True(t, ticket.Valid(ticketNumber), "got ticket %q", ticketNumber)
	require.Equal(t, "PENDING", data["status"])
	require.Equal(t, "/api/public/complaints/"+ticketNumber, data["tracking_url"])
}

func TestPublicComplaintValidation(t *testing.T) {
	env := newAPIEnv(t)

	payload := publicComplaintBody()
	payload["reporter_email"] = "not-an-email"
	status, body := env.request(t, fiber.MethodPost, "/api/public/complaints", "", payload)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestTrackingEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, fiber.MethodPost, "/api/public/complaints", "", publicComplaintBody())
	require.Equal(t, http.StatusCreated, status)
	ticketNumber := dataField(t, body)["ticket_number"].(string)

	status, body = env.request(t, fiber.MethodGet, "/api/public/complaints/"+ticketNumber, "", nil)
	require.Equal(t, http.StatusOK, status)
	data := dataField(t, body)
	require.Equal(t, "Kabel listrik putus", data["title"])
	require.Equal(t, "PENDING", data["status"])

	// Reporter contact details never leak through the public projection.
	_, hasEmail := data["reporter_email"]
	require.False(t, hasEmail)

	timeline, ok := data["timeline"].([]any)
	require.True(t, ok)
	require.Len(t, timeline, 1)
	first := timeline[0].(map[string]any)
	require.Equal(t, "Laporan Anda telah diterima dan sedang dalam antrian untuk ditinjau", first["message"])

	require.Contains(t, env.tracking.store, ticketNumber)
}

func TestTrackingServedFromCache(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, fiber.MethodPost, "/api/public/complaints", "", publicComplaintBody())
	require.Equal(t, http.StatusCreated, status)
	ticketNumber := dataField(t, body)["ticket_number"].(string)

	status, _ = env.request(t, fiber.MethodGet, "/api/public/complaints/"+ticketNumber, "", nil)
	require.Equal(t, http.StatusOK, status)

	// Mutate the row behind the cache's back; the cached projection wins
	// until an event invalidates it.
	for id, c := range env.db.Complaints {
		c.Title = "Judul diganti"
		env.db.Complaints[id] = c
	}
	status, body = env.request(t, fiber.MethodGet, "/api/public/complaints/"+ticketNumber, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Kabel listrik putus", dataField(t, body)["title"])
}

func TestTrackingCacheInvalidatedByAssignment(t *testing.T) {
	env := newAPIEnv(t)
	_, adminToken := env.seedAdmin(t)
	officer, _ := env.seedOfficer(t)

	status, body := env.request(t, fiber.MethodPost, "/api/public/complaints", "", publicComplaintBody())
	require.Equal(t, http.StatusCreated, status)
	ticketNumber := dataField(t, body)["ticket_number"].(string)

	status, _ = env.request(t, fiber.MethodGet, "/api/public/complaints/"+ticketNumber, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, env.tracking.store, ticketNumber)

	var complaintID string
	for id := range env.db.Complaints {
		complaintID = id
	}
	status, _ = env.request(t, fiber.MethodPost, "/api/complaints/"+complaintID+"/assign", adminToken,
		map[string]any{"officer_id": officer.ID})
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, env.tracking.store, ticketNumber)

	status, body = env.request(t, fiber.MethodGet, "/api/public/complaints/"+ticketNumber, "", nil)
	require.Equal(t, http.StatusOK, status)
	data := dataField(t, body)
	require.Equal(t, "ASSIGNED", data["status"])
	require.Equal(t, "Budi Santoso", data["officer_name"])
}

func TestTrackingRejectsMalformedTicket(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, fiber.MethodGet, "/api/public/complaints/not-a-ticket", "", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestTrackingUnknownTicket(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, fiber.MethodGet, "/api/public/complaints/PLN-2026-000042", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestRegisterLoginMe(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, fiber.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Andi Wijaya",
		"email":    "andi@pln.test",
		"password": "rahasia-kuat",
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "PETUGAS_LAPANGAN", dataField(t, body)["role"])

	status, body = env.request(t, fiber.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "andi@pln.test",
		"password": "rahasia-kuat",
	})
	require.Equal(t, http.StatusOK, status)
	authData, ok := dataField(t, body)["auth"].(map[string]any)
	require.True(t, ok)
	token, _ := authData["token"].(string)
	require.NotEmpty(t, token)

	status, body = env.request(t, fiber.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "andi@pln.test", dataField(t, body)["email"])

	status, body = env.request(t, fiber.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, dataField(t, body)["loggedOut"])
	last := env.db.Logs[len(env.db.Logs)-1]
	require.Equal(t, domain.ActionLogout, last.Action)

	status, body = env.request(t, fiber.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestRequestIDEchoedOnResponses(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/public/complaints/not-a-ticket", nil)
	req.Header.Set("X-Request-ID", "corr-123")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "corr-123", resp.Header.Get("X-Request-ID"))

	// Without an inbound id the middleware mints one.
	req = httptest.NewRequest(fiber.MethodGet, "/api/public/complaints/not-a-ticket", nil)
	resp, err = env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newAPIEnv(t)

	status, body := env.request(t, fiber.MethodGet, "/api/complaints", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))

	status, body = env.request(t, fiber.MethodGet, "/api/complaints", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestAdminGatesRejectOfficer(t *testing.T) {
	env := newAPIEnv(t)
	_, officerToken := env.seedOfficer(t)

	status, body := env.request(t, fiber.MethodGet, "/api/users", officerToken, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, body = env.request(t, fiber.MethodGet, "/api/complaints/stats/overview", officerToken, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))
}

func TestUserSelfServiceRoutes(t *testing.T) {
	env := newAPIEnv(t)
	admin, _ := env.seedAdmin(t)
	officer, officerToken := env.seedOfficer(t)

	// Officers may read their own record but nobody else's.
	status, body := env.request(t, fiber.MethodGet, "/api/users/"+officer.ID, officerToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, officer.Email, dataField(t, body)["email"])

	status, body = env.request(t, fiber.MethodGet, "/api/users/"+admin.ID, officerToken, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, body = env.request(t, fiber.MethodPut, "/api/users/"+admin.ID+"/change-password", officerToken,
		map[string]any{"current_password": "whatever9", "new_password": "rahasia-baru"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))
}

func TestComplaintLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	_, adminToken := env.seedAdmin(t)
	officer, officerToken := env.seedOfficer(t)

	status, body := env.request(t, fiber.MethodPost, "/api/complaints", adminToken, map[string]any{
		"title":       "Gardu induk rusak",
		"description": "Trafo mengeluarkan percikan api",
		"location":    "Gardu Cimahi Selatan",
		"priority":    "URGENT",
	})
	require.Equal(t, http.StatusCreated, status)
	complaintID := dataField(t, body)["id"].(string)

	status, body = env.request(t, fiber.MethodPost, "/api/complaints/"+complaintID+"/assign", adminToken,
		map[string]any{"officer_id": officer.ID})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ASSIGNED", dataField(t, body)["status"])

	for _, next := range []string{"ON_THE_WAY", "WORKING"} {
		status, body = env.request(t, fiber.MethodPut, "/api/complaints/"+complaintID+"/status", officerToken,
			map[string]any{"status": next})
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, next, dataField(t, body)["status"])
	}

	now := time.Now()
	status, body = env.request(t, fiber.MethodPost, "/api/work-reports", officerToken, map[string]any{
		"complaint_id":     complaintID,
		"work_start_time":  now.Add(-2 * time.Hour).Format(time.RFC3339),
		"work_end_time":    now.Format(time.RFC3339),
		"work_description": "Penggantian trafo dan pengecekan jaringan",
		"labor_cost":       250000,
	})
	require.Equal(t, http.StatusCreated, status)
	reportID := dataField(t, body)["id"].(string)
	require.Equal(t, "PENDING", dataField(t, body)["review_status"])

	status, body = env.request(t, fiber.MethodPost, "/api/work-reports/"+reportID+"/review", adminToken,
		map[string]any{"review_status": "APPROVED"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "APPROVED", dataField(t, body)["review_status"])

	status, body = env.request(t, fiber.MethodGet, "/api/complaints/"+complaintID, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	complaint := dataField(t, body)["complaint"].(map[string]any)
	require.Equal(t, "RESOLVED", complaint["status"])
	require.NotNil(t, complaint["resolved_at"])
}

func TestWorkReportReviewForbiddenForOfficer(t *testing.T) {
	env := newAPIEnv(t)
	officer, officerToken := env.seedOfficer(t)

	seeded := env.db.AddComplaint(domain.Complaint{
		TicketNumber: ticket.Format(2026, 7),
		Title:        "Meteran error",
		Description:  "Angka meteran tidak bergerak",
		Location:     "Jl. Asia Afrika 8",
		Status:       domain.StatusWorking,
		Priority:     domain.PriorityMedium,
		AssignedTo:   &officer.ID,
	})

	now := time.Now()
	status, body := env.request(t, fiber.MethodPost, "/api/work-reports", officerToken, map[string]any{
		"complaint_id":     seeded.ID,
		"work_start_time":  now.Add(-time.Hour).Format(time.RFC3339),
		"work_end_time":    now.Format(time.RFC3339),
		"work_description": "Kalibrasi ulang meteran",
	})
	require.Equal(t, http.StatusCreated, status)
	reportID := dataField(t, body)["id"].(string)

	status, body = env.request(t, fiber.MethodPost, "/api/work-reports/"+reportID+"/review", officerToken,
		map[string]any{"review_status": "APPROVED"})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))
}

func TestComplaintStatsRoute(t *testing.T) {
	env := newAPIEnv(t)
	_, adminToken := env.seedAdmin(t)

	env.db.AddComplaint(domain.Complaint{
		TicketNumber: ticket.Format(2026, 11),
		Title:        "Listrik padam",
		Description:  "Padam sejak pagi",
		Location:     "Perumahan Citra 3",
		Status:       domain.StatusPending,
		Priority:     domain.PriorityHigh,
	})

	status, body := env.request(t, fiber.MethodGet, "/api/complaints/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	data := dataField(t, body)
	require.EqualValues(t, 1, data["total"])
	require.EqualValues(t, 1, data["pending"])
}
