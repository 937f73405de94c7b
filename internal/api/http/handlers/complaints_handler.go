package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pln-care/complaint-service/internal/api/dto"
	"github.com/pln-care/complaint-service/internal/auth"
	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/service"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// ComplaintsHandler manages internal complaint endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaintService}
}

// Create POST /api/complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ComplaintCreateRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	complaint, err := h.complaints.CreateInternal(c.UserContext(), principal.User, createInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// List GET /api/complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseComplaintQuery(c)
	complaints, err := h.complaints.List(c.UserContext(), principal.User, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponses(complaints)})
}

// Get GET /api/complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	complaint, updates, err := h.complaints.Get(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"complaint": dto.NewComplaintResponse(complaint),
		"updates":   dto.NewComplaintUpdateResponses(updates),
	}})
}

// Update PUT /api/complaints/:id.
func (h *ComplaintsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ComplaintUpdateRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	input := service.AdminComplaintUpdate{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		AssignedTo:  req.AssignedTo,
	}
	if req.Priority != nil {
		priority := domain.ComplaintPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.Status != nil {
		status := domain.ComplaintStatus(*req.Status)
		input.Status = &status
	}
	complaint, err := h.complaints.AdminUpdate(c.UserContext(), principal.User, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// Delete DELETE /api/complaints/:id.
func (h *ComplaintsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.complaints.Delete(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// Assign POST /api/complaints/:id/assign.
func (h *ComplaintsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ComplaintAssignRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	complaint, err := h.complaints.Assign(c.UserContext(), principal.User, c.Params("id"), req.OfficerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// UpdateStatus PUT /api/complaints/:id/status.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.StatusUpdateRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	complaint, err := h.complaints.UpdateStatus(c.UserContext(), principal.User, c.Params("id"), domain.ComplaintStatus(req.Status), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// AddUpdate POST /api/complaints/:id/updates.
func (h *ComplaintsHandler) AddUpdate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ComplaintUpdateCreateRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	complaint, err := h.complaints.AddUpdate(c.UserContext(), principal.User, c.Params("id"), req.Message, domain.ComplaintStatus(req.Status))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

// Stats GET /api/complaints/stats.
func (h *ComplaintsHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.complaints.Stats(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ComplaintStatsResponse{
		Total:          stats.Total,
		Pending:        stats.Pending,
		InProgress:     stats.InProgress,
		Resolved:       stats.Resolved,
		MyAssignedTask: stats.MyAssignedTask,
	}})
}

// StatsOverview GET /api/complaints/stats/overview.
func (h *ComplaintsHandler) StatsOverview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.complaints.StatsOverview(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OverviewStatsResponse{
		Total:         stats.Total,
		Pending:       stats.Pending,
		InProgress:    stats.InProgress,
		Resolved:      stats.Resolved,
		TotalUsers:    stats.TotalUsers,
		TotalOfficers: stats.TotalOfficers,
	}})
}

func createInput(req dto.ComplaintCreateRequest) service.ComplaintCreateInput {
	return service.ComplaintCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Priority:    domain.ComplaintPriority(req.Priority),
		Images:      req.Images,
	}
}

func parseComplaintQuery(c *fiber.Ctx) service.ComplaintListFilter {
	filter := service.ComplaintListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.ComplaintStatus(statusStr)
		filter.Status = &status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.ComplaintPriority(priorityStr)
		filter.Priority = &priority
	}
	if assignedTo := c.Query("assigned_to"); assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	return filter
}
