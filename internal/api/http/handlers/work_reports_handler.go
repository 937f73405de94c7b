package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pln-care/complaint-service/internal/api/dto"
	"github.com/pln-care/complaint-service/internal/auth"
	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/service"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// WorkReportsHandler manages work report endpoints.
type WorkReportsHandler struct {
	reports *service.WorkReportService
}

// NewWorkReportsHandler constructs handler.
func NewWorkReportsHandler(reportService *service.WorkReportService) *WorkReportsHandler {
	return &WorkReportsHandler{reports: reportService}
}

// Submit POST /api/work-reports.
func (h *WorkReportsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.WorkReportCreateRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	report, err := h.reports.Submit(c.UserContext(), principal.User, req.ComplaintID, reportInput(req.WorkReportRequest))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewWorkReportResponse(report)})
}

// GetByComplaint GET /api/complaints/:id/work-report.
func (h *WorkReportsHandler) GetByComplaint(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.reports.GetByComplaint(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkReportResponse(report)})
}

// List GET /api/work-reports.
func (h *WorkReportsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.WorkReportListFilter{}
	if statusStr := c.Query("review_status"); statusStr != "" {
		status := domain.ReviewStatus(statusStr)
		filter.ReviewStatus = &status
	}
	reports, err := h.reports.List(c.UserContext(), principal.User, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkReportResponses(reports)})
}

// Get GET /api/work-reports/:id.
func (h *WorkReportsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.reports.Get(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkReportResponse(report)})
}

// Update PUT /api/work-reports/:id.
func (h *WorkReportsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.WorkReportRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	report, err := h.reports.Update(c.UserContext(), principal.User, c.Params("id"), reportInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkReportResponse(report)})
}

// Review POST /api/work-reports/:id/review.
func (h *WorkReportsHandler) Review(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.WorkReportReviewRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	report, err := h.reports.Review(c.UserContext(), principal.User, c.Params("id"), service.ReviewInput{
		Outcome:     domain.ReviewStatus(req.ReviewStatus),
		ReviewNotes: req.ReviewNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkReportResponse(report)})
}

func reportInput(req dto.WorkReportRequest) service.WorkReportInput {
	return service.WorkReportInput{
		WorkStartTime:   req.WorkStartTime,
		WorkEndTime:     req.WorkEndTime,
		WorkDescription: req.WorkDescription,
		MaterialsUsed:   req.MaterialsUsed,
		LaborCost:       req.LaborCost,
		MaterialCost:    req.MaterialCost,
		Notes:           req.Notes,
		TechnicianNotes: req.TechnicianNotes,
		BeforePhotos:    req.BeforePhotos,
		AfterPhotos:     req.AfterPhotos,
	}
}
