package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pln-care/complaint-service/internal/api/dto"
	"github.com/pln-care/complaint-service/internal/cache"
	"github.com/pln-care/complaint-service/internal/service"
	"github.com/pln-care/complaint-service/pkg/ticket"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// PublicHandler serves the unauthenticated surface: anonymous complaint
// submission, ticket tracking and landing-page stats.
type PublicHandler struct {
	complaints    *service.ComplaintService
	trackingCache cache.TrackingCache
	logger        *zap.Logger
}

// NewPublicHandler constructs handler. The tracking cache may be nil, in
// which case every track request hits the database.
func NewPublicHandler(complaintService *service.ComplaintService, trackingCache cache.TrackingCache, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{complaints: complaintService, trackingCache: trackingCache, logger: logger}
}

// CreateComplaint POST /api/public/complaints.
func (h *PublicHandler) CreateComplaint(c *fiber.Ctx) error {
	var req dto.PublicComplaintCreateRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}

	complaint, err := h.complaints.CreatePublic(c.UserContext(), service.PublicComplaintInput{
		ComplaintCreateInput: createInput(req.ComplaintCreateRequest),
		ReporterName:         req.ReporterName,
		ReporterEmail:        req.ReporterEmail,
		ReporterPhone:        req.ReporterPhone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"ticket_number": complaint.TicketNumber,
		"status":        string(complaint.Status),
		"tracking_url":  "/api/public/complaints/" + complaint.TicketNumber,
	}})
}

// Track GET /api/public/complaints/:ticketNumber.
func (h *PublicHandler) Track(c *fiber.Ctx) error {
	ticketNumber := strings.ToUpper(strings.TrimSpace(c.Params("ticketNumber")))
	if !ticket.Valid(ticketNumber) {
		return apperrors.NewValidationError("invalid ticket number", map[string]any{"ticket_number": ticketNumber})
	}

	if h.trackingCache != nil {
		if payload, err := h.trackingCache.Get(c.UserContext(), ticketNumber); err == nil {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(payload)
		}
	}

	complaint, updates, report, err := h.complaints.Track(c.UserContext(), ticketNumber)
	if err != nil {
		return err
	}
	body, err := json.Marshal(fiber.Map{"data": dto.NewTrackingResponse(complaint, updates, report)})
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if h.trackingCache != nil {
		if err := h.trackingCache.Set(c.UserContext(), ticketNumber, body); err != nil {
			h.logger.Warn("tracking cache write failed",
				zap.String("ticket_number", ticketNumber),
				zap.Error(err))
		}
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// Stats GET /api/public/stats.
func (h *PublicHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.complaints.PublicStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PublicStatsResponse{
		TotalComplaints:    stats.TotalComplaints,
		ResolvedComplaints: stats.ResolvedComplaints,
		ResolutionRate:     stats.ResolutionRate,
	}})
}
