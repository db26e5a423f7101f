package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/middleware"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/service"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/source"
)

const defaultReportDays = 30

type ChannelHandler struct {
	svc *service.ChannelService
}

func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

type registerRequest struct {
	ExternalID string `json:"externalId"`
}

// Register handles POST /api/channels
func (h *ChannelHandler) Register(c fiber.Ctx) error {
	var req registerRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}

	externalID, errMsg := middleware.ValidateExternalID(req.ExternalID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ch, err := h.svc.Register(c.Context(), externalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChannelExists):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_TRACKED", "Channel is already tracked")
		case errors.Is(err, source.ErrNotFound):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found upstream")
		case errors.Is(err, source.ErrQuotaExceeded):
			return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "QUOTA_EXCEEDED", "Upstream quota exceeded, try again later")
		default:
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register channel")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(ch)
}

// List handles GET /api/channels
func (h *ChannelHandler) List(c fiber.Ctx) error {
	channels, err := h.svc.List(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list channels")
	}
	return c.JSON(fiber.Map{"channels": channels})
}

// Get handles GET /api/channels/:channelId
func (h *ChannelHandler) Get(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Get(c.Context(), channelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch channel")
	}

	return c.JSON(resp)
}

// DailyStats handles GET /api/channels/:channelId/daily?days=30
func (h *ChannelHandler) DailyStats(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	days, _ := strconv.Atoi(c.Query("days"))
	days = middleware.ValidateReportDays(days, defaultReportDays)

	rows, err := h.svc.DailyStats(c.Context(), channelID, days)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch daily stats")
	}

	return c.JSON(fiber.Map{
		"channelId": channelID,
		"days":      days,
		"stats":     rows,
	})
}
