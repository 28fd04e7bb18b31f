// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"feed-engine-service/internal/app/service"
	"feed-engine-service/internal/domain"
	"feed-engine-service/internal/transport/httpserver/dto"
	"feed-engine-service/internal/validator"
)

// UserIDHeader carries the authenticated user's id, injected by the
// API gateway in front of this service.
const UserIDHeader = "X-User-ID"

// FeedHandler handles feed-related HTTP requests.
type FeedHandler struct {
	service      *service.FeedService
	validator    *validator.Validator
	defaultLimit int
	logger       *zap.Logger
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(svc *service.FeedService, v *validator.Validator, defaultLimit int, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		service:      svc,
		validator:    v,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// GetFeed handles GET /api/v1/feed
func (h *FeedHandler) GetFeed(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	var req dto.FeedRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	page, err := h.service.GetPage(c.Context(), req.ToPageRequest(userID, h.defaultLimit))
	if err != nil {
		return h.feedError(c, userID, err)
	}

	return c.JSON(dto.FromPage(page))
}

// Refresh handles POST /api/v1/feed/refresh
func (h *FeedHandler) Refresh(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	var req dto.RefreshRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}
	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	if err := h.service.Refresh(c.Context(), userID, req.Category); err != nil {
		h.logger.Error("feed refresh failed",
			zap.String("user_id", string(userID)),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "refresh failed",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// feedError maps domain errors onto HTTP status codes.
func (h *FeedHandler) feedError(c *fiber.Ctx, userID domain.UserID, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidPageSize), errors.Is(err, domain.ErrInvalidCursor):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_PARAMS",
		})
	case errors.Is(err, domain.ErrAllSourcesFailed):
		h.logger.Error("feed composition failed on every source",
			zap.String("user_id", string(userID)),
			zap.Error(err),
		)

		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "feed temporarily unavailable",
			Code:  "SOURCES_UNAVAILABLE",
		})
	default:
		h.logger.Error("feed request failed",
			zap.String("user_id", string(userID)),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "feed request failed",
			Code:  "INTERNAL_ERROR",
		})
	}
}

// requireUserID reads the gateway-injected user id header.
func requireUserID(c *fiber.Ctx) (domain.UserID, bool) {
	id := c.Get(UserIDHeader)
	if id == "" {
		return "", false
	}

	return domain.UserID(id), true
}

func missingUserID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: "missing " + UserIDHeader + " header",
		Code:  "MISSING_USER",
	})
}
