package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zaptalkhq/zaptalk/internal/auth"
	"github.com/zaptalkhq/zaptalk/internal/inbound"
)

// WAEventsHandler exposes the per-instance diagnostic event ring. It
// registers under /admin so it stays behind JWT, unlike the webhook
// receiver.
type WAEventsHandler struct {
	processor *inbound.Processor
	logger    *slog.Logger
}

func NewWAEventsHandler(log *slog.Logger, processor *inbound.Processor) *WAEventsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WAEventsHandler{
		processor: processor,
		logger:    log.With(slog.String("handler", "wa_events")),
	}
}

func (h *WAEventsHandler) Register(e *echo.Echo) {
	e.GET("/admin/wa/:instance_id/events", h.List)
}

func (h *WAEventsHandler) List(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	instanceID := strings.TrimSpace(c.Param("instance_id"))
	if instanceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "instance_id is required")
	}
	h.logger.Info("event ring read",
		slog.String("user_id", userID),
		slog.String("instance_id", instanceID))
	events := h.processor.Recent(instanceID)
	if events == nil {
		events = []inbound.Event{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"instance_id": instanceID,
		"events":      events,
	})
}
