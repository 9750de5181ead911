package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zaptalkhq/zaptalk/internal/inbound"
	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// maxWebhookBody caps a single webhook delivery. Inline media payloads
// are the largest legitimate deliveries.
const maxWebhookBody = 32 << 20

// WAWebhookHandler receives WhatsApp gateway webhook deliveries.
//
// It acknowledges with 200 no matter what happens downstream: gateways
// disable webhooks that keep returning errors, and a disabled webhook
// silently loses every future message for the tenant. Failures are
// logged and diagnosable through the event ring instead.
type WAWebhookHandler struct {
	processor *inbound.Processor
	logger    *slog.Logger
}

func NewWAWebhookHandler(log *slog.Logger, processor *inbound.Processor) *WAWebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WAWebhookHandler{
		processor: processor,
		logger:    log.With(slog.String("handler", "wa_webhook")),
	}
}

func (h *WAWebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/wa/:instance_id", h.Handle)
}

func (h *WAWebhookHandler) Handle(c echo.Context) error {
	instanceID := strings.TrimSpace(c.Param("instance_id"))
	if instanceID == "" {
		return h.ack(c)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("read webhook body failed",
			slog.String("instance_id", instanceID),
			slog.String("error", err.Error()))
		return h.ack(c)
	}

	payload, err := wagateway.ParsePayload(body)
	if err != nil {
		h.logger.Warn("malformed webhook payload",
			slog.String("instance_id", instanceID),
			slog.String("error", err.Error()))
		return h.ack(c)
	}

	if err := h.processor.Handle(c.Request().Context(), instanceID, payload); err != nil {
		h.logger.Error("webhook processing failed",
			slog.String("instance_id", instanceID),
			slog.String("error", err.Error()))
	}
	return h.ack(c)
}

func (h *WAWebhookHandler) ack(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
