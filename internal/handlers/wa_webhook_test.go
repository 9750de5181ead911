package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zaptalkhq/zaptalk/internal/connection"
	"github.com/zaptalkhq/zaptalk/internal/inbound"
	"github.com/zaptalkhq/zaptalk/internal/media"
)

type emptyConnections struct{}

func (emptyConnections) GetByInstanceID(context.Context, string) (connection.Connection, error) {
	return connection.Connection{}, connection.ErrNotFound
}

func timeoutContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func newWebhookHandler(t *testing.T) *WAWebhookHandler {
	t.Helper()
	pool := media.NewWorkerPool(nil, 1, 4)
	t.Cleanup(func() {
		ctx, cancel := timeoutContext(time.Second)
		defer cancel()
		pool.Shutdown(ctx)
	})
	// A processor with no known connections: every event is a logged
	// no-op, which is all the transport-level tests need.
	processor := inbound.NewProcessor(
		nil,
		emptyConnections{},
		nil,
		nil,
		media.NewCache(nil, nil, nil, 0),
		pool,
		inbound.NewRing(4),
		time.Second,
	)
	return NewWAWebhookHandler(nil, processor)
}

func postWebhook(t *testing.T, h *WAWebhookHandler, instanceID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/wa/"+instanceID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/webhooks/wa/:instance_id")
	c.SetParamNames("instance_id")
	c.SetParamValues(instanceID)
	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	return rec
}

func TestWebhookAcksValidEvent(t *testing.T) {
	t.Parallel()

	h := newWebhookHandler(t)
	rec := postWebhook(t, h, "inst1", `{"event":"onmessage","messageId":"WA1","from":"5511999990000@c.us","body":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestWebhookAcksMalformedJSON(t *testing.T) {
	t.Parallel()

	h := newWebhookHandler(t)
	rec := postWebhook(t, h, "inst1", `{not json`)
	if rec.Code != http.StatusOK {
		t.Errorf("malformed payload status = %d, want 200", rec.Code)
	}
}

func TestWebhookAcksEmptyBody(t *testing.T) {
	t.Parallel()

	h := newWebhookHandler(t)
	rec := postWebhook(t, h, "inst1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("empty body status = %d, want 200", rec.Code)
	}
}

func TestWebhookAcksMissingInstance(t *testing.T) {
	t.Parallel()

	h := newWebhookHandler(t)
	rec := postWebhook(t, h, "", `{"event":"onmessage"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("missing instance status = %d, want 200", rec.Code)
	}
}
