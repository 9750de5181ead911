package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/zaptalkhq/zaptalk/internal/inbound"
	"github.com/zaptalkhq/zaptalk/internal/media"
)

// adminToken mimics what the JWT middleware leaves in the context after
// verifying a request.
func adminToken(userID string) *jwt.Token {
	return &jwt.Token{Claims: jwt.MapClaims{"sub": userID}, Valid: true}
}

func TestEventsListsRingNewestFirst(t *testing.T) {
	t.Parallel()

	ring := inbound.NewRing(4)
	pool := media.NewWorkerPool(nil, 1, 4)
	t.Cleanup(func() {
		ctx, cancel := timeoutContext(time.Second)
		defer cancel()
		pool.Shutdown(ctx)
	})
	processor := inbound.NewProcessor(nil, emptyConnections{}, nil, nil,
		media.NewCache(nil, nil, nil, 0), pool, ring, time.Second)
	h := NewWAEventsHandler(nil, processor)

	ring.Add("inst1", inbound.Event{MessageID: "m1"})
	ring.Add("inst1", inbound.Event{MessageID: "m2"})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/wa/inst1/events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/admin/wa/:instance_id/events")
	c.SetParamNames("instance_id")
	c.SetParamValues("inst1")
	c.Set("user", adminToken("ops"))

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "m2") || !strings.Contains(body, "m1") {
		t.Errorf("body missing events: %s", body)
	}
	if strings.Index(body, "m2") > strings.Index(body, "m1") {
		t.Error("events not newest first")
	}
}

func TestEventsRequiresInstanceID(t *testing.T) {
	t.Parallel()

	h := NewWAEventsHandler(nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/wa//events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/admin/wa/:instance_id/events")
	c.SetParamNames("instance_id")
	c.SetParamValues("")
	c.Set("user", adminToken("ops"))

	err := h.List(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("List = %v, want 400", err)
	}
}

func TestEventsRequiresAuthenticatedUser(t *testing.T) {
	t.Parallel()

	h := NewWAEventsHandler(nil, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/wa/inst1/events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/admin/wa/:instance_id/events")
	c.SetParamNames("instance_id")
	c.SetParamValues("inst1")

	err := h.List(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("List = %v, want 401", err)
	}
}
