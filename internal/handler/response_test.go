package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"sigmine/internal/apperr"
)

func performFail(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Fail(c, err)
	return rec
}

func TestFailMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest},
		{"auth", apperr.Auth("key required"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("bad key"), http.StatusForbidden},
		{"not found", apperr.NotFound("missing"), http.StatusNotFound},
		{"conflict", apperr.Conflict("taken"), http.StatusConflict},
		{"rate limit", apperr.RateLimit("slow down"), http.StatusTooManyRequests},
		{"upstream", apperr.Upstream(errors.New("boom"), "fetch failed"), http.StatusBadGateway},
		{"unavailable", apperr.Unavailable("not configured"), http.StatusServiceUnavailable},
		{"unknown", errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performFail(t, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestCreatedWritesStatusCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	Created(c, gin.H{"agent_id": "a1"}, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var body apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Code != 0 || body.Message != "ok" {
		t.Fatalf("body = %+v", body)
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	rec := performFail(t, errors.New("pq: connection refused"))

	var body apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Message != "internal error" {
		t.Fatalf("message = %q, internals leaked", body.Message)
	}
}

func TestFailCarriesMeta(t *testing.T) {
	err := apperr.RateLimit("rate limit exceeded").WithMeta(map[string]any{
		"reset_in_seconds": 120,
	})
	rec := performFail(t, err)

	var body apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Meta["reset_in_seconds"] == nil {
		t.Fatalf("meta missing: %+v", body.Meta)
	}
}
