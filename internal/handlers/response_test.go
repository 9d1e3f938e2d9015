package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/echoframe-backend/internal/apierr"
)

func recordResponse(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondServiceError(c, err)
	return w
}

func TestRespondServiceError_QuotaExceededRenders429(t *testing.T) {
	w := recordResponse(t, apierr.QuotaExceeded(10, 10))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	var body struct {
		Error    APIError `json:"error"`
		Limit    int      `json:"limit"`
		Count    int      `json:"count_today"`
		ResetsAt string   `json:"resets_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "quota_exceeded" {
		t.Fatalf("expected quota_exceeded code, got %q", body.Error.Code)
	}
	if body.Limit != 10 || body.Count != 10 {
		t.Fatalf("expected quota metadata, got %+v", body)
	}
	if body.ResetsAt == "" {
		t.Fatalf("expected a reset hint")
	}
}

func TestRespondServiceError_ValidationRenders400(t *testing.T) {
	w := recordResponse(t, apierr.Validation("message is required"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error code, got %q", body.Error.Code)
	}
}

func TestRespondServiceError_UnknownErrorRenders500(t *testing.T) {
	w := recordResponse(t, fmt.Errorf("something broke"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRespondServiceError_WrappedQuotaStillDetected(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", apierr.QuotaExceeded(25, 26))
	w := recordResponse(t, wrapped)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for wrapped quota error, got %d", w.Code)
	}
}
