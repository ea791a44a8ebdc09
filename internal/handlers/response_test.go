package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tesseract-hub/accreditation-service/internal/services"
)

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verr := services.NewValidationError()
	verr.Add("company_name", "required")

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"authentication", services.NewAuthenticationError(), http.StatusUnauthorized, "AUTHENTICATION_FAILED"},
		{"authorization", services.NewAuthorizationError("nope"), http.StatusForbidden, "FORBIDDEN"},
		{"validation", verr, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"state", services.NewInvalidStateError("locked"), http.StatusConflict, "INVALID_STATE"},
		{"not found", services.NewNotFoundError("form"), http.StatusNotFound, "NOT_FOUND"},
		{"unknown", http.ErrServerClosed, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body["code"] != tt.code {
				t.Errorf("code = %v, want %s", body["code"], tt.code)
			}
		})
	}
}

func TestRespondError_ValidationFieldsIncluded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verr := services.NewValidationError()
	verr.Add("contact_email", "invalid email address")
	verr.Add("designation", "required")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, verr)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(body.Fields) != 2 {
		t.Errorf("fields = %d, want 2", len(body.Fields))
	}
	if body.Fields["contact_email"] != "invalid email address" {
		t.Errorf("unexpected field message: %v", body.Fields)
	}
}
