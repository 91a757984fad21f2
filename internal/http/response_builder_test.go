package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"diarybook/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		JSON(map[string]string{"status": "ok"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.String() != "{\"status\":\"ok\"}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "" {
		t.Errorf("Content-Type = %q, want none", ct)
	}
}

func TestJSONResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Header("Location", "/finance/records?date=2025-01-08").
		Header("X-Empty", "").
		JSON([]int{}).
		Write(w)

	if got := w.Header().Get("Location"); got != "/finance/records?date=2025-01-08" {
		t.Errorf("Location = %q", got)
	}
	if _, ok := w.Header()["X-Empty"]; ok {
		t.Error("empty header value should be skipped")
	}
	if w.Body.String() != "[]\n" {
		t.Errorf("Body = %q, want []", w.Body.String())
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *JSONResponseBuilder
		wantStatus int
		wantError  string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid input",
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Something broke",
		},
		{
			name:       "markup is not escaped into html",
			builder:    ErrorResponse(http.StatusBadRequest, "<b>bold</b>"),
			wantStatus: http.StatusBadRequest,
			wantError:  "<b>bold</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestValidationErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationErrorResponse(&core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Field != "amount" || body.Error != "invalid amount" {
		t.Errorf("body = %+v", body)
	}
}
