package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}

	if name := parser.Get("name"); name != "test" {
		t.Errorf("Get('name') = %q, want 'test'", name)
	}

	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_JSONNumberKeepsDigits(t *testing.T) {
	body := `{"amount": 12345678901234567890.123456789, "count": 7}`
	req := httptest.NewRequest(http.MethodPost, "/finance/records", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if amount := parser.Get("amount"); amount != "12345678901234567890.123456789" {
		t.Errorf("Get('amount') = %q, want every digit kept", amount)
	}
	if count := parser.Get("count"); count != "7" {
		t.Errorf("Get('count') = %q, want '7'", count)
	}
}

func TestRequestBodyParser_TrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(`{"text": "a"} {"text": "b"}`))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Error("Expected error for data after the JSON object")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if id := parser.Get("id"); id != "456" {
		t.Errorf("Get('id') = %q, want '456'", id)
	}

	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	err := parser.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name": `))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("Parse() expected error for truncated JSON")
	}
	if err := parser.Parse(); err == nil {
		t.Fatal("second Parse() should return the same error")
	}
}

func TestRequestBodyParser_TextKeepsNewlines(t *testing.T) {
	body := `{"text": "  first line\nsecond\u0007 line  ", "category": " work\u0000 "}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := parser.GetText("text"); got != "first line\nsecond\a line" {
		t.Errorf("GetText('text') = %q", got)
	}
	if got := parser.Get("category"); got != "work" {
		t.Errorf("Get('category') = %q, want 'work'", got)
	}
	if got := parser.Get("missing"); got != "" {
		t.Errorf("Get('missing') = %q, want empty string", got)
	}
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{"abc", "abc"},
		{float64(12), "12"},
		{12.34, "12.34"},
		{true, "true"},
		{nil, ""},
		{[]interface{}{"x"}, ""},
	}
	for _, tt := range tests {
		if got := stringValue(tt.in); got != tt.want {
			t.Errorf("stringValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
