package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"diarybook/internal/core"
	"diarybook/internal/log"
	"diarybook/internal/middleware/trace"
	"diarybook/internal/storage"
)

// maxBodyBytes bounds request bodies; diary text is at most 20000 characters.
const maxBodyBytes = 1 << 20

// dateOrToday parses a YYYY-MM-DD value, defaulting to today when empty.
func dateOrToday(value string, today core.Date) (core.Date, error) {
	if strings.TrimSpace(value) == "" {
		return today, nil
	}
	return core.ParseDate(value)
}

// parseID parses a positive record id path value.
func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Err: core.ErrInvalidID}
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// writeError maps err onto a status code and JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.DebugContext(ctx, "Request rejected", log.FieldError, err)
		ValidationErrorResponse(ve).Write(w)
	case storage.IsConnection(err):
		logger.ErrorContext(ctx, "Store unavailable",
			log.FieldError, err,
			"error_type", log.ErrorTypeConnection)
		ErrorResponse(http.StatusServiceUnavailable, "store unavailable").
			Header(trace.RequestIDHeader, trace.GetRequestID(ctx)).
			Write(w)
	default:
		logger.ErrorContext(ctx, "Request failed",
			log.FieldError, err,
			"error_type", log.ErrorTypeDatabase)
		InternalServerError("internal error").Write(w)
	}
}
