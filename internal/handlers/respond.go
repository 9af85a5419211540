package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"epw-insights/internal/models"
	"epw-insights/internal/repository"
	"epw-insights/pkg/comfort"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
	"epw-insights/pkg/psychro"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// responder carries the shared JSON and error plumbing of the API handlers.
type responder struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// sendJSON sends a JSON response
func (h *responder) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn(context.Background(), "[API_ENCODE_ERROR] Failed to encode response", logging.Fields{
			"error": err.Error(),
		})
	}
}

// sendError sends an error response
func (h *responder) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Code:      statusCode,
		RequestID: w.Header().Get(RequestIDHeader),
	}
	h.sendJSON(w, response, statusCode)
}

// handleError maps service errors onto HTTP statuses. Unexpected errors are
// logged and hidden behind a generic message.
func (h *responder) handleError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var (
		notFound *repository.NotFoundError
		invalid  *models.ValidationError
		param    *comfort.ParameterError
	)
	switch {
	case errors.As(err, &notFound):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, err.Error(), http.StatusNotFound)
	case errors.As(err, &invalid), errors.As(err, &param), isPsychroInputError(err):
		h.metrics.RecordAPIError("bad_request", endpoint)
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
			"method":   r.Method,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "internal server error", http.StatusInternalServerError)
	}
}

func isPsychroInputError(err error) bool {
	return errors.Is(err, psychro.ErrNonFinite) ||
		errors.Is(err, psychro.ErrHumidityOutOfRange) ||
		errors.Is(err, psychro.ErrSupersaturated) ||
		errors.Is(err, psychro.ErrVaporPressure)
}

func invalidParam(name, value, format string, args ...interface{}) error {
	return &models.ValidationError{Field: name, Value: value, Message: fmt.Sprintf(format, args...)}
}

// floatParam reads an optional finite float query parameter.
func floatParam(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, invalidParam(name, raw, "invalid %s %q, expected a finite number", name, raw)
	}
	return &v, nil
}

// requiredFloat reads a mandatory float query parameter.
func requiredFloat(q url.Values, name string) (float64, error) {
	v, err := floatParam(q, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, invalidParam(name, "", "missing required parameter %s", name)
	}
	return *v, nil
}

// intParam reads an optional integer query parameter with a fallback.
func intParam(q url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name, raw, "invalid %s %q, expected an integer", name, raw)
	}
	return v, nil
}

// listParam splits a comma separated query parameter, dropping blanks.
func listParam(q url.Values, name string) []string {
	raw := q.Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// pagination reads page and limit. Out of range values fall back to
// defaults and page is capped at maxPage so (page-1)*limit cannot overflow.
func pagination(q url.Values) (page, limit int) {
	page, limit = 1, defaultPageLimit
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = min(p, maxPage)
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= maxPageLimit {
		limit = l
	}
	return page, limit
}

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
	maxPage          = 1_000_000
)

func paginated(data interface{}, total, page, limit int) PaginatedResponse {
	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// chartBounds overlays t_min, t_max, w_min and w_max query parameters on base.
func chartBounds(q url.Values, base psychro.ChartBounds) (psychro.ChartBounds, error) {
	b := base
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"t_min", &b.TMin},
		{"t_max", &b.TMax},
		{"w_min", &b.WMin},
		{"w_max", &b.WMax},
	} {
		v, err := floatParam(q, f.name)
		if err != nil {
			return base, err
		}
		if v != nil {
			*f.dst = *v
		}
	}
	if !b.Valid() {
		return base, invalidParam("bounds", "", "chart bounds must satisfy -100 <= t_min < t_max <= 100 and 0 <= w_min < w_max <= 0.1")
	}
	return b, nil
}
