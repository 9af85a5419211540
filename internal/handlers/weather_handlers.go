package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"epw-insights/internal/epw"
	"epw-insights/internal/models"
	"epw-insights/internal/repository"
	"epw-insights/internal/services"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

// WeatherHandler handles dataset, record and statistics endpoints
type WeatherHandler struct {
	responder
	weatherService *services.WeatherService
	statsService   *services.StatisticsService
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(
	weatherService *services.WeatherService,
	statsService *services.StatisticsService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *WeatherHandler {
	return &WeatherHandler{
		responder:      responder{logger: logger, metrics: metricsCollector},
		weatherService: weatherService,
		statsService:   statsService,
	}
}

// DatasetDetail is a dataset summary plus its header sections.
type DatasetDetail struct {
	services.DatasetSummary
	Checksum string                 `json:"checksum"`
	Dataset  *models.WeatherDataset `json:"header"`
}

// ListDatasets handles GET /api/datasets
func (h *WeatherHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r.URL.Query())

	datasets, total, err := h.weatherService.ListDatasets(r.Context(), limit, (page-1)*limit)
	if err != nil {
		h.handleError(w, r, "/api/datasets", err)
		return
	}
	h.sendJSON(w, paginated(datasets, total, page, limit), http.StatusOK)
}

// GetDataset handles GET /api/datasets/{id}
func (h *WeatherHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.weatherService.GetDataset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, "/api/datasets/{id}", err)
		return
	}
	h.sendJSON(w, DatasetDetail{
		DatasetSummary: services.Summarize(ds),
		Checksum:       ds.Checksum,
		Dataset:        ds.Dataset,
	}, http.StatusOK)
}

// DeleteDataset handles DELETE /api/datasets/{id}
func (h *WeatherHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.weatherService.DeleteDataset(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.handleError(w, r, "/api/datasets/{id}", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecords handles GET /api/datasets/{id}/records
func (h *WeatherHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/datasets/{id}/records"
	q := r.URL.Query()
	page, limit := pagination(q)

	ds, err := h.weatherService.GetDataset(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	// dates are calendar days at the station
	zone := epw.FixedZone(ds.Dataset.Location.TimeZone)

	filter := repository.RecordFilter{
		DatasetID: ds.ID,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	if q.Get("month") != "" {
		month, err := intParam(q, "month", 0)
		if err == nil && (month < 1 || month > 12) {
			err = invalidParam("month", q.Get("month"), "month must be between 1 and 12")
		}
		if err != nil {
			h.handleError(w, r, endpoint, err)
			return
		}
		filter.Month = &month
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &filter.StartDate},
		{"end_date", &filter.EndDate},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", raw, zone)
		if err != nil {
			h.handleError(w, r, endpoint, invalidParam(p.name, raw, "invalid %s format, expected YYYY-MM-DD", p.name))
			return
		}
		*p.dst = &t
	}

	records, total, err := h.weatherService.GetRecords(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, paginated(records, total, page, limit), http.StatusOK)
}

// GetMonthlyStatistics handles GET /api/datasets/{id}/stats/monthly
func (h *WeatherHandler) GetMonthlyStatistics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	annual := q.Get("annual") != "false"

	rows, err := h.statsService.MonthlyStatistics(r.Context(), mux.Vars(r)["id"], listParam(q, "channels"), annual)
	if err != nil {
		h.handleError(w, r, "/api/datasets/{id}/stats/monthly", err)
		return
	}
	h.sendJSON(w, map[string]interface{}{"data": rows}, http.StatusOK)
}

// GetDailyStatistics handles GET /api/datasets/{id}/stats/daily
func (h *WeatherHandler) GetDailyStatistics(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/datasets/{id}/stats/daily"
	q := r.URL.Query()

	start, end := services.MonthDay{Month: 1, Day: 1}, services.MonthDay{Month: 12, Day: 31}
	var err error
	if raw := q.Get("start"); raw != "" {
		if start, err = services.ParseMonthDay(raw); err != nil {
			h.handleError(w, r, endpoint, err)
			return
		}
	}
	if raw := q.Get("end"); raw != "" {
		if end, err = services.ParseMonthDay(raw); err != nil {
			h.handleError(w, r, endpoint, err)
			return
		}
	}

	rows, err := h.statsService.DailyStatistics(r.Context(), mux.Vars(r)["id"], listParam(q, "channels"), start, end)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, map[string]interface{}{"data": rows}, http.StatusOK)
}

// ListChannels handles GET /api/channels
func (h *WeatherHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	type channel struct {
		Key        string `json:"key"`
		Name       string `json:"name"`
		Unit       string `json:"unit"`
		FieldIndex int    `json:"field_index"`
	}
	out := make([]channel, 0, len(models.Channels))
	for _, c := range models.Channels {
		out = append(out, channel{c.Key, c.Name, c.Unit, c.FieldIndex})
	}
	h.sendJSON(w, map[string]interface{}{"data": out}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *WeatherHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if err := h.weatherService.HealthCheck(ctx); err != nil {
		status["status"] = "unhealthy"
		status["error"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{
		"status": status["status"],
	})
	h.sendJSON(w, status, code)
}

// RegisterRoutes registers all weather API routes
func (h *WeatherHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/channels", h.ListChannels).Methods("GET")
	router.HandleFunc("/api/datasets", h.ListDatasets).Methods("GET")
	router.HandleFunc("/api/datasets/{id}", h.GetDataset).Methods("GET")
	router.HandleFunc("/api/datasets/{id}", h.DeleteDataset).Methods("DELETE")
	router.HandleFunc("/api/datasets/{id}/records", h.GetRecords).Methods("GET")
	router.HandleFunc("/api/datasets/{id}/stats/monthly", h.GetMonthlyStatistics).Methods("GET")
	router.HandleFunc("/api/datasets/{id}/stats/daily", h.GetDailyStatistics).Methods("GET")
}
