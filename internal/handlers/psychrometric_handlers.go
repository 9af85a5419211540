package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"epw-insights/internal/services"
	"epw-insights/pkg/comfort"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

// PsychrometricHandler serves chart data, state lookups and comfort overlays.
type PsychrometricHandler struct {
	responder
	service *services.PsychrometricService
}

// NewPsychrometricHandler creates a new psychrometric handler
func NewPsychrometricHandler(service *services.PsychrometricService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PsychrometricHandler {
	return &PsychrometricHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		service:   service,
	}
}

// comfortParams resolves the model preset then applies mrt, air_speed, met,
// clo, pmv_limit and wme overrides.
func (h *PsychrometricHandler) comfortParams(q url.Values) (string, comfort.Parameters, error) {
	model := q.Get("model")
	if model == "" {
		model = services.ModelASHRAE
	}
	p, err := h.service.Preset(model)
	if err != nil {
		return "", p, err
	}
	for _, o := range []struct {
		name string
		dst  *float64
	}{
		{"mrt", &p.MeanRadiantTemperature},
		{"air_speed", &p.AirSpeed},
		{"met", &p.MetabolicRate},
		{"clo", &p.Clothing},
		{"pmv_limit", &p.PMVLimit},
		{"wme", &p.ExternalWork},
	} {
		v, err := floatParam(q, o.name)
		if err != nil {
			return "", p, err
		}
		if v != nil {
			*o.dst = *v
		}
	}
	return model, p, nil
}

// GetPoints handles GET /api/datasets/{id}/psychrometrics/points
func (h *PsychrometricHandler) GetPoints(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/datasets/{id}/psychrometrics/points"
	q := r.URL.Query()

	b, err := chartBounds(q, h.service.DefaultBounds())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	stride, err := intParam(q, "stride", 1)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	data, err := h.service.Points(r.Context(), mux.Vars(r)["id"], b, stride)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, data, http.StatusOK)
}

// GetHeatmap handles GET /api/datasets/{id}/psychrometrics/heatmap
func (h *PsychrometricHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/datasets/{id}/psychrometrics/heatmap"

	b, err := chartBounds(r.URL.Query(), h.service.DefaultBounds())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	data, err := h.service.Heatmap(r.Context(), mux.Vars(r)["id"], b)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, data, http.StatusOK)
}

// GetChart handles GET /api/psychrometrics/chart
func (h *PsychrometricHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/psychrometrics/chart"

	b, err := chartBounds(r.URL.Query(), h.service.DefaultBounds())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	lines, err := h.service.ChartLines(b)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, map[string]interface{}{"bounds": b, "lines": lines}, http.StatusOK)
}

// GetState handles GET /api/psychrometrics/state
func (h *PsychrometricHandler) GetState(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/psychrometrics/state"
	q := r.URL.Query()

	tdb, err := requiredFloat(q, "tdb")
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	rh, err := floatParam(q, "rh")
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	hr, err := floatParam(q, "w")
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	state, err := h.service.State(tdb, rh, hr)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, state, http.StatusOK)
}

// GetReadout handles GET /api/psychrometrics/readout
func (h *PsychrometricHandler) GetReadout(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/psychrometrics/readout"
	q := r.URL.Query()

	b, err := chartBounds(q, h.service.DefaultBounds())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	t, err := requiredFloat(q, "t")
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	hr, err := requiredFloat(q, "w")
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	state, ok := h.service.Readout(b, t, hr)
	if !ok {
		h.sendJSON(w, map[string]interface{}{"inside": false}, http.StatusOK)
		return
	}
	h.sendJSON(w, map[string]interface{}{"inside": true, "state": state}, http.StatusOK)
}

// GetComfortBounds handles GET /api/comfort/bounds
func (h *PsychrometricHandler) GetComfortBounds(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/comfort/bounds"
	q := r.URL.Query()

	model, p, err := h.comfortParams(q)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	rh, err := requiredFloat(q, "rh")
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	b, ok, err := h.service.ComfortBounds(p, rh)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	resp := map[string]interface{}{
		"model":      model,
		"parameters": p,
		"rh":         rh,
		"found":      ok,
	}
	if ok {
		resp["bounds"] = b
	}
	h.sendJSON(w, resp, http.StatusOK)
}

// GetComfortPolygon handles GET /api/comfort/polygon
func (h *PsychrometricHandler) GetComfortPolygon(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/comfort/polygon"

	model, p, err := h.comfortParams(r.URL.Query())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	pts, err := h.service.ComfortPolygon(p)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, map[string]interface{}{"model": model, "parameters": p, "points": pts}, http.StatusOK)
}

// GetPMVField handles GET /api/comfort/pmv-field
func (h *PsychrometricHandler) GetPMVField(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/comfort/pmv-field"
	q := r.URL.Query()

	model, p, err := h.comfortParams(q)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	b, err := chartBounds(q, h.service.DefaultBounds())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	cells, err := h.service.PMVField(p, b)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, map[string]interface{}{"model": model, "parameters": p, "bounds": b, "cells": cells}, http.StatusOK)
}

// GetIsopleths handles GET /api/comfort/isopleths
func (h *PsychrometricHandler) GetIsopleths(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/comfort/isopleths"
	q := r.URL.Query()

	model, p, err := h.comfortParams(q)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	b, err := chartBounds(q, h.service.DefaultBounds())
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	var levels []float64
	for _, raw := range listParam(q, "levels") {
		v, err := floatParam(url.Values{"levels": {raw}}, "levels")
		if err != nil {
			h.handleError(w, r, endpoint, err)
			return
		}
		levels = append(levels, *v)
	}

	contours, err := h.service.Isopleths(p, levels, b)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	h.sendJSON(w, map[string]interface{}{"model": model, "parameters": p, "bounds": b, "contours": contours}, http.StatusOK)
}

// RegisterRoutes registers psychrometric and comfort routes
func (h *PsychrometricHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/datasets/{id}/psychrometrics/points", h.GetPoints).Methods("GET")
	router.HandleFunc("/api/datasets/{id}/psychrometrics/heatmap", h.GetHeatmap).Methods("GET")
	router.HandleFunc("/api/psychrometrics/chart", h.GetChart).Methods("GET")
	router.HandleFunc("/api/psychrometrics/state", h.GetState).Methods("GET")
	router.HandleFunc("/api/psychrometrics/readout", h.GetReadout).Methods("GET")
	router.HandleFunc("/api/comfort/bounds", h.GetComfortBounds).Methods("GET")
	router.HandleFunc("/api/comfort/polygon", h.GetComfortPolygon).Methods("GET")
	router.HandleFunc("/api/comfort/pmv-field", h.GetPMVField).Methods("GET")
	router.HandleFunc("/api/comfort/isopleths", h.GetIsopleths).Methods("GET")
}
