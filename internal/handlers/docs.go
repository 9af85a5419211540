package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPIPath is where the generated document is served.
const OpenAPIPath = "/api/docs/openapi.json"

type object = map[string]interface{}

func queryParam(name, typ, description string) object {
	return object{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      object{"type": typ},
	}
}

func pathID() object {
	return object{
		"name":        "id",
		"in":          "path",
		"description": "Dataset id",
		"required":    true,
		"schema":      object{"type": "string", "format": "uuid"},
	}
}

func required(p object) object {
	p["required"] = true
	return p
}

func getOp(summary, description string, params ...object) object {
	op := object{
		"summary":     summary,
		"description": description,
		"responses": object{
			"200": object{"description": "Successful response", "content": object{"application/json": object{"schema": object{"type": "object"}}}},
			"400": object{"description": "Invalid parameters", "content": object{"application/json": object{"schema": object{"$ref": "#/components/schemas/Error"}}}},
		},
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func pagingParams() []object {
	return []object{
		queryParam("page", "integer", "Page number (default: 1)"),
		queryParam("limit", "integer", "Items per page (default: 100, max: 1000)"),
	}
}

func boundsParams() []object {
	return []object{
		queryParam("t_min", "number", "Chart minimum dry bulb temperature (°C)"),
		queryParam("t_max", "number", "Chart maximum dry bulb temperature (°C)"),
		queryParam("w_min", "number", "Chart minimum humidity ratio (kg/kg)"),
		queryParam("w_max", "number", "Chart maximum humidity ratio (kg/kg)"),
	}
}

func comfortQueryParams() []object {
	return []object{
		queryParam("model", "string", "Parameter preset: ashrae (default) or iso"),
		queryParam("mrt", "number", "Mean radiant temperature (°C)"),
		queryParam("air_speed", "number", "Relative air speed (m/s)"),
		queryParam("met", "number", "Metabolic rate (met)"),
		queryParam("clo", "number", "Clothing insulation (clo)"),
		queryParam("pmv_limit", "number", "Comfort band half width in PMV units"),
		queryParam("wme", "number", "External work (met)"),
	}
}

func with(groups ...[]object) []object {
	var out []object
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// OpenAPISpec returns the OpenAPI 3.0 document for the EPW Insights API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "EPW Insights API",
			"description": "EnergyPlus weather file ingestion, climate statistics, psychrometrics and thermal comfort",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": object{
			"/health":       object{"get": getOp("Health check", "Reports repository health")},
			"/metrics":      object{"get": getOp("Prometheus metrics", "Prometheus metrics in text format")},
			"/api/channels": object{"get": getOp("List channels", "The 29 numeric EPW channels with units")},
			"/api/datasets": object{"get": getOp("List datasets", "Loaded datasets ordered by source name", pagingParams()...)},
			"/api/datasets/{id}": object{
				"get":    getOp("Get dataset", "Dataset summary with header sections", pathID()),
				"delete": getOp("Delete dataset", "Removes a dataset from the repository", pathID()),
			},
			"/api/datasets/{id}/records": object{"get": getOp("Get records", "Hourly records, missing values as null",
				with([]object{
					pathID(),
					queryParam("month", "integer", "Calendar month 1-12"),
					queryParam("start_date", "string", "Inclusive start date (YYYY-MM-DD, station time)"),
					queryParam("end_date", "string", "Exclusive end date (YYYY-MM-DD, station time)"),
				}, pagingParams())...)},
			"/api/datasets/{id}/stats/monthly": object{"get": getOp("Monthly statistics", "Per month mean, min, max and sum per channel plus prevailing wind",
				pathID(),
				queryParam("channels", "string", "Comma separated channel keys (default: all)"),
				queryParam("annual", "boolean", "Append an annual row (default: true)"),
			)},
			"/api/datasets/{id}/stats/daily": object{"get": getOp("Daily statistics", "Per day statistics within a month-day window",
				pathID(),
				queryParam("channels", "string", "Comma separated channel keys (default: all)"),
				queryParam("start", "string", "Inclusive start MM-DD (default: 01-01)"),
				queryParam("end", "string", "Inclusive end MM-DD (default: 12-31)"),
			)},
			"/api/datasets/{id}/psychrometrics/points": object{"get": getOp("Chart points", "Hourly states placed on the psychrometric chart",
				with([]object{pathID(), queryParam("stride", "integer", "Keep every n-th point (default: 1)")}, boundsParams())...)},
			"/api/datasets/{id}/psychrometrics/heatmap": object{"get": getOp("Chart heatmap", "Hour counts binned on a 70x35 grid",
				with([]object{pathID()}, boundsParams())...)},
			"/api/psychrometrics/chart": object{"get": getOp("Chart lines", "Saturation, relative humidity, wet bulb and enthalpy lines", boundsParams()...)},
			"/api/psychrometrics/state": object{"get": getOp("Moist air state", "Full state from dry bulb and either rh or w",
				required(queryParam("tdb", "number", "Dry bulb temperature (°C)")),
				queryParam("rh", "number", "Relative humidity (%)"),
				queryParam("w", "number", "Humidity ratio (kg/kg)"),
			)},
			"/api/psychrometrics/readout": object{"get": getOp("Cursor readout", "State at a chart position, if inside the chart",
				with([]object{
					required(queryParam("t", "number", "Dry bulb temperature (°C)")),
					required(queryParam("w", "number", "Humidity ratio (kg/kg)")),
				}, boundsParams())...)},
			"/api/comfort/bounds": object{"get": getOp("Comfort temperature range", "Dry bulb range inside the PMV limit at a humidity",
				with([]object{required(queryParam("rh", "number", "Relative humidity (%)"))}, comfortQueryParams())...)},
			"/api/comfort/polygon": object{"get": getOp("Comfort polygon", "Comfort zone outline on the chart", comfortQueryParams()...)},
			"/api/comfort/pmv-field": object{"get": getOp("PMV field", "PMV sampled over the chart grid",
				with(comfortQueryParams(), boundsParams())...)},
			"/api/comfort/isopleths": object{"get": getOp("PMV isopleths", "Constant PMV contours",
				with([]object{queryParam("levels", "string", "Comma separated PMV levels (default: -3..3)")}, comfortQueryParams(), boundsParams())...)},
		},
		"components": object{
			"schemas": object{
				"Error": object{
					"type": "object",
					"properties": object{
						"error":      object{"type": "string"},
						"message":    object{"type": "string"},
						"code":       object{"type": "integer"},
						"request_id": object{"type": "string"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
