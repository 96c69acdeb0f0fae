package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rainzhq/rainz/internal/aggregate"
	"github.com/rainzhq/rainz/internal/ensemble"
)

const unavailableMessage = "service temporarily unavailable"

type aggregateRequest struct {
	Lat          *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon          *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	LocationName string   `json:"locationName" validate:"omitempty,max=200"`
}

type ensembleRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleAggregateWeather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req aggregateRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.weather.Aggregate(r.Context(), *req.Lat, *req.Lon, req.LocationName)
	if err != nil {
		if errors.Is(err, aggregate.ErrEmptySourceSet) {
			writeError(w, http.StatusInternalServerError, unavailableMessage, "")
			return
		}
		log.Printf("api: aggregate: %v", err)
		writeError(w, http.StatusInternalServerError, unavailableMessage, "")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEnsembleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req ensembleRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	raw, times, err := s.ensemble.FetchRawHourly(r.Context(), *req.Lat, *req.Lon)
	if err != nil {
		log.Printf("api: ensemble fetch: %v", err)
		writeError(w, http.StatusInternalServerError, unavailableMessage, "")
		return
	}

	forecast, err := ensemble.BuildForecast(raw, times)
	if err != nil {
		if errors.Is(err, ensemble.ErrNoForecastData) {
			writeError(w, http.StatusInternalServerError, unavailableMessage, "")
			return
		}
		log.Printf("api: ensemble build: %v", err)
		writeError(w, http.StatusInternalServerError, unavailableMessage, "")
		return
	}

	writeJSON(w, http.StatusOK, forecast)
}

// handleHistory returns recent aggregation runs for a tracked location.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history not enabled", "")
		return
	}

	locationID, err := strconv.ParseInt(r.URL.Query().Get("location"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input parameters", "location must be a numeric id")
		return
	}

	end := time.Now().UTC()
	start := end.Add(-7 * 24 * time.Hour)
	runs, err := s.store.AggregationRuns(locationID, start, end)
	if err != nil {
		log.Printf("api: history: %v", err)
		writeError(w, http.StatusInternalServerError, unavailableMessage, "")
		return
	}

	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeAndValidate parses the body into req and writes a 400 on any
// schema problem. Returns false when the request was already answered.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input parameters", "body must be valid JSON")
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input parameters", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	f := verrs[0]
	switch f.Tag() {
	case "required":
		return f.Field() + " is required"
	case "gte", "lte":
		return f.Field() + " is out of range"
	case "max":
		return f.Field() + " is too long"
	default:
		return f.Field() + " is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}
