package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wxinsight/internal/alerts"
	"wxinsight/internal/detector"
	"wxinsight/internal/impact"
	"wxinsight/internal/insights"
	"wxinsight/internal/metrics"
	"wxinsight/internal/models"
	"wxinsight/internal/narrative"
	"wxinsight/internal/severity"
	"wxinsight/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
	maxBodyBytes      = 4 << 20
)

// ForecastSource fetches a forecast snapshot for a coordinate
type ForecastSource interface {
	GetInsightForecast(ctx context.Context, latitude, longitude float64, days int) (*models.Forecast, error)
	GetCurrentWeather(ctx context.Context, latitude, longitude float64, fields []string) (*models.Forecast, error)
}

// conditionFields are the current readings /conditions classifies
var conditionFields = []string{"temperature_2m", "relative_humidity_2m", "wind_speed_10m", "cloud_cover", "pressure_msl"}

// EventStore returns previously detected events for a location
type EventStore interface {
	GetEvents(location string, limit int) ([]models.StoredEvent, error)
}

// BreakerState reports the state of a circuit breaker
type BreakerState interface {
	State() string
}

// InsightsRequest asks for a report on either an inline forecast or a
// coordinate the server fetches itself
type InsightsRequest struct {
	Location  string           `json:"location" validate:"max=255"`
	DeviceID  string           `json:"device_id" validate:"omitempty,max=128"`
	Latitude  *float64         `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64         `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Days      int              `json:"days" validate:"omitempty,oneof=7 14"`
	Category  string           `json:"category" validate:"omitempty,oneof=transportation health outdoor energy"`
	Forecast  *models.Forecast `json:"forecast"`
}

// ConditionsRequest classifies the live conditions at a coordinate
type ConditionsRequest struct {
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`
}

// AckRequest acknowledges, or with DELETE clears, one event occurrence
type AckRequest struct {
	Location  string `json:"location" validate:"required,max=255"`
	EventType string `json:"event_type" validate:"required,oneof=heatwave cold_snap heavy_rain thunderstorm strong_wind frontal_passage"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

// Deps are the collaborators the server is built from. Only Builder is
// required; routes whose collaborator is nil answer 503.
type Deps struct {
	Builder   *insights.Builder
	Forecasts ForecastSource
	Events    EventStore
	Tracker   *alerts.Tracker
	KV        store.Store
	Narrator  *narrative.Generator
	AI        BreakerState
}

// Server represents the HTTP server
type Server struct {
	deps     Deps
	validate *validator.Validate
	mux      *http.ServeMux
}

// NewServer creates a new HTTP server
func NewServer(deps Deps) *Server {
	if deps.Builder == nil {
		deps.Builder = insights.NewBuilder()
	}
	s := &Server{
		deps:     deps,
		validate: validator.New(),
		mux:      http.NewServeMux(),
	}

	s.handle("/health", s.handleHealth)
	s.handle("/insights", s.handleInsights)
	s.handle("/events", s.handleEvents)
	s.handle("/alerts/ack", s.handleAck)
	s.handle("/classify", s.handleClassify)
	s.handle("/conditions", s.handleConditions)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler exposes the routed, instrumented handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handle(route string, h http.HandlerFunc) {
	s.mux.HandleFunc(route, instrument(route, h))
}

// statusRecorder captures the response code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		metrics.RecordHTTPRequest(route, r.Method, rec.code, time.Since(start))
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// handleHealth returns the server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().String(),
	}
	if s.deps.AI != nil {
		body["ai_circuit"] = s.deps.AI.State()
	}
	writeJSON(w, http.StatusOK, body)
}

// handleInsights builds a report for the posted forecast or coordinate
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req InsightsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	forecast := req.Forecast
	if forecast == nil {
		if req.Latitude == nil || req.Longitude == nil {
			http.Error(w, "Either forecast or latitude and longitude are required", http.StatusBadRequest)
			return
		}
		if s.deps.Forecasts == nil {
			http.Error(w, "Forecast source unavailable", http.StatusServiceUnavailable)
			return
		}
		days := req.Days
		if days == 0 {
			days = 7
		}
		var err error
		forecast, err = s.deps.Forecasts.GetInsightForecast(ctx, *req.Latitude, *req.Longitude, days)
		if err != nil {
			log.Printf("Failed to fetch forecast for %s: %v", req.Location, err)
			http.Error(w, "Failed to fetch forecast: "+err.Error(), http.StatusBadGateway)
			return
		}
	}

	report, err := s.deps.Builder.Build(req.Location, forecast)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, models.ErrMisalignedSeries) || errors.Is(err, models.ErrNoSnapshot) {
			code = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), code)
		return
	}

	s.dropAcknowledged(ctx, report)
	if req.Category != "" {
		report.Impacts.Impacts = impact.ByCategory(report.Impacts.Impacts, req.Category)
	}

	if s.isPremium(ctx, req.DeviceID) && s.deps.Narrator != nil {
		report.Highlights = s.deps.Narrator.Highlights(ctx, report.NarrativeInput())
	}

	writeJSON(w, http.StatusOK, report)
}

// dropAcknowledged removes events the location has already acknowledged.
// Store failures leave the report untouched.
func (s *Server) dropAcknowledged(ctx context.Context, report *insights.Report) {
	if s.deps.Tracker == nil || report.Location == "" {
		return
	}
	pending, err := s.deps.Tracker.Pending(ctx, report.Location, report.Events.Events)
	if err != nil {
		log.Printf("Warning: acknowledgement lookup for %s failed: %v", report.Location, err)
		return
	}
	report.Events.Events = pending
	report.EventSummary = detector.Summary(pending)
}

func (s *Server) isPremium(ctx context.Context, deviceID string) bool {
	if deviceID == "" || s.deps.KV == nil {
		return false
	}
	premium, err := store.IsPremium(ctx, s.deps.KV, deviceID)
	if err != nil {
		log.Printf("Warning: premium lookup for %s failed: %v", deviceID, err)
		return false
	}
	return premium
}

// handleEvents returns stored events for a location
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	location := r.URL.Query().Get("location")
	if err := s.validate.Var(location, "required,max=255"); err != nil {
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}

	limit := defaultEventLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > maxEventLimit {
			http.Error(w, "limit must be between 1 and "+strconv.Itoa(maxEventLimit), http.StatusBadRequest)
			return
		}
		limit = l
	}

	if s.deps.Events == nil {
		http.Error(w, "Event history unavailable", http.StatusServiceUnavailable)
		return
	}

	events, err := s.deps.Events.GetEvents(location, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.StoredEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location": location,
		"count":    len(events),
		"events":   events,
	})
}

// handleAck lists acknowledgements with GET, acknowledges an event with POST
// and clears an acknowledgement with DELETE
func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.listAcks(w, r)
		return
	}
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	if s.deps.Tracker == nil {
		http.Error(w, "Acknowledgements unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	status := "acknowledged"
	var err error
	if r.Method == http.MethodDelete {
		status = "cleared"
		err = s.deps.Tracker.Clear(ctx, req.Location, req.EventType, req.Date)
	} else {
		err = s.deps.Tracker.Acknowledge(ctx, req.Location, req.EventType, req.Date)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"key":    alerts.Key(req.Location, req.EventType, req.Date),
	})
}

func (s *Server) listAcks(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if err := s.validate.Var(location, "required,max=255"); err != nil {
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}
	if s.deps.Tracker == nil {
		http.Error(w, "Acknowledgements unavailable", http.StatusServiceUnavailable)
		return
	}

	acks, err := s.deps.Tracker.Acknowledged(r.Context(), location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"location":         location,
		"acknowledgements": acks,
	})
}

// handleClassify returns the colour and tier for one metric value
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metric := r.URL.Query().Get("metric")
	value, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		http.Error(w, "value must be a number", http.StatusBadRequest)
		return
	}

	c, err := severity.Classify(metric, value)
	if err != nil {
		if errors.Is(err, severity.ErrUnknownMetric) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   err.Error(),
				"metrics": severity.Metrics(),
			})
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"metric":         metric,
		"value":          value,
		"classification": c,
	})
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		http.Error(w, "latitude and longitude must be numbers", http.StatusBadRequest)
		return
	}
	req := ConditionsRequest{Latitude: lat, Longitude: lon}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.deps.Forecasts == nil {
		http.Error(w, "forecast source unavailable", http.StatusServiceUnavailable)
		return
	}

	f, err := s.deps.Forecasts.GetCurrentWeather(r.Context(), req.Latitude, req.Longitude, conditionFields)
	if err != nil {
		log.Printf("Failed to fetch current weather for %.4f,%.4f: %v", req.Latitude, req.Longitude, err)
		http.Error(w, "failed to fetch current weather", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"latitude":        req.Latitude,
		"longitude":       req.Longitude,
		"time":            f.Current.Time,
		"classifications": severity.Current(f),
	})
}
