package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wxinsight/internal/alerts"
	"wxinsight/internal/insights"
	"wxinsight/internal/models"
	"wxinsight/internal/narrative"
	"wxinsight/internal/store"
)

type fakeForecasts struct {
	forecast  *models.Forecast
	err       error
	gotDays   int
	gotFields []string
}

func (f *fakeForecasts) GetInsightForecast(ctx context.Context, lat, long float64, days int) (*models.Forecast, error) {
	f.gotDays = days
	return f.forecast, f.err
}

func (f *fakeForecasts) GetCurrentWeather(ctx context.Context, lat, long float64, fields []string) (*models.Forecast, error) {
	f.gotFields = fields
	return f.forecast, f.err
}

type fakeEvents struct {
	events []models.StoredEvent
	err    error
}

func (f fakeEvents) GetEvents(location string, limit int) ([]models.StoredEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

type fakeCompleter struct {
	reply string
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.reply, nil
}

type fixedState string

func (s fixedState) State() string { return string(s) }

func hotWeek() *models.Forecast {
	f := &models.Forecast{
		Current: models.Current{
			Time:               "2024-07-01T12:00",
			Temperature2m:      42,
			RelativeHumidity2m: 20,
			WindSpeed10m:       5,
		},
		Daily: models.Daily{
			Time:                        []string{"2024-07-01", "2024-07-02", "2024-07-03", "2024-07-04", "2024-07-05", "2024-07-06", "2024-07-07"},
			Temperature2mMax:            []float64{42, 40, 36, 33, 30, 28, 26},
			Temperature2mMin:            []float64{26, 25, 22, 20, 19, 18, 16},
			PrecipitationSum:            []float64{0, 0, 0, 0, 2, 18, 5},
			PrecipitationProbabilityMax: []float64{5, 5, 10, 20, 40, 80, 50},
		},
	}
	for i := 0; i < 48; i++ {
		f.Hourly.Time = append(f.Hourly.Time, fmt.Sprintf("2024-07-%02dT%02d:00", 1+i/24, i%24))
		f.Hourly.Temperature2m = append(f.Hourly.Temperature2m, 35)
		f.Hourly.RelativeHumidity2m = append(f.Hourly.RelativeHumidity2m, 25)
	}
	return f
}

func newTestServer(t *testing.T, deps Deps) (*Server, store.Store) {
	t.Helper()
	kv := store.NewMemoryStore()
	if deps.KV == nil {
		deps.KV = kv
	}
	if deps.Tracker == nil {
		deps.Tracker = alerts.NewTracker(deps.KV, time.Hour)
	}
	return NewServer(deps), deps.KV
}

func do(t *testing.T, s *Server, method, target string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w.Result()
}

func decodeReport(t *testing.T, resp *http.Response) insights.Report {
	t.Helper()
	defer resp.Body.Close()
	var r insights.Report
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return r
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, Deps{AI: fixedState("closed")})

	resp := do(t, s, http.MethodGet, "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("handleHealth() status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("handleHealth() content-type = %v, want application/json", ct)
	}

	var response map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("status in body = %v, want healthy", response["status"])
	}
	if response["time"] == "" {
		t.Error("time should not be empty")
	}
	if response["ai_circuit"] != "closed" {
		t.Errorf("ai_circuit = %v, want closed", response["ai_circuit"])
	}
}

func TestHandleInsights_InlineForecast(t *testing.T) {
	s, _ := newTestServer(t, Deps{})

	resp := do(t, s, http.MethodPost, "/insights", InsightsRequest{Location: "Boston", Forecast: hotWeek()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	r := decodeReport(t, resp)

	if r.Location != "Boston" || r.ID == "" {
		t.Errorf("report identity = %q/%q", r.Location, r.ID)
	}
	if len(r.Events.Events) == 0 || r.Events.Events[0].Type != "heatwave" {
		t.Errorf("expected heatwave first, got %+v", r.Events.Events)
	}
	if r.Classifications["temperature"].Severity != "critical" {
		t.Errorf("temperature classification = %+v", r.Classifications["temperature"])
	}
	if r.Highlights != nil {
		t.Error("non-premium request should not carry highlights")
	}
}

func TestHandleInsights_FetchesForecast(t *testing.T) {
	src := &fakeForecasts{forecast: hotWeek()}
	s, _ := newTestServer(t, Deps{Forecasts: src})

	lat, long := 42.36, -71.06
	resp := do(t, s, http.MethodPost, "/insights", InsightsRequest{Location: "Boston", Latitude: &lat, Longitude: &long})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
	if src.gotDays != 7 {
		t.Errorf("days = %d, want default 7", src.gotDays)
	}
}

func TestHandleInsights_Errors(t *testing.T) {
	lat, long, badLat := 42.36, -71.06, 91.0
	misaligned := hotWeek()
	misaligned.Hourly.RelativeHumidity2m = misaligned.Hourly.RelativeHumidity2m[:10]

	tests := []struct {
		name   string
		method string
		deps   Deps
		body   interface{}
		want   int
	}{
		{"wrong method", http.MethodGet, Deps{}, nil, http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, Deps{}, "invalid json", http.StatusBadRequest},
		{"no forecast or coordinates", http.MethodPost, Deps{}, InsightsRequest{Location: "Boston"}, http.StatusBadRequest},
		{"latitude out of range", http.MethodPost, Deps{}, InsightsRequest{Latitude: &badLat, Longitude: &long}, http.StatusBadRequest},
		{"unsupported days", http.MethodPost, Deps{}, InsightsRequest{Latitude: &lat, Longitude: &long, Days: 3}, http.StatusBadRequest},
		{"no forecast source", http.MethodPost, Deps{}, InsightsRequest{Latitude: &lat, Longitude: &long}, http.StatusServiceUnavailable},
		{
			name:   "upstream failure",
			method: http.MethodPost,
			deps:   Deps{Forecasts: &fakeForecasts{err: errors.New("status 500")}},
			body:   InsightsRequest{Latitude: &lat, Longitude: &long},
			want:   http.StatusBadGateway,
		},
		{"misaligned forecast", http.MethodPost, Deps{}, InsightsRequest{Forecast: misaligned}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.deps)
			resp := do(t, s, tt.method, "/insights", tt.body)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestHandleInsights_DropsAcknowledgedEvents(t *testing.T) {
	s, _ := newTestServer(t, Deps{})

	resp := do(t, s, http.MethodPost, "/alerts/ack", AckRequest{Location: "Boston", EventType: "heatwave", Date: "2024-07-01"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ack status = %d, want 200", resp.StatusCode)
	}

	r := decodeReport(t, do(t, s, http.MethodPost, "/insights", InsightsRequest{Location: "Boston", Forecast: hotWeek()}))
	for _, e := range r.Events.Events {
		if e.Type == "heatwave" && e.Date == "2024-07-01" {
			t.Errorf("acknowledged event still reported: %+v", e)
		}
	}
	if len(r.Events.Events) == 0 {
		t.Error("other events should remain")
	}

	other := decodeReport(t, do(t, s, http.MethodPost, "/insights", InsightsRequest{Location: "Denver", Forecast: hotWeek()}))
	if other.Events.Events[0].Date != "2024-07-01" {
		t.Errorf("acknowledgement leaked to another location: %+v", other.Events.Events[0])
	}
}

func TestHandleInsights_PremiumHighlights(t *testing.T) {
	completer := &fakeCompleter{reply: `Sure: ["Extreme heat today", "Stay hydrated"]`}
	s, kv := newTestServer(t, Deps{Narrator: narrative.NewGenerator(completer, 3)})

	if err := store.SetPremium(context.Background(), kv, "device-1", true); err != nil {
		t.Fatalf("SetPremium() error = %v", err)
	}

	r := decodeReport(t, do(t, s, http.MethodPost, "/insights", InsightsRequest{Location: "Boston", DeviceID: "device-1", Forecast: hotWeek()}))
	if len(r.Highlights) != 2 || r.Highlights[0] != "Extreme heat today" {
		t.Errorf("Highlights = %v", r.Highlights)
	}

	r = decodeReport(t, do(t, s, http.MethodPost, "/insights", InsightsRequest{Location: "Boston", DeviceID: "device-2", Forecast: hotWeek()}))
	if r.Highlights != nil {
		t.Errorf("free device got highlights: %v", r.Highlights)
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
}

func TestHandleEvents(t *testing.T) {
	stored := []models.StoredEvent{
		{ID: 1, Location: "Boston", EventType: "heatwave", EventDate: "2024-07-01", Probability: 90},
		{ID: 2, Location: "Boston", EventType: "heavy_rain", EventDate: "2024-07-06", Probability: 80},
	}

	tests := []struct {
		name      string
		deps      Deps
		target    string
		want      int
		wantCount int
	}{
		{"all events", Deps{Events: fakeEvents{events: stored}}, "/events?location=Boston", http.StatusOK, 2},
		{"limited", Deps{Events: fakeEvents{events: stored}}, "/events?location=Boston&limit=1", http.StatusOK, 1},
		{"missing location", Deps{Events: fakeEvents{}}, "/events", http.StatusBadRequest, 0},
		{"bad limit", Deps{Events: fakeEvents{}}, "/events?location=Boston&limit=0", http.StatusBadRequest, 0},
		{"limit too large", Deps{Events: fakeEvents{}}, "/events?location=Boston&limit=501", http.StatusBadRequest, 0},
		{"no store", Deps{}, "/events?location=Boston", http.StatusServiceUnavailable, 0},
		{"store error", Deps{Events: fakeEvents{err: errors.New("db down")}}, "/events?location=Boston", http.StatusInternalServerError, 0},
		{"empty history", Deps{Events: fakeEvents{}}, "/events?location=Boston", http.StatusOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.deps)
			resp := do(t, s, http.MethodGet, tt.target, nil)
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want != http.StatusOK {
				return
			}
			var body struct {
				Count  int                  `json:"count"`
				Events []models.StoredEvent `json:"events"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Count != tt.wantCount || len(body.Events) != tt.wantCount {
				t.Errorf("count = %d (%d events), want %d", body.Count, len(body.Events), tt.wantCount)
			}
			if body.Events == nil {
				t.Error("events should encode as an empty array")
			}
		})
	}
}

func TestHandleAck(t *testing.T) {
	s, kv := newTestServer(t, Deps{})
	ctx := context.Background()
	tracker := alerts.NewTracker(kv, time.Hour)

	ack := AckRequest{Location: "New York", EventType: "strong_wind", Date: "2024-07-06"}
	resp := do(t, s, http.MethodPost, "/alerts/ack", ack)
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()

	if body["status"] != "acknowledged" || body["key"] != "ack:new_york:strong_wind:2024-07-06" {
		t.Errorf("body = %v", body)
	}
	if ok, _ := tracker.IsAcknowledged(ctx, "New York", "strong_wind", "2024-07-06"); !ok {
		t.Error("event should be acknowledged")
	}

	resp = do(t, s, http.MethodDelete, "/alerts/ack", ack)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("clear status = %d", resp.StatusCode)
	}
	if ok, _ := tracker.IsAcknowledged(ctx, "New York", "strong_wind", "2024-07-06"); ok {
		t.Error("acknowledgement should be cleared")
	}
}

func TestHandleAck_List(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	do(t, s, http.MethodPost, "/alerts/ack", AckRequest{Location: "Boston", EventType: "heatwave", Date: "2024-07-01"}).Body.Close()

	resp := do(t, s, http.MethodGet, "/alerts/ack?location=Boston", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Acknowledgements []alerts.Acknowledgement `json:"acknowledgements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Acknowledgements) != 1 || body.Acknowledgements[0].EventType != "heatwave" {
		t.Errorf("acknowledgements = %+v", body.Acknowledgements)
	}

	missing := do(t, s, http.MethodGet, "/alerts/ack", nil)
	missing.Body.Close()
	if missing.StatusCode != http.StatusBadRequest {
		t.Errorf("missing location status = %d, want 400", missing.StatusCode)
	}
}

func TestHandleInsights_CategoryFilter(t *testing.T) {
	s, _ := newTestServer(t, Deps{})

	r := decodeReport(t, do(t, s, http.MethodPost, "/insights", InsightsRequest{Location: "Boston", Category: "health", Forecast: hotWeek()}))
	if len(r.Impacts.Impacts) == 0 {
		t.Fatal("expected health impacts for a 42°C week")
	}
	for _, i := range r.Impacts.Impacts {
		if i.Category != "health" {
			t.Errorf("impact %s has category %s", i.Type, i.Category)
		}
	}

	resp := do(t, s, http.MethodPost, "/insights", InsightsRequest{Category: "fishing", Forecast: hotWeek()})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown category status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleAck_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   interface{}
		want   int
	}{
		{"wrong method", http.MethodPut, nil, http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing location", http.MethodPost, AckRequest{EventType: "heatwave", Date: "2024-07-01"}, http.StatusBadRequest},
		{"unknown event type", http.MethodPost, AckRequest{Location: "Boston", EventType: "tornado", Date: "2024-07-01"}, http.StatusBadRequest},
		{"bad date", http.MethodPost, AckRequest{Location: "Boston", EventType: "heatwave", Date: "07/01/2024"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Deps{})
			resp := do(t, s, tt.method, "/alerts/ack", tt.body)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestHandleClassify(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		want      int
		wantColor string
	}{
		{"uv extreme", "/classify?metric=uv&value=11", http.StatusOK, "#6B49C8"},
		{"pleasant temperature", "/classify?metric=temperature&value=20", http.StatusOK, "#32CD32"},
		{"unknown metric", "/classify?metric=pollen&value=3", http.StatusBadRequest, ""},
		{"missing value", "/classify?metric=uv", http.StatusBadRequest, ""},
		{"nan value", "/classify?metric=uv&value=NaN", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Deps{})
			resp := do(t, s, http.MethodGet, tt.target, nil)
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.wantColor == "" {
				return
			}
			var body struct {
				Classification models.SeverityClassification `json:"classification"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Classification.Color != tt.wantColor {
				t.Errorf("color = %s, want %s", body.Classification.Color, tt.wantColor)
			}
		})
	}
}

func TestHandleConditions(t *testing.T) {
	pressure := 975.0
	current := &models.Forecast{Current: models.Current{
		Time:               "2024-07-01T12:00",
		Temperature2m:      36,
		RelativeHumidity2m: 40,
		WindSpeed10m:       10,
		PressureMsl:        &pressure,
	}}

	tests := []struct {
		name   string
		target string
		source ForecastSource
		want   int
	}{
		{"classified", "/conditions?latitude=42.36&longitude=-71.06", &fakeForecasts{forecast: current}, http.StatusOK},
		{"latitude out of range", "/conditions?latitude=95&longitude=0", &fakeForecasts{forecast: current}, http.StatusBadRequest},
		{"not a number", "/conditions?latitude=north&longitude=0", &fakeForecasts{forecast: current}, http.StatusBadRequest},
		{"nan coordinate", "/conditions?latitude=NaN&longitude=0", &fakeForecasts{forecast: current}, http.StatusBadRequest},
		{"no source", "/conditions?latitude=1&longitude=1", nil, http.StatusServiceUnavailable},
		{"upstream failure", "/conditions?latitude=1&longitude=1", &fakeForecasts{err: errors.New("status 500")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Deps{Forecasts: tt.source})
			resp := do(t, s, http.MethodGet, tt.target, nil)
			defer resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want != http.StatusOK {
				return
			}
			var body struct {
				Time            string                                   `json:"time"`
				Classifications map[string]models.SeverityClassification `json:"classifications"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Time != "2024-07-01T12:00" {
				t.Errorf("time = %q", body.Time)
			}
			if body.Classifications["temperature"].Label != "Very hot" {
				t.Errorf("temperature = %+v, want Very hot", body.Classifications["temperature"])
			}
			if _, ok := body.Classifications["pressure"]; !ok {
				t.Error("pressure should be classified")
			}
			if len(tt.source.(*fakeForecasts).gotFields) == 0 {
				t.Error("expected current fields to be requested")
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	do(t, s, http.MethodGet, "/health", nil).Body.Close()

	resp := do(t, s, http.MethodGet, "/metrics", nil)
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "wxinsight_http_requests_total") {
		t.Error("metrics output should include HTTP request counter")
	}
}
