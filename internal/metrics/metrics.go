package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	// DBQueriesTotal tracks the total number of database queries
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries executed",
		},
		[]string{"query_type", "table", "status"},
	)

	// DBQueryDuration tracks the duration of database queries
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type", "table"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of established connections both in use and idle",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle connections",
		},
	)
)

// Calculator metrics
var (
	// CalculatorRunsTotal counts calculator invocations by outcome
	// (ok, insufficient_data, error)
	CalculatorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wxinsight_calculator_runs_total",
			Help: "Total number of calculator runs by calculator and outcome",
		},
		[]string{"calculator", "outcome"},
	)

	CalculatorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wxinsight_calculator_duration_seconds",
			Help:    "Duration of calculator runs in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
		[]string{"calculator"},
	)

	// EventsDetectedTotal counts detected weather events by type
	EventsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wxinsight_events_detected_total",
			Help: "Total number of weather events detected by type",
		},
		[]string{"event_type"},
	)

	ReportsBuiltTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wxinsight_reports_built_total",
			Help: "Total number of insight reports built",
		},
	)
)

// External call metrics
var (
	ForecastFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wxinsight_forecast_fetches_total",
			Help: "Total number of Open-Meteo forecast requests",
		},
		[]string{"status"},
	)

	ForecastFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wxinsight_forecast_fetch_duration_seconds",
			Help:    "Duration of Open-Meteo forecast requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AICallsTotal counts AI completion calls by status (success, error, circuit_open)
	AICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wxinsight_ai_calls_total",
			Help: "Total number of AI text completion calls",
		},
		[]string{"status"},
	)

	AICallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wxinsight_ai_call_duration_seconds",
			Help:    "Duration of AI text completion calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// HTTP server metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wxinsight_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wxinsight_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

var (
	// AppInfo provides static information about the application
	AppInfo = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wxinsight_app_info",
			Help: "Application information (always 1)",
		},
	)

	// AppStartTime records when the application started
	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wxinsight_app_start_time_seconds",
			Help: "Unix timestamp of when the application started",
		},
	)
)

func init() {
	AppInfo.Set(1)
	AppStartTime.SetToCurrentTime()
}

// RecordDBQuery records a database query execution
func RecordDBQuery(queryType, table string, duration time.Duration, err error) {
	DBQueriesTotal.WithLabelValues(queryType, table, status(err)).Inc()
	DBQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(open, inUse, idle int) {
	DBConnectionsOpen.Set(float64(open))
	DBConnectionsInUse.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
}

// RecordCalculator records one calculator run
func RecordCalculator(calculator, outcome string, duration time.Duration) {
	CalculatorRunsTotal.WithLabelValues(calculator, outcome).Inc()
	CalculatorDuration.WithLabelValues(calculator).Observe(duration.Seconds())
}

// RecordEvent counts a detected weather event
func RecordEvent(eventType string) {
	EventsDetectedTotal.WithLabelValues(eventType).Inc()
}

// RecordForecastFetch records an Open-Meteo request
func RecordForecastFetch(duration time.Duration, err error) {
	ForecastFetchesTotal.WithLabelValues(status(err)).Inc()
	ForecastFetchDuration.Observe(duration.Seconds())
}

// RecordAICall records an AI completion call with an explicit status label
func RecordAICall(callStatus string, duration time.Duration) {
	AICallsTotal.WithLabelValues(callStatus).Inc()
	AICallDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, statusCode(code)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func statusCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}
