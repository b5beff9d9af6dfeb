package models

import "time"

// ComfortResult is the output of the comfort scorer
type ComfortResult struct {
	CurrentComfort int                      `json:"current_comfort"`
	HourlyComfort  []HourlyComfort          `json:"hourly_comfort"`
	OptimalWindows []ComfortWindow          `json:"optimal_windows"`
	Factors        map[string]ComfortFactor `json:"factors"`
}

type HourlyComfort struct {
	Hour        int     `json:"hour"`
	Time        string  `json:"time,omitempty"`
	Score       int     `json:"score"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
}

// ComfortWindow is a run of at least two consecutive comfortable hours.
// Start and End are hour offsets into the hourly series, End inclusive.
type ComfortWindow struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartTime string `json:"start_time,omitempty"`
	Score     int    `json:"score"`
	Duration  int    `json:"duration"`
	Activity  string `json:"activity"`
}

type ComfortFactor struct {
	Score  int     `json:"score"`
	Impact string  `json:"impact"` // "positive", "neutral", "negative"
	Value  float64 `json:"value"`
	Ideal  string  `json:"ideal"`
}

// TrendResult is the output of the trend analyzer
type TrendResult struct {
	WeeklyComparison map[string]Comparison `json:"weekly_comparison"`
	Insights         []TrendInsight        `json:"insights"`
	Trends           []Trend               `json:"trends"`
}

type Comparison struct {
	Change     float64 `json:"change"`
	Direction  string  `json:"direction"`
	Percentage float64 `json:"percentage"`
	Summary    string  `json:"summary"`
}

type TrendInsight struct {
	Type        string  `json:"type"`
	Severity    string  `json:"severity"` // "low", "medium", "high"
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
}

type Trend struct {
	Name        string  `json:"name"`
	Slope       float64 `json:"slope"`
	Intercept   float64 `json:"intercept"`
	Direction   string  `json:"direction"` // "increasing", "decreasing", "stable"
	Strength    string  `json:"strength"`  // "strong", "moderate", "weak"
	Description string  `json:"description"`
}

// PatternResult is the output of the pattern detector
type PatternResult struct {
	Patterns  []Pattern `json:"patterns"`
	Anomalies []Pattern `json:"anomalies"`
}

type Pattern struct {
	Type        string `json:"type"`
	Confidence  int    `json:"confidence"` // 0-100
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Timeframe   string `json:"timeframe"`
}

// ImpactResult is the output of the impact forecaster
type ImpactResult struct {
	Impacts []Impact `json:"impacts"`
}

type Impact struct {
	Category        string   `json:"category"` // "transportation", "health", "outdoor", "energy"
	Type            string   `json:"type"`
	Severity        string   `json:"severity"` // "low", "medium", "high"
	Icon            string   `json:"icon"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
	Timeframe       string   `json:"timeframe"`
	Probability     int      `json:"probability"`
}

// EventResult is the output of the event detector
type EventResult struct {
	Events []Event `json:"events"`
}

type Event struct {
	Type        string             `json:"type"`
	Front       string             `json:"front,omitempty"` // "warm" or "cold" for frontal passages
	Day         int                `json:"day"`
	Date        string             `json:"date"`
	Probability int                `json:"probability"`
	Severity    string             `json:"severity"` // "low", "medium", "high"
	Details     map[string]float64 `json:"details"`
	Description string             `json:"description"`
}

// SeverityClassification is a display colour and tier for a single metric value
type SeverityClassification struct {
	Color    string `json:"color"`
	Label    string `json:"label"`
	Severity string `json:"severity"` // "low", "moderate", "high", "critical"
}

// Location is a named point the collector tracks
type Location struct {
	ID        int64   `json:"id" yaml:"-"`
	Name      string  `json:"name" yaml:"name" validate:"required"`
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Metric represents a single stored derived metric
type Metric struct {
	ID         int64     `json:"id"`
	Location   string    `json:"location"`
	Timestamp  time.Time `json:"timestamp"`
	MetricType string    `json:"metric_type"`
	Value      float64   `json:"value"`
}

// StoredEvent is a detected event as persisted for a location
type StoredEvent struct {
	ID          int64     `json:"id"`
	ReportID    string    `json:"report_id"`
	Location    string    `json:"location"`
	EventDate   string    `json:"event_date"`
	EventType   string    `json:"event_type"`
	Probability int       `json:"probability"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
}
