package severity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"wxinsight/internal/models"
)

var (
	// ErrUnknownMetric is returned for a metric without a ladder
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrInvalidValue is returned for NaN input
	ErrInvalidValue = errors.New("invalid value")
)

// Metric names
const (
	Temperature              = "temperature"
	Humidity                 = "humidity"
	Wind                     = "wind"
	UV                       = "uv"
	PrecipitationProbability = "precipitation_probability"
	Visibility               = "visibility"
	Pressure                 = "pressure"
	CloudCover               = "cloud_cover"
)

// step is one rung of a ladder; a value matches when value >= threshold
type step struct {
	threshold float64
	color     string
	label     string
	severity  string
}

var negInf = math.Inf(-1)

// ladders are ordered highest threshold first and end with -Inf so every
// finite value matches
var ladders = map[string][]step{
	// °C
	Temperature: {
		{40, "#8B0000", "Extreme heat", "critical"},
		{35, "#FF0000", "Very hot", "high"},
		{30, "#FF6600", "Hot", "moderate"},
		{25, "#FFA500", "Warm", "low"},
		{15, "#32CD32", "Pleasant", "low"},
		{5, "#1E90FF", "Cool", "low"},
		{0, "#4169E1", "Cold", "moderate"},
		{-10, "#0000CD", "Very cold", "high"},
		{negInf, "#00008B", "Extreme cold", "critical"},
	},
	// %
	Humidity: {
		{80, "#0000FF", "Very humid", "high"},
		{60, "#4169E1", "Humid", "moderate"},
		{30, "#32CD32", "Comfortable", "low"},
		{20, "#FFA500", "Dry", "moderate"},
		{negInf, "#FF6600", "Very dry", "high"},
	},
	// km/h, Beaufort 10 / 8 / 6 / 4
	Wind: {
		{89, "#8B0000", "Storm", "critical"},
		{62, "#FF0000", "Gale", "high"},
		{39, "#FF6600", "Strong", "moderate"},
		{20, "#FFD700", "Breezy", "low"},
		{negInf, "#32CD32", "Calm", "low"},
	},
	// WHO UV index colours
	UV: {
		{11, "#6B49C8", "Extreme", "critical"},
		{8, "#D8001D", "Very high", "high"},
		{6, "#F85900", "High", "moderate"},
		{3, "#F7E400", "Moderate", "low"},
		{negInf, "#289500", "Low", "low"},
	},
	// %
	PrecipitationProbability: {
		{80, "#00008B", "Very likely", "high"},
		{60, "#0000FF", "Likely", "moderate"},
		{30, "#4169E1", "Possible", "low"},
		{negInf, "#87CEEB", "Unlikely", "low"},
	},
	// metres
	Visibility: {
		{10000, "#32CD32", "Excellent", "low"},
		{5000, "#9ACD32", "Good", "low"},
		{2000, "#FFD700", "Moderate", "moderate"},
		{1000, "#FFA500", "Poor", "high"},
		{negInf, "#FF0000", "Very poor", "critical"},
	},
	// hPa
	Pressure: {
		{1030, "#00008B", "Very high", "low"},
		{1020, "#4169E1", "High", "low"},
		{1000, "#32CD32", "Normal", "low"},
		{980, "#FFA500", "Low", "moderate"},
		{960, "#FF6600", "Very low", "high"},
		{negInf, "#FF0000", "Extremely low", "critical"},
	},
	// %, okta boundaries
	CloudCover: {
		{87.5, "#696969", "Overcast", "low"},
		{62.5, "#A9A9A9", "Mostly cloudy", "low"},
		{37.5, "#D3D3D3", "Partly cloudy", "low"},
		{12.5, "#87CEEB", "Mostly clear", "low"},
		{negInf, "#FFD700", "Clear", "low"},
	},
}

// Classify returns the colour, label and severity tier for a metric value
func Classify(metric string, value float64) (models.SeverityClassification, error) {
	ladder, ok := ladders[metric]
	if !ok {
		return models.SeverityClassification{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	if math.IsNaN(value) {
		return models.SeverityClassification{}, fmt.Errorf("%w: %s is NaN", ErrInvalidValue, metric)
	}

	for _, s := range ladder {
		if value >= s.threshold {
			return models.SeverityClassification{Color: s.color, Label: s.label, Severity: s.severity}, nil
		}
	}
	last := ladder[len(ladder)-1]
	return models.SeverityClassification{Color: last.color, Label: last.label, Severity: last.severity}, nil
}

// Metrics lists the metrics Classify understands, sorted
func Metrics() []string {
	names := make([]string, 0, len(ladders))
	for name := range ladders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
