package detector

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

// MetricHistory is the read side of the derived metrics store
type MetricHistory interface {
	GetMetrics(location string, metricTypes []string, since time.Time) ([]models.Metric, error)
}

// HistoryChecker flags derived metrics that sit far outside what a location
// has recently reported
type HistoryChecker struct {
	history         MetricHistory
	zScoreThreshold float64 // Standard deviations from mean to flag as unusual
	lookback        time.Duration
	minSamples      int
}

// NewHistoryChecker creates a checker over the last 7 days of history
func NewHistoryChecker(history MetricHistory) *HistoryChecker {
	return &HistoryChecker{
		history:         history,
		zScoreThreshold: 2.0,
		lookback:        7 * 24 * time.Hour,
		minSamples:      3,
	}
}

// Check compares each current value against the stored history for the same
// metric type and returns an anomaly for every outlier
func (hc *HistoryChecker) Check(location string, current map[string]float64, now time.Time) ([]models.Pattern, error) {
	if len(current) == 0 {
		return nil, nil
	}

	metricTypes := make([]string, 0, len(current))
	for k := range current {
		metricTypes = append(metricTypes, k)
	}
	sort.Strings(metricTypes)

	metrics, err := hc.history.GetMetrics(location, metricTypes, now.Add(-hc.lookback))
	if err != nil {
		return nil, fmt.Errorf("failed to get metric history: %w", err)
	}

	byType := make(map[string][]float64)
	for _, m := range metrics {
		byType[m.MetricType] = append(byType[m.MetricType], m.Value)
	}

	var anomalies []models.Pattern
	for _, metricType := range metricTypes {
		values := byType[metricType]
		if len(values) < hc.minSamples {
			log.Printf("Warning: not enough history for %s at %s (%d samples)", metricType, location, len(values))
			continue
		}

		mean := series.Mean(values)
		stdDev := series.StdDev(values)
		if stdDev == 0 {
			continue
		}

		value := current[metricType]
		zScore := CalculateZScore(value, mean, stdDev)
		if math.Abs(zScore) <= hc.zScoreThreshold {
			continue
		}

		direction := "above"
		if zScore < 0 {
			direction = "below"
		}
		anomalies = append(anomalies, models.Pattern{
			Type:        "unusual_" + metricType,
			Confidence:  confidenceFromZScore(zScore),
			Title:       fmt.Sprintf("Unusual %s", metricType),
			Description: fmt.Sprintf("%s of %.1f is %.1f standard deviations %s the 7-day mean of %.1f", metricType, value, math.Abs(zScore), direction, mean),
			Icon:        "activity",
			Timeframe:   "Past 7 days",
		})
	}

	return anomalies, nil
}

// confidenceFromZScore maps |z| onto 50..95
func confidenceFromZScore(zScore float64) int {
	return minInt(95, 50+series.Round(math.Abs(zScore)*10))
}

// CalculateZScore calculates the Z-score for a value given mean and standard deviation
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
