// Package trend compares the two halves of the weekly forecast and fits
// regression lines through the daily series.
package trend

import (
	"fmt"
	"math"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

const weekDays = 7

type metric struct {
	name     string
	unit     string
	rising   string
	falling  string
	noun     string
	selector func(d models.Daily) []float64
}

var weeklyMetrics = []metric{
	{
		name:     "temperature",
		unit:     "°C",
		rising:   "warmer",
		falling:  "cooler",
		noun:     "Temperatures",
		selector: func(d models.Daily) []float64 { return d.Temperature2mMax },
	},
	{
		name:     "precipitation",
		unit:     "mm",
		rising:   "wetter",
		falling:  "drier",
		noun:     "Precipitation",
		selector: func(d models.Daily) []float64 { return d.PrecipitationSum },
	},
	{
		name:     "wind",
		unit:     "km/h",
		rising:   "windier",
		falling:  "calmer",
		noun:     "Wind speeds",
		selector: func(d models.Daily) []float64 { return d.WindSpeed10mMax },
	},
}

// Analyze runs the weekly comparison, the threshold insights and the three
// regression trends. With fewer than two days of data the comparison and
// insights are left empty, the trends are flat, and ErrInsufficientData is
// returned.
func Analyze(f *models.Forecast) (models.TrendResult, error) {
	if f == nil {
		return models.TrendResult{Trends: Trends(models.Daily{})}, models.ErrNoSnapshot
	}

	result := models.TrendResult{Trends: Trends(f.Daily)}
	if len(f.Daily.Temperature2mMax) < 2 {
		return result, models.ErrInsufficientData
	}

	result.WeeklyComparison = WeeklyComparison(f.Daily)
	result.Insights = Insights(f.Daily)
	return result, nil
}

// WeeklyComparison compares the mean of the first half of the week with the
// mean of the second half for each metric. For a full week the halves are
// days [0,3) and [4,7): day 3 belongs to neither.
func WeeklyComparison(d models.Daily) map[string]models.Comparison {
	out := make(map[string]models.Comparison, len(weeklyMetrics))
	for _, m := range weeklyMetrics {
		values := models.Head(m.selector(d), weekDays)
		if len(values) < 2 {
			continue
		}
		out[m.name] = compare(m, values)
	}
	return out
}

// Halves splits values into the two compared halves. For odd lengths the
// middle value is skipped, which for 7 days gives [0,3) and [4,7).
func Halves(values []float64) (first, second []float64) {
	n := len(values)
	return values[:n/2], values[(n+1)/2:]
}

func compare(m metric, values []float64) models.Comparison {
	first, second := Halves(values)
	firstMean := series.Mean(first)
	secondMean := series.Mean(second)
	change := secondMean - firstMean

	percentage := 0.0
	if firstMean != 0 {
		percentage = math.Abs(change/firstMean) * 100
	}

	direction := m.falling
	if change > 0 {
		direction = m.rising
	}

	return models.Comparison{
		Change:     change,
		Direction:  direction,
		Percentage: percentage,
		Summary: fmt.Sprintf("%s trending %s by %.1f%s (%.0f%%) in the second half of the week",
			m.noun, direction, math.Abs(change), m.unit, percentage),
	}
}
