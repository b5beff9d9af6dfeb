package trend

import (
	"fmt"
	"math"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

// Trends always returns three fits: daily highs, precipitation probability
// and cloud cover. Cloud cover falls back to precipitation probability when
// the forecast does not carry it.
func Trends(d models.Daily) []models.Trend {
	cloud := d.CloudCoverMean
	if len(cloud) == 0 {
		cloud = d.PrecipitationProbabilityMax
	}

	return []models.Trend{
		fitTrend("temperature", "°C", models.Head(d.Temperature2mMax, weekDays)),
		fitTrend("precipitation_probability", "%", models.Head(d.PrecipitationProbabilityMax, weekDays)),
		fitTrend("cloud_cover", "%", models.Head(cloud, weekDays)),
	}
}

func fitTrend(name, unit string, values []float64) models.Trend {
	fit := series.LinearRegression(values)

	direction := "stable"
	switch {
	case fit.Slope > 0.1:
		direction = "increasing"
	case fit.Slope < -0.1:
		direction = "decreasing"
	}

	strength := "weak"
	switch abs := math.Abs(fit.Slope); {
	case abs > 2:
		strength = "strong"
	case abs > 0.5:
		strength = "moderate"
	}

	description := fmt.Sprintf("%s is %s", name, direction)
	if direction != "stable" {
		description = fmt.Sprintf("%s is %s by %.1f%s per day (%s)", name, direction, math.Abs(fit.Slope), unit, strength)
	}

	return models.Trend{
		Name:        name,
		Slope:       fit.Slope,
		Intercept:   fit.Intercept,
		Direction:   direction,
		Strength:    strength,
		Description: description,
	}
}
