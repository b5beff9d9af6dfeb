package trend

import (
	"fmt"
	"math"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

// Insights emits a record for every weekly threshold that is crossed
func Insights(d models.Daily) []models.TrendInsight {
	var insights []models.TrendInsight

	highs := models.Head(d.Temperature2mMax, weekDays)
	lows := models.Head(d.Temperature2mMin, weekDays)

	if len(highs) >= 2 {
		first, second := Halves(highs)
		change := series.Mean(second) - series.Mean(first)
		if math.Abs(change) > 3 {
			title, kind := "Warming trend", "warming"
			if change < 0 {
				title, kind = "Cooling trend", "cooling"
			}
			insights = append(insights, models.TrendInsight{
				Type:        kind,
				Severity:    tier(math.Abs(change), 6),
				Title:       title,
				Description: fmt.Sprintf("Daily highs shift by %.1f°C over the week", change),
				Value:       change,
				Threshold:   3,
			})
		}
	}

	if precip := models.Head(d.PrecipitationSum, weekDays); len(precip) > 0 {
		total := series.Sum(precip)
		switch {
		case total > 10:
			insights = append(insights, models.TrendInsight{
				Type:        "wet_week",
				Severity:    tier(total, 20),
				Title:       "Wet week ahead",
				Description: fmt.Sprintf("%.1f mm of rain expected over 7 days", total),
				Value:       total,
				Threshold:   10,
			})
		case total < 1:
			insights = append(insights, models.TrendInsight{
				Type:        "dry_week",
				Severity:    "low",
				Title:       "Dry week ahead",
				Description: fmt.Sprintf("Only %.1f mm of rain expected over 7 days", total),
				Value:       total,
				Threshold:   1,
			})
		}
	}

	if uv := models.Head(d.UVIndexMax, weekDays); len(uv) > 0 {
		avg := series.Mean(uv)
		if avg > 6 {
			insights = append(insights, models.TrendInsight{
				Type:        "high_uv",
				Severity:    tier(avg, 9),
				Title:       "High UV all week",
				Description: fmt.Sprintf("Average daily UV maximum of %.1f", avg),
				Value:       avg,
				Threshold:   6,
			})
		}
	}

	if wind := models.Head(d.WindSpeed10mMax, weekDays); len(wind) > 0 {
		peak := series.Max(wind)
		if peak > 40 {
			insights = append(insights, models.TrendInsight{
				Type:        "windy",
				Severity:    tier(peak, 60),
				Title:       "Windy spell",
				Description: fmt.Sprintf("Wind speeds peaking at %.0f km/h", peak),
				Value:       peak,
				Threshold:   40,
			})
		}
	}

	if len(highs) > 0 && len(lows) > 0 {
		spread := series.Max(highs) - series.Min(lows)
		if spread > 20 {
			insights = append(insights, models.TrendInsight{
				Type:        "temperature_range",
				Severity:    tier(spread, 30),
				Title:       "Wide temperature range",
				Description: fmt.Sprintf("Temperatures span %.1f°C across the week", spread),
				Value:       spread,
				Threshold:   20,
			})
		}
	}

	if len(highs) >= 2 {
		sd := series.StdDev(highs)
		switch {
		case sd < 2:
			insights = append(insights, models.TrendInsight{
				Type:        "stable",
				Severity:    "low",
				Title:       "Stable temperatures",
				Description: fmt.Sprintf("Daily highs vary by only %.1f°C", sd),
				Value:       sd,
				Threshold:   2,
			})
		case sd > 5:
			insights = append(insights, models.TrendInsight{
				Type:        "unstable",
				Severity:    tier(sd, 7.5),
				Title:       "Changeable temperatures",
				Description: fmt.Sprintf("Daily highs swing with a spread of %.1f°C", sd),
				Value:       sd,
				Threshold:   5,
			})
		}
	}

	return insights
}

// tier is "high" once value passes the upper threshold and "medium" otherwise
func tier(value, high float64) string {
	if value > high {
		return "high"
	}
	return "medium"
}
