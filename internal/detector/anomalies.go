package detector

import (
	"fmt"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

// DetectAnomalies flags extreme conditions. Every check is independent so
// several anomalies can be returned together.
func DetectAnomalies(f *models.Forecast) []models.Pattern {
	if f == nil {
		return nil
	}

	var anomalies []models.Pattern

	temps := models.Head(f.Hourly.Temperature2m, twoDayHours)
	if len(temps) > 0 {
		if swing := series.Max(temps) - series.Min(temps); swing > 15 {
			anomalies = append(anomalies, models.Pattern{
				Type:        "temperature_volatility",
				Confidence:  75,
				Title:       "Large temperature swings",
				Description: fmt.Sprintf("Temperatures vary by %.1f°C over 48 hours", swing),
				Icon:        "thermometer",
				Timeframe:   "Next 48 hours",
			})
		}
	}

	if uv := f.Daily.UVIndexMax; len(uv) > 0 && uv[0] >= 8 {
		anomalies = append(anomalies, models.Pattern{
			Type:        "high_uv",
			Confidence:  90,
			Title:       "High UV alert",
			Description: fmt.Sprintf("UV index reaching %.1f today, limit midday sun", uv[0]),
			Icon:        "sun",
			Timeframe:   "Today",
		})
	}

	if highs := f.Daily.Temperature2mMax; len(highs) > 0 && highs[0] >= 35 {
		anomalies = append(anomalies, models.Pattern{
			Type:        "heat_wave",
			Confidence:  90,
			Title:       "Heat wave alert",
			Description: fmt.Sprintf("High of %.0f°C today", highs[0]),
			Icon:        "flame",
			Timeframe:   "Today",
		})
	}

	if lows := f.Daily.Temperature2mMin; len(lows) > 0 && lows[0] <= 0 {
		anomalies = append(anomalies, models.Pattern{
			Type:        "freeze",
			Confidence:  90,
			Title:       "Freeze alert",
			Description: fmt.Sprintf("Low of %.0f°C today, protect pipes and plants", lows[0]),
			Icon:        "snowflake",
			Timeframe:   "Today",
		})
	}

	return anomalies
}
