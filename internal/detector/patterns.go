package detector

import (
	"fmt"
	"math"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

const (
	dayHours     = 24
	twoDayHours  = 48
	weekDays     = 7
	minTrendDays = 4
)

// DetectPatterns runs every pattern detector plus the anomaly checks. Each
// detector reads its own slice of the forecast and contributes at most one
// pattern.
func DetectPatterns(f *models.Forecast) (models.PatternResult, error) {
	if f == nil {
		return models.PatternResult{}, models.ErrNoSnapshot
	}

	var result models.PatternResult
	detectors := []func(*models.Forecast) *models.Pattern{
		precipitationPattern,
		temperaturePattern,
		pressurePattern,
		humidityPattern,
		windPattern,
	}
	for _, detect := range detectors {
		if p := detect(f); p != nil {
			result.Patterns = append(result.Patterns, *p)
		}
	}
	result.Anomalies = DetectAnomalies(f)

	if len(f.Hourly.Temperature2m) == 0 && len(f.Daily.Temperature2mMax) == 0 {
		return result, models.ErrInsufficientData
	}
	return result, nil
}

func precipitationPattern(f *models.Forecast) *models.Pattern {
	wetHours := 0
	for _, p := range models.Head(f.Hourly.PrecipitationProbability, twoDayHours) {
		if p > 60 {
			wetHours++
		}
	}

	switch {
	case wetHours > 12:
		return &models.Pattern{
			Type:        "extended_wet_period",
			Confidence:  minInt(95, 50+2*wetHours),
			Title:       "Extended wet period",
			Description: fmt.Sprintf("Rain likely for %d of the next 48 hours", wetHours),
			Icon:        "cloud-rain",
			Timeframe:   "Next 48 hours",
		}
	case wetHours > 6:
		return &models.Pattern{
			Type:        "intermittent_showers",
			Confidence:  70,
			Title:       "Intermittent showers",
			Description: fmt.Sprintf("Showers likely on and off for %d hours", wetHours),
			Icon:        "cloud-drizzle",
			Timeframe:   "Next 48 hours",
		}
	}
	return nil
}

func temperaturePattern(f *models.Forecast) *models.Pattern {
	highs := models.Head(f.Daily.Temperature2mMax, weekDays)
	if len(highs) < 2 {
		return nil
	}

	increases, decreases := 0, 0
	for i := 1; i < len(highs); i++ {
		switch {
		case highs[i] > highs[i-1]:
			increases++
		case highs[i] < highs[i-1]:
			decreases++
		}
	}
	avgDelta := (highs[len(highs)-1] - highs[0]) / float64(len(highs)-1)

	switch {
	case increases >= minTrendDays:
		return &models.Pattern{
			Type:        "warming_trend",
			Confidence:  minInt(95, 60+5*increases),
			Title:       "Warming trend",
			Description: fmt.Sprintf("Highs rising on %d days, averaging %+.1f°C per day", increases, avgDelta),
			Icon:        "trending-up",
			Timeframe:   "Next 7 days",
		}
	case decreases >= minTrendDays:
		return &models.Pattern{
			Type:        "cooling_trend",
			Confidence:  minInt(95, 60+5*decreases),
			Title:       "Cooling trend",
			Description: fmt.Sprintf("Highs falling on %d days, averaging %+.1f°C per day", decreases, avgDelta),
			Icon:        "trending-down",
			Timeframe:   "Next 7 days",
		}
	}
	return nil
}

func pressurePattern(f *models.Forecast) *models.Pattern {
	if p := f.Current.PressureMsl; p != nil {
		switch {
		case *p > 1020:
			return &models.Pattern{
				Type:        "high_pressure",
				Confidence:  80,
				Title:       "High pressure dominant",
				Description: fmt.Sprintf("Pressure at %.0f hPa favours settled, dry weather", *p),
				Icon:        "sun",
				Timeframe:   "Next 24 hours",
			}
		case *p < 1000:
			return &models.Pattern{
				Type:        "low_pressure",
				Confidence:  80,
				Title:       "Low pressure active",
				Description: fmt.Sprintf("Pressure at %.0f hPa brings unsettled conditions", *p),
				Icon:        "cloud-lightning",
				Timeframe:   "Next 24 hours",
			}
		}
	}

	pressure := f.Hourly.PressureMsl
	if len(pressure) < 2 {
		return nil
	}
	last := len(pressure) - 1
	if last > dayHours {
		last = dayHours
	}
	rate := (pressure[last] - pressure[0]) / float64(last)
	if math.Abs(rate) <= 0.5 {
		return nil
	}

	if rate > 0 {
		return &models.Pattern{
			Type:        "pressure_rising",
			Confidence:  70,
			Title:       "Rapidly rising pressure",
			Description: fmt.Sprintf("Pressure climbing %.1f hPa per hour, clearing likely", rate),
			Icon:        "arrow-up",
			Timeframe:   "Next 24 hours",
		}
	}
	return &models.Pattern{
		Type:        "pressure_falling",
		Confidence:  70,
		Title:       "Rapidly falling pressure",
		Description: fmt.Sprintf("Pressure dropping %.1f hPa per hour, a storm may be approaching", -rate),
		Icon:        "arrow-down",
		Timeframe:   "Next 24 hours",
	}
}

func humidityPattern(f *models.Forecast) *models.Pattern {
	humidity := models.Head(f.Hourly.RelativeHumidity2m, dayHours)
	if len(humidity) == 0 {
		return nil
	}

	avg := series.Mean(humidity)
	switch {
	case avg > 85:
		return &models.Pattern{
			Type:        "persistent_high_humidity",
			Confidence:  75,
			Title:       "Persistent high humidity",
			Description: fmt.Sprintf("Humidity averaging %.0f%%, expect muggy air and fog", avg),
			Icon:        "droplets",
			Timeframe:   "Next 24 hours",
		}
	case avg < 30:
		return &models.Pattern{
			Type:        "very_dry",
			Confidence:  75,
			Title:       "Very dry air",
			Description: fmt.Sprintf("Humidity averaging %.0f%%, stay hydrated", avg),
			Icon:        "sun-dim",
			Timeframe:   "Next 24 hours",
		}
	}
	return nil
}

func windPattern(f *models.Forecast) *models.Pattern {
	gusts := models.Head(f.Hourly.WindGusts10m, dayHours)
	if len(gusts) > 0 {
		if peak := series.Max(gusts); peak > 60 {
			return &models.Pattern{
				Type:        "severe_wind",
				Confidence:  85,
				Title:       "Severe wind gusts",
				Description: fmt.Sprintf("Gusts up to %.0f km/h expected", peak),
				Icon:        "wind",
				Timeframe:   "Next 24 hours",
			}
		}
	}

	speeds := models.Head(f.Hourly.WindSpeed10m, dayHours)
	if len(speeds) > 0 {
		if avg := series.Mean(speeds); avg > 30 {
			return &models.Pattern{
				Type:        "sustained_strong_wind",
				Confidence:  75,
				Title:       "Sustained strong wind",
				Description: fmt.Sprintf("Winds averaging %.0f km/h through the day", avg),
				Icon:        "wind",
				Timeframe:   "Next 24 hours",
			}
		}
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
