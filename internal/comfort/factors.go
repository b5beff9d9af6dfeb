package comfort

import (
	"math"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

// Factors breaks a sample down into per-factor scores
func Factors(s Sample) map[string]models.ComfortFactor {
	return map[string]models.ComfortFactor{
		"temperature":   factor(TemperatureScore(s.Temp), s.Temp, "21°C"),
		"humidity":      factor(HumidityScore(s.Humidity), s.Humidity, "40-60%"),
		"wind":          factor(WindScore(s.WindSpeed), s.WindSpeed, "≤15 km/h"),
		"uv":            factor(UVScore(s.UVIndex), s.UVIndex, "≤5"),
		"precipitation": factor(PrecipitationScore(s.Precipitation), s.Precipitation, "0 mm"),
		"feelsLike":     factor(FeelsLikeScore(s.Temp, s.FeelsLike), s.FeelsLike, "within 3°C of air temperature"),
	}
}

func factor(score int, value float64, ideal string) models.ComfortFactor {
	return models.ComfortFactor{
		Score:  score,
		Impact: impact(score),
		Value:  value,
		Ideal:  ideal,
	}
}

func impact(score int) string {
	switch {
	case score >= 80:
		return "positive"
	case score >= 50:
		return "neutral"
	}
	return "negative"
}

// TemperatureScore loses 5 points per degree away from 21°C
func TemperatureScore(temp float64) int {
	return clampScore(100 - 5*math.Abs(temp-idealTemperature))
}

// HumidityScore is 100 inside 40-60% and loses 2 points per percent outside it
func HumidityScore(humidity float64) int {
	switch {
	case humidity < 40:
		return clampScore(100 - 2*(40-humidity))
	case humidity > 60:
		return clampScore(100 - 2*(humidity-60))
	}
	return 100
}

// WindScore loses 2 points per km/h above 15
func WindScore(wind float64) int {
	if wind <= 15 {
		return 100
	}
	return clampScore(100 - 2*(wind-15))
}

// UVScore loses 15 points per index step above 5
func UVScore(uv float64) int {
	if uv <= 5 {
		return 100
	}
	return clampScore(100 - 15*(uv-5))
}

// PrecipitationScore loses 20 points per mm
func PrecipitationScore(precip float64) int {
	if precip <= 0 {
		return 100
	}
	return clampScore(100 - 20*precip)
}

// FeelsLikeScore loses 5 points per degree of gap beyond 3°C
func FeelsLikeScore(temp, feelsLike float64) int {
	gap := math.Abs(feelsLike - temp)
	if gap <= 3 {
		return 100
	}
	return clampScore(100 - 5*(gap-3))
}

func clampScore(v float64) int {
	score := series.Round(v)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
