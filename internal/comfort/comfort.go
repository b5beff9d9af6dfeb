// Package comfort turns weather samples into 0-100 comfort scores and picks
// out the comfortable stretches of the hourly forecast.
package comfort

import (
	"math"
	"sort"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

const (
	idealTemperature = 21.0
	windowThreshold  = 70
	minWindowHours   = 2
	maxWindows       = 3

	// HourlyWindow is how many hourly points are scored
	HourlyWindow = 24
)

// Sample is one set of conditions to score
type Sample struct {
	Temp          float64
	Humidity      float64
	WindSpeed     float64
	UVIndex       float64
	Precipitation float64
	FeelsLike     float64
}

// Score returns the comfort score of s. Deductions are capped per factor
// and the total never drops below 0.
func Score(s Sample) int {
	deductions := temperatureDeduction(s.Temp) +
		feelsLikeDeduction(s.Temp, s.FeelsLike) +
		humidityDeduction(s.Humidity) +
		windDeduction(s.WindSpeed) +
		uvDeduction(s.UVIndex) +
		precipitationDeduction(s.Precipitation)

	score := series.Round(100 - deductions)
	if score < 0 {
		return 0
	}
	return score
}

func temperatureDeduction(temp float64) float64 {
	diff := math.Abs(temp - idealTemperature)
	if diff <= 3 {
		return 0
	}
	return math.Min(diff*2, 30)
}

func feelsLikeDeduction(temp, feelsLike float64) float64 {
	gap := math.Abs(feelsLike - temp)
	if gap <= 3 {
		return 0
	}
	return math.Min(gap*1.5, 15)
}

func humidityDeduction(humidity float64) float64 {
	switch {
	case humidity > 70:
		return math.Min((humidity-70)*0.5, 20)
	case humidity < 30:
		return math.Min((30-humidity)*0.5, 20)
	}
	return 0
}

func windDeduction(wind float64) float64 {
	if wind <= 15 {
		return 0
	}
	return math.Min((wind-15)*0.5, 20)
}

func uvDeduction(uv float64) float64 {
	if uv <= 5 {
		return 0
	}
	return math.Min((uv-5)*2, 15)
}

func precipitationDeduction(precip float64) float64 {
	if precip <= 0 {
		return 0
	}
	return math.Min(precip*5, 25)
}

// Analyze scores the current conditions and the first 24 forecast hours.
// A nil forecast yields an empty result and models.ErrNoSnapshot; a forecast
// without hourly temperatures still scores the current sample but reports
// models.ErrInsufficientData.
func Analyze(f *models.Forecast) (models.ComfortResult, error) {
	if f == nil {
		return models.ComfortResult{}, models.ErrNoSnapshot
	}

	current := CurrentSample(f)
	result := models.ComfortResult{
		CurrentComfort: Score(current),
		Factors:        Factors(current),
	}

	hourly := HourlySamples(f)
	if len(hourly) == 0 {
		return result, models.ErrInsufficientData
	}

	result.HourlyComfort = make([]models.HourlyComfort, len(hourly))
	for i, s := range hourly {
		result.HourlyComfort[i] = models.HourlyComfort{
			Hour:        i,
			Time:        models.StringAt(f.Hourly.Time, i),
			Score:       Score(s),
			Temperature: s.Temp,
			FeelsLike:   s.FeelsLike,
		}
	}
	result.OptimalWindows = OptimalWindows(result.HourlyComfort)

	return result, nil
}

// CurrentSample builds a sample from the current group. UV is not part of
// the current reading so the first hourly UV value stands in for it.
func CurrentSample(f *models.Forecast) Sample {
	c := f.Current
	feelsLike := c.Temperature2m
	if c.ApparentTemperature != nil {
		feelsLike = *c.ApparentTemperature
	}
	return Sample{
		Temp:          c.Temperature2m,
		Humidity:      c.RelativeHumidity2m,
		WindSpeed:     c.WindSpeed10m,
		UVIndex:       models.At(f.Hourly.UVIndex, 0),
		Precipitation: c.Precipitation,
		FeelsLike:     feelsLike,
	}
}

// HourlySamples returns one sample per hour for the first HourlyWindow hours
// that carry a temperature.
func HourlySamples(f *models.Forecast) []Sample {
	h := f.Hourly
	n := len(h.Temperature2m)
	if n > HourlyWindow {
		n = HourlyWindow
	}

	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		temp := h.Temperature2m[i]
		feelsLike := temp
		if models.Has(h.ApparentTemperature, i) {
			feelsLike = h.ApparentTemperature[i]
		}
		samples[i] = Sample{
			Temp:          temp,
			Humidity:      models.At(h.RelativeHumidity2m, i),
			WindSpeed:     models.At(h.WindSpeed10m, i),
			UVIndex:       models.At(h.UVIndex, i),
			Precipitation: models.At(h.Precipitation, i),
			FeelsLike:     feelsLike,
		}
	}
	return samples
}

// OptimalWindows finds runs of at least two consecutive hours scoring 70 or
// more. The best three by average score are returned; equal averages keep
// the earlier window first.
func OptimalWindows(hours []models.HourlyComfort) []models.ComfortWindow {
	var windows []models.ComfortWindow

	start := -1
	for i, h := range hours {
		if h.Score >= windowThreshold {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if w, ok := closeWindow(hours, start, i-1); ok {
				windows = append(windows, w)
			}
			start = -1
		}
	}
	if start >= 0 {
		if w, ok := closeWindow(hours, start, len(hours)-1); ok {
			windows = append(windows, w)
		}
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].Score > windows[j].Score
	})
	if len(windows) > maxWindows {
		windows = windows[:maxWindows]
	}
	return windows
}

func closeWindow(hours []models.HourlyComfort, start, end int) (models.ComfortWindow, bool) {
	duration := end - start + 1
	if duration < minWindowHours {
		return models.ComfortWindow{}, false
	}

	total := 0
	for _, h := range hours[start : end+1] {
		total += h.Score
	}
	avg := series.Round(float64(total) / float64(duration))
	startHour := models.HourOfDay(hours[start].Time, hours[start].Hour%24)

	return models.ComfortWindow{
		Start:     hours[start].Hour,
		End:       hours[end].Hour,
		StartTime: hours[start].Time,
		Score:     avg,
		Duration:  duration,
		Activity:  Activity(avg, startHour),
	}, true
}

var activities = [3][4]string{
	// morning (6-9), midday (10-16), evening (17-20), other
	{"Perfect for a morning run", "Ideal for outdoor sports", "Great for an evening walk", "Excellent conditions outdoors"},
	{"Good for jogging", "Good for a picnic", "Nice for outdoor dining", "Pleasant time outside"},
	{"Suitable for a walk", "Fine for errands", "Okay for a stroll", "Acceptable conditions outside"},
}

// Activity suggests what a window is good for from its average score and
// the hour of day it starts.
func Activity(score, hourOfDay int) string {
	var row int
	switch {
	case score >= 90:
		row = 0
	case score >= 80:
		row = 1
	default:
		row = 2
	}

	var col int
	switch {
	case hourOfDay >= 6 && hourOfDay <= 9:
		col = 0
	case hourOfDay >= 10 && hourOfDay <= 16:
		col = 1
	case hourOfDay >= 17 && hourOfDay <= 20:
		col = 2
	default:
		col = 3
	}
	return activities[row][col]
}
