package impact

import (
	"math"

	"wxinsight/internal/models"
	"wxinsight/internal/series"
)

const (
	dayHours      = 24
	twoDayHours   = 48
	threeDayHours = 72
	threeDays     = 3
)

// aggregates are the windowed inputs every rule reads. Absent inputs are
// NaN, so no comparison against them can match a tier.
type aggregates struct {
	Precip48      float64 // mm over the next 48h
	RainProb24    float64 // max hourly precipitation probability, next 24h
	MaxGust72     float64
	MaxWind24     float64
	MinTemp72     float64
	MaxTemp24     float64
	MaxTemp72     float64
	MeanTemp72    float64 // mean of daily (max+min)/2 over days 0-2
	AvgTemp24     float64
	MaxFeels24    float64
	MinFeels24    float64
	AvgHumidity24 float64
	AvgCloud24    float64
	MaxUV         float64
}

func aggregate(f *models.Forecast) aggregates {
	h, d := f.Hourly, f.Daily

	feels := h.ApparentTemperature
	if len(feels) == 0 {
		feels = h.Temperature2m
	}

	a := aggregates{
		Precip48:      orNaN(models.Head(h.Precipitation, twoDayHours), series.Sum),
		RainProb24:    orNaN(models.Head(h.PrecipitationProbability, dayHours), series.Max),
		MaxGust72:     orNaN(models.Head(h.WindGusts10m, threeDayHours), series.Max),
		MaxWind24:     orNaN(models.Head(h.WindSpeed10m, dayHours), series.Max),
		MinTemp72:     orNaN(models.Head(h.Temperature2m, threeDayHours), series.Min),
		MaxTemp24:     orNaN(models.Head(h.Temperature2m, dayHours), series.Max),
		MaxTemp72:     orNaN(models.Head(d.Temperature2mMax, threeDays), series.Max),
		MeanTemp72:    meanDailyTemp(d),
		AvgTemp24:     orNaN(models.Head(h.Temperature2m, dayHours), series.Mean),
		MaxFeels24:    orNaN(models.Head(feels, dayHours), series.Max),
		MinFeels24:    orNaN(models.Head(feels, dayHours), series.Min),
		AvgHumidity24: orNaN(models.Head(h.RelativeHumidity2m, dayHours), series.Mean),
		AvgCloud24:    orNaN(models.Head(h.CloudCover, dayHours), series.Mean),
		MaxUV:         orNaN(models.Head(d.UVIndexMax, 1), series.Max),
	}

	// Fall back to daily aggregates when the hourly series is missing
	if math.IsNaN(a.Precip48) {
		a.Precip48 = orNaN(models.Head(d.PrecipitationSum, 2), series.Sum)
	}
	if math.IsNaN(a.RainProb24) {
		a.RainProb24 = orNaN(models.Head(d.PrecipitationProbabilityMax, 1), series.Max)
	}
	if math.IsNaN(a.MaxGust72) {
		a.MaxGust72 = orNaN(models.Head(d.WindGusts10mMax, threeDays), series.Max)
	}
	if math.IsNaN(a.MaxWind24) {
		a.MaxWind24 = orNaN(models.Head(d.WindSpeed10mMax, 1), series.Max)
	}
	if math.IsNaN(a.MinTemp72) {
		a.MinTemp72 = orNaN(models.Head(d.Temperature2mMin, threeDays), series.Min)
	}
	if math.IsNaN(a.MaxTemp24) {
		a.MaxTemp24 = orNaN(models.Head(d.Temperature2mMax, 1), series.Max)
	}
	if math.IsNaN(a.MaxTemp72) {
		a.MaxTemp72 = orNaN(models.Head(h.Temperature2m, threeDayHours), series.Max)
	}
	if math.IsNaN(a.MaxUV) {
		a.MaxUV = orNaN(models.Head(h.UVIndex, dayHours), series.Max)
	}
	return a
}

// empty reports whether no input series was present at all
func (a aggregates) empty() bool {
	for _, v := range []float64{
		a.Precip48, a.RainProb24, a.MaxGust72, a.MaxWind24, a.MinTemp72, a.MaxTemp24, a.MaxTemp72,
		a.MeanTemp72, a.AvgTemp24, a.MaxFeels24, a.MinFeels24, a.AvgHumidity24, a.AvgCloud24, a.MaxUV,
	} {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

func orNaN(xs []float64, fn func([]float64) float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return fn(xs)
}

func meanDailyTemp(d models.Daily) float64 {
	n := len(models.Head(d.Temperature2mMax, threeDays))
	if m := len(models.Head(d.Temperature2mMin, threeDays)); m < n {
		n = m
	}
	if n == 0 {
		return math.NaN()
	}
	means := make([]float64, n)
	for i := range means {
		means[i] = (d.Temperature2mMax[i] + d.Temperature2mMin[i]) / 2
	}
	return series.Mean(means)
}
