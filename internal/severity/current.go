package severity

import (
	"wxinsight/internal/models"
)

// Current classifies the current conditions of a forecast. Metrics that are
// not present in the snapshot are left out of the map.
func Current(f *models.Forecast) map[string]models.SeverityClassification {
	out := make(map[string]models.SeverityClassification)
	if f == nil {
		return out
	}

	c, h, d := f.Current, f.Hourly, f.Daily
	values := map[string]float64{
		Temperature: c.Temperature2m,
		Humidity:    c.RelativeHumidity2m,
		Wind:        c.WindSpeed10m,
		CloudCover:  c.CloudCover,
	}
	if c.PressureMsl != nil {
		values[Pressure] = *c.PressureMsl
	}
	switch {
	case models.Has(h.UVIndex, 0):
		values[UV] = h.UVIndex[0]
	case models.Has(d.UVIndexMax, 0):
		values[UV] = d.UVIndexMax[0]
	}
	if models.Has(h.PrecipitationProbability, 0) {
		values[PrecipitationProbability] = h.PrecipitationProbability[0]
	}
	if models.Has(h.Visibility, 0) {
		values[Visibility] = h.Visibility[0]
	}

	for metric, v := range values {
		if cls, err := Classify(metric, v); err == nil {
			out[metric] = cls
		}
	}
	return out
}
