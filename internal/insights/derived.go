package insights

import "wxinsight/internal/series"

// DerivedMetrics flattens the numeric headline values of a report into
// metric_type -> value pairs for storage and history checks
func DerivedMetrics(r *Report) map[string]float64 {
	out := map[string]float64{
		"comfort_current": float64(r.Comfort.CurrentComfort),
		"pattern_count":   float64(len(r.Patterns.Patterns)),
		"anomaly_count":   float64(len(r.Patterns.Anomalies)),
		"impact_count":    float64(len(r.Impacts.Impacts)),
		"event_count":     float64(len(r.Events.Events)),
	}

	if len(r.Comfort.HourlyComfort) > 0 {
		scores := make([]float64, len(r.Comfort.HourlyComfort))
		for i, h := range r.Comfort.HourlyComfort {
			scores[i] = float64(h.Score)
		}
		out["comfort_hourly_mean"] = series.Round1(series.Mean(scores))
	}
	if len(r.Comfort.OptimalWindows) > 0 {
		out["comfort_best_window"] = float64(r.Comfort.OptimalWindows[0].Score)
	}

	for name, c := range r.Trends.WeeklyComparison {
		out["trend_"+name+"_change"] = c.Change
	}
	for _, t := range r.Trends.Trends {
		out["slope_"+t.Name] = t.Slope
	}

	if len(r.Events.Events) > 0 {
		out["event_max_probability"] = float64(r.Events.Events[0].Probability)
	}
	return out
}
