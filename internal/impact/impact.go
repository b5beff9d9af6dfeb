package impact

import (
	"wxinsight/internal/models"
)

// Analyze evaluates every rule table against the forecast. Rules are
// independent and each emits at most one impact, in table order.
func Analyze(f *models.Forecast) (models.ImpactResult, error) {
	result := models.ImpactResult{Impacts: []models.Impact{}}
	if f == nil {
		return result, models.ErrNoSnapshot
	}

	a := aggregate(f)
	if a.empty() {
		return result, models.ErrInsufficientData
	}
	for _, r := range rules {
		if impact, ok := r.evaluate(a); ok {
			result.Impacts = append(result.Impacts, impact)
		}
	}
	return result, nil
}

// ByCategory keeps only the impacts of one category
func ByCategory(impacts []models.Impact, category string) []models.Impact {
	out := []models.Impact{}
	for _, i := range impacts {
		if i.Category == category {
			out = append(out, i)
		}
	}
	return out
}

func (r rule) evaluate(a aggregates) (models.Impact, bool) {
	for _, t := range r.tiers {
		if !t.when(a) {
			continue
		}
		recs := make([]string, len(t.recommendations))
		copy(recs, t.recommendations)
		return models.Impact{
			Category:        r.category,
			Type:            r.kind,
			Severity:        t.severity,
			Icon:            r.icon,
			Title:           r.title,
			Description:     t.describe(a),
			Recommendations: recs,
			Timeframe:       r.timeframe,
			Probability:     t.probability,
		}, true
	}
	return models.Impact{}, false
}
