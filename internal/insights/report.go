package insights

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wxinsight/internal/comfort"
	"wxinsight/internal/detector"
	"wxinsight/internal/impact"
	"wxinsight/internal/metrics"
	"wxinsight/internal/models"
	"wxinsight/internal/narrative"
	"wxinsight/internal/severity"
	"wxinsight/internal/trend"
)

// Report bundles every calculator output for one forecast snapshot
type Report struct {
	ID              string                                   `json:"id"`
	Location        string                                   `json:"location,omitempty"`
	GeneratedAt     time.Time                                `json:"generated_at"`
	Comfort         models.ComfortResult                     `json:"comfort"`
	Trends          models.TrendResult                       `json:"trends"`
	Patterns        models.PatternResult                     `json:"patterns"`
	Impacts         models.ImpactResult                      `json:"impacts"`
	Events          models.EventResult                       `json:"events"`
	EventSummary    string                                   `json:"event_summary"`
	Classifications map[string]models.SeverityClassification `json:"classifications"`
	Warnings        []string                                 `json:"warnings,omitempty"`
	Highlights      []string                                 `json:"highlights,omitempty"`
}

// Builder runs the calculators and assembles reports. It holds no state
// between builds and is safe for concurrent use.
type Builder struct {
	now   func() time.Time
	newID func() string
}

func NewBuilder() *Builder {
	return &Builder{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Build validates the forecast and runs every calculator over it. A
// calculator that lacks data contributes its neutral result and a warning;
// only a missing or misaligned snapshot fails the build.
func (b *Builder) Build(location string, f *models.Forecast) (*Report, error) {
	if f == nil {
		return nil, models.ErrNoSnapshot
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast: %w", err)
	}
	f = f.FromCurrentHour()

	r := &Report{
		ID:          b.newID(),
		Location:    location,
		GeneratedAt: b.now().UTC(),
	}

	r.run("comfort", func() (err error) { r.Comfort, err = comfort.Analyze(f); return })
	r.run("trend", func() (err error) { r.Trends, err = trend.Analyze(f); return })
	r.run("pattern", func() (err error) { r.Patterns, err = detector.DetectPatterns(f); return })
	r.run("impact", func() (err error) { r.Impacts, err = impact.Analyze(f); return })
	r.run("event", func() (err error) { r.Events, err = detector.DetectEvents(f); return })

	r.EventSummary = detector.Summary(r.Events.Events)
	r.Classifications = severity.Current(f)

	for _, e := range r.Events.Events {
		metrics.RecordEvent(e.Type)
	}
	metrics.ReportsBuiltTotal.Inc()

	return r, nil
}

func (r *Report) run(name string, calc func() error) {
	start := time.Now()
	err := calc()

	outcome := "ok"
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		outcome = "insufficient_data"
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", name, err))
	case err != nil:
		outcome = "error"
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", name, err))
	}
	metrics.RecordCalculator(name, outcome, time.Since(start))
}

// NarrativeInput condenses the report for the text generator
func (r *Report) NarrativeInput() narrative.Input {
	return narrative.Input{
		Location:       r.Location,
		CurrentComfort: r.Comfort.CurrentComfort,
		Insights:       r.Trends.Insights,
		Events:         r.Events.Events,
		Impacts:        r.Impacts.Impacts,
	}
}
