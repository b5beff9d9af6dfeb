package trend

import (
	"errors"
	"math"
	"testing"

	"wxinsight/internal/models"
)

func TestHalves(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6}
	first, second := Halves(values)

	if len(first) != 3 || first[0] != 0 || first[2] != 2 {
		t.Errorf("first half = %v, want [0 1 2]", first)
	}
	if len(second) != 3 || second[0] != 4 || second[2] != 6 {
		t.Errorf("second half = %v, want [4 5 6]", second)
	}
}

func TestWeeklyComparison_ExcludesMiddleDay(t *testing.T) {
	base := models.Daily{Temperature2mMax: []float64{20, 20, 20, 20, 25, 25, 25}}
	spiked := models.Daily{Temperature2mMax: []float64{20, 20, 20, 99, 25, 25, 25}}

	a := WeeklyComparison(base)["temperature"]
	b := WeeklyComparison(spiked)["temperature"]
	if a != b {
		t.Errorf("day 3 changed the comparison: %+v vs %+v", a, b)
	}
}

func TestWeeklyComparison(t *testing.T) {
	tests := []struct {
		name           string
		daily          models.Daily
		metric         string
		wantChange     float64
		wantDirection  string
		wantPercentage float64
	}{
		{
			name: "warmer second half",
			daily: models.Daily{
				Temperature2mMax: []float64{20, 21, 19, 20, 26, 27, 28},
				PrecipitationSum: []float64{0, 0, 0, 0, 0, 0, 0},
			},
			metric:         "temperature",
			wantChange:     7,
			wantDirection:  "warmer",
			wantPercentage: 35,
		},
		{
			name: "dry first half gives zero percentage",
			daily: models.Daily{
				Temperature2mMax: []float64{20, 20, 20, 20, 20, 20, 20},
				PrecipitationSum: []float64{0, 0, 0, 5, 3, 3, 3},
			},
			metric:         "precipitation",
			wantChange:     3,
			wantDirection:  "wetter",
			wantPercentage: 0,
		},
		{
			name: "zero first-half temperature mean",
			daily: models.Daily{
				Temperature2mMax: []float64{-1, 0, 1, 5, 4, 4, 4},
			},
			metric:         "temperature",
			wantChange:     4,
			wantDirection:  "warmer",
			wantPercentage: 0,
		},
		{
			name: "calmer second half",
			daily: models.Daily{
				Temperature2mMax: []float64{20, 20, 20, 20, 20, 20, 20},
				WindSpeed10mMax:  []float64{40, 40, 40, 0, 20, 20, 20},
			},
			metric:         "wind",
			wantChange:     -20,
			wantDirection:  "calmer",
			wantPercentage: 50,
		},
		{
			name: "unchanged uses falling word",
			daily: models.Daily{
				Temperature2mMax: []float64{20, 20, 20, 20, 20, 20, 20},
			},
			metric:         "temperature",
			wantChange:     0,
			wantDirection:  "cooler",
			wantPercentage: 0,
		},
		{
			name: "fourteen days uses the first week",
			daily: models.Daily{
				Temperature2mMax: []float64{10, 10, 10, 10, 12, 12, 12, 40, 40, 40, 40, 40, 40, 40},
			},
			metric:         "temperature",
			wantChange:     2,
			wantDirection:  "warmer",
			wantPercentage: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := WeeklyComparison(tt.daily)[tt.metric]
			if !ok {
				t.Fatalf("WeeklyComparison() missing %s", tt.metric)
			}
			if math.Abs(got.Change-tt.wantChange) > 0.0001 {
				t.Errorf("Change = %v, want %v", got.Change, tt.wantChange)
			}
			if got.Direction != tt.wantDirection {
				t.Errorf("Direction = %v, want %v", got.Direction, tt.wantDirection)
			}
			if math.Abs(got.Percentage-tt.wantPercentage) > 0.0001 {
				t.Errorf("Percentage = %v, want %v", got.Percentage, tt.wantPercentage)
			}
			if got.Summary == "" {
				t.Error("Summary should not be empty")
			}
		})
	}
}

func TestWeeklyComparison_ShortSeries(t *testing.T) {
	got := WeeklyComparison(models.Daily{Temperature2mMax: []float64{10, 14}})["temperature"]
	if got.Change != 4 || got.Direction != "warmer" {
		t.Errorf("two-day comparison = %+v, want change 4 warmer", got)
	}

	if _, ok := WeeklyComparison(models.Daily{Temperature2mMax: []float64{10}})["temperature"]; ok {
		t.Error("single day should not produce a comparison")
	}
}

func findInsight(insights []models.TrendInsight, kind string) (models.TrendInsight, bool) {
	for _, in := range insights {
		if in.Type == kind {
			return in, true
		}
	}
	return models.TrendInsight{}, false
}

func TestInsights(t *testing.T) {
	d := models.Daily{
		Temperature2mMax: []float64{18, 20, 22, 25, 28, 31, 33},
		Temperature2mMin: []float64{5, 8, 10, 12, 14, 16, 18},
		PrecipitationSum: []float64{10, 5, 5, 2, 0, 0, 0},
		UVIndexMax:       []float64{7, 7, 8, 8, 9, 9, 9},
		WindSpeed10mMax:  []float64{20, 20, 65, 20, 20, 20, 20},
	}
	insights := Insights(d)

	tests := []struct {
		kind     string
		severity string
	}{
		{"warming", "high"},
		{"wet_week", "high"},
		{"high_uv", "medium"},
		{"windy", "high"},
		{"temperature_range", "medium"},
		{"unstable", "medium"},
	}
	for _, tt := range tests {
		in, ok := findInsight(insights, tt.kind)
		if !ok {
			t.Errorf("missing %s insight in %+v", tt.kind, insights)
			continue
		}
		if in.Severity != tt.severity {
			t.Errorf("%s severity = %v, want %v", tt.kind, in.Severity, tt.severity)
		}
	}
	if len(insights) != len(tests) {
		t.Errorf("got %d insights, want %d", len(insights), len(tests))
	}
}

func TestInsights_CalmWeek(t *testing.T) {
	d := models.Daily{
		Temperature2mMax: []float64{20, 21, 20, 21, 20, 21, 20},
		Temperature2mMin: []float64{12, 12, 12, 12, 12, 12, 12},
		PrecipitationSum: []float64{0, 0, 0.2, 0, 0, 0, 0},
		UVIndexMax:       []float64{4, 4, 4, 4, 4, 4, 4},
		WindSpeed10mMax:  []float64{10, 10, 10, 10, 10, 10, 10},
	}
	insights := Insights(d)

	if _, ok := findInsight(insights, "dry_week"); !ok {
		t.Error("expected dry_week insight")
	}
	if in, ok := findInsight(insights, "stable"); !ok || in.Severity != "low" {
		t.Errorf("expected low severity stable insight, got %+v", in)
	}
	if len(insights) != 2 {
		t.Errorf("got %d insights, want 2: %+v", len(insights), insights)
	}
}

func TestTrends(t *testing.T) {
	d := models.Daily{
		Temperature2mMax:            []float64{10, 13, 16, 19, 22, 25, 28},
		PrecipitationProbabilityMax: []float64{80, 70, 60, 50, 40, 30, 20},
	}
	trends := Trends(d)

	if len(trends) != 3 {
		t.Fatalf("Trends() returned %d trends, want 3", len(trends))
	}
	if trends[0].Name != "temperature" || math.Abs(trends[0].Slope-3) > 1e-6 {
		t.Errorf("temperature trend = %+v", trends[0])
	}
	if trends[0].Direction != "increasing" || trends[0].Strength != "strong" {
		t.Errorf("temperature trend = %+v, want increasing strong", trends[0])
	}
	if trends[1].Direction != "decreasing" {
		t.Errorf("precipitation trend direction = %v", trends[1].Direction)
	}
	if trends[2].Name != "cloud_cover" || trends[2].Slope != trends[1].Slope {
		t.Errorf("cloud cover should fall back to precipitation probability: %+v", trends[2])
	}
}

func TestTrends_Empty(t *testing.T) {
	trends := Trends(models.Daily{})
	if len(trends) != 3 {
		t.Fatalf("Trends() returned %d trends, want 3", len(trends))
	}
	for _, tr := range trends {
		if tr.Slope != 0 || tr.Direction != "stable" || tr.Strength != "weak" {
			t.Errorf("empty trend = %+v", tr)
		}
	}
}

func TestAnalyze(t *testing.T) {
	f := &models.Forecast{Daily: models.Daily{
		Temperature2mMax: []float64{20, 21, 19, 20, 26, 27, 28},
		PrecipitationSum: []float64{0, 0, 0, 0, 0, 0, 0},
	}}

	got, err := Analyze(f)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	temp := got.WeeklyComparison["temperature"]
	if temp.Direction != "warmer" || temp.Change != 7 {
		t.Errorf("temperature comparison = %+v, want warmer by 7", temp)
	}
	if len(got.Trends) != 3 {
		t.Errorf("Trends len = %d, want 3", len(got.Trends))
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	got, err := Analyze(&models.Forecast{Daily: models.Daily{Temperature2mMax: []float64{20}}})
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("Analyze() error = %v, want ErrInsufficientData", err)
	}
	if len(got.WeeklyComparison) != 0 || len(got.Insights) != 0 {
		t.Errorf("expected neutral result, got %+v", got)
	}
	if len(got.Trends) != 3 {
		t.Errorf("Trends len = %d, want 3", len(got.Trends))
	}

	if _, err := Analyze(nil); !errors.Is(err, models.ErrNoSnapshot) {
		t.Errorf("Analyze(nil) error = %v, want ErrNoSnapshot", err)
	}
}
