package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		f       *Forecast
		wantErr error
	}{
		{name: "nil forecast", f: nil, wantErr: ErrNoSnapshot},
		{name: "empty forecast", f: &Forecast{}},
		{
			name: "aligned hourly",
			f: &Forecast{Hourly: Hourly{
				Time:          []string{"2024-07-01T00:00", "2024-07-01T01:00"},
				Temperature2m: []float64{20, 21},
				WeatherCode:   []int{0, 1},
			}},
		},
		{
			name: "absent hourly field is fine",
			f: &Forecast{Hourly: Hourly{
				Time:          []string{"2024-07-01T00:00", "2024-07-01T01:00"},
				Temperature2m: []float64{20, 21},
			}},
		},
		{
			name: "short hourly field",
			f: &Forecast{Hourly: Hourly{
				Time:               []string{"2024-07-01T00:00", "2024-07-01T01:00"},
				RelativeHumidity2m: []float64{50},
			}},
			wantErr: ErrMisalignedSeries,
		},
		{
			name: "daily without time axis aligns on first field",
			f: &Forecast{Daily: Daily{
				Temperature2mMax: []float64{30, 31, 32},
				Temperature2mMin: []float64{20, 21},
			}},
			wantErr: ErrMisalignedSeries,
		},
		{
			name: "aligned daily",
			f: &Forecast{Daily: Daily{
				Time:             []string{"2024-07-01", "2024-07-02"},
				Temperature2mMax: []float64{30, 31},
				WeatherCode:      []int{1, 2},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHourOfDay(t *testing.T) {
	tests := []struct {
		ts       string
		fallback int
		want     int
	}{
		{"2024-07-01T14:00", 0, 14},
		{"2024-07-01T00:00", 5, 0},
		{"", 7, 7},
		{"2024-07-01 14:00", 3, 3},
	}
	for _, tt := range tests {
		if got := HourOfDay(tt.ts, tt.fallback); got != tt.want {
			t.Errorf("HourOfDay(%q, %d) = %d, want %d", tt.ts, tt.fallback, got, tt.want)
		}
	}
}

func TestSliceHelpers(t *testing.T) {
	xs := []float64{1, 2, 3}

	if At(xs, 1) != 2 || At(xs, 3) != 0 || At(xs, -1) != 0 {
		t.Error("At() should return 0 out of range")
	}
	if !Has(xs, 2) || Has(xs, 3) || Has(nil, 0) {
		t.Error("Has() bounds are wrong")
	}
	if len(Head(xs, 2)) != 2 || len(Head(xs, 10)) != 3 || Head(xs, -1) != nil {
		t.Error("Head() should clamp to the slice")
	}
	if StringAt([]string{"a"}, 0) != "a" || StringAt(nil, 0) != "" {
		t.Error("StringAt() bounds are wrong")
	}
}

func midnightDay() Hourly {
	var h Hourly
	for i := 0; i < 24; i++ {
		h.Time = append(h.Time, fmt.Sprintf("2024-07-01T%02d:00", i))
		h.Temperature2m = append(h.Temperature2m, float64(15+i/2))
		h.UVIndex = append(h.UVIndex, 0)
	}
	for i := 10; i <= 15; i++ {
		h.UVIndex[i] = 10
	}
	return h
}

func TestFromCurrentHour(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		wantIndex int
		wantFirst string
	}{
		{"noon", "2024-07-01T12:00", 12, "2024-07-01T12:00"},
		{"quarter past truncates", "2024-07-01T12:15", 12, "2024-07-01T12:00"},
		{"midnight", "2024-07-01T00:00", 0, "2024-07-01T00:00"},
		{"missing current time", "", 0, "2024-07-01T00:00"},
		{"after the series", "2024-07-03T09:00", 0, "2024-07-01T00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Forecast{Current: Current{Time: tt.current}, Hourly: midnightDay()}

			if got := f.CurrentHourIndex(); got != tt.wantIndex {
				t.Errorf("CurrentHourIndex() = %d, want %d", got, tt.wantIndex)
			}
			aligned := f.FromCurrentHour()
			if aligned.Hourly.Time[0] != tt.wantFirst {
				t.Errorf("first hourly slot = %q, want %q", aligned.Hourly.Time[0], tt.wantFirst)
			}
			if err := aligned.Validate(); err != nil {
				t.Errorf("aligned forecast invalid: %v", err)
			}
			if f.Hourly.Time[0] != "2024-07-01T00:00" {
				t.Error("FromCurrentHour() modified the original forecast")
			}
		})
	}
}

func TestFromCurrentHour_SlicesEveryField(t *testing.T) {
	f := &Forecast{Current: Current{Time: "2024-07-01T12:00"}, Hourly: midnightDay()}

	aligned := f.FromCurrentHour()
	if aligned.Hourly.Len() != 12 || len(aligned.Hourly.Temperature2m) != 12 || len(aligned.Hourly.UVIndex) != 12 {
		t.Fatalf("aligned lengths = %d/%d/%d, want 12", aligned.Hourly.Len(), len(aligned.Hourly.Temperature2m), len(aligned.Hourly.UVIndex))
	}
	if aligned.Hourly.UVIndex[0] != 10 {
		t.Errorf("UV at the current hour = %v, want 10", aligned.Hourly.UVIndex[0])
	}
	if aligned.Hourly.WindSpeed10m != nil {
		t.Error("absent field should stay absent")
	}
	if (*Forecast)(nil).FromCurrentHour() != nil {
		t.Error("nil forecast should stay nil")
	}
}
