package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNoSnapshot is returned when a calculator is handed a nil forecast
	ErrNoSnapshot = errors.New("no forecast snapshot")
	// ErrInsufficientData is returned alongside a neutral result when a series is absent or too short
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMisalignedSeries is returned by Validate when parallel slices differ in length
	ErrMisalignedSeries = errors.New("misaligned series")
)

// HourlyTimeLayout is the timestamp layout Open-Meteo uses for hourly and current values
const HourlyTimeLayout = "2006-01-02T15:04"

// DailyTimeLayout is the date layout Open-Meteo uses for daily values
const DailyTimeLayout = "2006-01-02"

// Forecast represents weather forecast data from Open-Meteo API
type Forecast struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	Current          Current `json:"current"`
	Hourly           Hourly  `json:"hourly"`
	Daily            Daily   `json:"daily"`
	GenerationTimeMs float64 `json:"generation_time_ms"`
}

// Current is a single-instant reading. Optional fields are pointers so that
// an absent value can be told apart from a zero reading.
type Current struct {
	Time                string   `json:"time"`
	Interval            int      `json:"interval"`
	Temperature2m       float64  `json:"temperature_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature,omitempty"`
	RelativeHumidity2m  float64  `json:"relative_humidity_2m"`
	Precipitation       float64  `json:"precipitation"`
	WeatherCode         int      `json:"weather_code"`
	WindSpeed10m        float64  `json:"wind_speed_10m"`
	WindGusts10m        float64  `json:"wind_gusts_10m"`
	WindDirection10m    float64  `json:"wind_direction_10m"`
	PressureMsl         *float64 `json:"pressure_msl,omitempty"`
	CloudCover          float64  `json:"cloud_cover"`
}

type Hourly struct {
	Time                     []string  `json:"time"`
	Temperature2m            []float64 `json:"temperature_2m"`
	RelativeHumidity2m       []float64 `json:"relative_humidity_2m"`
	Precipitation            []float64 `json:"precipitation"`
	PrecipitationProbability []float64 `json:"precipitation_probability"`
	WindSpeed10m             []float64 `json:"wind_speed_10m"`
	WindGusts10m             []float64 `json:"wind_gusts_10m"`
	CloudCover               []float64 `json:"cloud_cover"`
	WeatherCode              []int     `json:"weather_code"`
	UVIndex                  []float64 `json:"uv_index"`
	DewPoint2m               []float64 `json:"dew_point_2m"`
	ApparentTemperature      []float64 `json:"apparent_temperature"`
	PressureMsl              []float64 `json:"pressure_msl"`
	Visibility               []float64 `json:"visibility"`
}

type Daily struct {
	Time                        []string  `json:"time"`
	WeatherCode                 []int     `json:"weather_code"`
	Temperature2mMax            []float64 `json:"temperature_2m_max"`
	Temperature2mMin            []float64 `json:"temperature_2m_min"`
	UVIndexMax                  []float64 `json:"uv_index_max"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []float64 `json:"precipitation_probability_max"`
	WindSpeed10mMax             []float64 `json:"wind_speed_10m_max"`
	WindGusts10mMax             []float64 `json:"wind_gusts_10m_max"`
	CloudCoverMean              []float64 `json:"cloud_cover_mean"`
}

// Len returns the number of hourly points
func (h Hourly) Len() int {
	return len(h.Time)
}

// Len returns the number of forecast days
func (d Daily) Len() int {
	return len(d.Time)
}

// Validate checks that every non-empty parallel slice matches the time axis
// of its group. Empty slices are treated as absent fields.
func (f *Forecast) Validate() error {
	if f == nil {
		return ErrNoSnapshot
	}

	hourly := map[string]int{
		"temperature_2m":            len(f.Hourly.Temperature2m),
		"relative_humidity_2m":      len(f.Hourly.RelativeHumidity2m),
		"precipitation":             len(f.Hourly.Precipitation),
		"precipitation_probability": len(f.Hourly.PrecipitationProbability),
		"wind_speed_10m":            len(f.Hourly.WindSpeed10m),
		"wind_gusts_10m":            len(f.Hourly.WindGusts10m),
		"cloud_cover":               len(f.Hourly.CloudCover),
		"weather_code":              len(f.Hourly.WeatherCode),
		"uv_index":                  len(f.Hourly.UVIndex),
		"dew_point_2m":              len(f.Hourly.DewPoint2m),
		"apparent_temperature":      len(f.Hourly.ApparentTemperature),
		"pressure_msl":              len(f.Hourly.PressureMsl),
		"visibility":                len(f.Hourly.Visibility),
	}
	if err := checkAligned("hourly", f.Hourly.Len(), hourly); err != nil {
		return err
	}

	daily := map[string]int{
		"weather_code":                  len(f.Daily.WeatherCode),
		"temperature_2m_max":            len(f.Daily.Temperature2mMax),
		"temperature_2m_min":            len(f.Daily.Temperature2mMin),
		"uv_index_max":                  len(f.Daily.UVIndexMax),
		"precipitation_sum":             len(f.Daily.PrecipitationSum),
		"precipitation_probability_max": len(f.Daily.PrecipitationProbabilityMax),
		"wind_speed_10m_max":            len(f.Daily.WindSpeed10mMax),
		"wind_gusts_10m_max":            len(f.Daily.WindGusts10mMax),
		"cloud_cover_mean":              len(f.Daily.CloudCoverMean),
	}
	return checkAligned("daily", f.Daily.Len(), daily)
}

func checkAligned(group string, want int, lengths map[string]int) error {
	for _, name := range sortedKeys(lengths) {
		n := lengths[name]
		if n == 0 {
			continue
		}
		// A group without a time axis is aligned against its first populated field
		if want == 0 {
			want = n
		}
		if n != want {
			return fmt.Errorf("%w: %s.%s has %d values, expected %d", ErrMisalignedSeries, group, name, n, want)
		}
	}
	return nil
}

// CurrentHourIndex returns the index of the hourly slot that holds
// Current.Time, so that index becomes hour offset zero. It returns 0 when
// either timestamp is missing or the current hour lies outside the series.
func (f *Forecast) CurrentHourIndex() int {
	if f == nil || f.Hourly.Len() == 0 {
		return 0
	}
	t, err := time.Parse(HourlyTimeLayout, f.Current.Time)
	if err != nil {
		return 0
	}
	hour := t.Truncate(time.Hour).Format(HourlyTimeLayout)
	i := sort.SearchStrings(f.Hourly.Time, hour)
	if i >= f.Hourly.Len() {
		return 0
	}
	return i
}

// FromCurrentHour returns a copy of f whose hourly series starts at the
// current hour. Open-Meteo starts hourly data at local midnight; the
// calculators read hourly index 0 as now. f itself is left untouched.
func (f *Forecast) FromCurrentHour() *Forecast {
	if f == nil {
		return nil
	}
	out := *f
	i := f.CurrentHourIndex()
	if i == 0 {
		return &out
	}
	h := f.Hourly
	out.Hourly = Hourly{
		Time:                     from(h.Time, i),
		Temperature2m:            from(h.Temperature2m, i),
		RelativeHumidity2m:       from(h.RelativeHumidity2m, i),
		Precipitation:            from(h.Precipitation, i),
		PrecipitationProbability: from(h.PrecipitationProbability, i),
		WindSpeed10m:             from(h.WindSpeed10m, i),
		WindGusts10m:             from(h.WindGusts10m, i),
		CloudCover:               from(h.CloudCover, i),
		WeatherCode:              from(h.WeatherCode, i),
		UVIndex:                  from(h.UVIndex, i),
		DewPoint2m:               from(h.DewPoint2m, i),
		ApparentTemperature:      from(h.ApparentTemperature, i),
		PressureMsl:              from(h.PressureMsl, i),
		Visibility:               from(h.Visibility, i),
	}
	return &out
}

// from drops the first i values; absent fields stay absent
func from[T any](xs []T, i int) []T {
	if len(xs) == 0 {
		return xs
	}
	if i > len(xs) {
		i = len(xs)
	}
	return xs[i:]
}

// HourOfDay parses an hourly timestamp and returns its hour, or fallback when
// the timestamp is missing or malformed.
func HourOfDay(ts string, fallback int) int {
	t, err := time.Parse(HourlyTimeLayout, ts)
	if err != nil {
		return fallback
	}
	return t.Hour()
}

// At returns xs[i], or 0 when i is out of range
func At(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}

// Has reports whether xs holds an index i
func Has(xs []float64, i int) bool {
	return i >= 0 && i < len(xs)
}

// Head returns at most the first n values of xs
func Head(xs []float64, n int) []float64 {
	if n < 0 {
		return nil
	}
	if len(xs) < n {
		return xs
	}
	return xs[:n]
}

// StringAt returns xs[i], or "" when i is out of range
func StringAt(xs []string, i int) string {
	if i < 0 || i >= len(xs) {
		return ""
	}
	return xs[i]
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
