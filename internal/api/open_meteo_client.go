package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"wxinsight/internal/metrics"
	"wxinsight/internal/models"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Field sets requested for a full insight forecast
var (
	CurrentFields = []string{
		"temperature_2m", "apparent_temperature", "relative_humidity_2m", "precipitation",
		"weather_code", "wind_speed_10m", "wind_gusts_10m", "wind_direction_10m",
		"pressure_msl", "cloud_cover",
	}
	HourlyFields = []string{
		"temperature_2m", "relative_humidity_2m", "precipitation", "precipitation_probability",
		"wind_speed_10m", "wind_gusts_10m", "cloud_cover", "weather_code", "uv_index",
		"dew_point_2m", "apparent_temperature", "pressure_msl", "visibility",
	}
	DailyFields = []string{
		"weather_code", "temperature_2m_max", "temperature_2m_min", "uv_index_max",
		"precipitation_sum", "precipitation_probability_max", "wind_speed_10m_max",
		"wind_gusts_10m_max", "cloud_cover_mean",
	}
)

// OpenMeteoClient is a rate limited client for the Open-Meteo API
type OpenMeteoClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

type ForecastParams struct {
	Latitude        float64
	Longitude       float64
	CurrentFields   []string
	HourlyFields    []string
	DailyFields     []string
	Timezone        string
	TemperatureUnit string
	WindSpeedUnit   string
	ForecastDays    int // how many days in the future you want to forecast
}

// NewOpenMeteoClient creates a new Open-Meteo API client allowing rps
// requests per second with the given burst
func NewOpenMeteoClient(rps float64, burst int) *OpenMeteoClient {
	if burst < 1 {
		burst = 1
	}
	return &OpenMeteoClient{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// GetForecast fetches forecast data for the given parameters, waiting for
// the rate limiter first
func (c *OpenMeteoClient) GetForecast(ctx context.Context, forecastParams ForecastParams) (*models.Forecast, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	start := time.Now()
	forecast, err := c.fetch(ctx, c.BuildURL(forecastParams))
	metrics.RecordForecastFetch(time.Since(start), err)
	return forecast, err
}

func (c *OpenMeteoClient) fetch(ctx context.Context, url string) (*models.Forecast, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var forecast models.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &forecast, nil
}

// BuildURL builds the request URL. Units default to celsius and km/h with
// precipitation in mm.
func (c *OpenMeteoClient) BuildURL(forecastParams ForecastParams) string {
	if forecastParams.Timezone == "" {
		forecastParams.Timezone = "auto"
	}

	if forecastParams.TemperatureUnit == "" {
		forecastParams.TemperatureUnit = "celsius"
	}

	if forecastParams.WindSpeedUnit == "" {
		forecastParams.WindSpeedUnit = "kmh"
	}

	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&timezone=%s&temperature_unit=%s&wind_speed_unit=%s&precipitation_unit=mm",
		c.baseURL, forecastParams.Latitude, forecastParams.Longitude, forecastParams.Timezone,
		forecastParams.TemperatureUnit, forecastParams.WindSpeedUnit)

	if forecastParams.ForecastDays > 0 {
		url += fmt.Sprintf("&forecast_days=%d", forecastParams.ForecastDays)
	}

	if len(forecastParams.CurrentFields) > 0 {
		url += "&current=" + strings.Join(forecastParams.CurrentFields, ",")
	}

	if len(forecastParams.DailyFields) > 0 {
		url += "&daily=" + strings.Join(forecastParams.DailyFields, ",")
	}

	if len(forecastParams.HourlyFields) > 0 {
		url += "&hourly=" + strings.Join(forecastParams.HourlyFields, ",")
	}

	return url
}

// GetInsightForecast fetches every field the calculators read, validates
// that the parallel series line up and starts the hourly series at the
// current hour
func (c *OpenMeteoClient) GetInsightForecast(ctx context.Context, lat, long float64, days int) (*models.Forecast, error) {
	if days != 7 && days != 14 {
		return nil, fmt.Errorf("GetInsightForecast: forecast days must be 7 or 14, got %d", days)
	}

	forecast, err := c.GetForecast(ctx, ForecastParams{
		Latitude:      lat,
		Longitude:     long,
		CurrentFields: CurrentFields,
		HourlyFields:  HourlyFields,
		DailyFields:   DailyFields,
		ForecastDays:  days,
	})
	if err != nil {
		return nil, err
	}

	if err := forecast.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast for %.4f,%.4f: %w", lat, long, err)
	}
	return forecast.FromCurrentHour(), nil
}

// GetCurrentWeather fetches only the current group for the given fields
func (c *OpenMeteoClient) GetCurrentWeather(ctx context.Context, lat, long float64, fields []string) (*models.Forecast, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("GetCurrentWeather: no weather fields provided")
	}

	return c.GetForecast(ctx, ForecastParams{
		Latitude:      lat,
		Longitude:     long,
		CurrentFields: fields,
	})
}
