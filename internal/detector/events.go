package detector

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"wxinsight/internal/models"
)

// NoEventsSummary is reported when no day crosses an event threshold
const NoEventsSummary = "No significant weather events detected."

// Event types
const (
	EventHeatwave      = "heatwave"
	EventColdSnap      = "cold_snap"
	EventHeavyRain     = "heavy_rain"
	EventThunderstorm  = "thunderstorm"
	EventStrongWind    = "strong_wind"
	EventFrontPassage  = "frontal_passage"
	thunderCodeMin     = 95
	thunderCodeMax     = 99
	frontDeltaCelsius  = 10
	heatwaveMaxCelsius = 32
)

// DetectEvents evaluates each of the first seven forecast days independently
// and returns every event found, most probable first. Events with equal
// probability keep day order.
func DetectEvents(f *models.Forecast) (models.EventResult, error) {
	result := models.EventResult{Events: []models.Event{}}
	if f == nil {
		return result, models.ErrNoSnapshot
	}

	d := f.Daily
	days := len(d.Temperature2mMax)
	if days == 0 {
		return result, models.ErrInsufficientData
	}
	if days > weekDays {
		days = weekDays
	}

	for day := 0; day < days; day++ {
		result.Events = append(result.Events, eventsForDay(f, day)...)
	}

	sort.SliceStable(result.Events, func(i, j int) bool {
		return result.Events[i].Probability > result.Events[j].Probability
	})
	return result, nil
}

func eventsForDay(f *models.Forecast, day int) []models.Event {
	d := f.Daily
	date := models.StringAt(d.Time, day)
	maxT := models.At(d.Temperature2mMax, day)
	minT := models.At(d.Temperature2mMin, day)
	precip := models.At(d.PrecipitationSum, day)
	probMax := models.At(d.PrecipitationProbabilityMax, day)
	wind := models.At(d.WindSpeed10mMax, day)
	gust := models.At(d.WindGusts10mMax, day)

	var events []models.Event
	add := func(kind string, probability int, details map[string]float64, description string) {
		events = append(events, models.Event{
			Type:        kind,
			Day:         day,
			Date:        date,
			Probability: probability,
			Severity:    severityFor(probability),
			Details:     details,
			Description: description,
		})
	}

	if models.Has(d.Temperature2mMax, day+1) {
		next := d.Temperature2mMax[day+1]
		if maxT > heatwaveMaxCelsius && next > heatwaveMaxCelsius {
			add(EventHeatwave, heatwaveProbability(maxT),
				map[string]float64{"max_temp": maxT, "next_max_temp": next},
				fmt.Sprintf("Heatwave conditions with highs of %.0f°C and %.0f°C the day after", maxT, next))
		}
	}

	if models.Has(d.Temperature2mMin, day) && minT < 5 && maxT < 12 {
		add(EventColdSnap, coldSnapProbability(minT),
			map[string]float64{"min_temp": minT, "max_temp": maxT},
			fmt.Sprintf("Cold snap with lows of %.0f°C and highs only reaching %.0f°C", minT, maxT))
	}

	if precip > 15 || probMax > 70 {
		add(EventHeavyRain, heavyRainProbability(precip),
			map[string]float64{"precipitation_sum": precip, "precipitation_probability": probMax},
			fmt.Sprintf("Heavy rain expected, %.1f mm with a %.0f%% chance", precip, probMax))
	}

	if code, ok := thunderCode(f, day); ok {
		add(EventThunderstorm, 85,
			map[string]float64{"weather_code": float64(code), "max_temp": maxT},
			"Thunderstorms forecast")
	} else if probMax > 60 && maxT > 25 {
		add(EventThunderstorm, 65,
			map[string]float64{"precipitation_probability": probMax, "max_temp": maxT},
			fmt.Sprintf("Warm and unsettled at %.0f°C, thunderstorms possible", maxT))
	}

	if wind > 40 || gust > 60 {
		add(EventStrongWind, windProbability(wind, gust),
			map[string]float64{"wind_speed": wind, "wind_gusts": gust},
			fmt.Sprintf("Strong wind up to %.0f km/h, gusts %.0f km/h", wind, gust))
	}

	if day > 0 && models.Has(d.Temperature2mMax, day-1) {
		delta := maxT - d.Temperature2mMax[day-1]
		if math.Abs(delta) > frontDeltaCelsius {
			front, verb := "warm", "rise"
			if delta < 0 {
				front, verb = "cold", "drop"
			}
			probability := 70
			if math.Abs(delta) > 15 {
				probability = 80
			}
			add(EventFrontPassage, probability,
				map[string]float64{"temperature_change": delta},
				fmt.Sprintf("A %s front brings a %.0f°C %s in daily highs", front, math.Abs(delta), verb))
			events[len(events)-1].Front = front
		}
	}

	return events
}

// thunderCode scans the hourly weather codes that belong to day
func thunderCode(f *models.Forecast, day int) (int, bool) {
	codes := f.Hourly.WeatherCode
	start, end := dayHourRange(f, day)
	for i := start; i < end; i++ {
		if codes[i] >= thunderCodeMin && codes[i] <= thunderCodeMax {
			return codes[i], true
		}
	}
	return 0, false
}

// dayHourRange returns the hourly index range [start, end) of a forecast
// day. Hours are matched on the daily date when both series carry
// timestamps, as the hourly series may start mid-day. Without timestamps
// day d spans offsets d*24 to d*24+23.
func dayHourRange(f *models.Forecast, day int) (int, int) {
	n := len(f.Hourly.WeatherCode)
	date := models.StringAt(f.Daily.Time, day)
	if date != "" && len(f.Hourly.Time) == n {
		prefix := date + "T"
		start, end := 0, 0
		for i, ts := range f.Hourly.Time {
			if !strings.HasPrefix(ts, prefix) {
				continue
			}
			if end == 0 {
				start = i
			}
			end = i + 1
		}
		return start, end
	}

	start := day * dayHours
	end := start + dayHours
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	return start, end
}

func heatwaveProbability(maxT float64) int {
	switch {
	case maxT >= 38:
		return 90
	case maxT >= 35:
		return 80
	}
	return 70
}

func coldSnapProbability(minT float64) int {
	switch {
	case minT <= -10:
		return 90
	case minT <= 0:
		return 80
	}
	return 65
}

func heavyRainProbability(precip float64) int {
	switch {
	case precip > 30:
		return 90
	case precip > 15:
		return 80
	}
	return 70
}

func windProbability(wind, gust float64) int {
	switch {
	case gust > 80:
		return 90
	case gust > 60:
		return 80
	case wind > 50:
		return 75
	case wind > 40:
		return 70
	}
	return 60
}

func severityFor(probability int) string {
	switch {
	case probability >= 85:
		return "high"
	case probability >= 70:
		return "medium"
	}
	return "low"
}

// Summary renders a one-line digest of detected events
func Summary(events []models.Event) string {
	if len(events) == 0 {
		return NoEventsSummary
	}

	counts := make(map[string]int)
	var order []string
	for _, e := range events {
		if counts[e.Type] == 0 {
			order = append(order, e.Type)
		}
		counts[e.Type]++
	}

	parts := make([]string, 0, len(order))
	for _, kind := range order {
		label := strings.ReplaceAll(kind, "_", " ")
		if counts[kind] > 1 {
			label = fmt.Sprintf("%s (%d days)", label, counts[kind])
		}
		parts = append(parts, label)
	}

	top := events[0]
	return fmt.Sprintf("%d weather events detected: %s. Most likely: %s on %s (%d%%).",
		len(events), strings.Join(parts, ", "), strings.ReplaceAll(top.Type, "_", " "), top.Date, top.Probability)
}
