package impact

import "fmt"

// Categories
const (
	Transportation = "transportation"
	Health         = "health"
	Outdoor        = "outdoor"
	Energy         = "energy"
)

// tier is one severity level of a rule. Tiers are checked in order and the
// first match produces the impact.
type tier struct {
	when            func(a aggregates) bool
	severity        string
	probability     int
	describe        func(a aggregates) string
	recommendations []string
}

type rule struct {
	category  string
	kind      string
	icon      string
	title     string
	timeframe string
	tiers     []tier
}

var rules = []rule{
	// Transportation
	{
		category:  Transportation,
		kind:      "traffic_delays",
		icon:      "car",
		title:     "Traffic delays likely",
		timeframe: "Next 48 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.Precip48 > 25 || a.RainProb24 > 90 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					if a.Precip48 > 25 {
						return fmt.Sprintf("Heavy rain of %.1f mm will slow roads and transit", a.Precip48)
					}
					return fmt.Sprintf("Rain almost certain, %.0f%% chance in the next 24 hours", a.RainProb24)
				},
				recommendations: []string{"Allow extra travel time", "Avoid flooded roads", "Check transit service alerts"},
			},
			{
				when:        func(a aggregates) bool { return a.Precip48 > 10 || a.RainProb24 > 70 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					if a.RainProb24 > 70 {
						return fmt.Sprintf("Wet roads expected with up to %.0f%% chance of rain", a.RainProb24)
					}
					return fmt.Sprintf("Wet roads expected with %.1f mm of rain over 48 hours", a.Precip48)
				},
				recommendations: []string{"Allow extra travel time", "Drive with headlights on"},
			},
		},
	},
	{
		category:  Transportation,
		kind:      "travel_wind",
		icon:      "wind",
		title:     "Wind disruption to travel",
		timeframe: "Next 72 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MaxGust72 > 60 },
				severity:    "high",
				probability: 80,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Gusts up to %.0f km/h may delay flights and ferries", a.MaxGust72)
				},
				recommendations: []string{"Check flight and ferry status", "Secure roof loads", "Avoid exposed routes in high-sided vehicles"},
			},
			{
				when:        func(a aggregates) bool { return a.MaxGust72 > 40 },
				severity:    "medium",
				probability: 65,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Gusts up to %.0f km/h on exposed roads", a.MaxGust72)
				},
				recommendations: []string{"Take care on bridges and open roads"},
			},
		},
	},
	{
		category:  Transportation,
		kind:      "icy_roads",
		icon:      "snowflake",
		title:     "Icy roads",
		timeframe: "Next 72 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MinTemp72 <= -5 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Hard frost down to %.0f°C, black ice likely", a.MinTemp72)
				},
				recommendations: []string{"Delay travel if possible", "Carry a winter kit", "Leave extra stopping distance"},
			},
			{
				when:        func(a aggregates) bool { return a.MinTemp72 <= 0 },
				severity:    "medium",
				probability: 65,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Temperatures near %.0f°C, watch for icy patches", a.MinTemp72)
				},
				recommendations: []string{"Leave extra stopping distance", "Take care on bridges and shaded roads"},
			},
		},
	},

	// Health
	{
		category:  Health,
		kind:      "heat_stress",
		icon:      "thermometer-sun",
		title:     "Heat stress risk",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MaxFeels24 >= 35 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Feels like %.0f°C at the hottest point of the day", a.MaxFeels24)
				},
				recommendations: []string{"Stay hydrated", "Avoid strenuous activity in the afternoon", "Check on vulnerable neighbours"},
			},
			{
				when:        func(a aggregates) bool { return a.MaxFeels24 >= 30 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Feels like %.0f°C, heat can build quickly", a.MaxFeels24)
				},
				recommendations: []string{"Stay hydrated", "Take breaks in the shade"},
			},
		},
	},
	{
		category:  Health,
		kind:      "cold_exposure",
		icon:      "thermometer-snowflake",
		title:     "Cold exposure risk",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MinFeels24 <= -15 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Wind chill down to %.0f°C, frostbite possible on exposed skin", a.MinFeels24)
				},
				recommendations: []string{"Limit time outdoors", "Cover exposed skin", "Dress in layers"},
			},
			{
				when:        func(a aggregates) bool { return a.MinFeels24 <= -5 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Feels like %.0f°C at the coldest point", a.MinFeels24)
				},
				recommendations: []string{"Dress in layers", "Wear gloves and a hat"},
			},
		},
	},
	{
		category:  Health,
		kind:      "uv_exposure",
		icon:      "sun",
		title:     "UV exposure",
		timeframe: "Today",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MaxUV >= 11 },
				severity:    "high",
				probability: 95,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Extreme UV index of %.0f, skin burns within minutes", a.MaxUV)
				},
				recommendations: []string{"Avoid the sun between 10am and 4pm", "Use SPF 50+ sunscreen", "Wear a hat and sunglasses"},
			},
			{
				when:        func(a aggregates) bool { return a.MaxUV >= 8 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Very high UV index of %.0f", a.MaxUV)
				},
				recommendations: []string{"Use SPF 30+ sunscreen", "Seek shade at midday", "Wear a hat and sunglasses"},
			},
			{
				when:        func(a aggregates) bool { return a.MaxUV >= 6 },
				severity:    "medium",
				probability: 75,
				describe: func(a aggregates) string {
					return fmt.Sprintf("High UV index of %.0f", a.MaxUV)
				},
				recommendations: []string{"Use sunscreen", "Wear sunglasses"},
			},
		},
	},
	{
		category:  Health,
		kind:      "muggy_air",
		icon:      "droplets",
		title:     "Muggy air",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.AvgHumidity24 > 80 && a.AvgTemp24 > 20 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Humidity averaging %.0f%% at %.0f°C makes it feel oppressive", a.AvgHumidity24, a.AvgTemp24)
				},
				recommendations: []string{"Keep rooms ventilated", "People with asthma should carry inhalers"},
			},
		},
	},
	{
		category:  Health,
		kind:      "dry_air",
		icon:      "sun-dim",
		title:     "Dry air",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.AvgHumidity24 < 25 },
				severity:    "low",
				probability: 65,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Humidity averaging %.0f%% can irritate skin and airways", a.AvgHumidity24)
				},
				recommendations: []string{"Drink plenty of water", "Use moisturiser"},
			},
		},
	},

	// Outdoor
	{
		category:  Outdoor,
		kind:      "outdoor_rain",
		icon:      "umbrella",
		title:     "Rain on outdoor plans",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.RainProb24 > 80 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Rain almost certain with a %.0f%% chance", a.RainProb24)
				},
				recommendations: []string{"Move plans indoors", "Postpone sports and events"},
			},
			{
				when:        func(a aggregates) bool { return a.RainProb24 > 50 },
				severity:    "medium",
				probability: 65,
				describe: func(a aggregates) string {
					return fmt.Sprintf("A %.0f%% chance of showers", a.RainProb24)
				},
				recommendations: []string{"Bring an umbrella", "Have an indoor backup"},
			},
		},
	},
	{
		category:  Outdoor,
		kind:      "outdoor_wind",
		icon:      "wind",
		title:     "Windy outdoors",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MaxWind24 > 40 },
				severity:    "high",
				probability: 80,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Winds up to %.0f km/h", a.MaxWind24)
				},
				recommendations: []string{"Secure outdoor furniture", "Avoid cycling and boating"},
			},
			{
				when:        func(a aggregates) bool { return a.MaxWind24 > 25 },
				severity:    "medium",
				probability: 65,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Breezy with winds up to %.0f km/h", a.MaxWind24)
				},
				recommendations: []string{"Secure loose items", "Bring a windproof layer"},
			},
		},
	},
	{
		category:  Outdoor,
		kind:      "outdoor_heat",
		icon:      "sun",
		title:     "Hot outdoors",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MaxTemp24 >= 35 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Temperatures reaching %.0f°C", a.MaxTemp24)
				},
				recommendations: []string{"Exercise early in the morning", "Keep pets indoors", "Carry water"},
			},
			{
				when:        func(a aggregates) bool { return a.MaxTemp24 >= 30 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Warm with highs of %.0f°C", a.MaxTemp24)
				},
				recommendations: []string{"Carry water", "Plan activities for the cooler hours"},
			},
		},
	},

	// Energy
	{
		category:  Energy,
		kind:      "cooling_demand",
		icon:      "fan",
		title:     "High cooling demand",
		timeframe: "Next 3 days",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MaxTemp72 >= 35 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Highs of %.0f°C will push air conditioning use", a.MaxTemp72)
				},
				recommendations: []string{"Pre-cool your home in the morning", "Close blinds on sunny windows", "Set thermostats to 24-26°C"},
			},
			{
				when:        func(a aggregates) bool { return a.MaxTemp72 >= 28 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Highs of %.0f°C raise cooling needs", a.MaxTemp72)
				},
				recommendations: []string{"Close blinds on sunny windows", "Use fans before air conditioning"},
			},
		},
	},
	{
		category:  Energy,
		kind:      "heating_demand",
		icon:      "flame",
		title:     "High heating demand",
		timeframe: "Next 3 days",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.MeanTemp72 < 0 },
				severity:    "high",
				probability: 85,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Average temperature of %.1f°C will push heating use", a.MeanTemp72)
				},
				recommendations: []string{"Check heating systems", "Seal drafts around doors and windows", "Protect exposed pipes"},
			},
			{
				when:        func(a aggregates) bool { return a.MeanTemp72 < 10 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Average temperature of %.1f°C raises heating needs", a.MeanTemp72)
				},
				recommendations: []string{"Lower thermostats overnight", "Seal drafts around doors and windows"},
			},
		},
	},
	{
		category:  Energy,
		kind:      "solar_output",
		icon:      "solar-panel",
		title:     "Solar generation",
		timeframe: "Next 24 hours",
		tiers: []tier{
			{
				when:        func(a aggregates) bool { return a.AvgCloud24 > 80 },
				severity:    "medium",
				probability: 70,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Cloud cover averaging %.0f%% will cut solar output", a.AvgCloud24)
				},
				recommendations: []string{"Shift heavy loads to off-peak grid hours", "Expect lower battery charge"},
			},
			{
				when:        func(a aggregates) bool { return a.AvgCloud24 < 20 && a.MaxUV >= 6 },
				severity:    "low",
				probability: 75,
				describe: func(a aggregates) string {
					return fmt.Sprintf("Clear skies with %.0f%% cloud cover favour solar output", a.AvgCloud24)
				},
				recommendations: []string{"Run appliances at midday", "Charge batteries and vehicles from solar"},
			},
		},
	},
}
