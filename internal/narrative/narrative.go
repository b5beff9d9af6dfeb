package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"wxinsight/internal/api"
	"wxinsight/internal/models"
)

var arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// Input is the condensed report the prompt is built from
type Input struct {
	Location       string
	CurrentComfort int
	Insights       []models.TrendInsight
	Events         []models.Event
	Impacts        []models.Impact
}

// Generator asks the AI text service for short, readable highlights
type Generator struct {
	completer api.Completer
	max       int
}

// NewGenerator creates a generator asking for up to max highlights
func NewGenerator(completer api.Completer, max int) *Generator {
	if max <= 0 {
		max = 3
	}
	return &Generator{completer: completer, max: max}
}

// Highlights returns the generated highlights, or nil when the service fails
// or its reply holds no JSON string array
func (g *Generator) Highlights(ctx context.Context, in Input) []string {
	reply, err := g.completer.Complete(ctx, g.Prompt(in))
	if err != nil {
		log.Printf("Warning: narrative for %s unavailable: %v", in.Location, err)
		return nil
	}

	highlights, err := ExtractList(reply)
	if err != nil {
		log.Printf("Warning: narrative for %s unparseable: %v", in.Location, err)
		return nil
	}
	if len(highlights) > g.max {
		highlights = highlights[:g.max]
	}
	return highlights
}

// Prompt renders the request sent to the text service
func (g *Generator) Prompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a weather assistant. Write %d short highlights for %s.\n", g.max, in.Location)
	fmt.Fprintf(&b, "Current comfort score: %d/100.\n", in.CurrentComfort)

	for _, i := range in.Insights {
		fmt.Fprintf(&b, "Trend: %s (%s) - %s\n", i.Title, i.Severity, i.Description)
	}
	for _, e := range in.Events {
		fmt.Fprintf(&b, "Event: %s on %s, %d%% likely - %s\n", e.Type, e.Date, e.Probability, e.Description)
	}
	for _, i := range in.Impacts {
		fmt.Fprintf(&b, "Impact: %s (%s) - %s\n", i.Title, i.Severity, i.Description)
	}

	b.WriteString("Reply with a JSON array of strings only.")
	return b.String()
}

// ExtractList pulls the first-to-last bracketed span out of text and decodes
// it as a JSON string array
func ExtractList(text string) ([]string, error) {
	match := arrayPattern.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in reply")
	}

	var out []string
	if err := json.Unmarshal([]byte(match), &out); err != nil {
		return nil, fmt.Errorf("failed to decode JSON array: %w", err)
	}
	return out, nil
}
