package insights

import (
	"encoding/json"
	"fmt"

	"wxinsight/internal/models"
)

// MessageField is the stream entry field holding an encoded Message
const MessageField = "data"

// Message is the unit published on the report stream
type Message struct {
	Location models.Location `json:"location"`
	Report   *Report         `json:"report"`
}

// EncodeMessage serializes a report for its location
func EncodeMessage(loc models.Location, r *Report) (string, error) {
	data, err := json.Marshal(Message{Location: loc, Report: r})
	if err != nil {
		return "", fmt.Errorf("failed to encode report for %s: %w", loc.Name, err)
	}
	return string(data), nil
}

// DecodeMessage parses a stream entry value. A message without a report is
// rejected.
func DecodeMessage(raw string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	if m.Report == nil {
		return Message{}, fmt.Errorf("message for %q has no report", m.Location.Name)
	}
	return m, nil
}
