package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"wxinsight/internal/insights"
	"wxinsight/internal/models"
)

// analyze reads a forecast snapshot as JSON and writes its report
func analyze(r io.Reader, w io.Writer, b *insights.Builder, location string, pretty bool) error {
	var f models.Forecast
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("failed to decode forecast: %w", err)
	}

	report, err := b.Build(location, &f)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

func main() {
	in := flag.String("in", "-", "forecast JSON file, or - for stdin")
	location := flag.String("location", "", "location name recorded in the report")
	pretty := flag.Bool("pretty", false, "indent the output")
	flag.Parse()

	var r io.Reader = os.Stdin
	if *in != "-" {
		file, err := os.Open(*in)
		if err != nil {
			log.Fatalf("Failed to open snapshot: %v", err)
		}
		defer file.Close()
		r = file
	}

	if err := analyze(r, os.Stdout, insights.NewBuilder(), *location, *pretty); err != nil {
		log.Fatalf("Failed to analyze snapshot: %v", err)
	}
}
