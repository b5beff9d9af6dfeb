package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"wxinsight/internal/config"
	"wxinsight/internal/database"
	"wxinsight/internal/models"
)

var validate = validator.New()

// parseLocations reads name,latitude,longitude rows after a header row.
// Rows that fail to parse or validate are counted as skipped.
func parseLocations(r io.Reader) ([]models.Location, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	log.Printf("CSV Header: %v", header)

	var locations []models.Location
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("failed to read CSV record: %w", err)
		}

		loc, err := parseRecord(record)
		if err != nil {
			log.Printf("Skipping record %v: %v", record, err)
			skipped++
			continue
		}
		locations = append(locations, loc)
	}

	return locations, skipped, nil
}

func parseRecord(record []string) (models.Location, error) {
	if len(record) < 3 {
		return models.Location{}, errors.New("expected name,latitude,longitude")
	}

	latitude, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid latitude: %w", err)
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("invalid longitude: %w", err)
	}

	loc := models.Location{Name: strings.TrimSpace(record[0]), Latitude: latitude, Longitude: longitude}
	if err := validate.Struct(loc); err != nil {
		return models.Location{}, err
	}
	return loc, nil
}

func main() {
	csvPath := flag.String("csv", "locations_seed.csv", "path to the locations CSV")
	flag.Parse()

	config.LoadEnv()

	db, err := database.NewDB(config.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	locations, skipped, err := parseLocations(file)
	if err != nil {
		log.Fatalf("%v", err)
	}

	count := 0
	for _, loc := range locations {
		if err := db.InsertLocation(loc.Name, loc.Latitude, loc.Longitude); err != nil {
			if errors.Is(err, database.ErrDuplicateLocation) {
				log.Printf("Location already exists: %s", loc.Name)
			} else {
				log.Printf("Failed to insert location %s: %v", loc.Name, err)
			}
			skipped++
			continue
		}

		count++
		if count%100 == 0 {
			log.Printf("Inserted %d locations...", count)
		}
	}

	log.Printf("✓ Import complete: inserted %d locations, skipped %d", count, skipped)
}
