package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"platewatch/internal/model"
	"platewatch/internal/repository/sqlite"
)

func main() {
	input := flag.String("input", "plates.json", "JSON array of detections, as served by GET /api/plates")
	dbPath := flag.String("db", "data/plates.db", "Database path")
	replace := flag.Bool("replace", false, "Delete existing plate records before importing")
	flag.Parse()

	fmt.Printf("Importing detections from %s to database %s\n", *input, *dbPath)

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	var dets []model.Detection
	if err := json.Unmarshal(data, &dets); err != nil {
		log.Fatalf("Failed to parse input: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	plates := sqlite.NewPlateRepository(db)

	recs := make([]model.PlateRecord, 0, len(dets))
	skipped := 0
	for _, d := range dets {
		ts, err := d.Time(time.Local)
		if err != nil || strings.TrimSpace(d.PlateNumber) == "" {
			log.Printf("⚠️  Skipping %q at %q: invalid record", d.PlateNumber, d.Timestamp)
			skipped++
			continue
		}

		rec := model.PlateRecord{
			PlateNumber: d.PlateNumber,
			Confidence:  d.Confidence,
			Timestamp:   ts,
			ProcessedBy: d.ProcessedBy,
			ActionTaken: d.ActionTaken,
		}
		if rec.ProcessedBy == "" {
			rec.ProcessedBy = "import"
		}
		if d.IsAuthorized != nil {
			rec.IsAuthorized = *d.IsAuthorized
		}
		recs = append(recs, rec)
	}

	if len(recs) == 0 {
		fmt.Println("No detections found to import")
		return
	}

	if *replace {
		if err := plates.DeleteAll(); err != nil {
			log.Fatalf("Failed to clear plates: %v", err)
		}
	}

	fmt.Printf("Inserting %d detections into database...\n", len(recs))
	if err := plates.InsertBatch(recs); err != nil {
		log.Fatalf("Failed to insert detections: %v", err)
	}

	fmt.Printf("✅ Successfully imported %d detections\n", len(recs))
	if skipped > 0 {
		fmt.Printf("⚠️  Skipped %d records (invalid format)\n", skipped)
	}

	if total, err := plates.Count(); err == nil {
		fmt.Printf("\n📊 Database now holds %d plate records\n", total)
	}
}
