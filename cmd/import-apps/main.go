// Command import-apps loads app catalog rows from a CSV file.
package main

import (
	"flag"
	"log"
	"os"

	"app-review-api/config"
	"app-review-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()

	var (
		filePath string
		trigger  string
		dryRun   bool
	)

	flag.StringVar(&filePath, "file", "", "path to the CSV file to import")
	flag.StringVar(&trigger, "trigger", "cli", "trigger source label stored in app_import_runs")
	flag.BoolVar(&dryRun, "dry-run", false, "parse the file without writing to the database")
	flag.Parse()

	if filePath == "" {
		log.Fatal("usage: import-apps -file <path.csv> [-dry-run] [-trigger <label>]")
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open %s: %v", filePath, err)
	}
	defer f.Close()

	svc := services.NewImportService(config.DB)
	run, err := svc.ImportApps(f, filePath, trigger, dryRun)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("import run %s finished: created=%d updated=%d skipped=%d failed=%d",
		run.RunID, run.Created, run.Updated, run.Skipped, run.Failed)
}
