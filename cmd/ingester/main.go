package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"epw-insights/internal/config"
	"epw-insights/internal/models"
	"epw-insights/internal/repository"
	"epw-insights/internal/services"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

func main() {
	// Parse command-line flags
	dataDir := flag.String("data-dir", "", "Directory containing EPW files (default: ingestion.data_dir)")
	pattern := flag.String("pattern", "", "Glob pattern for weather files (default: ingestion.pattern)")
	channels := flag.String("channels", "dbt,rh,ghi,ws", "Comma separated channels for the monthly summary")
	summary := flag.Bool("summary", true, "Print monthly statistics for each loaded dataset")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *dataDir == "" {
		*dataDir = cfg.Ingestion.DataDir
	}
	if *pattern == "" {
		*pattern = cfg.Ingestion.Pattern
	}

	logger := logging.NewStructuredLoggerWithFormat("epw-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting EPW ingestion", logging.Fields{
		"version":  "1.0.0",
		"data_dir": *dataDir,
		"pattern":  *pattern,
	})

	metricsCollector := metrics.NewCollector("epw_ingester")
	weatherRepo := repository.NewWeatherRepository(logger, metricsCollector)

	ingestionService := services.NewIngestionService(weatherRepo, logger, metricsCollector, *pattern)
	statsService := services.NewStatisticsService(weatherRepo, logger, metricsCollector)

	result, err := ingestionService.IngestDirectory(ctx, *dataDir)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"data_dir": *dataDir,
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Loaded Files:       %d\n", result.LoadedFiles)
	fmt.Printf("Failed Files:       %d\n", result.FailedFiles)
	fmt.Printf("Partial Years:      %d\n", result.PartialYear)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	if *summary {
		var keys []string
		for _, k := range strings.Split(*channels, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		for _, f := range result.Files {
			if f.DatasetID == "" {
				continue
			}
			if err := printMonthly(ctx, statsService, f, keys); err != nil {
				logger.Error(ctx, "[STATS_ERROR] Monthly statistics failed", logging.Fields{
					"dataset_id": f.DatasetID,
				}, err)
				fmt.Printf("Monthly statistics for %s failed: %v\n", f.Source, err)
			}
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed", logging.Fields{
		"loaded_files":     result.LoadedFiles,
		"failed_files":     result.FailedFiles,
		"total_records":    result.TotalRecords,
		"duration_seconds": result.Duration.Seconds(),
	})
}

func printMonthly(ctx context.Context, stats *services.StatisticsService, f services.FileIngestionResult, keys []string) error {
	rows, err := stats.MonthlyStatistics(ctx, f.DatasetID, keys, true)
	if err != nil {
		return err
	}
	resolved, err := services.ResolveChannels(keys)
	if err != nil {
		return err
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("%s (%s)\n", f.Source, f.DatasetID)
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("%-10s %6s %6s", "Period", "Hours", "Wind")
	for _, c := range resolved {
		fmt.Printf(" %12s", c.Key+" ("+unit(c)+")")
	}
	fmt.Println()

	for _, row := range rows {
		fmt.Printf("%-10s %6d %6s", row.Label, row.Hours, row.PrevailingWind)
		for _, c := range resolved {
			fmt.Printf(" %12s", format(row.Channels[c.Key].Mean))
		}
		fmt.Println()
	}
	return nil
}

func unit(c models.Channel) string {
	if c.Unit == "" {
		return "-"
	}
	return c.Unit
}

func format(v models.Float) string {
	if math.IsNaN(float64(v)) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", float64(v))
}
