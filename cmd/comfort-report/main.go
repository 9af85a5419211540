package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"epw-insights/internal/epw"
	"epw-insights/internal/models"
	"epw-insights/internal/services"
	"epw-insights/pkg/comfort"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/psychro"
)

// comfort-report reads EPW files straight from disk, without the API, and
// prints how many hours of each year fall inside the comfort zone.
func main() {
	dataDir := flag.String("data-dir", "./epw_data", "Directory containing EPW files")
	model := flag.String("model", services.ModelASHRAE, "Comfort preset: ashrae or iso")
	top := flag.Int("top", 5, "Number of busiest chart cells to list")
	flag.Parse()

	logger := logging.NewStructuredLoggerWithFormat("comfort-report", "1.0.0", logging.InfoLevel, "text")
	ctx := context.Background()

	params := comfort.ASHRAE55Defaults
	if strings.EqualFold(*model, services.ModelISO) {
		params = comfort.ISO7730Defaults
	}

	files, err := filepath.Glob(filepath.Join(*dataDir, services.DefaultPattern))
	if err != nil {
		fmt.Printf("Error reading directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("═", 64))
	fmt.Printf("COMFORT REPORT (%s, PMV ±%.1f)\n", strings.ToUpper(*model), params.PMVLimit)
	fmt.Println(strings.Repeat("═", 64))
	fmt.Printf("Found %d weather files\n\n", len(files))

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			logger.Error(ctx, "[REPORT_OPEN_ERROR] Failed to open file", logging.Fields{"file": path}, err)
			continue
		}
		ds, err := epw.Parse(f)
		f.Close()
		if err != nil {
			logger.Error(ctx, "[REPORT_PARSE_ERROR] Failed to parse file", logging.Fields{"file": path}, err)
			continue
		}
		report(filepath.Base(path), ds, params, *top)
	}
}

func report(name string, ds *models.WeatherDataset, p comfort.Parameters, top int) {
	fmt.Println(strings.Repeat("─", 64))
	fmt.Printf("%s  %s\n", name, ds.Location.DisplayName())
	fmt.Println(strings.Repeat("─", 64))

	var comfortable, cold, hot, missing int
	for _, r := range ds.Records {
		if math.IsNaN(r.DryBulbTemperature) || math.IsNaN(r.RelativeHumidity) {
			missing++
			continue
		}
		b, ok := p.Bounds(r.RelativeHumidity)
		switch {
		case !ok:
			missing++
		case r.DryBulbTemperature < b.Lower:
			cold++
		case r.DryBulbTemperature > b.Upper:
			hot++
		default:
			comfortable++
		}
	}

	total := len(ds.Records)
	fmt.Printf("  Hours:        %d\n", total)
	fmt.Printf("  Comfortable:  %d (%.1f%%)\n", comfortable, percent(comfortable, total))
	fmt.Printf("  Too cold:     %d (%.1f%%)\n", cold, percent(cold, total))
	fmt.Printf("  Too hot:      %d (%.1f%%)\n", hot, percent(hot, total))
	fmt.Printf("  Not rated:    %d\n", missing)

	bounds := psychro.DefaultChartBounds
	bins := psychro.Heatmap(services.ChartPoints(ds.Records, bounds), bounds, psychro.HeatmapXBins, psychro.HeatmapYBins)
	sort.Slice(bins, func(i, j int) bool { return bins[i].Count > bins[j].Count })
	if len(bins) > top {
		bins = bins[:top]
	}
	if len(bins) > 0 {
		fmt.Println("  Busiest chart cells:")
	}
	for _, b := range bins {
		fmt.Printf("    %5.1f..%5.1f °C  %6.4f..%6.4f kg/kg  %5d h\n", b.X0, b.X1, b.Y0, b.Y1, b.Count)
	}
	fmt.Println()
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
