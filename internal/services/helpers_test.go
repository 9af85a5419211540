package services

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"epw-insights/internal/repository"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

const epwHeader = `LOCATION,OSLO-BLINDERN,-,NOR,IWEC Data,014920,59.93,10.72,1.0,94.0
DESIGN CONDITIONS,0
TYPICAL/EXTREME PERIODS,0
GROUND TEMPERATURES,0
HOLIDAYS/DAYLIGHT SAVING,No,0,0,0
COMMENTS 1,IWEC- WMO#014920
COMMENTS 2, -- Ground temps produced with a standard soil diffusivity
DATA PERIODS,1,1,Data,Sunday, 1/ 1,12/31
`

type hour struct {
	month, day, hour int
	dbt, rh          float64
	wd, ws           float64
}

func epwLine(h hour) string {
	return fmt.Sprintf("2023,%d,%d,%d,0,A7A7,%g,5.0,%g,101325,0,0,300,100,50,50,0,0,0,0,%g,%g,5,3,16.0,77777,9,999999999,10,0.1,0,88,0.2,0.0,0.0",
		h.month, h.day, h.hour, h.dbt, h.rh, h.wd, h.ws)
}

func epwText(hours ...hour) string {
	var b strings.Builder
	b.WriteString(epwHeader)
	for _, h := range hours {
		b.WriteString(epwLine(h))
		b.WriteString("\n")
	}
	return b.String()
}

// fullYear builds 8760 hours of mild weather with a south-west wind.
func fullYear() string {
	days := []int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	hours := make([]hour, 0, 8760)
	for m, n := range days {
		for d := 1; d <= n; d++ {
			for h := 1; h <= 24; h++ {
				hours = append(hours, hour{m + 1, d, h, float64(m + 10), 50, 225, 3})
			}
		}
	}
	return epwText(hours...)
}

type fixture struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := logging.NewStructuredLogger("test", "0", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	m, _ := metrics.NewCollectorForTesting()
	return fixture{
		repo:    repository.NewWeatherRepository(logger, m),
		logger:  logger,
		metrics: m,
	}
}
