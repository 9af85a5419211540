package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"time"

	"epw-insights/internal/models"
	"epw-insights/internal/repository"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

// Prevailing wind labels.
const (
	WindCalm         = "Calm"
	WindNotAvailable = "N/A"
	// calmWindSpeed is the speed (m/s) at or below which an hour has no direction.
	calmWindSpeed = 0.1
)

var compassSectors = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// StatisticsService aggregates hourly records of a dataset
type StatisticsService struct {
	repo    repository.WeatherRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// ChannelStats aggregates one channel over a period. Missing values are
// skipped; Mean, Min and Max are NaN (null in JSON) when nothing is left.
type ChannelStats struct {
	Mean  models.Float `json:"mean"`
	Min   models.Float `json:"min"`
	Max   models.Float `json:"max"`
	Sum   models.Float `json:"sum"`
	Count int          `json:"count"`
}

// PeriodSummary holds aggregates for a month, a day or the whole dataset.
type PeriodSummary struct {
	Label          string                  `json:"label"`
	Month          int                     `json:"month,omitempty"`
	Day            int                     `json:"day,omitempty"`
	Hours          int                     `json:"hours"`
	PrevailingWind string                  `json:"prevailing_wind"`
	Channels       map[string]ChannelStats `json:"channels"`
}

// MonthDay is a calendar day without a year, written MM-DD.
type MonthDay struct {
	Month int
	Day   int
}

var monthDayPattern = regexp.MustCompile(`^\d{2}-\d{2}$`)

// ParseMonthDay parses "MM-DD". Both fields must be exactly two digits.
func ParseMonthDay(s string) (MonthDay, error) {
	if !monthDayPattern.MatchString(s) {
		return MonthDay{}, &models.ValidationError{Field: "date", Value: s, Message: fmt.Sprintf("invalid month-day %q, want MM-DD", s)}
	}
	month, _ := strconv.Atoi(s[:2])
	day, _ := strconv.Atoi(s[3:])
	md := MonthDay{Month: month, Day: day}
	if md.Month < 1 || md.Month > 12 || md.Day < 1 || md.Day > 31 {
		return MonthDay{}, &models.ValidationError{Field: "date", Value: s, Message: fmt.Sprintf("month-day %q out of range", s)}
	}
	return md, nil
}

func (m MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", m.Month, m.Day)
}

func (m MonthDay) ordinal() int {
	return m.Month*100 + m.Day
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.WeatherRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ResolveChannels maps channel keys to channels. No keys selects every channel.
func ResolveChannels(keys []string) ([]models.Channel, error) {
	if len(keys) == 0 {
		return models.Channels, nil
	}
	out := make([]models.Channel, 0, len(keys))
	for _, k := range keys {
		c, ok := models.ChannelByKey(k)
		if !ok {
			return nil, &models.ValidationError{Field: "channels", Value: k, Message: fmt.Sprintf("unknown channel %q", k)}
		}
		out = append(out, c)
	}
	return out, nil
}

// MonthlyStatistics aggregates a dataset by calendar month in month order,
// optionally followed by an "Annual" row over every record.
func (s *StatisticsService) MonthlyStatistics(ctx context.Context, datasetID string, channelKeys []string, annual bool) ([]PeriodSummary, error) {
	channels, err := ResolveChannels(channelKeys)
	if err != nil {
		return nil, err
	}
	ds, err := s.repo.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	timer := s.metrics.TimeComputation("stats_monthly")
	out := MonthlySummaries(ds.Dataset.Records, channels, annual)
	elapsed := timer.ObserveDuration()
	s.metrics.ProcessingTimeMS.WithLabelValues("stats_monthly").Observe(float64(elapsed.Microseconds()) / 1000)

	s.logger.Debug(ctx, "[STATS_MONTHLY] Monthly statistics calculated", logging.Fields{
		"dataset_id": datasetID,
		"rows":       len(out),
		"channels":   len(channels),
	})
	return out, nil
}

// DailyStatistics aggregates each day between start and end, both inclusive.
func (s *StatisticsService) DailyStatistics(ctx context.Context, datasetID string, channelKeys []string, start, end MonthDay) ([]PeriodSummary, error) {
	channels, err := ResolveChannels(channelKeys)
	if err != nil {
		return nil, err
	}
	if start.ordinal() > end.ordinal() {
		return nil, &models.ValidationError{Field: "end", Value: end.String(), Message: "end must not be before start"}
	}
	ds, err := s.repo.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	timer := s.metrics.TimeComputation("stats_daily")
	out := DailySummaries(ds.Dataset.Records, channels, start, end)
	elapsed := timer.ObserveDuration()
	s.metrics.ProcessingTimeMS.WithLabelValues("stats_daily").Observe(float64(elapsed.Microseconds()) / 1000)

	s.logger.Debug(ctx, "[STATS_DAILY] Daily statistics calculated", logging.Fields{
		"dataset_id": datasetID,
		"start":      start.String(),
		"end":        end.String(),
		"rows":       len(out),
	})
	return out, nil
}

// MonthlySummaries groups records by month. Months without records are absent.
func MonthlySummaries(records []models.WeatherRecord, channels []models.Channel, annual bool) []PeriodSummary {
	byMonth := make(map[int][]models.WeatherRecord)
	for _, r := range records {
		byMonth[r.Month] = append(byMonth[r.Month], r)
	}
	months := make([]int, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Ints(months)

	out := make([]PeriodSummary, 0, len(months)+1)
	for _, m := range months {
		sum := SummarizePeriod(byMonth[m], channels)
		sum.Label = time.Month(m).String()
		sum.Month = m
		out = append(out, sum)
	}
	if annual && len(records) > 0 {
		sum := SummarizePeriod(records, channels)
		sum.Label = "Annual"
		out = append(out, sum)
	}
	return out
}

// DailySummaries groups records by calendar day in file order, keeping days
// whose month-day lies in [start, end].
func DailySummaries(records []models.WeatherRecord, channels []models.Channel, start, end MonthDay) []PeriodSummary {
	type dayKey struct{ year, month, day int }

	var order []dayKey
	groups := make(map[dayKey][]models.WeatherRecord)
	for _, r := range records {
		md := MonthDay{Month: r.Month, Day: r.Day}.ordinal()
		if md < start.ordinal() || md > end.ordinal() {
			continue
		}
		k := dayKey{r.Year, r.Month, r.Day}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := make([]PeriodSummary, 0, len(order))
	for _, k := range order {
		sum := SummarizePeriod(groups[k], channels)
		sum.Label = MonthDay{Month: k.month, Day: k.day}.String()
		sum.Month = k.month
		sum.Day = k.day
		out = append(out, sum)
	}
	return out
}

// SummarizePeriod aggregates channels and prevailing wind over records.
func SummarizePeriod(records []models.WeatherRecord, channels []models.Channel) PeriodSummary {
	sum := PeriodSummary{
		Hours:          len(records),
		PrevailingWind: PrevailingWind(records),
		Channels:       make(map[string]ChannelStats, len(channels)),
	}
	for _, c := range channels {
		sum.Channels[c.Key] = aggregate(records, c)
	}
	return sum
}

func aggregate(records []models.WeatherRecord, c models.Channel) ChannelStats {
	stats := ChannelStats{
		Min: models.Float(math.NaN()),
		Max: models.Float(math.NaN()),
	}
	var total float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range records {
		v := c.Value(&records[i])
		if math.IsNaN(v) {
			continue
		}
		stats.Count++
		total += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	stats.Sum = models.Float(total)
	if stats.Count == 0 {
		stats.Mean = models.Float(math.NaN())
		return stats
	}
	stats.Mean = models.Float(total / float64(stats.Count))
	stats.Min = models.Float(lo)
	stats.Max = models.Float(hi)
	return stats
}

// PrevailingWind returns the most frequent 16-point compass sector among
// hours with wind speed above 0.1 m/s. Ties go to the sector nearest north
// going clockwise. It returns WindCalm when no hour qualifies and
// WindNotAvailable for no records.
func PrevailingWind(records []models.WeatherRecord) string {
	if len(records) == 0 {
		return WindNotAvailable
	}
	var counts [16]int
	for _, r := range records {
		if !(r.WindSpeed > calmWindSpeed) || math.IsNaN(r.WindDirection) {
			continue
		}
		idx := int(math.Floor(r.WindDirection/22.5+0.5)) % 16
		if idx < 0 {
			idx += 16
		}
		counts[idx]++
	}
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	if counts[best] == 0 {
		return WindCalm
	}
	return compassSectors[best]
}
