// Package epw parses EnergyPlus Weather (EPW) files into weather datasets.
package epw

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"epw-insights/internal/models"
)

// HeaderLines is the number of fixed header lines preceding the hourly data.
const HeaderLines = 8

// Header keywords recognised in the first HeaderLines lines.
const (
	KeywordLocation              = "LOCATION"
	KeywordDesignConditions      = "DESIGN CONDITIONS"
	KeywordTypicalExtremePeriods = "TYPICAL/EXTREME PERIODS"
	KeywordGroundTemperatures    = "GROUND TEMPERATURES"
	KeywordHolidays              = "HOLIDAYS/DAYLIGHT SAVING"
	KeywordComments1             = "COMMENTS 1"
	KeywordComments2             = "COMMENTS 2"
	KeywordDataPeriods           = "DATA PERIODS"
)

// requiredFields is the minimum comma separated field count, keyword included.
var requiredFields = map[string]int{
	KeywordLocation:              10,
	KeywordDesignConditions:      1,
	KeywordTypicalExtremePeriods: 1,
	KeywordGroundTemperatures:    1,
	KeywordHolidays:              5,
	KeywordComments1:             1,
	KeywordComments2:             1,
	KeywordDataPeriods:           7,
}

// missingPrefix marks a token as missing when the trimmed text starts with it.
// The check runs on the raw token text, before numeric conversion.
const missingPrefix = "99"

// dataSourceField is the only textual field on a data line.
const dataSourceField = 5

// ParseError describes a fatal problem in EPW text. No partial dataset
// accompanies it.
type ParseError struct {
	Line    int // 1-based, 0 when not tied to a line
	Field   string
	Value   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		if e.Field != "" {
			return fmt.Sprintf("epw line %d: %s (%s=%q)", e.Line, e.Message, e.Field, e.Value)
		}
		return fmt.Sprintf("epw line %d: %s", e.Line, e.Message)
	}
	return "epw: " + e.Message
}

// IsTransient returns false; malformed input does not heal on retry.
func (e *ParseError) IsTransient() bool {
	return false
}

// ParseString parses EPW text held in memory.
func ParseString(s string) (*models.WeatherDataset, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads EPW text from r and builds a dataset. Lines may end with
// \r\n, \n or \r. A dataset with fewer than a full year of records is
// returned with a warning attached rather than an error.
func Parse(r io.Reader) (*models.WeatherDataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(scanLines)

	ds := &models.WeatherDataset{}
	lineNo := 0
	haveLocation := false
	var zone *time.Location

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if lineNo <= HeaderLines {
			found, err := parseHeader(ds, line, lineNo)
			if err != nil {
				return nil, err
			}
			haveLocation = haveLocation || found
			continue
		}

		if zone == nil {
			if !haveLocation {
				return nil, &ParseError{Message: "missing LOCATION header"}
			}
			zone = FixedZone(ds.Location.TimeZone)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseRecord(line, lineNo, zone)
		if err != nil {
			return nil, err
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading epw data: %w", err)
	}

	if lineNo < HeaderLines {
		return nil, &ParseError{Message: fmt.Sprintf("expected %d header lines, found %d", HeaderLines, lineNo)}
	}
	if !haveLocation {
		return nil, &ParseError{Message: "missing LOCATION header"}
	}

	if ds.IsPartialYear() {
		ds.Warnings = append(ds.Warnings, fmt.Sprintf(
			"Parsed EPW file contains %d data records. A full year is %d.",
			len(ds.Records), models.FullYearHours))
	}

	return ds, nil
}

// FixedZone returns the fixed-offset location for a fractional UTC offset in hours.
func FixedZone(offsetHours float64) *time.Location {
	if math.IsNaN(offsetHours) || math.IsInf(offsetHours, 0) {
		return time.UTC
	}
	seconds := int(math.Round(offsetHours * 3600))
	sign := "+"
	if seconds < 0 {
		sign = "-"
	}
	abs := seconds
	if abs < 0 {
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, seconds)
}

// parseHeader applies one header line to ds. It reports whether the line
// was the LOCATION header.
func parseHeader(ds *models.WeatherDataset, line string, lineNo int) (bool, error) {
	parts := strings.Split(line, ",")
	keyword := strings.TrimSpace(parts[0])

	required, known := requiredFields[keyword]
	if !known {
		return false, nil
	}
	if len(parts) < required {
		return false, &ParseError{
			Line:    lineNo,
			Field:   keyword,
			Value:   strconv.Itoa(len(parts)),
			Message: fmt.Sprintf("%s header needs %d fields, found %d", keyword, required, len(parts)),
		}
	}

	switch keyword {
	case KeywordLocation:
		loc, err := parseLocation(parts, lineNo)
		if err != nil {
			return false, err
		}
		ds.Location = loc
		return true, nil
	case KeywordDesignConditions:
		ds.DesignConditions = append(ds.DesignConditions, parts[1:])
	case KeywordTypicalExtremePeriods:
		ds.TypicalExtremePeriods = append(ds.TypicalExtremePeriods, parts[1:])
	case KeywordGroundTemperatures:
		ds.GroundTemperatures = append(ds.GroundTemperatures, parts[1:])
	case KeywordHolidays:
		ds.HolidaysDaylightSaving = &models.HolidaysDaylightSaving{
			LeapYearObserved:        strings.TrimSpace(parts[1]),
			DaylightSavingStartDate: strings.TrimSpace(parts[2]),
			DaylightSavingEndDate:   strings.TrimSpace(parts[3]),
			NumberOfHolidays:        parseIntOrZero(parts[4]),
		}
	case KeywordComments1:
		ds.Comments1 = strings.TrimSpace(strings.Join(parts[1:], ","))
	case KeywordComments2:
		ds.Comments2 = strings.TrimSpace(strings.Join(parts[1:], ","))
	case KeywordDataPeriods:
		ds.DataPeriods = append(ds.DataPeriods, models.DataPeriod{
			NumberOfPeriods: parseIntOrZero(parts[1]),
			RecordsPerHour:  parseIntOrZero(parts[2]),
			PeriodName:      strings.TrimSpace(parts[3]),
			StartDayOfWeek:  strings.TrimSpace(parts[4]),
			StartDate:       strings.TrimSpace(parts[5]),
			EndDate:         strings.TrimSpace(parts[6]),
		})
	}
	return false, nil
}

func parseLocation(parts []string, lineNo int) (models.LocationMetadata, error) {
	loc := models.LocationMetadata{
		City:             strings.TrimSpace(parts[1]),
		StateProvince:    strings.TrimSpace(parts[2]),
		Country:          strings.TrimSpace(parts[3]),
		Source:           strings.TrimSpace(parts[4]),
		WMOStationNumber: strings.TrimSpace(parts[5]),
	}

	numeric := []struct {
		name  string
		index int
		dst   *float64
	}{
		{"latitude", 6, &loc.Latitude},
		{"longitude", 7, &loc.Longitude},
		{"time_zone", 8, &loc.TimeZone},
		{"elevation", 9, &loc.Elevation},
	}
	for _, n := range numeric {
		raw := strings.TrimSpace(parts[n.index])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return loc, &ParseError{
				Line:    lineNo,
				Field:   n.name,
				Value:   raw,
				Message: "LOCATION field is not a number",
			}
		}
		*n.dst = v
	}
	return loc, nil
}

func parseRecord(line string, lineNo int, zone *time.Location) (models.WeatherRecord, error) {
	values := strings.Split(line, ",")
	if len(values) < models.EPWFieldCount {
		return models.WeatherRecord{}, &ParseError{
			Line:    lineNo,
			Message: fmt.Sprintf("data line needs %d fields, found %d", models.EPWFieldCount, len(values)),
		}
	}

	rec := models.WeatherRecord{DataSource: values[dataSourceField]}

	calendar := []struct {
		name     string
		dst      *int
		min, max int
	}{
		{"year", &rec.Year, math.MinInt32, math.MaxInt32},
		{"month", &rec.Month, 1, 12},
		{"day", &rec.Day, 1, 31},
		{"hour", &rec.Hour, 1, 24},
		{"minute", &rec.Minute, 0, 60},
	}
	for i, c := range calendar {
		v := parseNumber(values[i])
		if math.IsNaN(v) || v != math.Trunc(v) || v < float64(c.min) || v > float64(c.max) {
			return models.WeatherRecord{}, &ParseError{
				Line:    lineNo,
				Field:   c.name,
				Value:   strings.TrimSpace(values[i]),
				Message: "invalid calendar field",
			}
		}
		*c.dst = int(v)
	}

	for _, ch := range models.Channels {
		ch.Set(&rec, parseNumber(values[ch.FieldIndex]))
	}

	minute := rec.Minute
	if minute == 60 {
		minute = 0
	}
	rec.Timestamp = time.Date(rec.Year, time.Month(rec.Month), rec.Day, rec.Hour-1, minute, 0, 0, zone)

	return rec, nil
}

// parseNumber converts one data token; missing or unparseable tokens become NaN.
func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, missingPrefix) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseIntOrZero(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return v
}

// scanLines splits on \r\n, \n or a lone \r.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// \r: need one more byte to tell \r\n from a lone \r
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
