package epw

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epw-insights/internal/models"
)

var headerFixture = []string{
	"LOCATION,SAN FRANCISCO INTL AP,CA,USA,TMY3,724940,37.62,-122.40,-8.0,2.0",
	"DESIGN CONDITIONS,1,Climate Design Data 2009 ASHRAE Handbook,,Heating,1,3.8,4.9",
	"TYPICAL/EXTREME PERIODS,6,Summer - Week Nearest Max Temperature For Period,Extreme,8/ 8,8/14",
	"GROUND TEMPERATURES,3,.5,,,,10.86,10.57,11.08",
	"HOLIDAYS/DAYLIGHT SAVING,No,0,0,0",
	"COMMENTS 1,Custom/User Format -- WMO#724940, with commas",
	"COMMENTS 2, -- Ground temps produced with a standard soil diffusivity",
	"DATA PERIODS,1,1,Data,Sunday, 1/ 1,12/31",
}

const dataFixture = "1999,1,1,1,0,?9?9,7.2,5.6,90,102200,0,0,288,0,0,0,0,0,0,0,170,2.1,2,2,16.0,77777,9,999999999,0,0.0000,0,88,0.000,0.0,0.0"

func fixture(data ...string) string {
	lines := append(append([]string{}, headerFixture...), data...)
	return strings.Join(lines, "\n") + "\n"
}

func requireParseError(t *testing.T, err error) *ParseError {
	t.Helper()
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T", err)
	assert.False(t, pe.IsTransient())
	return pe
}

func TestParse_SingleRecord(t *testing.T) {
	ds, err := ParseString(fixture(dataFixture))
	require.NoError(t, err)

	loc := ds.Location
	assert.Equal(t, "SAN FRANCISCO INTL AP", loc.City)
	assert.Equal(t, "CA", loc.StateProvince)
	assert.Equal(t, "USA", loc.Country)
	assert.Equal(t, "TMY3", loc.Source)
	assert.Equal(t, "724940", loc.WMOStationNumber)
	assert.Equal(t, 37.62, loc.Latitude)
	assert.Equal(t, -122.40, loc.Longitude)
	assert.Equal(t, -8.0, loc.TimeZone)
	assert.Equal(t, 2.0, loc.Elevation)

	require.Len(t, ds.Records, 1)
	r := ds.Records[0]
	assert.Equal(t, 1999, r.Year)
	assert.Equal(t, 1, r.Month)
	assert.Equal(t, 1, r.Day)
	assert.Equal(t, 1, r.Hour)
	assert.Equal(t, 0, r.Minute)
	assert.Equal(t, "?9?9", r.DataSource)
	assert.Equal(t, 7.2, r.DryBulbTemperature)
	assert.Equal(t, 5.6, r.DewPointTemperature)
}

func TestParse_FieldValues(t *testing.T) {
	ds, err := ParseString(fixture(dataFixture))
	require.NoError(t, err)
	r := ds.Records[0]

	assert.Equal(t, 90.0, r.RelativeHumidity)
	assert.Equal(t, 102200.0, r.AtmosphericStationPressure)
	assert.Equal(t, 288.0, r.HorizontalInfraredRadiationIntensity)
	assert.Equal(t, 170.0, r.WindDirection)
	assert.Equal(t, 2.1, r.WindSpeed)
	assert.Equal(t, 2.0, r.TotalSkyCover)
	assert.Equal(t, 16.0, r.Visibility)
	assert.Equal(t, 77777.0, r.CeilingHeight)
	assert.Equal(t, 9.0, r.PresentWeatherObservation)
	assert.True(t, models.IsMissing(r.PresentWeatherCodes), "999999999 is missing")
	assert.Equal(t, 88.0, r.DaysSinceLastSnowfall)
	assert.Equal(t, 0.0, r.LiquidPrecipitationQuantity)
}

func TestParse_TimestampUsesZeroBasedHour(t *testing.T) {
	ds, err := ParseString(fixture(dataFixture))
	require.NoError(t, err)

	ts := ds.Records[0].Timestamp
	assert.Equal(t, 0, ts.Hour())
	assert.Equal(t, 0, ts.Minute())
	assert.Equal(t, time.January, ts.Month())
	assert.Equal(t, 1, ts.Day())

	_, offset := ts.Zone()
	assert.Equal(t, -8*3600, offset)
}

func TestParse_MinuteSixtyKeepsHour(t *testing.T) {
	line := strings.Replace(dataFixture, "1999,1,1,1,0,", "1999,3,5,14,60,", 1)
	ds, err := ParseString(fixture(line))
	require.NoError(t, err)

	ts := ds.Records[0].Timestamp
	assert.Equal(t, 60, ds.Records[0].Minute)
	assert.Equal(t, 13, ts.Hour())
	assert.Equal(t, 0, ts.Minute())
}

func TestParse_Hour24MapsToHour23(t *testing.T) {
	line := strings.Replace(dataFixture, "1999,1,1,1,0,", "1999,12,31,24,0,", 1)
	ds, err := ParseString(fixture(line))
	require.NoError(t, err)
	assert.Equal(t, 23, ds.Records[0].Timestamp.Hour())
	assert.Equal(t, 31, ds.Records[0].Timestamp.Day())
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		missing bool
	}{
		{"21.5", 21.5, false},
		{" 21.5 ", 21.5, false},
		{"9999", 0, true},
		{"99", 0, true},
		{"99.0", 0, true},
		{" 999 ", 0, true},
		{"9", 9, false},
		{"-99", -99, false},
		{"abc", 0, true},
		{"12abc", 0, true},
		{"1.5e", 0, true},
		{"1e3", 1000, false},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := parseNumber(tt.raw)
			if tt.missing {
				assert.True(t, math.IsNaN(got), "want NaN, got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Headers(t *testing.T) {
	ds, err := ParseString(fixture(dataFixture))
	require.NoError(t, err)

	require.Len(t, ds.DesignConditions, 1)
	assert.Equal(t, "1", ds.DesignConditions[0][0])
	require.Len(t, ds.TypicalExtremePeriods, 1)
	require.Len(t, ds.GroundTemperatures, 1)
	assert.Equal(t, ".5", ds.GroundTemperatures[0][1])

	require.NotNil(t, ds.HolidaysDaylightSaving)
	assert.Equal(t, "No", ds.HolidaysDaylightSaving.LeapYearObserved)
	assert.Equal(t, 0, ds.HolidaysDaylightSaving.NumberOfHolidays)

	assert.Equal(t, "Custom/User Format -- WMO#724940, with commas", ds.Comments1)
	assert.Equal(t, "-- Ground temps produced with a standard soil diffusivity", ds.Comments2)

	require.Len(t, ds.DataPeriods, 1)
	dp := ds.DataPeriods[0]
	assert.Equal(t, 1, dp.NumberOfPeriods)
	assert.Equal(t, 1, dp.RecordsPerHour)
	assert.Equal(t, "Data", dp.PeriodName)
	assert.Equal(t, "Sunday", dp.StartDayOfWeek)
	assert.Equal(t, "1/ 1", dp.StartDate)
	assert.Equal(t, "12/31", dp.EndDate)
}

func TestParse_UnknownHeaderIgnored(t *testing.T) {
	lines := append([]string{}, headerFixture...)
	lines[3] = "SOMETHING NEW,1,2,3"
	ds, err := ParseString(strings.Join(append(lines, dataFixture), "\n"))
	require.NoError(t, err)
	assert.Empty(t, ds.GroundTemperatures)
	assert.Len(t, ds.Records, 1)
}

func TestParse_PartialYearWarning(t *testing.T) {
	ds, err := ParseString(fixture(dataFixture, dataFixture))
	require.NoError(t, err)
	require.Len(t, ds.Warnings, 1)
	assert.Contains(t, ds.Warnings[0], "2 data records")
	assert.True(t, ds.IsPartialYear())
}

func TestParse_NoRecordsNoWarning(t *testing.T) {
	ds, err := ParseString(fixture())
	require.NoError(t, err)
	assert.Empty(t, ds.Records)
	assert.Empty(t, ds.Warnings)
}

func TestParse_FullYearNoWarning(t *testing.T) {
	data := make([]string, 0, models.FullYearHours)
	start := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < models.FullYearHours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		rest := strings.SplitN(dataFixture, ",", 6)[5]
		data = append(data, fmt.Sprintf("%d,%d,%d,%d,0,%s", ts.Year(), int(ts.Month()), ts.Day(), ts.Hour()+1, rest))
	}
	ds, err := ParseString(fixture(data...))
	require.NoError(t, err)
	assert.Len(t, ds.Records, models.FullYearHours)
	assert.Empty(t, ds.Warnings)
	assert.False(t, ds.IsPartialYear())
}

func TestParse_LineEndings(t *testing.T) {
	for name, sep := range map[string]string{"crlf": "\r\n", "cr": "\r", "lf": "\n"} {
		t.Run(name, func(t *testing.T) {
			text := strings.Join(append(append([]string{}, headerFixture...), dataFixture, "", "  ", dataFixture), sep)
			ds, err := ParseString(text)
			require.NoError(t, err)
			assert.Len(t, ds.Records, 2)
			assert.Equal(t, "SAN FRANCISCO INTL AP", ds.Location.City)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	shortLoc := append([]string{}, headerFixture...)
	shortLoc[0] = "LOCATION,SAN FRANCISCO,CA,USA"

	badLat := append([]string{}, headerFixture...)
	badLat[0] = "LOCATION,SAN FRANCISCO INTL AP,CA,USA,TMY3,724940,north,-122.40,-8.0,2.0"

	shortHolidays := append([]string{}, headerFixture...)
	shortHolidays[4] = "HOLIDAYS/DAYLIGHT SAVING,No"

	shortPeriods := append([]string{}, headerFixture...)
	shortPeriods[7] = "DATA PERIODS,1,1"

	noLocation := append([]string{}, headerFixture...)
	noLocation[0] = "COMMENTS 1,no location"

	tests := []struct {
		name     string
		text     string
		wantLine int
	}{
		{"short LOCATION", strings.Join(append(shortLoc, dataFixture), "\n"), 1},
		{"non-numeric latitude", strings.Join(append(badLat, dataFixture), "\n"), 1},
		{"short HOLIDAYS", strings.Join(append(shortHolidays, dataFixture), "\n"), 5},
		{"short DATA PERIODS", strings.Join(append(shortPeriods, dataFixture), "\n"), 8},
		{"missing LOCATION", strings.Join(append(noLocation, dataFixture), "\n"), 0},
		{"too few header lines", strings.Join(headerFixture[:3], "\n"), 0},
		{"short data line", fixture("1999,1,1,1,0,?9?9,7.2"), 9},
		{"hour out of range", fixture(strings.Replace(dataFixture, "1999,1,1,1,0,", "1999,1,1,0,0,", 1)), 9},
		{"hour beyond 24", fixture(strings.Replace(dataFixture, "1999,1,1,1,0,", "1999,1,1,25,0,", 1)), 9},
		{"fractional month", fixture(strings.Replace(dataFixture, "1999,1,1,1,0,", "1999,1.5,1,1,0,", 1)), 9},
		{"missing day", fixture(strings.Replace(dataFixture, "1999,1,1,1,0,", "1999,1,99,1,0,", 1)), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseString(tt.text)
			assert.Nil(t, ds)
			pe := requireParseError(t, err)
			assert.Equal(t, tt.wantLine, pe.Line)
			assert.NotEmpty(t, pe.Error())
		})
	}
}

func TestFixedZone(t *testing.T) {
	tests := []struct {
		hours      float64
		wantOffset int
		wantName   string
	}{
		{-8, -8 * 3600, "UTC-08:00"},
		{5.5, 5*3600 + 1800, "UTC+05:30"},
		{0, 0, "UTC+00:00"},
		{math.NaN(), 0, "UTC"},
	}
	for _, tt := range tests {
		name, offset := time.Date(2020, 1, 1, 0, 0, 0, 0, FixedZone(tt.hours)).Zone()
		assert.Equal(t, tt.wantOffset, offset)
		assert.Equal(t, tt.wantName, name)
	}
}
