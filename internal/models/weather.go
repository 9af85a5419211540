package models

import (
	"math"
	"time"
)

// FullYearHours is the record count of a complete non-leap hourly year.
const FullYearHours = 8760

// EPWFieldCount is the fixed number of comma separated fields on a data line.
const EPWFieldCount = 35

// WeatherRecord is one hour of observations from an EPW data line.
// Missing numeric values are NaN; use IsMissing to branch on them.
type WeatherRecord struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	Hour       int    `json:"hour"` // 1-24, hour ending
	Minute     int    `json:"minute"`
	DataSource string `json:"data_source"`

	DryBulbTemperature                    float64 `json:"dry_bulb_temperature"`
	DewPointTemperature                   float64 `json:"dew_point_temperature"`
	RelativeHumidity                      float64 `json:"relative_humidity"`
	AtmosphericStationPressure            float64 `json:"atmospheric_station_pressure"`
	ExtraterrestrialHorizontalRadiation   float64 `json:"extraterrestrial_horizontal_radiation"`
	ExtraterrestrialDirectNormalRadiation float64 `json:"extraterrestrial_direct_normal_radiation"`
	HorizontalInfraredRadiationIntensity  float64 `json:"horizontal_infrared_radiation_intensity"`
	GlobalHorizontalRadiation             float64 `json:"global_horizontal_radiation"`
	DirectNormalRadiation                 float64 `json:"direct_normal_radiation"`
	DiffuseHorizontalRadiation            float64 `json:"diffuse_horizontal_radiation"`
	GlobalHorizontalIlluminance           float64 `json:"global_horizontal_illuminance"`
	DirectNormalIlluminance               float64 `json:"direct_normal_illuminance"`
	DiffuseHorizontalIlluminance          float64 `json:"diffuse_horizontal_illuminance"`
	ZenithLuminance                       float64 `json:"zenith_luminance"`
	WindDirection                         float64 `json:"wind_direction"`
	WindSpeed                             float64 `json:"wind_speed"`
	TotalSkyCover                         float64 `json:"total_sky_cover"`
	OpaqueSkyCover                        float64 `json:"opaque_sky_cover"`
	Visibility                            float64 `json:"visibility"`
	CeilingHeight                         float64 `json:"ceiling_height"`
	PresentWeatherObservation             float64 `json:"present_weather_observation"`
	PresentWeatherCodes                   float64 `json:"present_weather_codes"`
	PrecipitableWater                     float64 `json:"precipitable_water"`
	AerosolOpticalDepth                   float64 `json:"aerosol_optical_depth"`
	SnowDepth                             float64 `json:"snow_depth"`
	DaysSinceLastSnowfall                 float64 `json:"days_since_last_snowfall"`
	Albedo                                float64 `json:"albedo"`
	LiquidPrecipitationDepth              float64 `json:"liquid_precipitation_depth"`
	LiquidPrecipitationQuantity           float64 `json:"liquid_precipitation_quantity"`

	// Timestamp uses the zero-based hour in the station's fixed UTC offset.
	Timestamp time.Time `json:"timestamp"`
}

// IsMissing reports whether a numeric channel value is absent.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// LocationMetadata is the parsed LOCATION header.
type LocationMetadata struct {
	City             string  `json:"city"`
	StateProvince    string  `json:"state_province"`
	Country          string  `json:"country"`
	Source           string  `json:"source"`
	WMOStationNumber string  `json:"wmo_station_number"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"` // positive east
	TimeZone         float64 `json:"time_zone"` // UTC offset in hours
	Elevation        float64 `json:"elevation"`
}

// HolidaysDaylightSaving is the HOLIDAYS/DAYLIGHT SAVING header.
type HolidaysDaylightSaving struct {
	LeapYearObserved        string `json:"leap_year_observed"`
	DaylightSavingStartDate string `json:"daylight_saving_start_date"`
	DaylightSavingEndDate   string `json:"daylight_saving_end_date"`
	NumberOfHolidays        int    `json:"number_of_holidays"`
}

// DataPeriod is one DATA PERIODS header entry.
type DataPeriod struct {
	NumberOfPeriods int    `json:"number_of_periods"`
	RecordsPerHour  int    `json:"records_per_hour"`
	PeriodName      string `json:"period_name"`
	StartDayOfWeek  string `json:"start_day_of_week"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
}

// WeatherDataset is a parsed EPW file. It is built once and not mutated afterwards.
type WeatherDataset struct {
	Location               LocationMetadata        `json:"location"`
	DesignConditions       [][]string              `json:"design_conditions,omitempty"`
	TypicalExtremePeriods  [][]string              `json:"typical_extreme_periods,omitempty"`
	GroundTemperatures     [][]string              `json:"ground_temperatures,omitempty"`
	HolidaysDaylightSaving *HolidaysDaylightSaving `json:"holidays_daylight_saving,omitempty"`
	Comments1              string                  `json:"comments_1,omitempty"`
	Comments2              string                  `json:"comments_2,omitempty"`
	DataPeriods            []DataPeriod            `json:"data_periods,omitempty"`
	Records                []WeatherRecord         `json:"-"`
	Warnings               []string                `json:"warnings,omitempty"`
}

// IsPartialYear reports a dataset holding some, but fewer than a year of, hourly records.
func (d *WeatherDataset) IsPartialYear() bool {
	n := len(d.Records)
	return n > 0 && n < FullYearHours
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
