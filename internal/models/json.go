package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Float is a float64 that encodes NaN and ±Inf as JSON null and decodes null as NaN.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// recordJSON is the wire form of WeatherRecord.
type recordJSON struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
	DataSource string `json:"data_source"`

	DryBulbTemperature                    Float `json:"dry_bulb_temperature"`
	DewPointTemperature                   Float `json:"dew_point_temperature"`
	RelativeHumidity                      Float `json:"relative_humidity"`
	AtmosphericStationPressure            Float `json:"atmospheric_station_pressure"`
	ExtraterrestrialHorizontalRadiation   Float `json:"extraterrestrial_horizontal_radiation"`
	ExtraterrestrialDirectNormalRadiation Float `json:"extraterrestrial_direct_normal_radiation"`
	HorizontalInfraredRadiationIntensity  Float `json:"horizontal_infrared_radiation_intensity"`
	GlobalHorizontalRadiation             Float `json:"global_horizontal_radiation"`
	DirectNormalRadiation                 Float `json:"direct_normal_radiation"`
	DiffuseHorizontalRadiation            Float `json:"diffuse_horizontal_radiation"`
	GlobalHorizontalIlluminance           Float `json:"global_horizontal_illuminance"`
	DirectNormalIlluminance               Float `json:"direct_normal_illuminance"`
	DiffuseHorizontalIlluminance          Float `json:"diffuse_horizontal_illuminance"`
	ZenithLuminance                       Float `json:"zenith_luminance"`
	WindDirection                         Float `json:"wind_direction"`
	WindSpeed                             Float `json:"wind_speed"`
	TotalSkyCover                         Float `json:"total_sky_cover"`
	OpaqueSkyCover                        Float `json:"opaque_sky_cover"`
	Visibility                            Float `json:"visibility"`
	CeilingHeight                         Float `json:"ceiling_height"`
	PresentWeatherObservation             Float `json:"present_weather_observation"`
	PresentWeatherCodes                   Float `json:"present_weather_codes"`
	PrecipitableWater                     Float `json:"precipitable_water"`
	AerosolOpticalDepth                   Float `json:"aerosol_optical_depth"`
	SnowDepth                             Float `json:"snow_depth"`
	DaysSinceLastSnowfall                 Float `json:"days_since_last_snowfall"`
	Albedo                                Float `json:"albedo"`
	LiquidPrecipitationDepth              Float `json:"liquid_precipitation_depth"`
	LiquidPrecipitationQuantity           Float `json:"liquid_precipitation_quantity"`

	Timestamp time.Time `json:"timestamp"`
}

// MarshalJSON writes missing channel values as null.
func (r WeatherRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Year:       r.Year,
		Month:      r.Month,
		Day:        r.Day,
		Hour:       r.Hour,
		Minute:     r.Minute,
		DataSource: r.DataSource,

		DryBulbTemperature:                    Float(r.DryBulbTemperature),
		DewPointTemperature:                   Float(r.DewPointTemperature),
		RelativeHumidity:                      Float(r.RelativeHumidity),
		AtmosphericStationPressure:            Float(r.AtmosphericStationPressure),
		ExtraterrestrialHorizontalRadiation:   Float(r.ExtraterrestrialHorizontalRadiation),
		ExtraterrestrialDirectNormalRadiation: Float(r.ExtraterrestrialDirectNormalRadiation),
		HorizontalInfraredRadiationIntensity:  Float(r.HorizontalInfraredRadiationIntensity),
		GlobalHorizontalRadiation:             Float(r.GlobalHorizontalRadiation),
		DirectNormalRadiation:                 Float(r.DirectNormalRadiation),
		DiffuseHorizontalRadiation:            Float(r.DiffuseHorizontalRadiation),
		GlobalHorizontalIlluminance:           Float(r.GlobalHorizontalIlluminance),
		DirectNormalIlluminance:               Float(r.DirectNormalIlluminance),
		DiffuseHorizontalIlluminance:          Float(r.DiffuseHorizontalIlluminance),
		ZenithLuminance:                       Float(r.ZenithLuminance),
		WindDirection:                         Float(r.WindDirection),
		WindSpeed:                             Float(r.WindSpeed),
		TotalSkyCover:                         Float(r.TotalSkyCover),
		OpaqueSkyCover:                        Float(r.OpaqueSkyCover),
		Visibility:                            Float(r.Visibility),
		CeilingHeight:                         Float(r.CeilingHeight),
		PresentWeatherObservation:             Float(r.PresentWeatherObservation),
		PresentWeatherCodes:                   Float(r.PresentWeatherCodes),
		PrecipitableWater:                     Float(r.PrecipitableWater),
		AerosolOpticalDepth:                   Float(r.AerosolOpticalDepth),
		SnowDepth:                             Float(r.SnowDepth),
		DaysSinceLastSnowfall:                 Float(r.DaysSinceLastSnowfall),
		Albedo:                                Float(r.Albedo),
		LiquidPrecipitationDepth:              Float(r.LiquidPrecipitationDepth),
		LiquidPrecipitationQuantity:           Float(r.LiquidPrecipitationQuantity),

		Timestamp: r.Timestamp,
	})
}
