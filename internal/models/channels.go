package models

// Channel describes one numeric EPW data channel.
type Channel struct {
	Key        string // short key used by APIs and statistics
	Name       string
	Unit       string
	FieldIndex int // zero-based position on the EPW data line
	ref        func(*WeatherRecord) *float64
}

// Value returns the channel value on r.
func (c Channel) Value(r *WeatherRecord) float64 {
	return *c.ref(r)
}

// Set assigns the channel value on r.
func (c Channel) Set(r *WeatherRecord, v float64) {
	*c.ref(r) = v
}

// Channels lists every numeric channel in EPW field order (fields 6..34).
var Channels = []Channel{
	{"dbt", "Dry Bulb Temperature", "°C", 6, func(r *WeatherRecord) *float64 { return &r.DryBulbTemperature }},
	{"dpt", "Dew Point Temperature", "°C", 7, func(r *WeatherRecord) *float64 { return &r.DewPointTemperature }},
	{"rh", "Relative Humidity", "%", 8, func(r *WeatherRecord) *float64 { return &r.RelativeHumidity }},
	{"pres", "Atmospheric Station Pressure", "Pa", 9, func(r *WeatherRecord) *float64 { return &r.AtmosphericStationPressure }},
	{"ethr", "Extraterrestrial Horizontal Radiation", "Wh/m²", 10, func(r *WeatherRecord) *float64 { return &r.ExtraterrestrialHorizontalRadiation }},
	{"etdnr", "Extraterrestrial Direct Normal Radiation", "Wh/m²", 11, func(r *WeatherRecord) *float64 { return &r.ExtraterrestrialDirectNormalRadiation }},
	{"hir", "Horizontal Infrared Radiation Intensity", "Wh/m²", 12, func(r *WeatherRecord) *float64 { return &r.HorizontalInfraredRadiationIntensity }},
	{"ghi", "Global Horizontal Radiation", "Wh/m²", 13, func(r *WeatherRecord) *float64 { return &r.GlobalHorizontalRadiation }},
	{"dni", "Direct Normal Radiation", "Wh/m²", 14, func(r *WeatherRecord) *float64 { return &r.DirectNormalRadiation }},
	{"dhi", "Diffuse Horizontal Radiation", "Wh/m²", 15, func(r *WeatherRecord) *float64 { return &r.DiffuseHorizontalRadiation }},
	{"gli", "Global Horizontal Illuminance", "lux", 16, func(r *WeatherRecord) *float64 { return &r.GlobalHorizontalIlluminance }},
	{"dnil", "Direct Normal Illuminance", "lux", 17, func(r *WeatherRecord) *float64 { return &r.DirectNormalIlluminance }},
	{"dhil", "Diffuse Horizontal Illuminance", "lux", 18, func(r *WeatherRecord) *float64 { return &r.DiffuseHorizontalIlluminance }},
	{"zl", "Zenith Luminance", "Cd/m²", 19, func(r *WeatherRecord) *float64 { return &r.ZenithLuminance }},
	{"wd", "Wind Direction", "°", 20, func(r *WeatherRecord) *float64 { return &r.WindDirection }},
	{"ws", "Wind Speed", "m/s", 21, func(r *WeatherRecord) *float64 { return &r.WindSpeed }},
	{"tsc", "Total Sky Cover", "tenths", 22, func(r *WeatherRecord) *float64 { return &r.TotalSkyCover }},
	{"osc", "Opaque Sky Cover", "tenths", 23, func(r *WeatherRecord) *float64 { return &r.OpaqueSkyCover }},
	{"vis", "Visibility", "km", 24, func(r *WeatherRecord) *float64 { return &r.Visibility }},
	{"ch", "Ceiling Height", "m", 25, func(r *WeatherRecord) *float64 { return &r.CeilingHeight }},
	{"pwo", "Present Weather Observation", "", 26, func(r *WeatherRecord) *float64 { return &r.PresentWeatherObservation }},
	{"pwc", "Present Weather Codes", "", 27, func(r *WeatherRecord) *float64 { return &r.PresentWeatherCodes }},
	{"pw", "Precipitable Water", "mm", 28, func(r *WeatherRecord) *float64 { return &r.PrecipitableWater }},
	{"aod", "Aerosol Optical Depth", "thousandths", 29, func(r *WeatherRecord) *float64 { return &r.AerosolOpticalDepth }},
	{"sd", "Snow Depth", "cm", 30, func(r *WeatherRecord) *float64 { return &r.SnowDepth }},
	{"dsls", "Days Since Last Snowfall", "days", 31, func(r *WeatherRecord) *float64 { return &r.DaysSinceLastSnowfall }},
	{"alb", "Albedo", "", 32, func(r *WeatherRecord) *float64 { return &r.Albedo }},
	{"lpd", "Liquid Precipitation Depth", "mm", 33, func(r *WeatherRecord) *float64 { return &r.LiquidPrecipitationDepth }},
	{"lpq", "Liquid Precipitation Quantity", "hr", 34, func(r *WeatherRecord) *float64 { return &r.LiquidPrecipitationQuantity }},
}

var channelsByKey = func() map[string]Channel {
	m := make(map[string]Channel, len(Channels))
	for _, c := range Channels {
		m[c.Key] = c
	}
	return m
}()

// ChannelByKey looks up a channel by its short key.
func ChannelByKey(key string) (Channel, bool) {
	c, ok := channelsByKey[key]
	return c, ok
}
