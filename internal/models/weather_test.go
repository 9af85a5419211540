package models

import (
	"math"
	"testing"
)

func TestIsMissing(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{"NaN", math.NaN(), true},
		{"zero", 0, false},
		{"negative", -9999, false},
		{"regular", 21.5, false},
		{"infinity", math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMissing(tt.value); got != tt.want {
				t.Errorf("IsMissing(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestChannels_FieldOrder(t *testing.T) {
	if len(Channels) != EPWFieldCount-6 {
		t.Fatalf("len(Channels) = %d, want %d", len(Channels), EPWFieldCount-6)
	}

	seen := make(map[string]bool)
	for i, c := range Channels {
		if c.FieldIndex != i+6 {
			t.Errorf("channel %s FieldIndex = %d, want %d", c.Key, c.FieldIndex, i+6)
		}
		if seen[c.Key] {
			t.Errorf("duplicate channel key %q", c.Key)
		}
		seen[c.Key] = true
	}
}

func TestChannel_SetAndValue(t *testing.T) {
	var r WeatherRecord
	for i, c := range Channels {
		c.Set(&r, float64(i))
	}
	for i, c := range Channels {
		if got := c.Value(&r); got != float64(i) {
			t.Errorf("channel %s = %v, want %v", c.Key, got, float64(i))
		}
	}

	dbt, ok := ChannelByKey("dbt")
	if !ok {
		t.Fatal("ChannelByKey(dbt) not found")
	}
	if r.DryBulbTemperature != dbt.Value(&r) {
		t.Errorf("dbt accessor mismatch")
	}
	if _, ok := ChannelByKey("nope"); ok {
		t.Error("ChannelByKey(nope) should not be found")
	}
}

func TestWeatherDataset_IsPartialYear(t *testing.T) {
	tests := []struct {
		name    string
		records int
		want    bool
	}{
		{"empty", 0, false},
		{"one record", 1, true},
		{"one short of a year", FullYearHours - 1, true},
		{"full year", FullYearHours, false},
		{"leap year", 8784, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &WeatherDataset{Records: make([]WeatherRecord, tt.records)}
			if got := d.IsPartialYear(); got != tt.want {
				t.Errorf("IsPartialYear() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocationMetadata_Names(t *testing.T) {
	tests := []struct {
		name        string
		loc         LocationMetadata
		wantCity    string
		wantDetail  string
		wantDisplay string
		wantSimple  string
	}{
		{
			name:        "airport detail",
			loc:         LocationMetadata{City: "SAN.FRANCISCO.INTL.AP", Country: "USA"},
			wantCity:    "San",
			wantDetail:  "Francisco International Airport",
			wantDisplay: "San (Francisco International Airport) │ United States",
			wantSimple:  "San (United States)",
		},
		{
			name:        "weather center",
			loc:         LocationMetadata{City: "TEHRAN-MEHRABAD WEA CTR", Country: "IRN"},
			wantCity:    "Tehran",
			wantDetail:  "Mehrabad Weather Center",
			wantDisplay: "Tehran (Mehrabad Weather Center) │ Iran",
			wantSimple:  "Tehran (Iran)",
		},
		{
			name:        "no separator",
			loc:         LocationMetadata{City: "BERLIN", Country: "DEU"},
			wantCity:    "Berlin",
			wantDetail:  "",
			wantDisplay: "Berlin │ Germany",
			wantSimple:  "Berlin (Germany)",
		},
		{
			name:        "unknown country code",
			loc:         LocationMetadata{City: "Somewhere_Ctr", Country: "XXX"},
			wantCity:    "Somewhere",
			wantDetail:  "Center",
			wantDisplay: "Somewhere (Center) │ XXX",
			wantSimple:  "Somewhere (XXX)",
		},
		{
			name:        "empty city",
			loc:         LocationMetadata{Country: "USA"},
			wantCity:    "Unknown",
			wantDetail:  "",
			wantDisplay: "Unknown Location",
			wantSimple:  "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.CityName(); got != tt.wantCity {
				t.Errorf("CityName() = %q, want %q", got, tt.wantCity)
			}
			if got := tt.loc.StationDetail(); got != tt.wantDetail {
				t.Errorf("StationDetail() = %q, want %q", got, tt.wantDetail)
			}
			if got := tt.loc.DisplayName(); got != tt.wantDisplay {
				t.Errorf("DisplayName() = %q, want %q", got, tt.wantDisplay)
			}
			if got := tt.loc.SimpleName(); got != tt.wantSimple {
				t.Errorf("SimpleName() = %q, want %q", got, tt.wantSimple)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "rh", Value: "120", Message: "relative humidity out of range"}
	if err.Error() != "relative humidity out of range" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.IsTransient() {
		t.Error("validation errors must not be transient")
	}
}
