package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Raw EPW city names pack the station detail behind the first separator,
// e.g. "SAN.FRANCISCO.INTL.AP" or "DENVER-STAPLETON".
var (
	citySeparator   = regexp.MustCompile(`[-._]`)
	weaCtrPattern   = regexp.MustCompile(`(?i)\bWea Ctr\b`)
	intlPattern     = regexp.MustCompile(`(?i)\bIntl\b`)
	airportPattern  = regexp.MustCompile(`(?i)\bAP\b`)
	centerPattern   = regexp.MustCompile(`(?i)\bCtr\b`)
	titleWordPrefix = regexp.MustCompile(`\b\w`)
)

// splitCity divides the raw city at the first separator.
func splitCity(raw string) (city, detail string) {
	loc := citySeparator.FindStringIndex(raw)
	if loc == nil {
		return raw, ""
	}
	return raw[:loc[0]], raw[loc[1]:]
}

func titleCase(s string) string {
	return titleWordPrefix.ReplaceAllStringFunc(strings.ToLower(s), func(m string) string {
		r := []rune(m)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	})
}

func expandDetail(detail string) string {
	d := citySeparator.ReplaceAllString(detail, " ")
	d = weaCtrPattern.ReplaceAllString(d, "Weather Center")
	d = intlPattern.ReplaceAllString(d, "International")
	d = airportPattern.ReplaceAllString(d, "Airport")
	d = centerPattern.ReplaceAllString(d, "Center")
	return titleCase(strings.TrimSpace(d))
}

// CityName returns the title-cased city without station detail.
func (l LocationMetadata) CityName() string {
	if l.City == "" {
		return "Unknown"
	}
	city, _ := splitCity(l.City)
	return titleCase(strings.TrimSpace(city))
}

// StationDetail returns the expanded station part of the raw city, or "".
func (l LocationMetadata) StationDetail() string {
	_, detail := splitCity(l.City)
	if detail == "" {
		return ""
	}
	return expandDetail(detail)
}

// DisplayName renders "City (Station Detail) │ Country".
func (l LocationMetadata) DisplayName() string {
	if l.City == "" {
		return "Unknown Location"
	}
	name := l.CityName()
	if detail := l.StationDetail(); detail != "" {
		name = fmt.Sprintf("%s (%s)", name, detail)
	}
	return fmt.Sprintf("%s │ %s", name, CountryName(l.Country))
}

// SimpleName renders "City (Country)".
func (l LocationMetadata) SimpleName() string {
	if l.City == "" {
		return "Unknown"
	}
	return fmt.Sprintf("%s (%s)", l.CityName(), CountryName(l.Country))
}
