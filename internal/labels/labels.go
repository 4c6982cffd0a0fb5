// Package labels declares the categorical dimensions of the bike-sharing
// dataset and the explicit tables that map raw codes and alternative
// spellings onto canonical labels.
//
// Two source schemes exist: numeric-coded tables (season 1-4, weathersit 1-4,
// weekday 0-6, workingday 0/1) and pre-labeled tables whose cells already hold
// strings. Both are resolved through the tables below; nothing is inferred.
package labels

import (
	"sort"
	"strconv"
	"strings"

	"github.com/paveg/bikeshare/internal/common"
)

// Dimension names a categorical dimension.
type Dimension string

const (
	Season     Dimension = "season"
	Weather    Dimension = "weather"
	Weekday    Dimension = "weekday"
	WorkingDay Dimension = "workingday"
)

// Canonical labels.
const (
	Spring = "Spring"
	Summer = "Summer"
	Fall   = "Fall"
	Winter = "Winter"

	Clear  = "Clear"
	Cloudy = "Cloudy"
	Rain   = "Rain"
	Snow   = "Snow"

	Workingday = "Workingday"
	Holiday    = "Holiday"
)

// SeasonCodes maps the numeric season code to its label.
var SeasonCodes = common.EnumStringMap{
	1: Spring,
	2: Summer,
	3: Fall,
	4: Winter,
}

// WeatherCodes maps the numeric weathersit code to its label.
var WeatherCodes = common.EnumStringMap{
	1: Clear,
	2: Cloudy,
	3: Rain,
	4: Snow,
}

// WeekdayCodes maps the numeric weekday code (0 = Sunday) to its label.
var WeekdayCodes = common.EnumStringMap{
	0: "Sun",
	1: "Mon",
	2: "Tue",
	3: "Wed",
	4: "Thu",
	5: "Fri",
	6: "Sat",
}

// WorkingDayCodes maps the numeric workingday flag to its label.
var WorkingDayCodes = common.EnumStringMap{
	0: Holiday,
	1: Workingday,
}

// SeasonAliases lists accepted alternative spellings, including the
// Indonesian labels seen in cleaned exports.
var SeasonAliases = map[string]int{
	"Autumn": 3,
	"Semi":   1,
	"Panas":  2,
	"Gugur":  3,
	"Dingin": 4,
}

// WeatherAliases lists accepted alternative spellings for weather labels.
var WeatherAliases = map[string]int{
	"Clear/Partly Cloudy": 1,
	"Mist":                2,
	"Misty":               2,
	"Mist/Cloudy":         2,
	"Light Rain":          3,
	"Light_rainsnow":      3,
	"Light Snow/Rain":     3,
	"Heavy Rain":          4,
	"Heavy_rainsnow":      4,
	"Heavy Rain/Snow":     4,
	"Severe Weather":      4,
	"Cerah":               1,
	"Berawan":             2,
	"Hujan":               3,
	"Salju":               4,
}

// WeekdayAliases lists accepted alternative spellings for weekday labels.
var WeekdayAliases = map[string]int{
	"Sunday":    0,
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
	"Saturday":  6,
	"Minggu":    0,
	"Senin":     1,
	"Selasa":    2,
	"Rabu":      3,
	"Kamis":     4,
	"Jumat":     5,
	"Sabtu":     6,
}

// WorkingDayAliases lists accepted alternative spellings for the working-day flag.
var WorkingDayAliases = map[string]int{
	"Working day": 1,
	"Weekend":     0,
	"Libur":       0,
	"Hari Kerja":  1,
}

var (
	registry = func() *common.EnumRegistry {
		r := common.NewEnumRegistry()
		r.RegisterEnum(string(Season), SeasonCodes)
		r.RegisterEnum(string(Weather), WeatherCodes)
		r.RegisterEnum(string(Weekday), WeekdayCodes)
		r.RegisterEnum(string(WorkingDay), WorkingDayCodes)
		return r
	}()

	parser = func() *common.StringToEnum {
		p := common.NewStringToEnum()
		p.RegisterReverseMapping(string(Season), SeasonCodes, SeasonAliases)
		p.RegisterReverseMapping(string(Weather), WeatherCodes, WeatherAliases)
		p.RegisterReverseMapping(string(Weekday), WeekdayCodes, WeekdayAliases)
		p.RegisterReverseMapping(string(WorkingDay), WorkingDayCodes, WorkingDayAliases)
		return p
	}()

	ranks = func() map[Dimension]map[string]int {
		r := make(map[Dimension]map[string]int)
		for _, dim := range Dimensions() {
			r[dim] = make(map[string]int)
			for i, label := range Order(dim) {
				r[dim][label] = i
			}
		}
		return r
	}()
)

// Dimensions returns every categorical dimension.
func Dimensions() []Dimension {
	return []Dimension{Season, Weather, Weekday, WorkingDay}
}

// Codes returns the declared code table for dim.
func Codes(dim Dimension) (common.EnumStringMap, bool) {
	return registry.GetEnumMapping(string(dim))
}

// Order returns the canonical labels of dim in declared order.
func Order(dim Dimension) []string {
	mapping, ok := Codes(dim)
	if !ok {
		return nil
	}
	return mapping.Labels()
}

// FromCode resolves a numeric code.
func FromCode(dim Dimension, code int) (string, bool) {
	mapping, ok := Codes(dim)
	if !ok {
		return "", false
	}
	label, found := mapping[code]
	return label, found
}

// FromLabel resolves a label or alias, ignoring case and surrounding space.
func FromLabel(dim Dimension, raw string) (string, bool) {
	code, ok := parser.ParseEnum(string(dim), raw)
	if !ok {
		return "", false
	}
	return FromCode(dim, code)
}

// Canonical resolves raw, which may be a numeric code, a label or an alias.
// Known values return their canonical label and true. Unknown strings pass
// through trimmed with false; unknown numeric codes return "" and false.
func Canonical(dim Dimension, raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if code, err := strconv.Atoi(trimmed); err == nil {
		return FromCode(dim, code)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if f != float64(int(f)) {
			return "", false
		}
		return FromCode(dim, int(f))
	}
	if label, ok := FromLabel(dim, trimmed); ok {
		return label, true
	}
	return trimmed, false
}

// Rank returns the position of label in the declared order of dim, or -1.
func Rank(dim Dimension, label string) int {
	if rank, ok := ranks[dim][label]; ok {
		return rank
	}
	return -1
}

// Less orders labels of dim: declared labels first in declared order, then
// pass-through labels alphabetically.
func Less(dim Dimension, a, b string) bool {
	ra, rb := Rank(dim, a), Rank(dim, b)
	switch {
	case ra >= 0 && rb >= 0:
		return ra < rb
	case ra >= 0:
		return true
	case rb >= 0:
		return false
	default:
		return a < b
	}
}

// Sort orders values in place using Less.
func Sort(dim Dimension, values []string) {
	sort.SliceStable(values, func(i, j int) bool {
		return Less(dim, values[i], values[j])
	})
}
