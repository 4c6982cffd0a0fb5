package engine

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/labels"
	"github.com/paveg/bikeshare/internal/validation"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Hour bounds of the hourly table.
const (
	MinHour = 0
	MaxHour = 23
)

// Mode is the aggregation applied to every view in one computation.
type Mode int

const (
	// ModeAverage reduces a group to its arithmetic mean.
	ModeAverage Mode = iota
	// ModeSum reduces a group to its total.
	ModeSum
)

func (m Mode) String() string {
	if m == ModeSum {
		return "sum"
	}
	return "average"
}

// Title returns the mode as shown in summaries.
func (m Mode) Title() string {
	return cases.Title(language.English).String(m.String())
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode accepts "average"/"mean"/"avg" and "sum"/"total", ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average", "mean", "avg", "rata-rata":
		return ModeAverage, nil
	case "sum", "total":
		return ModeSum, nil
	default:
		return ModeAverage, errors.NewInvalidInputError("ParseMode", fmt.Sprintf("unknown aggregation mode %q", s))
	}
}

// HourRange is an inclusive hour interval. Low may exceed High, in which
// case no hour matches.
type HourRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Contains reports whether h lies in the range.
func (r HourRange) Contains(h int64) bool {
	return h >= int64(r.Low) && h <= int64(r.High)
}

func (r HourRange) String() string {
	return fmt.Sprintf("%d-%d", r.Low, r.High)
}

// Selection is an immutable set of filter choices. Build it with NewSelection;
// the zero value is not valid.
type Selection struct {
	seasons     []string
	weathers    []string
	weekdays    []string
	hours       HourRange
	workingOnly bool
	mode        Mode
}

// SelectionOption configures a Selection.
type SelectionOption func(*Selection) error

// WithSeasons selects seasons by label, alias or numeric code.
func WithSeasons(values ...string) SelectionOption {
	return func(s *Selection) (err error) {
		s.seasons, err = canonicalSet(labels.Season, values)
		return err
	}
}

// WithWeathers selects weather conditions by label, alias or numeric code.
func WithWeathers(values ...string) SelectionOption {
	return func(s *Selection) (err error) {
		s.weathers, err = canonicalSet(labels.Weather, values)
		return err
	}
}

// WithWeekdays selects weekdays by label, alias or numeric code.
func WithWeekdays(values ...string) SelectionOption {
	return func(s *Selection) (err error) {
		s.weekdays, err = canonicalSet(labels.Weekday, values)
		return err
	}
}

// WithHours sets the inclusive hour range. Both ends must be within 0-23.
func WithHours(low, high int) SelectionOption {
	return func(s *Selection) error {
		err := validation.NewCompoundValidator(
			validation.NewRangeValidator("Selection", "low hour", low, MinHour, MaxHour),
			validation.NewRangeValidator("Selection", "high hour", high, MinHour, MaxHour),
		).Validate()
		if err != nil {
			return err
		}
		s.hours = HourRange{Low: low, High: high}
		return nil
	}
}

// WithWorkingOnly keeps only rows flagged as working days.
func WithWorkingOnly(on bool) SelectionOption {
	return func(s *Selection) error {
		s.workingOnly = on
		return nil
	}
}

// WithMode sets the aggregation mode.
func WithMode(m Mode) SelectionOption {
	return func(s *Selection) error {
		if m != ModeAverage && m != ModeSum {
			return errors.NewInvalidInputError("Selection", fmt.Sprintf("unknown aggregation mode %d", int(m)))
		}
		s.mode = m
		return nil
	}
}

// NewSelection builds a Selection. Without options every row is kept, the
// hour range is 0-23 and the mode is average.
func NewSelection(opts ...SelectionOption) (Selection, error) {
	s := Selection{
		hours: HourRange{Low: MinHour, High: MaxHour},
		mode:  ModeAverage,
	}
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return Selection{}, err
		}
	}
	return s, nil
}

// DefaultSelection keeps every row and averages.
func DefaultSelection() Selection {
	s, _ := NewSelection()
	return s
}

// canonicalSet maps values onto canonical labels, dropping blanks and
// duplicates, and orders the result. Unknown labels are kept trimmed so they
// can match pass-through labels in the data; unknown numeric codes are errors.
func canonicalSet(dim labels.Dimension, values []string) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		label, known := labels.Canonical(dim, raw)
		if !known && label == "" {
			return nil, errors.NewInvalidInputError("Selection",
				fmt.Sprintf("unknown %s code %q", dim, strings.TrimSpace(raw)))
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	labels.Sort(dim, out)
	return out, nil
}

// Seasons returns the selected seasons; empty means all.
func (s Selection) Seasons() []string { return append([]string(nil), s.seasons...) }

// Weathers returns the selected weather conditions; empty means all.
func (s Selection) Weathers() []string { return append([]string(nil), s.weathers...) }

// Weekdays returns the selected weekdays; empty means all.
func (s Selection) Weekdays() []string { return append([]string(nil), s.weekdays...) }

// Hours returns the hour range.
func (s Selection) Hours() HourRange { return s.hours }

// WorkingOnly reports whether only working days are kept.
func (s Selection) WorkingOnly() bool { return s.workingOnly }

// Mode returns the aggregation mode.
func (s Selection) Mode() Mode { return s.mode }

// String renders the active filters on one line, "All" standing for an
// empty set.
func (s Selection) String() string {
	working := "No"
	if s.workingOnly {
		working = "Yes"
	}
	return fmt.Sprintf("Season = %s | Weather = %s | Weekday = %s | Hours = %s | Working day only = %s | Mode = %s",
		joinOrAll(s.seasons), joinOrAll(s.weathers), joinOrAll(s.weekdays), s.hours, working, s.mode.Title())
}

func joinOrAll(values []string) string {
	if len(values) == 0 {
		return "All"
	}
	return strings.Join(values, ", ")
}

// MarshalJSON renders the selection for API responses.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seasons     []string  `json:"seasons"`
		Weathers    []string  `json:"weathers"`
		Weekdays    []string  `json:"weekdays"`
		Hours       HourRange `json:"hours"`
		WorkingOnly bool      `json:"working_only"`
		Mode        Mode      `json:"mode"`
	}{
		Seasons:     nonNil(s.seasons),
		Weathers:    nonNil(s.weathers),
		Weekdays:    nonNil(s.weekdays),
		Hours:       s.hours,
		WorkingOnly: s.workingOnly,
		Mode:        s.mode,
	})
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Query parameter names understood by ParseSelection.
const (
	ParamSeason      = "season"
	ParamWeather     = "weather"
	ParamWeekday     = "weekday"
	ParamHours       = "hours"
	ParamWorkingOnly = "working_only"
	ParamMode        = "mode"
)

// ParseSelection builds a Selection from query parameters. Multi-valued
// parameters may repeat or hold comma-separated values.
func ParseSelection(q url.Values) (Selection, error) {
	opts := []SelectionOption{
		WithSeasons(splitValues(q[ParamSeason])...),
		WithWeathers(splitValues(q[ParamWeather])...),
		WithWeekdays(splitValues(q[ParamWeekday])...),
	}

	if raw := q.Get(ParamHours); raw != "" {
		low, high, err := ParseHours(raw)
		if err != nil {
			return Selection{}, err
		}
		opts = append(opts, WithHours(low, high))
	}

	if raw := q.Get(ParamWorkingOnly); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return Selection{}, errors.NewInvalidInputError("ParseSelection",
				fmt.Sprintf("invalid %s value %q", ParamWorkingOnly, raw))
		}
		opts = append(opts, WithWorkingOnly(on))
	}

	mode, err := ParseMode(q.Get(ParamMode))
	if err != nil {
		return Selection{}, err
	}
	opts = append(opts, WithMode(mode))

	return NewSelection(opts...)
}

// ParseHours parses "low-high" or a single hour "h".
func ParseHours(raw string) (int, int, error) {
	lowText, highText, found := strings.Cut(strings.TrimSpace(raw), "-")
	if !found {
		highText = lowText
	}
	low, err := strconv.Atoi(strings.TrimSpace(lowText))
	if err != nil {
		return 0, 0, errors.NewInvalidInputError("ParseHours", fmt.Sprintf("invalid hour range %q", raw))
	}
	high, err := strconv.Atoi(strings.TrimSpace(highText))
	if err != nil {
		return 0, 0, errors.NewInvalidInputError("ParseHours", fmt.Sprintf("invalid hour range %q", raw))
	}
	return low, high, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}
