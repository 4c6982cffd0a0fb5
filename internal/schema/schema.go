// Package schema declares the columns each bike-sharing table kind carries,
// the label scheme variants a source may use, and the normalized Table that
// the engine consumes.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paveg/bikeshare/internal/labels"
)

// Column names shared by the day and hour tables.
const (
	ColDate       = "dteday"
	ColYear       = "year"
	ColSeason     = "season"
	ColWeather    = "weathersit"
	ColWeekday    = "weekday"
	ColWorkingDay = "workingday"
	ColHour       = "hr"
	ColCount      = "cnt"
	ColCasual     = "casual"
	ColRegistered = "registered"
)

// Kind is the grain of a table.
type Kind int

const (
	KindDay Kind = iota
	KindHour
)

func (k Kind) String() string {
	switch k {
	case KindDay:
		return "day"
	case KindHour:
		return "hour"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Variant is the label scheme used by a source table.
type Variant int

const (
	// VariantAuto asks the normalizer to detect the scheme.
	VariantAuto Variant = iota
	// VariantNumeric holds integer codes (season 1-4, weekday 0-6, ...).
	VariantNumeric
	// VariantLabeled holds label strings ("Spring", "Clear", ...).
	VariantLabeled
)

func (v Variant) String() string {
	switch v {
	case VariantAuto:
		return "auto"
	case VariantNumeric:
		return "numeric"
	case VariantLabeled:
		return "labeled"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant parses "auto", "numeric" or "labeled".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return VariantAuto, nil
	case "numeric", "coded":
		return VariantNumeric, nil
	case "labeled", "labelled", "pre-labeled":
		return VariantLabeled, nil
	default:
		return VariantAuto, fmt.Errorf("unknown schema variant %q", s)
	}
}

// ColumnType is the normalized type of a column.
type ColumnType int

const (
	TypeDate ColumnType = iota
	TypeInt
	TypeLabel
)

func (t ColumnType) String() string {
	switch t {
	case TypeDate:
		return "date"
	case TypeInt:
		return "int64"
	case TypeLabel:
		return "label"
	default:
		return "unknown"
	}
}

// Field declares one column of a table kind.
type Field struct {
	Name      string
	Type      ColumnType
	Dimension labels.Dimension // set for TypeLabel
	Derived   bool             // computed during normalization
	Min, Max  int64            // inclusive bounds for TypeInt; Max < Min means unbounded above
}

// Schema is the declared column set of a table kind.
type Schema struct {
	Kind   Kind
	Fields []Field
}

var (
	dateField       = Field{Name: ColDate, Type: TypeDate}
	yearField       = Field{Name: ColYear, Type: TypeInt, Derived: true, Min: 0, Max: -1}
	seasonField     = Field{Name: ColSeason, Type: TypeLabel, Dimension: labels.Season}
	weatherField    = Field{Name: ColWeather, Type: TypeLabel, Dimension: labels.Weather}
	weekdayField    = Field{Name: ColWeekday, Type: TypeLabel, Dimension: labels.Weekday}
	workingDayField = Field{Name: ColWorkingDay, Type: TypeLabel, Dimension: labels.WorkingDay}
	countField      = Field{Name: ColCount, Type: TypeInt, Min: 0, Max: -1}
	casualField     = Field{Name: ColCasual, Type: TypeInt, Min: 0, Max: -1}
	registeredField = Field{Name: ColRegistered, Type: TypeInt, Min: 0, Max: -1}
	hourField       = Field{Name: ColHour, Type: TypeInt, Min: 0, Max: 23}
)

// DaySchema is the declared schema of the daily table.
var DaySchema = Schema{
	Kind: KindDay,
	Fields: []Field{
		dateField, yearField, seasonField, weatherField, weekdayField,
		workingDayField, casualField, registeredField, countField,
	},
}

// HourSchema is the declared schema of the hourly table.
var HourSchema = Schema{
	Kind: KindHour,
	Fields: []Field{
		dateField, yearField, seasonField, weatherField, weekdayField,
		workingDayField, hourField, casualField, registeredField, countField,
	},
}

// For returns the schema of kind.
func For(kind Kind) Schema {
	if kind == KindHour {
		return HourSchema
	}
	return DaySchema
}

// Field looks up a declared field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// InRange reports whether v satisfies the field's bounds.
func (f Field) InRange(v int64) bool {
	if v < f.Min {
		return false
	}
	return f.Max < f.Min || v <= f.Max
}

// LabelFields returns the categorical fields in declared order.
func (s Schema) LabelFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Type == TypeLabel {
			out = append(out, f)
		}
	}
	return out
}

// StringColumn is the minimal read access Detect needs.
type StringColumn interface {
	Len() int
	IsNull(index int) bool
	GetAsString(index int) string
}

// Detect inspects the categorical columns of a raw table and reports whether
// they hold numeric codes or labels. A single non-numeric cell makes the table
// labeled. Tables without any categorical value are reported as numeric.
func Detect(columns map[string]StringColumn) Variant {
	for _, f := range HourSchema.LabelFields() {
		col, ok := columns[f.Name]
		if !ok {
			continue
		}
		for i := range col.Len() {
			if col.IsNull(i) {
				continue
			}
			raw := strings.TrimSpace(col.GetAsString(i))
			if raw == "" {
				continue
			}
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return VariantLabeled
			}
		}
	}
	return VariantNumeric
}
