// Package series provides nullable, Arrow-backed data columns.
//
// A Series is immutable once built: Take and the constructors always copy
// into a fresh Arrow array, so filtered tables never share buffers with the
// source table.
package series

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/errors"
)

// dateLayout is used by GetAsString for date columns.
const dateLayout = "2006-01-02"

// Column is the type-erased view of a Series.
type Column interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	NullN() int
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
	TakeColumn(indices []int, mem memory.Allocator) (Column, error)
}

// Series represents a typed data column with Apache Arrow backend.
// Supported element types are string, int64, float64, bool and time.Time
// (stored as an Arrow date32).
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values with every element valid.
// It panics on an unsupported element type; use NewSafe to get an error.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	s, err := NewSafe(name, values, mem)
	if err != nil {
		panic(err)
	}
	return s
}

// NewSafe creates a new Series and reports unsupported element types as an error.
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series[T], error) {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series where valid[i] == false marks element i as null.
// A nil valid slice marks every element valid.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) (*Series[T], error) {
	if valid != nil && len(valid) != len(values) {
		return nil, errors.NewInvalidInputError("series creation",
			fmt.Sprintf("validity length %d does not match %d values", len(valid), len(values)))
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	arr, err := build(values, valid, mem)
	if err != nil {
		return nil, err
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}, nil
}

func build[T any](values []T, valid []bool, mem memory.Allocator) (arrow.Array, error) {
	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []time.Time:
		builder := array.NewDate32Builder(mem)
		defer builder.Release()
		days := make([]arrow.Date32, len(v))
		for i, t := range v {
			days[i] = arrow.Date32FromTime(t)
		}
		builder.AppendValues(days, valid)
		return builder.NewArray(), nil
	default:
		return nil, errors.NewInvalidInputError("series creation", fmt.Sprintf("unsupported type: %T", values))
	}
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// NullN returns the number of null elements.
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// Value returns the value at index and whether it is valid (in range and not null).
func (s *Series[T]) Value(index int) (T, bool) {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result, false
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	case *array.Date32:
		if v, ok := any(&result).(*time.Time); ok {
			*v = arr.Value(index).ToTime()
		}
	}

	return result, true
}

// Values returns the data as a Go slice together with its validity.
// Null elements hold the zero value.
func (s *Series[T]) Values() ([]T, []bool) {
	n := s.array.Len()
	values := make([]T, n)
	valid := make([]bool, n)
	for i := range n {
		values[i], valid[i] = s.Value(i)
	}
	return values, valid
}

// Take returns a new Series holding the elements at indices, in that order.
func (s *Series[T]) Take(indices []int, mem memory.Allocator) (*Series[T], error) {
	values := make([]T, len(indices))
	valid := make([]bool, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= s.array.Len() {
			return nil, errors.NewInvalidInputError("Take",
				fmt.Sprintf("index %d out of bounds [0, %d)", idx, s.array.Len()))
		}
		values[i], valid[i] = s.Value(idx)
	}
	return NewNullable(s.name, values, valid, mem)
}

// TakeColumn is Take behind the Column interface.
func (s *Series[T]) TakeColumn(indices []int, mem memory.Allocator) (Column, error) {
	return s.Take(indices, mem)
}

// Rename returns a copy of the series under a new name.
func (s *Series[T]) Rename(name string) *Series[T] {
	s.array.Retain()
	return &Series[T]{name: name, array: s.array}
}

// GetAsString returns the element at index formatted as text; nulls are "".
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}
	switch arr := s.array.(type) {
	case *array.String:
		return arr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(index), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'g', -1, 64)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(index))
	case *array.Date32:
		return arr.Value(index).ToTime().Format(dateLayout)
	default:
		return ""
	}
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d, nulls=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len(),
		s.NullN())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}

// FromArray wraps an existing Arrow array, copying it into a Series of the
// matching element type. Unsupported Arrow types return an error.
func FromArray(name string, arr arrow.Array, mem memory.Allocator) (Column, error) {
	n := arr.Len()
	valid := make([]bool, n)
	for i := range n {
		valid[i] = arr.IsValid(i)
	}

	switch typed := arr.(type) {
	case *array.String:
		values := make([]string, n)
		for i := range n {
			values[i] = typed.Value(i)
		}
		return NewNullable(name, values, valid, mem)
	case *array.LargeString:
		values := make([]string, n)
		for i := range n {
			values[i] = typed.Value(i)
		}
		return NewNullable(name, values, valid, mem)
	case *array.Int64:
		return NewNullable(name, typed.Int64Values(), valid, mem)
	case *array.Int32:
		values := make([]int64, n)
		for i := range n {
			values[i] = int64(typed.Value(i))
		}
		return NewNullable(name, values, valid, mem)
	case *array.Float64:
		return NewNullable(name, typed.Float64Values(), valid, mem)
	case *array.Float32:
		values := make([]float64, n)
		for i := range n {
			values[i] = float64(typed.Value(i))
		}
		return NewNullable(name, values, valid, mem)
	case *array.Boolean:
		values := make([]bool, n)
		for i := range n {
			values[i] = typed.Value(i)
		}
		return NewNullable(name, values, valid, mem)
	case *array.Date32:
		values := make([]time.Time, n)
		for i := range n {
			values[i] = typed.Value(i).ToTime()
		}
		return NewNullable(name, values, valid, mem)
	case *array.Timestamp:
		unit := typed.DataType().(*arrow.TimestampType).Unit
		values := make([]time.Time, n)
		for i := range n {
			values[i] = typed.Value(i).ToTime(unit)
		}
		return NewNullable(name, values, valid, mem)
	default:
		return nil, errors.NewInvalidInputError("series creation",
			fmt.Sprintf("unsupported Arrow type: %s", arr.DataType()))
	}
}
