// Package common holds the enum registry used to declare code-to-label tables
// and to parse labels back to their codes.
package common

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// EnumStringMap represents a mapping from enum values to string representations.
type EnumStringMap map[int]string

// Codes returns the mapping's codes in ascending order.
func (m EnumStringMap) Codes() []int {
	codes := make([]int, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Labels returns the mapping's labels ordered by code.
func (m EnumStringMap) Labels() []string {
	codes := m.Codes()
	labels := make([]string, len(codes))
	for i, code := range codes {
		labels[i] = m[code]
	}
	return labels
}

// EnumRegistry provides utilities for managing enum string representations.
type EnumRegistry struct {
	mappings map[string]EnumStringMap
}

// NewEnumRegistry creates a new EnumRegistry instance.
func NewEnumRegistry() *EnumRegistry {
	return &EnumRegistry{
		mappings: make(map[string]EnumStringMap),
	}
}

// RegisterEnum registers an enum type with its string mapping.
func (er *EnumRegistry) RegisterEnum(typeName string, mapping EnumStringMap) {
	er.mappings[typeName] = mapping
}

// GetEnumMapping returns the mapping for a registered enum type.
func (er *EnumRegistry) GetEnumMapping(typeName string) (EnumStringMap, bool) {
	mapping, exists := er.mappings[typeName]
	return mapping, exists
}

// StringToEnum parses labels back to enum values. Matching ignores case and
// surrounding whitespace.
type StringToEnum struct {
	reverseMappings map[string]map[string]int
}

// NewStringToEnum creates a new StringToEnum instance.
func NewStringToEnum() *StringToEnum {
	return &StringToEnum{
		reverseMappings: make(map[string]map[string]int),
	}
}

// RegisterReverseMapping registers a reverse mapping for an enum type.
// Aliases add extra spellings for existing values; a later registration for
// the same type extends the earlier one.
func (ste *StringToEnum) RegisterReverseMapping(typeName string, mapping EnumStringMap, aliases map[string]int) {
	reverseMap, ok := ste.reverseMappings[typeName]
	if !ok {
		reverseMap = make(map[string]int, len(mapping)+len(aliases))
		ste.reverseMappings[typeName] = reverseMap
	}
	for value, str := range mapping {
		reverseMap[ste.key(str)] = value
	}
	for str, value := range aliases {
		reverseMap[ste.key(str)] = value
	}
}

// ParseEnum parses a string to its enum value.
func (ste *StringToEnum) ParseEnum(typeName, str string) (int, bool) {
	reverseMap, exists := ste.reverseMappings[typeName]
	if !exists {
		return 0, false
	}
	value, found := reverseMap[ste.key(str)]
	return value, found
}

// key folds str; a Caser is stateful, so each call gets its own.
func (ste *StringToEnum) key(str string) string {
	return cases.Fold().String(strings.TrimSpace(str))
}
