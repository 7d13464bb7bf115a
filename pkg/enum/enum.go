package enum

import (
	"fmt"
	"reflect"
)

// registry maps an enum type to its known string values. Values register
// themselves at package init time through New.
var registry = map[reflect.Type]map[string]any{}

// New registers value as a member of its enum type and returns it unchanged,
// so declarations read as `var StatusOngoing = enum.New(AuctionStatus("ongoing"))`.
func New[T comparable](value T) T {
	t := reflect.TypeOf(value)
	if _, ok := registry[t]; !ok {
		registry[t] = make(map[string]any)
	}

	registry[t][reflect.ValueOf(value).String()] = value
	return value
}

// ToEnum parses s into a registered member of enum type T.
func ToEnum[T comparable](s string) (T, error) {
	var zero T
	members, ok := registry[reflect.TypeOf(zero)]
	if !ok {
		return zero, fmt.Errorf("not found enum type %T", zero)
	}

	value, ok := members[s]
	if !ok {
		return zero, fmt.Errorf("not found value %s in enum %T", s, zero)
	}

	return value.(T), nil
}
