package primitive

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

var ErrNotConvertible = errors.New("value is not convertible to the requested kind")

type CategoryEnum int

type ConversionPair struct {
	From, To KindEnum
}

const (
	CategorySafeNumber   CategoryEnum = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                          // int, uint, float with precision loss
	CategoryNumericBool                           // int <-> bool: 0, 1 representation of boolean values

	CategoryAll  = (1 << iota) - 1 //all categories combined
	CategoryNone = 0               // no categories selected
)

var conversionPairs map[CategoryEnum]map[ConversionPair]struct{}

func init() {
	conversionPairs = make(map[CategoryEnum]map[ConversionPair]struct{})

	conversionPairs[CategorySafeNumber] = safeNumberConversionPairs()

	// CategoryUnsafeNumber: every numeric pair the safe table does not cover
	conversionPairs[CategoryUnsafeNumber] = map[ConversionPair]struct{}{}
	for fromKind := KindEnum(1); int(fromKind) < KindTotal; fromKind++ {
		if !fromKind.IsNumber() {
			continue
		}

		for toKind := KindEnum(1); int(toKind) < KindTotal; toKind++ {
			if !toKind.IsNumber() {
				continue
			}

			pair := ConversionPair{fromKind, toKind}
			if _, ok := conversionPairs[CategorySafeNumber][pair]; ok {
				continue
			}

			conversionPairs[CategoryUnsafeNumber][pair] = struct{}{}
		}
	}

	// CategoryNumericBool: int <-> bool conversions
	conversionPairs[CategoryNumericBool] = map[ConversionPair]struct{}{}
	for kind := KindEnum(1); int(kind) < KindTotal; kind++ {
		if !kind.IsInteger() {
			continue
		}

		conversionPairs[CategoryNumericBool][ConversionPair{kind, KindBool}] = struct{}{}
		conversionPairs[CategoryNumericBool][ConversionPair{KindBool, kind}] = struct{}{}
	}
}

func safeNumberConversionPairs() map[ConversionPair]struct{} {
	pairs := map[ConversionPair]struct{}{
		{KindChar, KindUint8}: {}, // same width, same carrier
		{KindUint8, KindChar}: {},

		{KindFloat64, KindDouble}: {}, // two names for one IEEE-754 binary64
		{KindDouble, KindFloat64}: {},
	}

	widening := map[KindEnum][]KindEnum{
		KindChar:    {KindInt16, KindInt32, KindInt64, KindFloat32, KindFloat64, KindDouble},
		KindUint8:   {KindInt16, KindInt32, KindInt64, KindFloat32, KindFloat64, KindDouble},
		KindInt16:   {KindInt32, KindInt64, KindFloat32, KindFloat64, KindDouble},
		KindInt32:   {KindInt64, KindFloat64, KindDouble},
		KindFloat32: {KindFloat64, KindDouble},
	}

	for from, tos := range widening {
		for _, to := range tos {
			pairs[ConversionPair{from, to}] = struct{}{}
		}
	}

	for kind := KindEnum(1); int(kind) < KindTotal; kind++ {
		pairs[ConversionPair{kind, kind}] = struct{}{}
	}

	return pairs
}

// Allowed reports whether converting from one kind to another is permitted by
// the given category set.
func Allowed(from, to KindEnum, allowed CategoryEnum) bool {
	for category := CategoryEnum(1); category&CategoryAll > 0; category <<= 1 {
		if allowed&category == 0 {
			continue
		}

		if _, ok := conversionPairs[category][ConversionPair{from, to}]; ok {
			return true
		}
	}

	return false
}

// IsSafe reports whether a conversion never loses information.
func IsSafe(from, to KindEnum) bool {
	return Allowed(from, to, CategorySafeNumber)
}

// sourceKind classifies a Go value by the narrowest kind able to hold every
// value of its type exactly.
func sourceKind(v any) KindEnum {
	switch v.(type) {
	case int32:
		return KindInt32
	case int64, int, uint32:
		return KindInt64
	case int16, int8:
		return KindInt16
	case uint16:
		return KindInt32
	case uint8:
		return KindUint8
	case float32:
		return KindFloat32
	case float64:
		return KindDouble
	case bool:
		return KindBool
	}

	return 0
}

// Coerce converts v to the carrier type of kind if the conversion pair is
// permitted by allowed. Values already of the carrier type pass through. An
// integer result that does not fit kind is an error, never a wrapped value.
func Coerce(v any, kind KindEnum, allowed CategoryEnum) (any, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid kind %d", ErrNotConvertible, int(kind))
	}

	if v != nil && kind.GoType() == reflect.TypeOf(v) {
		return v, nil
	}

	from := sourceKind(v)
	if from == 0 || !Allowed(from, kind, allowed) {
		return nil, fmt.Errorf("%w: %T to %s", ErrNotConvertible, v, kind.Name())
	}

	if kind == KindBool {
		return asFloat(v) != 0, nil
	}

	if kind.IsFloat() {
		f := asFloat(v)
		if kind == KindFloat32 {
			return float32(f), nil
		}

		return f, nil
	}

	var n int64
	if from.IsFloat() {
		f := math.Trunc(asFloat(v))
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: %v overflows %s", ErrNotConvertible, v, kind.Name())
		}

		n = int64(f)
	} else {
		n = asInt(v)
	}

	if !fitsInteger(n, kind) {
		return nil, fmt.Errorf("%w: %d overflows %s", ErrNotConvertible, n, kind.Name())
	}

	switch kind {
	case KindInt32:
		return int32(n), nil
	case KindInt16:
		return int16(n), nil
	case KindInt64:
		return n, nil
	default: // KindChar, KindUint8
		return uint8(n), nil
	}
}

// fitsInteger reports whether n is representable by the integer kind.
func fitsInteger(n int64, kind KindEnum) bool {
	switch kind {
	case KindInt32:
		return n >= math.MinInt32 && n <= math.MaxInt32
	case KindInt16:
		return n >= math.MinInt16 && n <= math.MaxInt16
	case KindChar, KindUint8:
		return n >= 0 && n <= math.MaxUint8
	}

	return true
}

func asInt(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case bool:
		if x {
			return 1
		}
	}

	return 0
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}

	return float64(asInt(v))
}
