// Package serialize converts result trees into a JSON-safe form and encodes
// evaluation reports.
//
// The conversion is a one-way export: numbers become strings, null becomes
// "None" and NaN becomes "NaN". Nothing in this module reads the output back.
package serialize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"simeval/domain/measurement"
)

const (
	// None is emitted for null values.
	None = "None"
	// NaN is emitted for not-a-number floats.
	NaN = "NaN"
	// Func is emitted for function values that carry no display name.
	Func = "<func>"
)

type displayNamer interface {
	DisplayName() string
}

type treer interface {
	Tree() map[string]any
}

// Convert recursively rewrites v into strings, slices and string-keyed maps.
func Convert(v any) any {
	if measurement.IsMissing(v) {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			return NaN
		}
		if f, ok := v.(float32); ok && math.IsNaN(float64(f)) {
			return NaN
		}
		return None
	}

	switch x := v.(type) {
	case displayNamer:
		return x.DisplayName()
	case treer:
		return Convert(x.Tree())
	case *measurement.Keyed:
		return convertKeyed(x)
	case measurement.Series:
		return convertSeries(x)
	case measurement.InfluenceEdge:
		return map[string]any{
			"source": x.Source,
			"target": x.Target,
			"scores": Convert(x.Scores),
		}
	case float64:
		return FormatFloat(x)
	case float32:
		return FormatFloat(float64(x))
	case string, bool:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return Convert(rv.Float())
	case reflect.Func:
		return Func
	case reflect.Pointer:
		return Convert(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Convert(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[keyString(Convert(iter.Key().Interface()))] = Convert(iter.Value().Interface())
		}
		return out
	}
	return v
}

// FormatFloat renders f the way the report format expects: the shortest
// decimal form, integers without a fraction, exponent form outside
// [1e-4, 1e16).
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return NaN
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Marshal converts v and encodes it as indented JSON with sorted keys.
func Marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(Convert(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

func convertKeyed(k *measurement.Keyed) map[string]any {
	out := make(map[string]any, k.Len())
	for _, key := range k.Keys() {
		v, _ := k.Get(key)
		out[key] = Convert(v)
	}
	return out
}

func convertSeries(s measurement.Series) map[string]any {
	out := make(map[string]any, s.Len())
	for i, label := range s.Labels {
		if i < len(s.Values) {
			out[label] = Convert(s.Values[i])
		}
	}
	return out
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
