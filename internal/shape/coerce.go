package shape

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// Coerce narrows value into T. If value is already T (or assignable to it),
// it is returned unchanged. Otherwise Coerce treats value as either a
// primitive convertible by parsing, or a string/[]byte/map/slice that should
// round-trip through JSON, repairing malformed JSON text via jsonrepair
// before giving up (spec §7).
func Coerce[T any](value any) (T, error) {
	var zero T
	if v, ok := value.(T); ok {
		return v, nil
	}
	result, err := CoerceToType(value, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("shape: coerced value has unexpected type %T, want %T", result, zero)
	}
	return v, nil
}

// CoerceToType is Coerce's dynamic-type counterpart, used by the runtime's
// output type-enforcement check (spec §7) where the target type is only
// known as a reflect.Type at compile time, not as a Go generic parameter.
func CoerceToType(value any, targetType reflect.Type) (any, error) {
	if value != nil && reflect.TypeOf(value).AssignableTo(targetType) {
		return value, nil
	}

	if asString, ok := value.(string); ok {
		return coerceFromString(asString, targetType)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("shape: cannot coerce %T into %s: %w", value, targetType, err)
	}
	resultPtr := reflect.New(targetType)
	if err := json.Unmarshal(encoded, resultPtr.Interface()); err != nil {
		return nil, fmt.Errorf("shape: cannot coerce %T into %s: %w", value, targetType, err)
	}
	return resultPtr.Elem().Interface(), nil
}

// coerceFromString mirrors the teacher's ParseStringAs: primitives parse
// directly, complex types unmarshal as JSON with a jsonrepair retry, and a
// schema-style {"type":...,"value":...} envelope is unwrapped first when
// present — a defensive measure against handlers that return a JSON Schema
// description instead of the data it describes.
func coerceFromString(content string, targetType reflect.Type) (any, error) {
	resultPtr := reflect.New(targetType)

	switch targetType.Kind() {
	case reflect.String:
		if unwrapped, err := tryUnwrapPrimitive(content); err == nil {
			content = unwrapped
		}
		resultPtr.Elem().SetString(content)
		return resultPtr.Elem().Interface(), nil

	case reflect.Bool:
		val, err := strconv.ParseBool(content)
		if err != nil {
			if unwrapped, unwrapErr := tryUnwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseBool(unwrapped); err == nil {
					resultPtr.Elem().SetBool(val)
					return resultPtr.Elem().Interface(), nil
				}
			}
			return nil, fmt.Errorf("shape: cannot coerce %q into bool: %w", content, err)
		}
		resultPtr.Elem().SetBool(val)
		return resultPtr.Elem().Interface(), nil

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(content, 64)
		if err != nil {
			if unwrapped, unwrapErr := tryUnwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseFloat(unwrapped, 64); err == nil {
					resultPtr.Elem().SetFloat(val)
					return resultPtr.Elem().Interface(), nil
				}
			}
			return nil, fmt.Errorf("shape: cannot coerce %q into %s: %w", content, targetType, err)
		}
		resultPtr.Elem().SetFloat(val)
		return resultPtr.Elem().Interface(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(content, 10, 64)
		if err != nil {
			if unwrapped, unwrapErr := tryUnwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseInt(unwrapped, 10, 64); err == nil {
					resultPtr.Elem().SetInt(val)
					return resultPtr.Elem().Interface(), nil
				}
			}
			return nil, fmt.Errorf("shape: cannot coerce %q into %s: %w", content, targetType, err)
		}
		resultPtr.Elem().SetInt(val)
		return resultPtr.Elem().Interface(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(content, 10, 64)
		if err != nil {
			if unwrapped, unwrapErr := tryUnwrapPrimitive(content); unwrapErr == nil {
				if val, err = strconv.ParseUint(unwrapped, 10, 64); err == nil {
					resultPtr.Elem().SetUint(val)
					return resultPtr.Elem().Interface(), nil
				}
			}
			return nil, fmt.Errorf("shape: cannot coerce %q into %s: %w", content, targetType, err)
		}
		resultPtr.Elem().SetUint(val)
		return resultPtr.Elem().Interface(), nil

	default:
		if err := json.Unmarshal([]byte(content), resultPtr.Interface()); err == nil {
			return resultPtr.Elem().Interface(), nil
		} else {
			repaired, repairErr := jsonrepair.JSONRepair(content)
			if repairErr != nil {
				return nil, fmt.Errorf(
					"shape: cannot coerce into %s: unmarshal failed (%v) and repair failed (%v)",
					targetType, err, repairErr,
				)
			}
			if err := json.Unmarshal([]byte(repaired), resultPtr.Interface()); err == nil {
				return resultPtr.Elem().Interface(), nil
			}

			unwrapped, unwrapErr := unwrapSchemaValues(repaired)
			if unwrapErr == nil {
				if err := json.Unmarshal([]byte(unwrapped), resultPtr.Interface()); err == nil {
					return resultPtr.Elem().Interface(), nil
				}
			}
			return nil, fmt.Errorf(
				"shape: cannot coerce into %s after repair and schema-unwrap (original: %s, repaired: %s)",
				targetType, content, repaired,
			)
		}
	}
}

// tryUnwrapPrimitive unwraps a {"type":"...","value":...} schema envelope
// into its bare value's string representation, the common shape a handler
// produces when it confuses a JSON Schema description with the data it
// describes.
func tryUnwrapPrimitive(content string) (string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}
	if _, hasType := data["type"]; !hasType {
		return "", fmt.Errorf("shape: not a schema-wrapped value")
	}
	value, hasValue := data["value"]
	if !hasValue || len(data) != 2 {
		return "", fmt.Errorf("shape: not a schema-wrapped value")
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case float64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// unwrapSchemaValues recursively strips {"type":...,"value":...} envelopes
// out of an arbitrarily nested JSON document.
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}
	result, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return recursiveUnwrap(value)
			}
		}
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result
	default:
		return data
	}
}
