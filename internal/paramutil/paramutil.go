// Package paramutil provides validation helpers for the params maps handed to
// comparer factories. Profiles deliver params as generic YAML maps, so every
// factory faces the same type-assertion and coercion chores.
package paramutil

import (
	"fmt"

	objerrors "github.com/objgraph-labs/objgraph/pkg/objgraph/v1/errors"
)

// GetOptionalString retrieves an optional string parameter.
// Returns the value and true if found and correct type, empty string and false
// if not found, or error if the key exists but has the wrong type.
func GetOptionalString(params map[string]interface{}, key string) (string, bool, error) {
	value, exists := params[key]
	if !exists {
		return "", false, nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", false, objerrors.NewValidationError(fmt.Sprintf("parameter '%s' must be a string, got %T", key, value), nil)
	}

	return strValue, true, nil
}

// GetOptionalBool retrieves an optional boolean parameter.
// Returns the bool value and true if found and correct type, false and false
// if not found, or error if the key exists but value type is not boolean.
func GetOptionalBool(params map[string]interface{}, key string) (bool, bool, error) {
	value, exists := params[key]
	if !exists {
		return false, false, nil
	}

	boolValue, ok := value.(bool)
	if !ok {
		return false, false, objerrors.NewValidationError(fmt.Sprintf("parameter '%s' must be a boolean, got %T", key, value), nil)
	}

	return boolValue, true, nil
}

// GetOptionalFloat retrieves an optional numeric parameter, widening any
// integer or float representation the YAML decoder may produce to float64.
// Returns the value and true if found and coercible, 0 and false if not found,
// or error if the key exists but the value is not numeric.
func GetOptionalFloat(params map[string]interface{}, key string) (float64, bool, error) {
	value, exists := params[key]
	if !exists {
		return 0, false, nil
	}

	switch v := value.(type) {
	case float64:
		return v, true, nil
	case float32:
		return float64(v), true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case uint64:
		return float64(v), true, nil
	default:
		return 0, false, objerrors.NewValidationError(fmt.Sprintf("parameter '%s' must be a number, got %T", key, value), nil)
	}
}

// GetOptionalInt retrieves an optional integer parameter, attempting coercion
// from compatible types. Returns the int value and true if found and coercible,
// 0 and false if not found, or error if the key exists but the value type is
// incompatible or conversion overflows.
func GetOptionalInt(params map[string]interface{}, key string) (int, bool, error) {
	value, exists := params[key]
	if !exists {
		return 0, false, nil
	}

	switch v := value.(type) {
	case int:
		return v, true, nil
	case int8:
		return int(v), true, nil
	case int16:
		return int(v), true, nil
	case int32:
		return int(v), true, nil
	case int64:
		intValue := int(v)
		// Check for overflow on 32-bit systems where int might be smaller than int64.
		if int64(intValue) != v {
			return 0, false, objerrors.NewValidationError(fmt.Sprintf("parameter '%s' value %v overflows standard int type", key, v), nil)
		}
		return intValue, true, nil
	case float64:
		// Allow conversion only if it represents a whole number.
		if v == float64(int(v)) {
			return int(v), true, nil
		}
		return 0, false, objerrors.NewValidationError(fmt.Sprintf("parameter '%s' is a non-integer float (%v), cannot convert to int", key, v), nil)
	default:
		return 0, false, objerrors.NewValidationError(fmt.Sprintf("parameter '%s' must be an integer or whole number, got %T", key, value), nil)
	}
}

// CheckRequired validates that all keys in the 'required' list exist in the params map.
// Returns a ValidationError if any required key is missing.
func CheckRequired(params map[string]interface{}, required []string) error {
	for _, key := range required {
		if _, exists := params[key]; !exists {
			return objerrors.NewValidationError(fmt.Sprintf("missing required parameter '%s'", key), nil)
		}
	}
	return nil
}

// CheckAllowed validates that only keys from the 'allowed' list exist in the
// params map. Returns a ValidationError if any unexpected key is found, so a
// typo in a profile's params block fails loudly instead of being ignored.
func CheckAllowed(params map[string]interface{}, allowed []string) error {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, key := range allowed {
		allowedSet[key] = struct{}{}
	}

	for key := range params {
		if _, isAllowed := allowedSet[key]; !isAllowed {
			return objerrors.NewValidationError(fmt.Sprintf("unknown parameter '%s' provided", key), nil)
		}
	}
	return nil
}
