// Package schema validates untyped arguments arriving from remote,
// untrusted callers. Every method and parameterized query runs its
// arguments through these checks before touching the store; a failed
// check is reported as a structured invalid-argument error and the
// operation is a guaranteed no-op.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Machine-readable reason codes for invalid arguments.
const (
	CodeWrongArity      = "WRONG_ARITY"
	CodeExpectedString  = "EXPECTED_STRING"
	CodeExpectedObject  = "EXPECTED_OBJECT"
	CodeExpectedTime    = "EXPECTED_TIMESTAMP"
	CodeMissingField    = "MISSING_FIELD"
	CodeUnexpectedField = "UNEXPECTED_FIELD"
	CodeMissingSet      = "MISSING_SET"
)

// ArgumentError reports a shape or type check failure on a caller
// argument. It is returned directly to the caller and never silently
// coerced.
type ArgumentError struct {
	Code     string // machine-readable reason
	Argument string // name of the offending argument or field
	Message  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Message)
}

// invalidArgument builds an ArgumentError.
func invalidArgument(code, argument, format string, args ...any) *ArgumentError {
	return &ArgumentError{
		Code:     code,
		Argument: argument,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Arity checks that a positional argument list has exactly want
// entries.
func Arity(operation string, args []any, want int) error {
	if len(args) != want {
		return invalidArgument(CodeWrongArity, operation, "expected %d argument(s), got %d", want, len(args))
	}
	return nil
}

// String checks that a value is a string and returns it.
func String(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalidArgument(CodeExpectedString, name, "expected a string, got %T", v)
	}
	return s, nil
}

// Object checks that a value is a JSON object and returns it.
func Object(name string, v any) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalidArgument(CodeExpectedObject, name, "expected an object, got %T", v)
	}
	return obj, nil
}

// Timestamp checks that a value is a timestamp and returns it. JSON
// has no native timestamp type, so both RFC 3339 strings and numeric
// Unix milliseconds are accepted.
func Timestamp(name string, v any) (time.Time, error) {
	switch val := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return time.Time{}, invalidArgument(CodeExpectedTime, name, "expected an RFC 3339 timestamp: %v", err)
		}
		return t, nil
	case float64:
		return time.UnixMilli(int64(val)).UTC(), nil
	case json.Number:
		millis, err := val.Int64()
		if err != nil {
			return time.Time{}, invalidArgument(CodeExpectedTime, name, "expected integer Unix milliseconds: %v", err)
		}
		return time.UnixMilli(millis).UTC(), nil
	case time.Time:
		return val, nil
	default:
		return time.Time{}, invalidArgument(CodeExpectedTime, name, "expected a timestamp, got %T", v)
	}
}

// SetModifier checks that a value is a partial-update modifier of the
// form {"set": {...}} and returns the set map. Field names inside the
// set are deliberately not checked against any schema; unknown fields
// pass through to the store.
func SetModifier(name string, v any) (map[string]any, error) {
	obj, err := Object(name, v)
	if err != nil {
		return nil, err
	}

	raw, ok := obj["set"]
	if !ok {
		return nil, invalidArgument(CodeMissingSet, name, "modifier must carry a %q object", "set")
	}

	set, ok := raw.(map[string]any)
	if !ok {
		return nil, invalidArgument(CodeExpectedObject, name+".set", "expected an object, got %T", raw)
	}

	return set, nil
}
