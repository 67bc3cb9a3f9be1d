package schema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestArity(t *testing.T) {
	if err := Arity("op", []any{"a"}, 1); err != nil {
		t.Fatalf("expected arity 1 to pass, got %v", err)
	}

	err := Arity("op", []any{"a", "b"}, 1)
	assertArgumentError(t, err, CodeWrongArity)

	err = Arity("op", nil, 1)
	assertArgumentError(t, err, CodeWrongArity)
}

func TestString(t *testing.T) {
	s, err := String("name", "Alice")
	if err != nil {
		t.Fatalf("expected string to pass, got %v", err)
	}
	if s != "Alice" {
		t.Fatalf("expected Alice, got %q", s)
	}

	for _, v := range []any{42.0, true, nil, map[string]any{}} {
		_, err := String("name", v)
		assertArgumentError(t, err, CodeExpectedString)
	}
}

func TestObject(t *testing.T) {
	obj, err := Object("data", map[string]any{"name": "Alice"})
	if err != nil {
		t.Fatalf("expected object to pass, got %v", err)
	}
	if obj["name"] != "Alice" {
		t.Fatalf("unexpected object contents: %v", obj)
	}

	_, err = Object("data", "not an object")
	assertArgumentError(t, err, CodeExpectedObject)
}

func TestTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := Timestamp("createdAt", "2024-03-01T12:00:00Z")
	if err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("rfc3339: expected %v, got %v", want, got)
	}

	got, err = Timestamp("createdAt", float64(want.UnixMilli()))
	if err != nil {
		t.Fatalf("float millis: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("float millis: expected %v, got %v", want, got)
	}

	got, err = Timestamp("createdAt", json.Number("1709294400000"))
	if err != nil {
		t.Fatalf("json.Number millis: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("json.Number millis: expected %v, got %v", want, got)
	}

	_, err = Timestamp("createdAt", "yesterday")
	assertArgumentError(t, err, CodeExpectedTime)

	_, err = Timestamp("createdAt", true)
	assertArgumentError(t, err, CodeExpectedTime)
}

func TestSetModifier(t *testing.T) {
	set, err := SetModifier("modifier", map[string]any{
		"set": map[string]any{"name": "Alicia"},
	})
	if err != nil {
		t.Fatalf("expected modifier to pass, got %v", err)
	}
	if set["name"] != "Alicia" {
		t.Fatalf("unexpected set contents: %v", set)
	}

	// Field names inside set are not checked against any schema.
	set, err = SetModifier("modifier", map[string]any{
		"set": map[string]any{"noSuchField": 1.0},
	})
	if err != nil {
		t.Fatalf("expected unknown field to pass through, got %v", err)
	}
	if set["noSuchField"] != 1.0 {
		t.Fatalf("unexpected set contents: %v", set)
	}

	_, err = SetModifier("modifier", "not an object")
	assertArgumentError(t, err, CodeExpectedObject)

	_, err = SetModifier("modifier", map[string]any{"inc": map[string]any{}})
	assertArgumentError(t, err, CodeMissingSet)

	_, err = SetModifier("modifier", map[string]any{"set": "not an object"})
	assertArgumentError(t, err, CodeExpectedObject)
}

func assertArgumentError(t *testing.T, err error, code string) {
	t.Helper()

	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected *ArgumentError, got %v", err)
	}
	if argErr.Code != code {
		t.Fatalf("expected code %q, got %q (%v)", code, argErr.Code, argErr)
	}
}
