package testutil

import (
	"os"
	"reflect"
	"testing"
)

func Assert(t *testing.T, expected interface{}, value interface{}, msg string) {
	t.Helper()

	if !reflect.DeepEqual(expected, value) {
		t.Fatalf("%s, expected %v got %v", msg, expected, value)
	}
}

func IsNil(t *testing.T, value interface{}, msg string) {
	t.Helper()

	if value == nil {
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return
		}
	}

	t.Fatalf("%s, expected nil got %v", msg, value)
}

func NotNil(t *testing.T, value interface{}, msg string) {
	t.Helper()

	if value == nil {
		t.Fatalf("%s, expected a value got nil", msg)
	}
}

func True(t *testing.T, value bool, msg string) {
	t.Helper()

	if !value {
		t.Fatalf("%s, expected true", msg)
	}
}

func ReadFile(t *testing.T, file string) []byte {
	t.Helper()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	return data
}
