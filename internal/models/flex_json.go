package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// flexFieldMaps caches JSON tag -> struct field index mappings per type
var flexFieldMaps sync.Map

func flexFieldMap(t reflect.Type) map[string]int {
	if cached, ok := flexFieldMaps.Load(t); ok {
		return cached.(map[string]int)
	}
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		m[strings.Split(tag, ",")[0]] = i
	}
	flexFieldMaps.Store(t, m)
	return m
}

// UnmarshalJSON accepts provider payloads whose ids and scores may be encoded
// as numbers or quoted strings. Scraper exports mix both.
func (m *RawMatch) UnmarshalJSON(data []byte) error {
	// Alias prevents infinite recursion
	type Alias RawMatch
	return flexUnmarshal(data, (*Alias)(m))
}

func (t *TeamRef) UnmarshalJSON(data []byte) error {
	type Alias TeamRef
	return flexUnmarshal(data, (*Alias)(t))
}

func (i *RawIncident) UnmarshalJSON(data []byte) error {
	type Alias RawIncident
	return flexUnmarshal(data, (*Alias)(i))
}

func flexUnmarshal(data []byte, target any) error {
	// Fast path: standard unmarshal works when all types match natively
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}

	// Slow path: field-by-field with coercion
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	v := reflect.ValueOf(target).Elem()
	fieldMap := flexFieldMap(v.Type())

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		if len(rawVal) == 0 || string(rawVal) == "null" {
			continue
		}

		var s string
		if rawVal[0] == '"' {
			if err := json.Unmarshal(rawVal, &s); err != nil || s == "" {
				continue
			}
		} else {
			// Number (or bool) where a string was expected
			s = strings.TrimSpace(string(rawVal))
		}
		coerceStringToField(fv, s)
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type,
// allocating pointer targets. It reports whether the value was usable.
func coerceStringToField(fv reflect.Value, s string) bool {
	if fv.Kind() == reflect.Pointer {
		elem := reflect.New(fv.Type().Elem())
		if !coerceStringToField(elem.Elem(), s) {
			return false
		}
		fv.Set(elem)
		return true
	}
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		fv.SetFloat(n)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// ParseFloat handles "45.0" → truncate to int
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		fv.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false
		}
		fv.SetBool(b)
	case reflect.String:
		fv.SetString(s)
	default:
		return false
	}
	return true
}
