package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// rawRecord gives tolerant, alias-aware access to a decoded JSON object.
// The backend is inconsistent about key casing and value types, so every
// getter takes the snake_case key first and camelCase aliases after it.
type rawRecord map[string]json.RawMessage

func (r rawRecord) first(keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := r[k]; ok && len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// str returns a string value. Numbers and booleans are returned in their JSON text form.
func (r rawRecord) str(keys ...string) string {
	v := r.first(keys...)
	if v == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v))
}

// number returns a numeric value given as a JSON number or numeric string.
func (r rawRecord) number(keys ...string) *float64 {
	v := r.first(keys...)
	if v == nil {
		return nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// date returns a calendar date; unparseable values are treated as absent.
func (r rawRecord) date(keys ...string) Date {
	v := r.first(keys...)
	if v == nil {
		return Date{}
	}
	var d Date
	if err := d.UnmarshalJSON(v); err != nil {
		return Date{}
	}
	return d
}

func (r rawRecord) list(keys ...string) []string {
	return ParseList(r.first(keys...))
}

// ParseList decodes a list-like value: a JSON array, an object whose values are
// lists, a JSON-encoded array inside a string, or a comma, semicolon or newline
// separated string. Blank entries are dropped.
func ParseList(v json.RawMessage) []string {
	if len(v) == 0 || string(v) == "null" {
		return []string{}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(v, &arr); err == nil {
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			out = append(out, ParseList(item)...)
		}
		return out
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := []string{}
		for _, k := range keys {
			out = append(out, ParseList(obj[k])...)
		}
		return out
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		// bare number or bool
		return compact([]string{string(v)})
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var inner []string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return compact(inner)
		}
	}
	switch {
	case strings.Contains(s, ","):
		return compact(strings.Split(s, ","))
	case strings.Contains(s, ";"):
		return compact(strings.Split(s, ";"))
	case strings.Contains(s, "\n"):
		return compact(strings.Split(s, "\n"))
	default:
		return compact([]string{s})
	}
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// UniqueList trims entries and removes blanks and duplicates, keeping first occurrence order.
func UniqueList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range compact(items) {
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
