package usecase

import (
	"strconv"
	"strings"
)

// normalizeField maps a decoded JSON value to an optional text field.
// Blank strings and the literal string "null" become nil, numbers are
// formatted, string lists are joined. Anything else is kept as returned.
func normalizeField(v any) *string {
	var s string

	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if p := normalizeField(item); p != nil {
				parts = append(parts, *p)
			}
		}
		s = strings.Join(parts, ", ")
	default:
		return nil
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}
