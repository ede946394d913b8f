package core

import (
	"strconv"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseDecimal parses a decimal number written with either `.` or `,` as the decimal separator.
func ParseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(CleanString(s), ",", ".")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ChunkStrings splits vals into consecutive chunks of at most size elements.
func ChunkStrings(vals []string, size int) [][]string {
	if size <= 0 || len(vals) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(vals)+size-1)/size)
	for size < len(vals) {
		vals, chunks = vals[size:], append(chunks, vals[:size:size])
	}
	return append(chunks, vals)
}

// UniqueStrings returns vals without duplicates or empty strings, keeping the first occurrence order.
func UniqueStrings(vals []string) []string {
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
