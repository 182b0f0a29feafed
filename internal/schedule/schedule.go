// Package schedule turns a list of "HH:MM" wall-clock times into concrete dose occurrences.
package schedule

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ParseTimeOfDay parses "HH:MM". Both parts must be integers with hour in [0,23]
// and minute in [0,59].
func ParseTimeOfDay(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// ValidTimes keeps the entries that parse, in input order.
func ValidTimes(times []string) []string {
	valid := make([]string, 0, len(times))
	for _, t := range times {
		if _, _, ok := ParseTimeOfDay(t); ok {
			valid = append(valid, t)
		}
	}
	return valid
}

// DecodeTimes reads the stored JSON array. Anything that is not an array yields
// an empty list; non-string elements are dropped.
func DecodeTimes(raw string) []string {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	times := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		times = append(times, s)
	}
	return times
}

func EncodeTimes(times []string) string {
	if times == nil {
		times = []string{}
	}
	b, err := json.Marshal(times)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Expand returns every occurrence for each calendar day from start's date through
// end's date. The lower bound is start's midnight, not the start instant; the
// upper bound is the end instant. Within a day occurrences keep input order.
func Expand(times []string, start, end time.Time) []time.Time {
	loc := start.Location()
	end = end.In(loc)

	day := Midnight(start)
	last := Midnight(end)

	occurrences := make([]time.Time, 0)
	for !day.After(last) {
		for _, t := range times {
			h, m, ok := ParseTimeOfDay(t)
			if !ok {
				continue
			}
			occ := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
			if !occ.After(end) {
				occurrences = append(occurrences, occ)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return occurrences
}

// Midnight returns 00:00 of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
