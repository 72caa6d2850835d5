package chatlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// timeRegex finds the first H:MM or HH:MM in a timestamp field, with optional
// seconds and an optional 12-hour clock suffix. The hour must start at a word
// boundary so "24:30" is not read as "4:30".
var timeRegex = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)(?::[0-5]\d)?(?:\s?([AaPp])\.?\s?[Mm]\.?)?`)

// extractTime normalizes the time found in field to zero-padded 24-hour
// HH:MM. ok is false when field holds no recognizable time.
func extractTime(field string) (string, bool) {
	loc := timeRegex.FindStringSubmatchIndex(field)
	if loc == nil {
		return "", false
	}
	// "12:345" is not a time either.
	if end := loc[1]; end < len(field) && field[end] >= '0' && field[end] <= '9' {
		return "", false
	}
	m := make([]string, len(loc)/2)
	for i := range m {
		if loc[2*i] >= 0 {
			m[i] = field[loc[2*i]:loc[2*i+1]]
		}
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil {
		return "", false
	}

	switch strings.ToLower(m[3]) {
	case "a":
		if hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "p":
		if hour > 12 {
			return "", false
		}
		if hour < 12 {
			hour += 12
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
