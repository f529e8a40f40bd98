package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Matches e.g. "Usr 9 07:50:07": an arbitrary label, a day count and an hh:mm:ss clock.
var durationRegex = regexp.MustCompile(`^\S+\s+(\d+)\s+(\d+):(\d+):(\d+)$`)

// ParseDuration converts a user log resource usage duration such as "Usr 9 07:50:07" into seconds.
func ParseDuration(s string) (int64, error) {
	m := durationRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, &ErrInvalidDuration{Value: s}
	}
	var total int64
	for i, unit := range []int64{86400, 3600, 60, 1} {
		n, err := parseComponent(m[i+1])
		if err != nil {
			return 0, &ErrInvalidDuration{Value: s}
		}
		var ok bool
		if total, ok = addSeconds(total, n, unit); !ok {
			return 0, &ErrInvalidDuration{Value: s}
		}
	}
	return total, nil
}

// ParseUsage sums the comma separated user and system durations of a usage attribute,
// e.g. "Usr 0 00:00:01, Sys 0 00:00:02" gives 3. If any part fails to parse no total is returned.
func ParseUsage(s string) (int64, error) {
	var total int64
	for _, part := range strings.Split(s, ",") {
		seconds, err := ParseDuration(part)
		if err != nil {
			return 0, &ErrInvalidDuration{Value: s}
		}
		var ok bool
		if total, ok = addSeconds(total, seconds, 1); !ok {
			return 0, &ErrInvalidDuration{Value: s}
		}
	}
	return total, nil
}

// addSeconds returns total + n*unit for non-negative operands, or false if the result does not fit an int64.
func addSeconds(total, n, unit int64) (int64, bool) {
	if n > (math.MaxInt64-total)/unit {
		return 0, false
	}
	return total + n*unit, true
}

func parseComponent(s string) (int64, error) {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseInt(trimmed, 10, 64)
}
