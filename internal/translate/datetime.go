package translate

import (
	"fmt"
	"strings"
	"time"
)

// ParseDateTimeInterval parses a STAC datetime parameter which can be:
// - A single RFC3339 datetime: "2023-06-15T14:00:00Z"
// - An open-ended interval: "../2023-06-15T14:00:00Z" or "2023-06-15T14:00:00Z/.."
// - A closed interval: "2023-06-15T14:00:00Z/2023-06-16T14:00:00Z"
// Open bounds come back as empty strings, never as a sentinel value.
func ParseDateTimeInterval(datetime string) (start, end string, err error) {
	if datetime == "" {
		return "", "", nil
	}

	datetime = strings.TrimSpace(datetime)

	if !strings.Contains(datetime, "/") {
		t, err := time.Parse(time.RFC3339, datetime)
		if err != nil {
			return "", "", fmt.Errorf("invalid datetime format: %w", err)
		}
		s := formatSearchTime(t)
		return s, s, nil
	}

	parts := strings.Split(datetime, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid datetime interval format: must be 'start/end'")
	}

	startStr := strings.TrimSpace(parts[0])
	endStr := strings.TrimSpace(parts[1])

	if startStr != "" && startStr != ".." {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return "", "", fmt.Errorf("invalid start datetime: %w", err)
		}
		start = formatSearchTime(t)
	}

	if endStr != "" && endStr != ".." {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return "", "", fmt.Errorf("invalid end datetime: %w", err)
		}
		end = formatSearchTime(t)
	}

	if start == "" && end == "" {
		return "", "", fmt.Errorf("datetime interval cannot be open on both ends")
	}

	return start, end, nil
}

func formatSearchTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
