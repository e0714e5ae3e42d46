package calendar

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/hrygo/talkagent/plugin/ai"
)

// eventDetails is what the extraction prompt returns. Only Title is required.
type eventDetails struct {
	Title           string
	Date            string
	StartTime       string
	DurationMinutes int
	Location        string
	Notes           string
}

// parseEventDetails decodes field by field; a wrongly typed field is treated as absent.
func parseEventDetails(response string) (eventDetails, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ai.StripCodeFences(response)), &fields); err != nil || fields == nil {
		return eventDetails{}, false
	}

	var d eventDetails
	var ok bool
	if d.Title, ok = decodeString(fields["title"]); !ok || strings.TrimSpace(d.Title) == "" {
		return eventDetails{}, false
	}
	d.Date, _ = decodeString(fields["date"])
	d.StartTime, _ = decodeString(fields["start_time"])
	d.Location, _ = decodeString(fields["location"])
	d.Notes, _ = decodeString(fields["notes"])
	if raw := fields["duration_minutes"]; len(raw) > 0 {
		var minutes int
		if err := json.Unmarshal(raw, &minutes); err == nil {
			d.DurationMinutes = minutes
		}
	}
	return d, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

func (d eventDetails) duration() time.Duration {
	if d.DurationMinutes <= 0 {
		return DefaultDuration
	}
	return time.Duration(d.DurationMinutes) * time.Minute
}

// start combines the extracted date and time in now's location.
// An unparsable date means today; missing time parts default to 09:00.
func (d eventDetails) start(now time.Time) time.Time {
	day := now
	if d.Date != "" {
		if parsed, err := time.ParseInLocation(dateLayout, d.Date, now.Location()); err == nil {
			day = parsed
		}
	}

	clock := d.StartTime
	if clock == "" {
		clock = DefaultStartTime
	}
	hour, minute := 9, 0
	parts := strings.Split(clock, ":")
	if h, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
		hour = h
	}
	if len(parts) > 1 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			minute = m
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
}
