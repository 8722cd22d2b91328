package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time within a day, minute resolution.
type TimeOfDay struct {
	Minutes int
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" (seconds are discarded).
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", raw)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", raw)
	}
	return TimeOfDay{Minutes: hours*60 + minutes}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Minutes/60, t.Minutes%60)
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes < other.Minutes
}

// Add returns the time of day shifted forward by d.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return TimeOfDay{Minutes: t.Minutes + int(d/time.Minute)}
}

// Sub returns the span between t and an earlier time of day.
func (t TimeOfDay) Sub(other TimeOfDay) time.Duration {
	return time.Duration(t.Minutes-other.Minutes) * time.Minute
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Duration is a time span encoded as an ISO 8601 duration in documents.
type Duration struct {
	time.Duration
}

// ParseISODuration parses durations of the form PnDTnHnMnS. Fractions are not
// supported; the smallest unit accepted is one second.
func ParseISODuration(raw string) (time.Duration, error) {
	orig := raw
	if !strings.HasPrefix(raw, "P") {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", orig)
	}
	raw = raw[1:]

	datePart := raw
	timePart := ""
	if idx := strings.Index(raw, "T"); idx >= 0 {
		datePart, timePart = raw[:idx], raw[idx+1:]
	}
	if datePart == "" && timePart == "" {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", orig)
	}

	var total time.Duration
	consume := func(part string, units map[byte]time.Duration) error {
		for part != "" {
			i := 0
			for i < len(part) && part[i] >= '0' && part[i] <= '9' {
				i++
			}
			if i == 0 || i == len(part) {
				return fmt.Errorf("invalid ISO 8601 duration %q", orig)
			}
			unit, ok := units[part[i]]
			if !ok {
				return fmt.Errorf("invalid ISO 8601 duration %q", orig)
			}
			n, err := strconv.Atoi(part[:i])
			if err != nil {
				return fmt.Errorf("invalid ISO 8601 duration %q", orig)
			}
			total += time.Duration(n) * unit
			part = part[i+1:]
		}
		return nil
	}

	if err := consume(datePart, map[byte]time.Duration{
		'D': 24 * time.Hour,
		'W': 7 * 24 * time.Hour,
	}); err != nil {
		return 0, err
	}
	if err := consume(timePart, map[byte]time.Duration{
		'H': time.Hour,
		'M': time.Minute,
		'S': time.Second,
	}); err != nil {
		return 0, err
	}

	return total, nil
}

// FormatISODuration renders d in the PnDTnHnMnS form.
func FormatISODuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	var b strings.Builder
	b.WriteByte('P')
	if days := d / (24 * time.Hour); days > 0 {
		fmt.Fprintf(&b, "%dD", days)
		d -= days * 24 * time.Hour
	}
	if d > 0 {
		b.WriteByte('T')
		if hours := d / time.Hour; hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
			d -= hours * time.Hour
		}
		if minutes := d / time.Minute; minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
			d -= minutes * time.Minute
		}
		if seconds := d / time.Second; seconds > 0 {
			fmt.Fprintf(&b, "%dS", seconds)
		}
	}
	return b.String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatISODuration(d.Duration))
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseISODuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}
