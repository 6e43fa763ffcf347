package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidDateRange is returned for malformed or inverted date range specifications
var ErrInvalidDateRange = errors.New("invalid date range")

const maxRangeDays = 3650

var (
	daysRangePattern    = regexp.MustCompile(`(?i)^(-?\d+)d$`)
	quarterRangePattern = regexp.MustCompile(`(?i)^Q([1-4])-(\d{4})$`)
	yearRangePattern    = regexp.MustCompile(`^(\d{4})$`)
	customRangePattern  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}):(\d{4}-\d{2}-\d{2})$`)
)

// DateRange is a measurement window selected by the user
type DateRange struct {
	Start       time.Time
	End         time.Time
	Key         string // stable identifier such as "90d", "Q1-2025", "custom_2024-01-01_2024-03-31"
	Description string
}

// Days returns the whole number of days covered by the range
func (r *DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// ParseDateRange parses "30d", "Q1-2025", "2024" or "2024-01-01:2024-03-31".
// Relative ranges end at ref.
func ParseDateRange(spec string, ref time.Time) (*DateRange, error) {
	spec = strings.TrimSpace(spec)
	ref = ref.UTC()

	if m := daysRangePattern.FindStringSubmatch(spec); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil || days <= 0 {
			return nil, goerr.Wrap(ErrInvalidDateRange, "days must be positive", goerr.V("spec", spec))
		}
		if days > maxRangeDays {
			return nil, goerr.Wrap(ErrInvalidDateRange, "days too large", goerr.V("spec", spec), goerr.V("max", maxRangeDays))
		}
		return newDateRange(ref.AddDate(0, 0, -days), ref, strings.ToLower(spec), fmt.Sprintf("Last %d days", days))
	}

	if m := quarterRangePattern.FindStringSubmatch(spec); m != nil {
		quarter, _ := strconv.Atoi(m[1])
		year, err := parseRangeYear(m[2], spec)
		if err != nil {
			return nil, err
		}
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, 0).Add(-time.Second)
		return newDateRange(start, end, strings.ToUpper(spec), fmt.Sprintf("Q%d %d", quarter, year))
	}

	if m := yearRangePattern.FindStringSubmatch(spec); m != nil {
		year, err := parseRangeYear(m[1], spec)
		if err != nil {
			return nil, err
		}
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
		return newDateRange(start, end, m[1], fmt.Sprintf("Year %d", year))
	}

	if m := customRangePattern.FindStringSubmatch(spec); m != nil {
		start, err := time.Parse(time.DateOnly, m[1])
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidDateRange, "invalid start date", goerr.V("spec", spec), goerr.V("cause", err.Error()))
		}
		end, err := time.Parse(time.DateOnly, m[2])
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidDateRange, "invalid end date", goerr.V("spec", spec), goerr.V("cause", err.Error()))
		}
		end = end.Add(24*time.Hour - time.Second)
		return newDateRange(start, end, "custom_"+m[1]+"_"+m[2], m[1]+" to "+m[2])
	}

	return nil, goerr.Wrap(ErrInvalidDateRange, "unsupported date range format, use 30d, Q1-2025, 2024 or 2024-01-01:2024-12-31",
		goerr.V("spec", spec))
}

func parseRangeYear(s, spec string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < 2000 || year > 2100 {
		return 0, goerr.Wrap(ErrInvalidDateRange, "year out of range (2000-2100)", goerr.V("spec", spec))
	}
	return year, nil
}

func newDateRange(start, end time.Time, key, desc string) (*DateRange, error) {
	if !start.Before(end) {
		return nil, goerr.Wrap(ErrInvalidDateRange, "start must be before end",
			goerr.V("start", start), goerr.V("end", end))
	}
	return &DateRange{
		Start:       start,
		End:         end,
		Key:         key,
		Description: desc,
	}, nil
}
