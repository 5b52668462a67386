// Package format renders dashboard figures as display strings. Absent values
// render as NA.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

const NA = "N/A"

var suffixes = []struct {
	limit  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// Formatter carries the display preferences from the config file.
type Formatter struct {
	Decimals int
	Compact  bool
}

// Default matches the dashboard defaults: two decimals, compact numbers.
var Default = Formatter{Decimals: 2, Compact: true}

// Number formats v, abbreviating with K/M/B/T when compact.
func (f Formatter) Number(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return NA
	}
	if !f.Compact {
		return fixed(*v, f.Decimals)
	}
	abs := math.Abs(*v)
	for _, s := range suffixes {
		if abs >= s.limit {
			return fixed(*v/s.limit, f.Decimals) + s.suffix
		}
	}
	return fixed(*v, f.Decimals)
}

// Currency formats v in US dollars.
func (f Formatter) Currency(v *float64) string {
	s := f.Number(v)
	if s == NA {
		return s
	}
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// Percent formats v with one decimal.
func Percent(v *float64) string {
	return PercentN(v, 1)
}

func PercentN(v *float64, decimals int) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return NA
	}
	return fixed(*v, decimals) + "%"
}

// Date formats d as "Jan 2, 2006".
func Date(d models.Date) string {
	if !d.Valid() {
		return NA
	}
	return d.Format("Jan 2, 2006")
}

// LaunchAge describes how long ago launch was, e.g. "16.8 years ago".
func LaunchAge(launch models.Date, now time.Time) string {
	if !launch.Valid() {
		return NA
	}
	if launch.After(now) {
		return "upcoming"
	}
	days := models.DaysSince(launch.Time, now)
	switch {
	case days >= 365:
		return fixed(float64(days)/365, 1) + " years ago"
	case days >= 30:
		months := days / 30
		if months == 1 {
			return "1 month ago"
		}
		return strconv.Itoa(months) + " months ago"
	case days == 1:
		return "1 day ago"
	default:
		return strconv.Itoa(days) + " days ago"
	}
}

// Hashrate picks the largest reported unit. PH/s figures are shown as TH/s.
func (f Formatter) Hashrate(m *models.Mining) string {
	if m == nil {
		return NA
	}
	switch {
	case m.CurrentHashrateEH != nil && *m.CurrentHashrateEH != 0:
		return f.Number(m.CurrentHashrateEH) + " EH/s"
	case m.CurrentHashratePH != nil && *m.CurrentHashratePH != 0:
		return f.Number(models.Float(*m.CurrentHashratePH*1000)) + " TH/s"
	case m.CurrentHashrateTH != nil && *m.CurrentHashrateTH != 0:
		return f.Number(m.CurrentHashrateTH) + " TH/s"
	}
	return NA
}

func fixed(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
