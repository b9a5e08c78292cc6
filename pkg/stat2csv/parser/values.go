package parser

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// temporalKind classifies how a numeric value is rendered.
type temporalKind int

const (
	plainNumber temporalKind = iota
	dateValue
	dateTimeValue
	timeValue
)

var (
	// spssEpoch is day zero of the Gregorian calendar as used by SPSS.
	spssEpoch = time.Date(1582, time.October, 14, 0, 0, 0, 0, time.UTC)
	// sasEpoch is day zero for SAS dates and datetimes.
	sasEpoch = time.Date(1960, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// formatNumber renders a data value. Integer-valued numbers have no
// decimals; NaN renders as an empty string.
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatLabelValue renders the raw value of a numeric value label the way
// a double prints in most scripting tools: integer-valued numbers keep a
// ".0" suffix ("1.0"), others use the shortest representation ("2.5").
func formatLabelValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatTemporal renders v relative to epoch. Dates count days when
// unitDays is true, seconds otherwise; datetimes and times always count
// seconds.
func formatTemporal(v float64, kind temporalKind, epoch time.Time, unitDays bool) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	switch kind {
	case dateValue:
		var t time.Time
		if unitDays {
			t = epoch.AddDate(0, 0, int(math.Floor(v)))
		} else {
			t = addSeconds(epoch, v)
		}
		return t.Format("2006-01-02")
	case dateTimeValue:
		return addSeconds(epoch, v).Format("2006-01-02 15:04:05")
	case timeValue:
		return formatDuration(v)
	default:
		return formatNumber(v)
	}
}

// addSeconds adds fractional seconds to t, rounded to the millisecond.
// Spans beyond the range of time.Duration are added in whole days first.
func addSeconds(t time.Time, secs float64) time.Time {
	days := math.Floor(secs / 86400)
	rest := secs - days*86400
	return t.AddDate(0, 0, int(days)).Add(time.Duration(math.Round(rest*1000)) * time.Millisecond)
}

// formatDuration renders seconds as HH:MM:SS; hours are not wrapped at 24.
func formatDuration(secs float64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	total := int64(math.Round(secs))
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, total/60%60, total%60)
}
