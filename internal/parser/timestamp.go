package parser

import (
	"math"
	"time"

	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// Replicas and clients stamp every line as [2023-Mar-07 10:11:12.123456].
const (
	logTimeLayout       = "2006-Jan-02 15:04:05.999999"
	logTimeLayoutNoFrac = "2006-Jan-02 15:04:05"
)

// ParseLogTimestamp converts a bracketed log timestamp (without brackets) to
// POSIX seconds. Timestamps are read as UTC.
func ParseLogTimestamp(s string) (models.Timestamp, error) {
	t, err := time.ParseInLocation(logTimeLayout, s, time.UTC)
	if err != nil {
		var fallbackErr error
		t, fallbackErr = time.ParseInLocation(logTimeLayoutNoFrac, s, time.UTC)
		if fallbackErr != nil {
			return 0, utils.NewParseError("malformed log timestamp", s)
		}
	}
	return toPosix(t), nil
}

// FormatLogTimestamp renders a POSIX time the way replicas print it
func FormatLogTimestamp(ts models.Timestamp) string {
	sec := math.Floor(ts)
	usec := math.Round((ts - sec) * 1e6)
	return time.Unix(int64(sec), int64(usec)*1000).UTC().Format("2006-Jan-02 15:04:05.000000")
}

func toPosix(t time.Time) models.Timestamp {
	return float64(t.Unix()) + float64(t.Nanosecond()/1000)/1e6
}
