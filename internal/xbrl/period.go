// Package xbrl holds the instance-document building blocks a conversion
// produces: periods, dimensional contexts, units and facts. Contexts and
// units are interned so that facts reported under the same qualifiers share
// one value, which keeps fact-set deduplication a pointer comparison.
package xbrl

import "time"

// dateLayout is the lexical form XBRL periods are serialized in.
const dateLayout = "2006-01-02"

// Period is either an instant or a start/end duration. The zero value is
// not a valid period; use Instant or Duration.
type Period struct {
	instant bool
	start   time.Time
	end     time.Time
}

// Instant returns a point-in-time period.
func Instant(at time.Time) Period {
	return Period{instant: true, end: at}
}

// Duration returns a start/end period.
func Duration(start, end time.Time) Period {
	return Period{start: start, end: end}
}

// IsInstant reports whether the period is a point in time.
func (p Period) IsInstant() bool { return p.instant }

// Start returns the start date of a duration period.
func (p Period) Start() time.Time { return p.start }

// End returns the end date of a duration period, or the instant date.
func (p Period) End() time.Time { return p.end }

// Key returns a stable identity string for the period, used when interning
// contexts and when slicing report tables by period.
func (p Period) Key() string {
	if p.instant {
		return "i:" + p.end.Format(dateLayout)
	}
	return "d:" + p.start.Format(dateLayout) + "/" + p.end.Format(dateLayout)
}

// Label returns the human-facing form used in table headings.
func (p Period) Label() string {
	if p.instant {
		return p.end.Format(dateLayout)
	}
	return p.start.Format(dateLayout) + " to " + p.end.Format(dateLayout)
}
