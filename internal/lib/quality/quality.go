// Package quality carries non-fatal data consistency warnings.
//
// Per-item problems (a bad station, an inverted interval, an unreadable dip)
// are fixed or skipped locally and reported as a Warning so one bad record
// never aborts a whole hole or profile.
package quality

import (
	"fmt"
	"sort"
)

// Code classifies a warning
type Code string

const (
	UnsortedStations         Code = "unsorted_stations"
	AngleOutOfRange          Code = "angle_out_of_range"
	InvalidStation           Code = "invalid_station"
	DuplicateStation         Code = "duplicate_station"
	MissingGeometry          Code = "missing_geometry"
	InvalidInterval          Code = "invalid_interval"
	IntervalBeyondTrajectory Code = "interval_beyond_trajectory"
	OverlappingIntervals     Code = "overlapping_intervals"
	UnparsableOrientation    Code = "unparsable_orientation"
	MissingAttribute         Code = "missing_attribute"
	MissingElevation         Code = "missing_elevation"
	UnknownHole              Code = "unknown_hole"
)

// Warning is a non-fatal problem with one item of input data
type Warning struct {
	Subject string `json:"subject"` // hole or measurement id
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Subject, w.Message)
}

// New formats a warning
func New(subject string, code Code, format string, args ...interface{}) Warning {
	return Warning{Subject: subject, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeCount is one line of a warning summary
type CodeCount struct {
	Code  Code `json:"code"`
	Count int  `json:"count"`
}

// Summarize counts warnings by code, most frequent first
func Summarize(warnings []Warning) []CodeCount {
	counts := make(map[Code]int)
	for _, w := range warnings {
		counts[w.Code]++
	}

	summary := make([]CodeCount, 0, len(counts))
	for code, n := range counts {
		summary = append(summary, CodeCount{Code: code, Count: n})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Code < summary[j].Code
	})
	return summary
}

// Count returns the number of warnings with the given code
func Count(warnings []Warning, code Code) int {
	n := 0
	for _, w := range warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}
