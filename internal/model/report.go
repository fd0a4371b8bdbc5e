package model

// DurationReportRow holds the aggregated parking durations for a
// single calendar day of a monthly report. Days with no activity are
// zero-filled by the aggregator so that every report for a month of N
// days contains exactly N rows.
type DurationReportRow struct {
	Day              int `json:"day"`               // day of month, 1-based
	ParkedMinutes    int `json:"parked_minutes"`    // total minutes vehicles were parked
	LateMinutes      int `json:"late_minutes"`      // minutes past expected exit, towed sessions
	ExtensionMinutes int `json:"extension_minutes"` // minutes added by extensions
}

// StatusReportRow holds the count of distinct subscribers that had an
// open or closing session on a single calendar day.
type StatusReportRow struct {
	Day               int `json:"day"`                // day of month, 1-based
	ActiveSubscribers int `json:"active_subscribers"` // distinct subscribers active that day
}
