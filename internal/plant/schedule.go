package plant

import (
	"math"
	"time"
)

// dueSoonDays is the forward window for the "due-soon" classification.
// Changing it changes user-visible reminder behaviour.
const dueSoonDays = 3

// Due status values.
const (
	StatusOverdue  = "overdue"
	StatusDueToday = "due-today"
	StatusDueSoon  = "due-soon"
	StatusUpcoming = "upcoming"
)

// DueStatus classifies how urgent a schedule's next due date is.
type DueStatus struct {
	Status string `json:"status"`
	Label  string `json:"label"`
}

// ClassifyDueStatus classifies nextDue relative to now. Comparison is by
// calendar day in now's location, so a schedule due at 23:59 today and one
// due at 00:01 today both classify as due-today.
func ClassifyDueStatus(nextDue, now time.Time) DueStatus {
	switch days := daysUntil(nextDue, now); {
	case days < 0:
		return DueStatus{Status: StatusOverdue, Label: "Overdue"}
	case days == 0:
		return DueStatus{Status: StatusDueToday, Label: "Due today"}
	case days <= dueSoonDays:
		return DueStatus{Status: StatusDueSoon, Label: "Due soon"}
	default:
		return DueStatus{Status: StatusUpcoming, Label: "Upcoming"}
	}
}

// daysUntil returns the number of whole calendar days from now's date to
// nextDue's date, negative when nextDue is in the past. Both dates are taken
// in now's location; the rounding absorbs DST-shortened days.
func daysUntil(nextDue, now time.Time) int {
	loc := now.Location()
	d := nextDue.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dueDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(dueDay.Sub(today).Hours() / 24))
}

// suggestedIntervals holds the per-type picklist defaults, in days.
var suggestedIntervals = map[CareType][]int{
	CareWatering:      {3, 7, 14},
	CareFertilizing:   {14, 30, 60},
	CarePruning:       {30, 90, 180},
	CareRepotting:     {180, 365},
	CarePestTreatment: {7, 14, 30},
	CareOther:         {7, 30, 90},
}

// SuggestedIntervals returns the default interval picklist for the given care
// type, ordered ascending. Any integer in [MinIntervalDays, MaxIntervalDays]
// remains valid as a custom override.
func SuggestedIntervals(ct CareType) []int {
	ivals, ok := suggestedIntervals[ct]
	if !ok {
		return nil
	}
	out := make([]int, len(ivals))
	copy(out, ivals)
	return out
}

// Interval bounds for care schedules.
const (
	MinIntervalDays = 1
	MaxIntervalDays = 365
)

// ValidInterval reports whether days is an acceptable schedule interval.
func ValidInterval(days int) bool {
	return days >= MinIntervalDays && days <= MaxIntervalDays
}
