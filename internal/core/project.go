package core

import (
	"sort"
	"time"
)

// ProjectMonth computes the effective transaction list for a calendar month.
//
// Non-recurring masters are kept when their date falls inside the target
// month. Recurring masters are projected: a monthly master (monthly is the
// default when the recurrence is unset on a recurring record) yields exactly
// one instance per month at or after its anchor month, with the day clamped to
// the last day of the target month and the anchor's time of day preserved.
// Projected instances keep the master's ID; they are view artifacts,
// recomputed on every call and never stored.
//
// Daily, weekly and yearly recurrences are deliberately not expanded across
// months: those masters surface only in their literal anchor month. The
// upstream product behavior is ambiguous here, so the narrow interpretation
// is kept until it is clarified.
//
// The result is sorted by effective date, most recent first; records with
// equal dates keep their input order.
func ProjectMonth(all []Transaction, year int, month time.Month) []Transaction {
	effective := make([]Transaction, 0, len(all))
	for _, t := range all {
		if t.IsRecurring {
			if inst, ok := projectRecurring(t, year, month); ok {
				effective = append(effective, inst)
			}
			continue
		}
		if t.Date.Year() == year && t.Date.Month() == month {
			effective = append(effective, t)
		}
	}
	sort.SliceStable(effective, func(i, j int) bool {
		return effective[i].Date.After(effective[j].Date)
	})
	return effective
}

func projectRecurring(master Transaction, year int, month time.Month) (Transaction, bool) {
	anchor := master.Date
	// Recurrence has not started yet as of the viewed month.
	if anchor.Year() > year || (anchor.Year() == year && anchor.Month() > month) {
		return Transaction{}, false
	}

	switch master.Recurrence {
	case RecurrenceMonthly, RecurrenceNone, "":
		day := anchor.Day()
		if last := DaysIn(year, month); day > last {
			day = last
		}
		inst := master
		inst.Date = time.Date(year, month, day, anchor.Hour(), anchor.Minute(), 0, 0, anchor.Location())
		return inst, true
	default:
		// daily/weekly/yearly: show once, in the literal anchor month.
		if anchor.Year() == year && anchor.Month() == month {
			return master, true
		}
		return Transaction{}, false
	}
}

// DaysIn returns the number of days in the given calendar month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
