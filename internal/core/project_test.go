package core

import (
	"reflect"
	"testing"
	"time"
)

func tx(id string, date time.Time, opts ...func(*Transaction)) Transaction {
	t := Transaction{
		ID:          id,
		Amount:      Money{Cents: 1000},
		CategoryID:  "groceries",
		Description: id,
		Date:        date,
		Type:        Expense,
	}
	for _, o := range opts {
		o(&t)
	}
	return t
}

func recurring(every Recurrence) func(*Transaction) {
	return func(t *Transaction) {
		t.IsRecurring = true
		t.Recurrence = every
	}
}

func TestProjectMonth_NonRecurring(t *testing.T) {
	jan := tx("jan", time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC))
	feb := tx("feb", time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC))
	prevYear := tx("old", time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC))
	all := []Transaction{jan, feb, prevYear}

	got := ProjectMonth(all, 2024, time.January)
	if len(got) != 1 || got[0].ID != "jan" {
		t.Fatalf("ProjectMonth(January 2024) = %v, want only jan", got)
	}

	got = ProjectMonth(all, 2024, time.March)
	if len(got) != 0 {
		t.Fatalf("ProjectMonth(March 2024) = %v, want empty", got)
	}
}

func TestProjectMonth_MonthlyClamping(t *testing.T) {
	anchor := time.Date(2024, time.January, 31, 14, 45, 0, 0, time.UTC)
	master := tx("rent", anchor, recurring(RecurrenceMonthly))

	tests := []struct {
		name    string
		year    int
		month   time.Month
		wantDay int
	}{
		{"february of a leap year clamps to 29", 2024, time.February, 29},
		{"february of a non-leap year clamps to 28", 2025, time.February, 28},
		{"march keeps day 31", 2024, time.March, 31},
		{"april clamps to 30", 2024, time.April, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectMonth([]Transaction{master}, tt.year, tt.month)
			if len(got) != 1 {
				t.Fatalf("expected exactly one instance, got %d", len(got))
			}
			inst := got[0]
			if inst.ID != master.ID {
				t.Errorf("projected instance id = %q, want master id %q", inst.ID, master.ID)
			}
			if inst.Date.Day() != tt.wantDay {
				t.Errorf("projected day = %d, want %d", inst.Date.Day(), tt.wantDay)
			}
			if inst.Date.Hour() != 14 || inst.Date.Minute() != 45 {
				t.Errorf("time of day not preserved: %v", inst.Date)
			}
			if inst.Amount != master.Amount {
				t.Errorf("amount = %v, want %v", inst.Amount, master.Amount)
			}
		})
	}
}

func TestProjectMonth_RecurringBeforeAnchorExcluded(t *testing.T) {
	master := tx("sub", time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), recurring(RecurrenceMonthly))

	if got := ProjectMonth([]Transaction{master}, 2024, time.May); len(got) != 0 {
		t.Errorf("month before anchor: got %d instances, want 0", len(got))
	}
	if got := ProjectMonth([]Transaction{master}, 2023, time.December); len(got) != 0 {
		t.Errorf("year before anchor: got %d instances, want 0", len(got))
	}
	if got := ProjectMonth([]Transaction{master}, 2024, time.June); len(got) != 1 {
		t.Errorf("anchor month: got %d instances, want 1", len(got))
	}
}

func TestProjectMonth_AnchorMonthNotDuplicated(t *testing.T) {
	// A recurring master anchored in the target month appears once, via the
	// recurring branch only.
	master := tx("gym", time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC), recurring(RecurrenceMonthly))
	got := ProjectMonth([]Transaction{master}, 2024, time.March)
	if len(got) != 1 {
		t.Fatalf("got %d instances, want 1", len(got))
	}
}

func TestProjectMonth_DefaultRecurrenceIsMonthly(t *testing.T) {
	master := tx("vague", time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC), func(tr *Transaction) {
		tr.IsRecurring = true
		tr.Recurrence = ""
	})
	got := ProjectMonth([]Transaction{master}, 2024, time.September)
	if len(got) != 1 || got[0].Date.Day() != 8 {
		t.Fatalf("unset recurrence on a recurring master should project monthly, got %v", got)
	}
}

func TestProjectMonth_OtherFrequenciesLiteralMonthOnly(t *testing.T) {
	for _, every := range []Recurrence{RecurrenceDaily, RecurrenceWeekly, RecurrenceYearly} {
		t.Run(string(every), func(t *testing.T) {
			master := tx("m", time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), recurring(every))
			if got := ProjectMonth([]Transaction{master}, 2024, time.April); len(got) != 1 {
				t.Errorf("anchor month: got %d, want 1", len(got))
			}
			if got := ProjectMonth([]Transaction{master}, 2024, time.May); len(got) != 0 {
				t.Errorf("following month: got %d, want 0 (no periodic expansion)", len(got))
			}
			if got := ProjectMonth([]Transaction{master}, 2025, time.April); len(got) != 0 {
				t.Errorf("next year: got %d, want 0 (no periodic expansion)", len(got))
			}
		})
	}
}

func TestProjectMonth_SortDescendingStable(t *testing.T) {
	day5a := tx("a", time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))
	day5b := tx("b", time.Date(2024, time.July, 5, 0, 0, 0, 0, time.UTC))
	day20 := tx("c", time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC))

	got := ProjectMonth([]Transaction{day5a, day5b, day20}, 2024, time.July)
	wantOrder := []string{"c", "a", "b"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), wantOrder)
		}
	}
}

func TestProjectMonth_EmptyAndIdempotent(t *testing.T) {
	if got := ProjectMonth(nil, 2024, time.January); len(got) != 0 {
		t.Fatalf("empty input should produce empty output, got %v", got)
	}

	all := []Transaction{
		tx("one", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
		tx("rec", time.Date(2024, time.January, 31, 8, 15, 0, 0, time.UTC), recurring(RecurrenceMonthly)),
	}
	first := ProjectMonth(all, 2024, time.March)
	second := ProjectMonth(all, 2024, time.March)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("projection is not idempotent: %v vs %v", first, second)
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2025, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %v) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func ids(list []Transaction) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}
