package generic

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// INJURY DATE - Calendar date with no time-of-day significance
// =============================================================================

// InjuryDate is the date of injury (DOI). The zero value means "no date"
// and must propagate as an absence: comparisons on it are always false.
type InjuryDate struct {
	Time time.Time
}

// NewInjuryDate returns the date at UTC midnight. Out-of-range days
// normalize the way time.Date does (Feb 30 becomes Mar 1 or 2).
func NewInjuryDate(year int, month time.Month, day int) InjuryDate {
	return InjuryDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseInjuryDate parses YYYY-MM-DD. Anything else, including a zero
// year, month or day, yields the zero InjuryDate rather than a default.
func ParseInjuryDate(s string) InjuryDate {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return InjuryDate{}
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n == 0 {
			return InjuryDate{}
		}
		ymd[i] = n
	}
	return NewInjuryDate(ymd[0], time.Month(ymd[1]), ymd[2])
}

// Comparison
func (d InjuryDate) IsZero() bool { return d.Time.IsZero() }

func (d InjuryDate) OnOrAfter(other InjuryDate) bool {
	if d.IsZero() || other.IsZero() {
		return false
	}
	return !d.Time.Before(other.Time)
}

func (d InjuryDate) Before(other InjuryDate) bool {
	if d.IsZero() || other.IsZero() {
		return false
	}
	return d.Time.Before(other.Time)
}

func (d InjuryDate) Equal(other InjuryDate) bool { return d.Time.Equal(other.Time) }

// Arithmetic
func (d InjuryDate) AddDays(n int) InjuryDate {
	if d.IsZero() {
		return d
	}
	return InjuryDate{Time: d.Time.AddDate(0, 0, n)}
}

// String renders YYYY-MM-DD, or "" for no date.
func (d InjuryDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// Short renders MM/DD/YYYY for notes and labels.
func (d InjuryDate) Short() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("01/02/2006")
}

// =============================================================================
// DATE WINDOWS - Ordered "on or after" thresholds
// =============================================================================

// Window is a version that applies to injury dates on or after From.
type Window struct {
	ID    string
	Label string
	From  InjuryDate
}

// Windows is a threshold list kept latest-first, so the first window a
// date satisfies is the most recent applicable version.
type Windows []Window

// NewWindows sorts the windows by From, latest first.
func NewWindows(ws ...Window) Windows {
	out := make(Windows, len(ws))
	copy(out, ws)
	// insertion sort; these lists hold a handful of entries
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].From.Time.After(out[j-1].From.Time); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Resolve returns the latest window whose lower bound (inclusive) the date
// reaches. It returns false for no date or a date before every window.
func (w Windows) Resolve(d InjuryDate) (Window, bool) {
	if d.IsZero() {
		return Window{}, false
	}
	for _, win := range w {
		if d.OnOrAfter(win.From) {
			return win, true
		}
	}
	return Window{}, false
}

// Earliest returns the oldest window, or false if the list is empty.
func (w Windows) Earliest() (Window, bool) {
	if len(w) == 0 {
		return Window{}, false
	}
	return w[len(w)-1], true
}
