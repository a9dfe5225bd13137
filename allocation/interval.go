/*
interval.go - Half-open time windows and the single overlap rule

PURPOSE:
  Defines Window, the half-open interval [start, end) during which a
  workspace is claimed, and the one overlap predicate every other
  component must use. Reimplementing the conflict check ad hoc anywhere
  else (SQL included) is a bug: the store's conflict-checked insert and
  the availability resolver both mirror exactly this rule.

THE RULE:
  A overlaps B  iff  A.start < B.end  AND  B.start < A.end

  Touching endpoints do not conflict: a booking ending at 10:00 and
  another starting at 10:00 coexist on the same workspace.

SEE ALSO:
  - availability.go: Uses Contains as a zero-width probe
  - manager.go:      Re-checks overlap at confirmation time
  - store/sqlite:    Encodes the same predicate in SQL
*/
package allocation

import "time"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two windows conflict. Pure and total;
// symmetric in its arguments.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains treats t as a zero-width probe against the window:
// true iff Start <= t < End.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
