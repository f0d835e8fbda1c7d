// Package interval provides half-open time interval arithmetic.
// A Span covers [Start, End): the start instant is included, the end
// instant is not, so back-to-back spans never overlap.
package interval

import "time"

type Span struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Span {
	return Span{Start: start, End: end}
}

// IsValid reports whether the span has positive length.
func (s Span) IsValid() bool {
	return s.Start.Before(s.End)
}

func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open spans share any instant.
// A span ending exactly where another begins does not overlap it.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Contains reports whether t falls inside the span. The start instant
// is inside, the end instant is not.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Expand widens the span by the given leading and trailing durations.
func (s Span) Expand(before, after time.Duration) Span {
	return Span{
		Start: s.Start.Add(-before),
		End:   s.End.Add(after),
	}
}
