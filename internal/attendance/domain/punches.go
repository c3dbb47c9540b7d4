package domain

import (
	"sort"
	"time"
)

const maxPairMinutes = 24 * 60

// PunchBounds is the resolved entry/exit of one employee-day
type PunchBounds struct {
	In      *time.Time
	Out     *time.Time
	Source  PunchSource
	Punches []time.Time
}

// HasPunch reports whether the day has an entry
func (b PunchBounds) HasPunch() bool {
	return b.In != nil
}

// ResolveBounds picks the day's entry/exit. Manual times in the grid win,
// then device punches inside the local day, else nothing.
// punches may cover a wider window; only those inside the day are used.
func ResolveBounds(tz *Normalizer, day time.Time, manual DayFields, punches []time.Time) PunchBounds {
	if manual.HasManualTimes() {
		iso := tz.ISODate(day)
		b := PunchBounds{Source: SourceManual}
		if t, ok := tz.BuildInstant(iso, manual.Entry); ok {
			b.In = &t
		}
		if t, ok := tz.BuildInstant(iso, manual.Exit); ok {
			b.Out = &t
		}
		return b
	}

	inDay := PunchesOnDay(tz, day, punches)
	if len(inDay) == 0 {
		return PunchBounds{Source: SourceNone}
	}

	first, last := inDay[0], inDay[len(inDay)-1]
	return PunchBounds{In: &first, Out: &last, Source: SourceDevice, Punches: inDay}
}

// PunchesOnDay returns the sorted punches falling on the local day of day
func PunchesOnDay(tz *Normalizer, day time.Time, punches []time.Time) []time.Time {
	start, end := tz.DayBounds(day)
	out := make([]time.Time, 0, len(punches))
	for _, p := range punches {
		if !p.Before(start) && p.Before(end) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// PairAndSumWorkedMinutes pairs sorted punches 1st/2nd, 3rd/4th and sums the
// pairs. Pairs shorter than zero or longer than a day are dropped, and an odd
// trailing punch counts for nothing.
func PairAndSumWorkedMinutes(punches []time.Time) int {
	sorted := append([]time.Time(nil), punches...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	total := 0
	for i := 0; i+1 < len(sorted); i += 2 {
		minutes := int(sorted[i+1].Sub(sorted[i]) / time.Minute)
		if minutes < 0 || minutes > maxPairMinutes {
			continue
		}
		total += minutes
	}
	return total
}

// WorkedMinutes computes the minutes worked for resolved bounds. Nil means
// there is not enough data to tell, which never produces a penalty.
func WorkedMinutes(b PunchBounds) *int {
	switch b.Source {
	case SourceDevice:
		if len(b.Punches) == 0 {
			return nil
		}
		w := PairAndSumWorkedMinutes(b.Punches)
		return &w
	case SourceManual:
		if b.In == nil || b.Out == nil || b.Out.Before(*b.In) {
			return nil
		}
		w := int(b.Out.Sub(*b.In) / time.Minute)
		if w > maxPairMinutes {
			return nil
		}
		return &w
	default:
		return nil
	}
}
