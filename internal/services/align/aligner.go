// Package align picks the latest observation of a series and its
// year-over-year and month-over-month comparators.
package align

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"LiqPull/internal/domain/models"
	"LiqPull/pkg/util"
)

var (
	ErrNoObservations      = errors.New("no valid observations")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrZeroComparator      = errors.New("comparator value is zero")
)

const (
	toleranceDays          = 30
	quarterlyToleranceDays = 45
	// Oldest-observation fallback is only accepted when at least this old.
	fallbackMinAgeDays = 270
	periodMinDays      = 28
	periodMaxDays      = 35
)

// Tolerance returns the comparator search band, in days, for a frequency.
func Tolerance(f models.Frequency) float64 {
	if f == models.Quarterly {
		return quarterlyToleranceDays
	}
	return toleranceDays
}

// Align selects the latest observation and its comparators. Missing
// observations are ignored. The YoY comparator is the observation nearest to
// one year before latest within the tolerance band, or the oldest observation
// when it is at least 270 days old.
func Align(obs []models.RawObservation, freq models.Frequency) (models.AlignedObservation, error) {
	valid := make([]models.RawObservation, 0, len(obs))
	for _, o := range obs {
		if o.Missing || o.Date.IsZero() {
			continue
		}
		valid = append(valid, o)
	}
	if len(valid) == 0 {
		return models.AlignedObservation{}, ErrNoObservations
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Date.After(valid[j].Date) })

	latest := valid[0]
	older := valid[1:]
	// drop duplicates of the latest date; comparators must be strictly earlier
	for len(older) > 0 && !older[0].Date.Before(latest.Date) {
		older = older[1:]
	}
	if len(older) == 0 {
		return models.AlignedObservation{}, fmt.Errorf("%w: only one observation", ErrInsufficientHistory)
	}

	target := latest.Date.AddDate(-1, 0, 0)
	yoy, ok := nearest(older, target, Tolerance(freq))
	if !ok {
		oldest := older[len(older)-1]
		age := util.DaysBetween(oldest.Date, latest.Date)
		if age < fallbackMinAgeDays {
			return models.AlignedObservation{}, fmt.Errorf("%w: oldest observation only %.0f days old", ErrInsufficientHistory, age)
		}
		yoy = oldest
	}
	if yoy.Value == 0 {
		return models.AlignedObservation{}, ErrZeroComparator
	}

	out := models.AlignedObservation{
		Latest: models.Point{Date: latest.Date, Value: latest.Value},
		YoY:    models.Point{Date: yoy.Date, Value: yoy.Value},
	}
	if supportsPeriod(freq) {
		if p, ok := periodComparator(older, latest.Date); ok && p.Value != 0 {
			out.Period = &models.Point{Date: p.Date, Value: p.Value}
		}
	}
	return out, nil
}

// nearest returns the observation closest to target within tol days.
// Ties resolve to the newer observation since older is sorted newest first.
func nearest(older []models.RawObservation, target time.Time, tol float64) (models.RawObservation, bool) {
	var (
		best     models.RawObservation
		bestDist = tol + 1
		found    bool
	)
	for _, o := range older {
		d := util.AbsDays(o.Date, target)
		if d <= tol && d < bestDist {
			best, bestDist, found = o, d, true
		}
	}
	return best, found
}

func supportsPeriod(f models.Frequency) bool {
	return f == models.Daily || f == models.Weekly
}

func periodComparator(older []models.RawObservation, lt time.Time) (models.RawObservation, bool) {
	target := lt.AddDate(0, -1, 0)
	var (
		best     models.RawObservation
		bestDist float64
		found    bool
	)
	for _, o := range older {
		age := util.DaysBetween(o.Date, lt)
		if age < periodMinDays || age > periodMaxDays {
			continue
		}
		d := util.AbsDays(o.Date, target)
		if !found || d < bestDist {
			best, bestDist, found = o, d, true
		}
	}
	return best, found
}
