package core

import (
	"astro-insights/src/models"
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Intensity curve sampling
// -----------------------------------------------------------------------------

// maxCurveSamples bounds the sample count for long outer-planet transits;
// the step widens instead of the curve growing unbounded.
const maxCurveSamples = 120

// curveFloor is the relative intensity at the very start and end of the
// active window.
const curveFloor = 0.35

// -----------------------------------------------------------------------------

// BuildIntensityCurve samples a transit's active window into ordered
// date -> intensity[1..5] points. The curve ramps up to the peak window,
// holds through it, and eases off toward the end date.
func BuildIntensityCurve(t models.MTransitSignal, score float64) []models.MIntensitySample {
	start := TruncateDay(t.StartDate)
	end := TruncateDay(t.EndDate)
	peakStart := TruncateDay(t.PeakStart)
	peakEnd := TruncateDay(t.PeakEnd)

	peakLevel := ClampInt(1+int(score/20.0), 1, 5)

	if end.Before(start) {
		// Degenerate window: single sample at the start date
		return []models.MIntensitySample{{Date: start, Intensity: peakLevel}}
	}

	totalDays := DaysBetween(start, end)
	step := 1
	if totalDays > maxCurveSamples {
		step = totalDays/maxCurveSamples + 1
	}

	var samples []models.MIntensitySample
	for d := start; !d.After(end); d = d.AddDate(0, 0, step) {
		samples = append(samples, models.MIntensitySample{
			Date:      d,
			Intensity: intensityOn(d, start, peakStart, peakEnd, end, peakLevel),
		})
	}

	// Always close the curve on the end date
	if last := samples[len(samples)-1]; !last.Date.Equal(end) {
		samples = append(samples, models.MIntensitySample{
			Date:      end,
			Intensity: intensityOn(end, start, peakStart, peakEnd, end, peakLevel),
		})
	}

	return samples
}

// -----------------------------------------------------------------------------

// intensityOn computes the sampled level for one day by linear ramp toward
// the peak window and linear easing after it.
func intensityOn(d, start, peakStart, peakEnd, end time.Time, peakLevel int) int {
	factor := 1.0

	switch {
	case d.Before(peakStart):
		span := float64(DaysBetween(start, peakStart))
		if span <= 0 {
			factor = 1.0
		} else {
			progress := float64(DaysBetween(start, d)) / span
			factor = curveFloor + (1.0-curveFloor)*progress
		}
	case d.After(peakEnd):
		span := float64(DaysBetween(peakEnd, end))
		if span <= 0 {
			factor = 1.0
		} else {
			progress := float64(DaysBetween(peakEnd, d)) / span
			factor = 1.0 - (1.0-curveFloor)*progress
		}
	}

	return ClampInt(int(math.Round(float64(peakLevel)*factor)), 1, 5)
}

// -----------------------------------------------------------------------------

// IntensityAt reads a curve at a date: the most recent sample at or before
// the date wins; dates before the first sample read the first sample.
// Returns 0 for an empty curve.
func IntensityAt(curve []models.MIntensitySample, date time.Time) int {
	if len(curve) == 0 {
		return 0
	}

	day := TruncateDay(date)
	level := curve[0].Intensity
	for _, s := range curve {
		if s.Date.After(day) {
			break
		}
		level = s.Intensity
	}
	return level
}
