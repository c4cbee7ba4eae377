package insight

import (
	"fmt"
	"sort"
	"time"

	"astro-insights/src/insight/core"
	"astro-insights/src/logger"
	"astro-insights/src/models"
)

// InsightFacade orchestrates the pure engines in core into full per-user
// pipeline runs. It owns no state; storage and caching live with the caller.
type InsightFacade struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewInsightFacade(cfg *models.MConfig, log *logger.Logger) *InsightFacade {
	return &InsightFacade{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// ScoreTransits scores every raw signal against the user's chart and drops
// the ones below threshold. Validation failures abort the whole batch: a
// malformed signal means the upstream feed is broken, not that one entry
// should be skipped quietly.
func (f *InsightFacade) ScoreTransits(
	signals []models.MTransitSignal,
	chart *models.MNatalChart,
	prefs models.MUserPreferences,
	currentDate time.Time,
) ([]models.MScoredTransit, error) {

	scored := make([]models.MScoredTransit, 0, len(signals))
	for _, signal := range signals {
		s, err := core.ScoreTransit(signal, chart, prefs)
		if err != nil {
			return nil, err
		}
		s.ScoredAt = currentDate
		scored = append(scored, s)
	}

	kept := core.FilterBelowThreshold(scored)
	if dropped := len(scored) - len(kept); dropped > 0 {
		f.Logger.Debug("Filtered %d of %d transits below threshold for user %s", dropped, len(scored), prefs.UserID)
	}
	return kept, nil
}

// -----------------------------------------------------------------------------

// UpcomingWindows builds the rolling forecast list: every kept transit whose
// active window intersects [currentDate, currentDate + horizon], soonest
// first.
func (f *InsightFacade) UpcomingWindows(scored []models.MScoredTransit, currentDate time.Time) []models.MUpcomingWindow {
	horizonDays := 90
	if f.Config != nil && f.Config.Ephemeris.ForecastHorizonDays > 0 {
		horizonDays = f.Config.Ephemeris.ForecastHorizonDays
	}

	today := core.TruncateDay(currentDate)
	horizon := today.AddDate(0, 0, horizonDays)

	windows := make([]models.MUpcomingWindow, 0, len(scored))
	for _, s := range scored {
		t := s.Transit
		if t.EndDate.Before(today) || t.StartDate.After(horizon) {
			continue
		}
		windows = append(windows, models.MUpcomingWindow{
			ThemeType: s.PrimaryTheme,
			Headline: fmt.Sprintf("%s %s your natal %s",
				core.DisplayPlanet(t.TransitingPlanet), t.Aspect, t.NatalTarget),
			StartDate: t.StartDate,
			PeakStart: t.PeakStart,
			PeakEnd:   t.PeakEnd,
			EndDate:   t.EndDate,
			Score:     s.Score,
			SignalID:  t.SignalID,
		})
	}

	sort.Slice(windows, func(i, j int) bool {
		if !windows[i].StartDate.Equal(windows[j].StartDate) {
			return windows[i].StartDate.Before(windows[j].StartDate)
		}
		if windows[i].Score != windows[j].Score {
			return windows[i].Score > windows[j].Score
		}
		return windows[i].SignalID < windows[j].SignalID
	})

	return windows
}

// -----------------------------------------------------------------------------

// BuildDashboardState runs the pipeline for one user, recomputing only the
// elements the decision marks as due and carrying the rest over from the
// previous state. A nil previous state forces a full build. The scored set
// is returned alongside so callers can persist it.
func (f *InsightFacade) BuildDashboardState(
	chart *models.MNatalChart,
	prefs models.MUserPreferences,
	signals []models.MTransitSignal,
	currentDate time.Time,
	prev *models.MDashboardState,
	decision models.MUpdateDecision,
) (*models.MDashboardState, []models.MScoredTransit, error) {

	if prev == nil {
		decision = models.MUpdateDecision{
			PrimaryTheme:        true,
			IntensityMeter:      true,
			DailyGuidance:       true,
			SecondaryInfluences: true,
			UpcomingForecast:    true,
		}
	}

	scored, err := f.ScoreTransits(signals, chart, prefs, currentDate)
	if err != nil {
		return nil, nil, err
	}

	state := &models.MDashboardState{
		UserID:   prefs.UserID,
		Elements: make(map[string]models.MElementTimestamps, len(models.DashboardElements)),
	}
	if prev != nil {
		for element, ts := range prev.Elements {
			state.Elements[element] = ts
		}
		state.PrimaryTheme = prev.PrimaryTheme
		state.SecondaryThemes = prev.SecondaryThemes
		state.DailyGuidance = prev.DailyGuidance
		state.UpcomingWindows = prev.UpcomingWindows
	}

	// Synthesis feeds three elements; run it once when any of them is due.
	var primary *models.MSynthesisedTheme
	var secondary []models.MSynthesisedTheme
	if decision.PrimaryTheme || decision.SecondaryInfluences || decision.IntensityMeter {
		primary, secondary = core.SynthesiseThemes(scored, currentDate, prefs)
	}

	if decision.PrimaryTheme {
		state.PrimaryTheme = primary
		f.stamp(state, models.ElementPrimaryTheme, currentDate)
	} else if decision.IntensityMeter && state.PrimaryTheme != nil {
		// The theme itself is not due, but its intensity reading is. Pull
		// today's level from the freshly synthesised matching theme.
		if fresh := findTheme(primary, secondary, state.PrimaryTheme.ThemeType); fresh != nil {
			carried := *state.PrimaryTheme
			carried.IntensityToday = fresh.IntensityToday
			state.PrimaryTheme = &carried
		}
	}
	if decision.IntensityMeter {
		f.stamp(state, models.ElementIntensityMeter, currentDate)
	}

	if decision.SecondaryInfluences {
		state.SecondaryThemes = secondary
		f.stamp(state, models.ElementSecondaryInfluences, currentDate)
	}

	if decision.DailyGuidance {
		guidance := core.GenerateDailyGuidance(state.PrimaryTheme, currentDate)
		state.DailyGuidance = &guidance
		f.stamp(state, models.ElementDailyGuidance, currentDate)
	}

	if decision.UpcomingForecast {
		state.UpcomingWindows = f.UpcomingWindows(scored, currentDate)
		f.stamp(state, models.ElementUpcomingForecast, currentDate)
	}

	return state, scored, nil
}

// -----------------------------------------------------------------------------

// CalculateSynastry compares two charts and logs the outcome shape.
func (f *InsightFacade) CalculateSynastry(chartA, chartB *models.MNatalChart, calculatedAt time.Time) (*models.MSynthesisedSynastry, error) {
	result, err := core.CalculateSynastry(chartA, chartB, calculatedAt)
	if err != nil {
		return nil, err
	}
	f.Logger.Debug("Synastry %s vs %s: %d supportive, %d friction",
		result.ChartAID, result.ChartBID,
		len(result.SupportiveConnections), len(result.FrictionPoints))
	return result, nil
}

// -----------------------------------------------------------------------------

func (f *InsightFacade) stamp(state *models.MDashboardState, element string, at time.Time) {
	state.Elements[element] = models.MElementTimestamps{
		LastFetchedAt: at,
		LastUpdatedAt: at,
	}
}

// -----------------------------------------------------------------------------

func findTheme(primary *models.MSynthesisedTheme, secondary []models.MSynthesisedTheme, themeType string) *models.MSynthesisedTheme {
	if primary != nil && primary.ThemeType == themeType {
		return primary
	}
	for i := range secondary {
		if secondary[i].ThemeType == themeType {
			return &secondary[i]
		}
	}
	return nil
}
