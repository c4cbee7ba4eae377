package core

import (
	"astro-insights/src/models"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Daily Guidance Generator
//
// Entirely deterministic: same primary theme and date always produce the
// same guidance. Required for the cadence resolver's skip-recompute
// guarantee to be sound.
// -----------------------------------------------------------------------------

// Intensity buckets for the fixed lookup tables
const (
	bucketLow  = 0 // intensity 1-2
	bucketMid  = 1 // intensity 3
	bucketHigh = 2 // intensity 4-5
)

func intensityBucket(level int) int {
	switch {
	case level <= 2:
		return bucketLow
	case level == 3:
		return bucketMid
	default:
		return bucketHigh
	}
}

// -----------------------------------------------------------------------------

// toneTable maps (theme, intensity bucket) to one of the closed tone set.
var toneTable = map[string][3]string{
	models.ThemeCareerTransformation: {models.ToneEncouraging, models.ToneActionOriented, models.ToneCautious},
	models.ThemeEmotionalProcessing:  {models.ToneReflective, models.ToneReflective, models.ToneRestorative},
	models.ThemeRelationshipGrowth:   {models.ToneEncouraging, models.ToneEncouraging, models.ToneCautious},
	models.ThemeCommunicationShift:   {models.ToneReflective, models.ToneActionOriented, models.ToneCautious},
	models.ThemePersonalPower:        {models.ToneEncouraging, models.ToneActionOriented, models.ToneActionOriented},
	models.ThemeCreativeExpression:   {models.ToneEncouraging, models.ToneEncouraging, models.ToneActionOriented},
	models.ThemeSpiritualAwakening:   {models.ToneReflective, models.ToneReflective, models.ToneRestorative},
	models.ThemeMaterialFoundation:   {models.ToneReflective, models.ToneActionOriented, models.ToneCautious},
}

// -----------------------------------------------------------------------------

// doLists holds fixed per-theme, per-intensity do-list templates.
var doLists = map[string][3][]string{
	models.ThemeCareerTransformation: {
		{"Sketch where you want to be in a year", "Update one piece of your professional presence"},
		{"Say yes to the stretch assignment", "Name your ambition out loud to someone you trust"},
		{"Prioritize ruthlessly", "Document decisions before acting on them"},
	},
	models.ThemeEmotionalProcessing: {
		{"Journal for ten minutes", "Check in with an old friend"},
		{"Let a feeling finish before you label it", "Take a long walk without your phone"},
		{"Protect time alone", "Say no to one obligation"},
	},
	models.ThemeRelationshipGrowth: {
		{"Ask one genuine question and listen", "Plan something small and shared"},
		{"Voice an appreciation you usually keep quiet", "Revisit an agreement that feels dated"},
		{"Address the imbalance directly", "Schedule the hard conversation for daylight hours"},
	},
	models.ThemeCommunicationShift: {
		{"Re-read before you send", "Capture stray ideas in one place"},
		{"Pitch the idea you have been sitting on", "Ask for clarification instead of assuming"},
		{"Confirm plans in writing", "Pause before replying to anything charged"},
	},
	models.ThemePersonalPower: {
		{"Do the small brave thing first", "Declare one boundary"},
		{"Take direct action on a stalled goal", "Claim credit where it is due"},
		{"Channel the surplus energy into movement", "Lead where others hesitate"},
	},
	models.ThemeCreativeExpression: {
		{"Make something useless and enjoy it", "Collect inspiration without judging it"},
		{"Share a work in progress", "Block an hour for unstructured play"},
		{"Finish the piece", "Perform, publish or post it"},
	},
	models.ThemeSpiritualAwakening: {
		{"Sit quietly for five minutes", "Read something outside your usual lane"},
		{"Question one inherited belief", "Spend time somewhere that feels larger than you"},
		{"Keep a dream log", "Let the big question stay open"},
	},
	models.ThemeMaterialFoundation: {
		{"Review one recurring expense", "Tidy a single drawer or folder"},
		{"Consolidate accounts or commitments", "Price out the thing you keep postponing"},
		{"Stress-test the budget", "Renegotiate a term that no longer serves"},
	},
}

// avoidLists holds fixed per-theme, per-intensity avoid-list templates.
var avoidLists = map[string][3][]string{
	models.ThemeCareerTransformation: {
		{"Dismissing small signals of restlessness"},
		{"Burning bridges on impulse", "Announcing plans before they are ready"},
		{"Quitting dramatically", "Making irreversible moves while agitated"},
	},
	models.ThemeEmotionalProcessing: {
		{"Filling every quiet moment"},
		{"Rehearsing old arguments", "Numbing with scrolling"},
		{"Major decisions while flooded", "Mistaking a mood for a fact"},
	},
	models.ThemeRelationshipGrowth: {
		{"Keeping score"},
		{"Assuming they already know", "Outsourcing the first move"},
		{"Ultimatums", "Litigating history in the middle of a conflict"},
	},
	models.ThemeCommunicationShift: {
		{"Half-listening"},
		{"Overcommitting in writing", "Sarcasm in ambiguous channels"},
		{"Signing without reading", "Arguing in comment threads"},
	},
	models.ThemePersonalPower: {
		{"Waiting for permission"},
		{"Confusing volume with strength", "Picking fights to feel momentum"},
		{"Steamrolling quieter voices", "Betting everything on one gesture"},
	},
	models.ThemeCreativeExpression: {
		{"Calling rest a waste"},
		{"Comparing drafts to masterpieces", "Editing while generating"},
		{"Perfectionism at the deadline", "Hoarding finished work"},
	},
	models.ThemeSpiritualAwakening: {
		{"Crowding out silence"},
		{"Forcing certainty", "Adopting answers wholesale"},
		{"Spiritual bypassing of practical duties", "Grand renunciations"},
	},
	models.ThemeMaterialFoundation: {
		{"Ignoring the statements"},
		{"Impulse purchases for comfort", "Vague verbal agreements"},
		{"New debt for old problems", "Gambling the reserve"},
	},
}

// -----------------------------------------------------------------------------

// adviceTemplates fills a per-(theme, phase) template; %s is the theme's
// display name.
var adviceTemplates = map[string]map[string]string{
	models.ThemeCareerTransformation: {
		models.PhaseRising:  "%s is building. Lay groundwork now so the shift meets you prepared.",
		models.PhasePeaking: "%s is at full strength. Act on the direction you have been circling.",
		models.PhaseEasing:  "%s is settling. Consolidate what changed before chasing the next move.",
	},
	models.ThemeEmotionalProcessing: {
		models.PhaseRising:  "%s is stirring. Make room for what wants to surface.",
		models.PhasePeaking: "%s is at its deepest. Feel it through rather than around.",
		models.PhaseEasing:  "%s is releasing. Be gentle with yourself as the water recedes.",
	},
	models.ThemeRelationshipGrowth: {
		models.PhaseRising:  "%s is warming up. Small gestures now compound later.",
		models.PhasePeaking: "%s is fully lit. Say the true thing while the channel is open.",
		models.PhaseEasing:  "%s is integrating. Let the new understanding become routine.",
	},
	models.ThemeCommunicationShift: {
		models.PhaseRising:  "%s approaches. Gather your thoughts before the conversations arrive.",
		models.PhasePeaking: "%s is live. Speak plainly and listen twice.",
		models.PhaseEasing:  "%s is winding down. Follow up on what was agreed.",
	},
	models.ThemePersonalPower: {
		models.PhaseRising:  "%s is gathering. Decide what you will do with it.",
		models.PhasePeaking: "%s is at its height. Move decisively on what matters most.",
		models.PhaseEasing:  "%s is steadying. Keep the gains without forcing new ones.",
	},
	models.ThemeCreativeExpression: {
		models.PhaseRising:  "%s is sparking. Collect the ideas arriving ahead of the wave.",
		models.PhasePeaking: "%s is in full flow. Make the thing now.",
		models.PhaseEasing:  "%s is cooling. Finish and sign what the surge produced.",
	},
	models.ThemeSpiritualAwakening: {
		models.PhaseRising:  "%s is dawning. Notice what keeps catching your attention.",
		models.PhasePeaking: "%s is wide open. Sit with the big questions without rushing answers.",
		models.PhaseEasing:  "%s is grounding. Translate insight into one daily practice.",
	},
	models.ThemeMaterialFoundation: {
		models.PhaseRising:  "%s is forming. Audit before you build.",
		models.PhasePeaking: "%s is under load. Reinforce what holds and release what does not.",
		models.PhaseEasing:  "%s is firming up. Lock in the structures that proved themselves.",
	},
}

// -----------------------------------------------------------------------------

// DeterminePhase classifies a date against the theme's window by pure
// interval comparison: rising before the peak window, peaking inside it,
// easing after.
func DeterminePhase(theme *models.MSynthesisedTheme, currentDate time.Time) string {
	day := TruncateDay(currentDate)
	if day.Before(TruncateDay(theme.PeakStart)) {
		return models.PhaseRising
	}
	if !day.After(TruncateDay(theme.PeakEnd)) {
		return models.PhasePeaking
	}
	return models.PhaseEasing
}

// -----------------------------------------------------------------------------

// DeriveTone maps (theme type, intensity level) through the fixed tone
// table.
func DeriveTone(themeType string, intensityLevel int) string {
	tones, ok := toneTable[themeType]
	if !ok {
		return models.ToneReflective
	}
	return tones[intensityBucket(intensityLevel)]
}

// -----------------------------------------------------------------------------

// GenerateDailyGuidance derives one day's guidance from the current
// primary theme. A nil theme is the valid no-data case and yields a quiet
// restorative default, not an error.
func GenerateDailyGuidance(primaryTheme *models.MSynthesisedTheme, currentDate time.Time) models.MDailyGuidance {
	day := TruncateDay(currentDate)

	if primaryTheme == nil {
		return models.MDailyGuidance{
			Date:           day,
			Tone:           models.ToneRestorative,
			Advice:         "No major transit is active. Rest, tend to routines and enjoy the quiet sky.",
			DoList:         []string{"Catch up on sleep", "Handle small postponed tasks"},
			AvoidList:      []string{"Manufacturing drama to fill the calm"},
			IntensityLevel: 1,
		}
	}

	level := ClampInt(primaryTheme.IntensityToday, 1, 5)
	bucket := intensityBucket(level)
	phase := DeterminePhase(primaryTheme, currentDate)

	return models.MDailyGuidance{
		Date:           day,
		ThemeType:      primaryTheme.ThemeType,
		Phase:          phase,
		Tone:           DeriveTone(primaryTheme.ThemeType, level),
		Advice:         fmt.Sprintf(adviceTemplates[primaryTheme.ThemeType][phase], primaryTheme.Name),
		DoList:         doLists[primaryTheme.ThemeType][bucket],
		AvoidList:      avoidLists[primaryTheme.ThemeType][bucket],
		IntensityLevel: level,
	}
}
