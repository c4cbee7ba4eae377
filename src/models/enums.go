package models

// -----------------------------------------------------------------------------
// Planets and chart points
// -----------------------------------------------------------------------------

const (
	PlanetSun     = "sun"
	PlanetMoon    = "moon"
	PlanetMercury = "mercury"
	PlanetVenus   = "venus"
	PlanetMars    = "mars"
	PlanetJupiter = "jupiter"
	PlanetSaturn  = "saturn"
	PlanetUranus  = "uranus"
	PlanetNeptune = "neptune"
	PlanetPluto   = "pluto"

	PointAscendant = "ascendant"
	PointMidheaven = "midheaven"
)

// KeyPlanets is the fixed set used for synastry pairing.
var KeyPlanets = []string{
	PlanetSun, PlanetMoon, PlanetMercury, PlanetVenus,
	PlanetMars, PlanetJupiter, PlanetSaturn,
}

// OuterPlanets carry longer, slower cycles and get a scoring multiplier.
var OuterPlanets = map[string]bool{
	PlanetUranus:  true,
	PlanetNeptune: true,
	PlanetPluto:   true,
}

// -----------------------------------------------------------------------------
// Aspects
// -----------------------------------------------------------------------------

const (
	AspectConjunction = "conjunction"
	AspectOpposition  = "opposition"
	AspectTrine       = "trine"
	AspectSquare      = "square"
	AspectSextile     = "sextile"
	AspectQuincunx    = "quincunx"
)

const (
	NatureHarmonious  = "harmonious"
	NatureChallenging = "challenging"
	NatureNeutral     = "neutral"
)

// -----------------------------------------------------------------------------
// Zodiac signs (order fixed, index*30 gives the sign's start degree)
// -----------------------------------------------------------------------------

var ZodiacSigns = []string{
	"aries", "taurus", "gemini", "cancer", "leo", "virgo",
	"libra", "scorpio", "sagittarius", "capricorn", "aquarius", "pisces",
}

const (
	ElementFire  = "fire"
	ElementEarth = "earth"
	ElementAir   = "air"
	ElementWater = "water"
)

// SignElements maps each sign to its classical element.
var SignElements = map[string]string{
	"aries": ElementFire, "leo": ElementFire, "sagittarius": ElementFire,
	"taurus": ElementEarth, "virgo": ElementEarth, "capricorn": ElementEarth,
	"gemini": ElementAir, "libra": ElementAir, "aquarius": ElementAir,
	"cancer": ElementWater, "scorpio": ElementWater, "pisces": ElementWater,
}

// -----------------------------------------------------------------------------
// Life themes (fixed vocabulary; slice order is the deterministic tiebreak order)
// -----------------------------------------------------------------------------

const (
	ThemeCareerTransformation = "career_transformation"
	ThemeEmotionalProcessing  = "emotional_processing"
	ThemeRelationshipGrowth   = "relationship_growth"
	ThemeCommunicationShift   = "communication_shift"
	ThemePersonalPower        = "personal_power"
	ThemeCreativeExpression   = "creative_expression"
	ThemeSpiritualAwakening   = "spiritual_awakening"
	ThemeMaterialFoundation   = "material_foundation"
)

var ThemeOrder = []string{
	ThemeCareerTransformation,
	ThemeEmotionalProcessing,
	ThemeRelationshipGrowth,
	ThemeCommunicationShift,
	ThemePersonalPower,
	ThemeCreativeExpression,
	ThemeSpiritualAwakening,
	ThemeMaterialFoundation,
}

// ThemeOrderIndex returns the position of a theme in the fixed vocabulary,
// or len(ThemeOrder) for unknown values so they always sort last.
func ThemeOrderIndex(theme string) int {
	for i, t := range ThemeOrder {
		if t == theme {
			return i
		}
	}
	return len(ThemeOrder)
}

// -----------------------------------------------------------------------------
// Guidance tones
// -----------------------------------------------------------------------------

const (
	ToneEncouraging    = "encouraging"
	ToneCautious       = "cautious"
	ToneReflective     = "reflective"
	ToneActionOriented = "action_oriented"
	ToneRestorative    = "restorative"
)

const (
	PhaseRising  = "rising"
	PhasePeaking = "peaking"
	PhaseEasing  = "easing"
)

// -----------------------------------------------------------------------------
// Synastry categories
// -----------------------------------------------------------------------------

const (
	CategorySupportive   = "supportive"
	CategoryFriction     = "friction"
	CategoryGrowthLesson = "growth_lesson"
)

// -----------------------------------------------------------------------------
// Dashboard elements
// -----------------------------------------------------------------------------

const (
	ElementPrimaryTheme        = "primary_theme"
	ElementIntensityMeter      = "intensity_meter"
	ElementDailyGuidance       = "daily_guidance"
	ElementSecondaryInfluences = "secondary_influences"
	ElementUpcomingForecast    = "upcoming_forecast"
)

var DashboardElements = []string{
	ElementPrimaryTheme,
	ElementIntensityMeter,
	ElementDailyGuidance,
	ElementSecondaryInfluences,
	ElementUpcomingForecast,
}
