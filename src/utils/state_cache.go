package utils

import (
	"sort"
	"sync"
	"time"

	"astro-insights/src/insight/core"
	"astro-insights/src/logger"
	"astro-insights/src/models"
)

// -----------------------------------------------------------------------------
// StateCache holds the in-memory working set for every observed user: the
// natal chart, the buffered raw signals and the latest dashboard snapshot.
// Dashboard states are copy-on-write; readers always see a complete value.
// -----------------------------------------------------------------------------

type userEntry struct {
	chart   *models.MNatalChart
	prefs   models.MUserPreferences
	signals *SignalBuffer
	state   *models.MDashboardState
}

type StateCache struct {
	users          map[string]*userEntry
	signalCapacity int
	Logger         *logger.Logger
	mu             sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewStateCache(signalCapacity int) *StateCache {
	return &StateCache{
		users:          make(map[string]*userEntry),
		signalCapacity: signalCapacity,
		Logger:         logger.NewLogger(nil, "StateCache"),
	}
}

// -----------------------------------------------------------------------------

func (sc *StateCache) entry(userID string) *userEntry {
	e, ok := sc.users[userID]
	if !ok {
		e = &userEntry{signals: NewSignalBuffer(sc.signalCapacity)}
		sc.users[userID] = e
	}
	return e
}

// -----------------------------------------------------------------------------

func (sc *StateCache) SetChart(userID string, chart *models.MNatalChart) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entry(userID).chart = chart
}

// -----------------------------------------------------------------------------

func (sc *StateCache) Chart(userID string) (*models.MNatalChart, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	e, ok := sc.users[userID]
	if !ok || e.chart == nil {
		return nil, false
	}
	return e.chart, true
}

// -----------------------------------------------------------------------------

func (sc *StateCache) SetPreferences(prefs models.MUserPreferences) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entry(prefs.UserID).prefs = prefs
}

// -----------------------------------------------------------------------------

func (sc *StateCache) Preferences(userID string) models.MUserPreferences {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if e, ok := sc.users[userID]; ok {
		return e.prefs
	}
	return models.MUserPreferences{UserID: userID}
}

// -----------------------------------------------------------------------------

// AddSignals buffers fresh raw signals for a user.
func (sc *StateCache) AddSignals(userID string, signals []models.MTransitSignal) {
	if len(signals) == 0 {
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	e := sc.entry(userID)
	for _, s := range signals {
		e.signals.Append(s)
	}

	if e.signals.IsFull() {
		sc.Logger.Debug("Signal buffer full for %s (%d entries)", userID, e.signals.Capacity())
	}
}

// -----------------------------------------------------------------------------

func (sc *StateCache) Signals(userID string) []models.MTransitSignal {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if e, ok := sc.users[userID]; ok {
		return e.signals.GetAll()
	}
	return []models.MTransitSignal{}
}

// -----------------------------------------------------------------------------

// SetDashboardState swaps in a new snapshot atomically.
func (sc *StateCache) SetDashboardState(state *models.MDashboardState) {
	if state == nil {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.entry(state.UserID).state = state
}

// -----------------------------------------------------------------------------

func (sc *StateCache) DashboardState(userID string) (*models.MDashboardState, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	e, ok := sc.users[userID]
	if !ok || e.state == nil {
		return nil, false
	}
	return e.state, true
}

// -----------------------------------------------------------------------------

// AllDashboardStates returns a snapshot map keyed by user id.
func (sc *StateCache) AllDashboardStates() map[string]models.MDashboardState {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	result := make(map[string]models.MDashboardState, len(sc.users))
	for userID, e := range sc.users {
		if e.state != nil {
			result[userID] = *e.state
		}
	}
	return result
}

// -----------------------------------------------------------------------------

// UserIDs returns every cached user in deterministic order.
func (sc *StateCache) UserIDs() []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	ids := make([]string, 0, len(sc.users))
	for userID := range sc.users {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}

// -----------------------------------------------------------------------------

// PruneEndedSignals drops signals whose window closed before the cutoff
// date across all users.
func (sc *StateCache) PruneEndedSignals(cutoff time.Time) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	day := core.TruncateDay(cutoff)
	total := 0
	for userID, e := range sc.users {
		removed := e.signals.PruneEnded(func(s models.MTransitSignal) bool {
			return core.TruncateDay(s.EndDate).Before(day)
		})
		if removed > 0 {
			sc.Logger.Debug("Pruned %d ended signals for %s", removed, userID)
			total += removed
		}
	}
	return total
}
