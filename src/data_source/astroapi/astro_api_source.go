package astroapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"astro-insights/src/interfaces"
	"astro-insights/src/logger"
	"astro-insights/src/models"
)

// AstroAPISource pulls natal charts and transit signals from an HTTP
// ephemeris provider. The engine never computes astronomy itself; this is
// its only window onto the sky.
type AstroAPISource struct {
	Config        *models.MConfig
	SourceConfig  models.MSourceConfig // Store specific source config (Generic settings)
	users         atomic.Value         // Stores []string safely
	Network       interfaces.INetworkManager
	Logger        *logger.Logger
	HttpClient    *http.Client
	SeenSignals   map[string]map[string]bool // userID -> signalID
	seenSignalsMu sync.RWMutex
	cancelFunc    context.CancelFunc // To support Stop()
	ctx           context.Context    // Lifecycle context for Push safety
	outputChan    chan<- map[string][]models.MTransitSignal
	isRunning     atomic.Bool
	mu            sync.Mutex
}

// -----------------------------------------------------------------------------

func (s *AstroAPISource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

func NewAstroAPISource(cfg *models.MConfig, sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager) *AstroAPISource {
	s := &AstroAPISource{
		Config:       cfg,
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger(nil, "AstroAPISource-"+sourceCfg.Name), // Unique Logger Name
		SeenSignals:  make(map[string]map[string]bool),
		HttpClient: &http.Client{
			Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second,
		},
	}
	s.users.Store(sourceCfg.UserIDs)
	return s
}

// -----------------------------------------------------------------------------

// FetchNatalChart retrieves and validates one user's natal chart.
func (s *AstroAPISource) FetchNatalChart(userID string) (*models.MNatalChart, error) {
	url := fmt.Sprintf("%s/v1/charts/%s", s.SourceConfig.BaseURL, userID)

	respBytes, err := s.Network.Get(url, s.baseParams())
	if err != nil {
		return nil, fmt.Errorf("network error for chart %s: %w", userID, err)
	}

	return s.parseChartResponse(userID, respBytes)
}

// -----------------------------------------------------------------------------

// FetchInitialSignals fetches the full forecast horizon for every user.
func (s *AstroAPISource) FetchInitialSignals() (map[string][]models.MTransitSignal, error) {
	horizon := s.Config.Ephemeris.ForecastHorizonDays

	data, err := s.fetchBatch(s.getUsers(), func(userID string) ([]models.MTransitSignal, error) {
		return s.fetchUserSignals(userID, horizon)
	})
	if err != nil {
		return nil, err
	}

	// Remember every delivered signal so update fetches only push fresh ones
	s.seenSignalsMu.Lock()
	for userID, signals := range data {
		seen := s.SeenSignals[userID]
		if seen == nil {
			seen = make(map[string]bool)
			s.SeenSignals[userID] = seen
		}
		for _, sig := range signals {
			seen[sig.SignalID] = true
		}
	}
	s.seenSignalsMu.Unlock()

	return data, nil
}

// -----------------------------------------------------------------------------

// FetchUpdateSignals fetches the current horizon again; dedup against seen
// signal ids happens in the run loop.
func (s *AstroAPISource) FetchUpdateSignals() (map[string][]models.MTransitSignal, error) {
	return s.fetchBatch(s.getUsers(), func(userID string) ([]models.MTransitSignal, error) {
		return s.fetchUserSignals(userID, s.Config.Ephemeris.ForecastHorizonDays)
	})
}

// -----------------------------------------------------------------------------

// fetchBatch processes users concurrently
func (s *AstroAPISource) fetchBatch(
	userIDs []string,
	fetchFunc func(string) ([]models.MTransitSignal, error),
) (map[string][]models.MTransitSignal, error) {
	if len(userIDs) == 0 {
		return make(map[string][]models.MTransitSignal), nil
	}

	results := make(map[string][]models.MTransitSignal)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errors := make([]error, 0, len(userIDs))
	var errorsMu sync.Mutex

	// Semaphore for concurrency limit
	sem := make(chan struct{}, s.Config.Network.ConcurrentRequests)

	for _, userID := range userIDs {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// Small delay to avoid rate limiting
			time.Sleep(10 * time.Millisecond)

			data, err := fetchFunc(uid)
			if err != nil {
				s.Logger.Info("Error fetching user %s: %v", uid, err)
				errorsMu.Lock()
				errors = append(errors, err)
				errorsMu.Unlock()
				return
			}

			if data != nil {
				mu.Lock()
				results[uid] = data
				mu.Unlock()
			}
		}(userID)
	}

	wg.Wait()

	s.Logger.Info("AstroAPI: Fetched %d/%d users successfully", len(results), len(userIDs))

	// Return errors if all failed, otherwise return results
	if len(results) == 0 && len(errors) > 0 {
		return nil, fmt.Errorf("all fetches failed: %v", errors[0])
	}

	return results, nil
}

// -----------------------------------------------------------------------------

func (s *AstroAPISource) fetchUserSignals(userID string, horizonDays int) ([]models.MTransitSignal, error) {
	params := s.baseParams()
	params["horizon_days"] = fmt.Sprintf("%d", horizonDays)

	url := fmt.Sprintf("%s/v1/transits/%s", s.SourceConfig.BaseURL, userID)

	respBytes, err := s.Network.Get(url, params)
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", userID, err)
	}

	return s.parseTransitResponse(userID, respBytes)
}

// -----------------------------------------------------------------------------

func (s *AstroAPISource) baseParams() map[string]string {
	params := map[string]string{}
	if s.SourceConfig.APIKey != "" {
		params["api_key"] = s.SourceConfig.APIKey
	}
	return params
}

// -----------------------------------------------------------------------------

type astroChartResponse struct {
	Chart struct {
		ChartID    string    `json:"chart_id"`
		UserID     string    `json:"user_id"`
		CreatedAt  time.Time `json:"created_at"`
		HouseCusps []float64 `json:"house_cusps"`
		Placements []struct {
			Planet     string  `json:"planet"`
			Sign       string  `json:"sign"`
			Degree     float64 `json:"degree"`
			House      int     `json:"house"`
			Retrograde bool    `json:"retrograde"`
		} `json:"placements"`
		Ascendant struct {
			Sign   string  `json:"sign"`
			Degree float64 `json:"degree"`
		} `json:"ascendant"`
		Midheaven struct {
			Sign   string  `json:"sign"`
			Degree float64 `json:"degree"`
		} `json:"midheaven"`
	} `json:"chart"`
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// -----------------------------------------------------------------------------

func (s *AstroAPISource) parseChartResponse(userID string, data []byte) (*models.MNatalChart, error) {
	var resp astroChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("astro api error: %s - %s", resp.Error.Code, resp.Error.Description)
	}

	c := resp.Chart
	if c.ChartID == "" || len(c.Placements) == 0 {
		return nil, fmt.Errorf("empty chart in response for %s", userID)
	}

	chart := &models.MNatalChart{
		ChartID:    c.ChartID,
		UserID:     userID,
		HouseCusps: c.HouseCusps,
		CreatedAt:  c.CreatedAt,
		Ascendant: models.MPlacement{
			Planet: models.PointAscendant,
			Sign:   c.Ascendant.Sign,
			Degree: c.Ascendant.Degree,
			House:  1,
		},
		Midheaven: models.MPlacement{
			Planet: models.PointMidheaven,
			Sign:   c.Midheaven.Sign,
			Degree: c.Midheaven.Degree,
			House:  10,
		},
	}

	for _, p := range c.Placements {
		if p.Sign == "" {
			s.Logger.Info("Skipping placement without sign for %s (%s)", userID, p.Planet)
			continue
		}
		chart.Placements = append(chart.Placements, models.MPlacement{
			Planet:     p.Planet,
			Sign:       p.Sign,
			Degree:     p.Degree,
			House:      p.House,
			Retrograde: p.Retrograde,
		})
	}

	return chart, nil
}

// -----------------------------------------------------------------------------

type astroTransitResponse struct {
	UserID  string `json:"user_id"`
	Signals []struct {
		SignalID         string    `json:"signal_id"`
		TransitingPlanet string    `json:"transiting_planet"`
		NatalTarget      string    `json:"natal_target"`
		TargetHouse      int       `json:"target_house"`
		Aspect           string    `json:"aspect"`
		OrbDegrees       *float64  `json:"orb_degrees"` // Use pointer to handle null
		StartDate        time.Time `json:"start_date"`
		PeakStart        time.Time `json:"peak_start"`
		PeakEnd          time.Time `json:"peak_end"`
		EndDate          time.Time `json:"end_date"`
	} `json:"signals"`
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// -----------------------------------------------------------------------------

func (s *AstroAPISource) parseTransitResponse(userID string, data []byte) ([]models.MTransitSignal, error) {
	var resp astroTransitResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("astro api error: %s - %s", resp.Error.Code, resp.Error.Description)
	}

	var signals []models.MTransitSignal
	validCount := 0

	for i, raw := range resp.Signals {
		// Data cleaning: drop malformed entries instead of poisoning the batch
		if raw.SignalID == "" || raw.TransitingPlanet == "" || raw.NatalTarget == "" || raw.Aspect == "" {
			s.Logger.Info("Invalid signal received for %s at index %d", userID, i)
			continue
		}
		if raw.OrbDegrees == nil || *raw.OrbDegrees < 0 {
			s.Logger.Info("Skipping signal %s: missing or negative orb", raw.SignalID)
			continue
		}
		if raw.EndDate.Before(raw.StartDate) {
			s.Logger.Info("Skipping signal %s: end before start", raw.SignalID)
			continue
		}

		signals = append(signals, models.MTransitSignal{
			SignalID:         raw.SignalID,
			UserID:           userID,
			TransitingPlanet: raw.TransitingPlanet,
			NatalTarget:      raw.NatalTarget,
			TargetHouse:      raw.TargetHouse,
			Aspect:           raw.Aspect,
			OrbDegrees:       *raw.OrbDegrees,
			StartDate:        raw.StartDate,
			PeakStart:        raw.PeakStart,
			PeakEnd:          raw.PeakEnd,
			EndDate:          raw.EndDate,
		})
		validCount++
	}

	// Sort by start date for stable downstream processing
	sort.Slice(signals, func(i, j int) bool {
		if !signals[i].StartDate.Equal(signals[j].StartDate) {
			return signals[i].StartDate.Before(signals[j].StartDate)
		}
		return signals[i].SignalID < signals[j].SignalID
	})

	if len(signals) == 0 {
		// A quiet sky is a valid result, not an error
		s.Logger.Debug("No active transits for %s", userID)
		return signals, nil
	}

	s.Logger.Info("Fetched %s: %d valid signals [%s -> %s]",
		userID, validCount,
		signals[0].StartDate.Format("2006-01-02"),
		signals[len(signals)-1].EndDate.Format("2006-01-02"))

	return signals, nil
}

// -----------------------------------------------------------------------------

// Start begins the polling loop
func (s *AstroAPISource) Start(parentCtx context.Context, outputChan chan<- map[string][]models.MTransitSignal, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	// Derive a context so we can stop just this source via Stop()
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel
	s.ctx = ctx
	s.outputChan = outputChan
	s.isRunning.Store(true)

	wg.Add(1)
	go s.runLoop(ctx, outputChan, wg)
	s.Logger.Info("Started AstroAPISource: %s", s.Name())
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the run loop to exit
func (s *AstroAPISource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped AstroAPISource: %s", s.Name())
	return nil
}

// -----------------------------------------------------------------------------

// pushToManager sends data to the manager's channel safely
func (s *AstroAPISource) pushToManager(data map[string][]models.MTransitSignal) error {
	if s.outputChan == nil {
		return fmt.Errorf("output channel is nil")
	}

	select {
	case s.outputChan <- data:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// runLoop polls the provider and pushes only signals not seen before.
func (s *AstroAPISource) runLoop(ctx context.Context, outputChan chan<- map[string][]models.MTransitSignal, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Duration(s.Config.Ephemeris.UpdateIntervalSeconds) * time.Second)
	defer ticker.Stop()

	// This goroutine is the only writer to SeenSignals while running, so we
	// work on a local copy and sync back on exit.
	localSeen := make(map[string]map[string]bool)

	s.seenSignalsMu.RLock()
	for userID, seen := range s.SeenSignals {
		cp := make(map[string]bool, len(seen))
		for id := range seen {
			cp[id] = true
		}
		localSeen[userID] = cp
	}
	s.seenSignalsMu.RUnlock()

	defer func() {
		s.seenSignalsMu.Lock()
		for userID, seen := range localSeen {
			if s.SeenSignals[userID] == nil {
				s.SeenSignals[userID] = make(map[string]bool, len(seen))
			}
			for id := range seen {
				s.SeenSignals[userID][id] = true
			}
		}
		s.seenSignalsMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := s.FetchUpdateSignals()
			if err != nil {
				s.Logger.Info("Error fetching updates: %v", err)
				continue
			}

			// Dedup against already delivered signals
			freshData := make(map[string][]models.MTransitSignal)
			for userID, signals := range data {
				seen := localSeen[userID]
				if seen == nil {
					seen = make(map[string]bool)
					localSeen[userID] = seen
				}

				var fresh []models.MTransitSignal
				for _, sig := range signals {
					if !seen[sig.SignalID] {
						fresh = append(fresh, sig)
						seen[sig.SignalID] = true
					}
				}

				if len(fresh) > 0 {
					freshData[userID] = fresh
				}
			}

			// Push to channel if we have new signals
			if len(freshData) > 0 {
				if err := s.pushToManager(freshData); err != nil {
					return // Stop if push failed (e.g. context cancelled)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (s *AstroAPISource) UpdateUsers(userIDs []string) error {
	// Atomic swap
	s.users.Store(userIDs)
	s.Logger.Info("Updated user list. New count: %d", len(userIDs))
	return nil
}

// -----------------------------------------------------------------------------

func (s *AstroAPISource) getUsers() []string {
	return s.users.Load().([]string)
}
