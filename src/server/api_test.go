package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"astro-insights/src/data_source"
	"astro-insights/src/data_source/astroapi"
	"astro-insights/src/insight"
	"astro-insights/src/interfaces"
	"astro-insights/src/logger"
	"astro-insights/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Stubs
// -----------------------------------------------------------------------------

type stubSource struct {
	name   string
	charts map[string]*models.MNatalChart
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchNatalChart(userID string) (*models.MNatalChart, error) {
	if chart, ok := s.charts[userID]; ok {
		return chart, nil
	}
	return nil, fmt.Errorf("no chart for %s", userID)
}

func (s *stubSource) FetchInitialSignals() (map[string][]models.MTransitSignal, error) {
	return map[string][]models.MTransitSignal{}, nil
}

func (s *stubSource) FetchUpdateSignals() (map[string][]models.MTransitSignal, error) {
	return map[string][]models.MTransitSignal{}, nil
}

func (s *stubSource) UpdateUsers(userIDs []string) error { return nil }

func (s *stubSource) Start(ctx context.Context, outputChan chan<- map[string][]models.MTransitSignal, wg *sync.WaitGroup) error {
	return nil
}

func (s *stubSource) Stop() error { return nil }

// -----------------------------------------------------------------------------

type stubDB struct {
	savedSynastry []*models.MSynthesisedSynastry
}

func (d *stubDB) Initialize() error                                            { return nil }
func (d *stubDB) SaveNatalChart(chart *models.MNatalChart) error               { return nil }
func (d *stubDB) SaveTransitSignalsBulk(signals []models.MTransitSignal) error { return nil }
func (d *stubDB) SaveScoredTransits(u string, s []models.MScoredTransit) error { return nil }
func (d *stubDB) SaveDashboardState(state *models.MDashboardState) error       { return nil }
func (d *stubDB) LoadDashboardStates() (map[string]models.MDashboardState, error) {
	return map[string]models.MDashboardState{}, nil
}
func (d *stubDB) SaveSynastryResult(result *models.MSynthesisedSynastry) error {
	d.savedSynastry = append(d.savedSynastry, result)
	return nil
}
func (d *stubDB) CleanupOldData() error { return nil }
func (d *stubDB) Close() error          { return nil }

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func serverChart(chartID, userID string) *models.MNatalChart {
	placements := make([]models.MPlacement, 0, len(models.KeyPlanets))
	for i, planet := range models.KeyPlanets {
		placements = append(placements, models.MPlacement{
			Planet: planet,
			Sign:   models.ZodiacSigns[i],
			Degree: 0,
			House:  1,
		})
	}
	return &models.MNatalChart{ChartID: chartID, UserID: userID, Placements: placements}
}

func newTestServer(t *testing.T) (*APIServer, *stubDB) {
	t.Helper()

	cfg := &models.MConfig{
		Name:     "astro-insights-test",
		Host:     "127.0.0.1",
		Port:     8200,
		LogLevel: "ERROR",
	}
	cfg.Ephemeris.ForecastHorizonDays = 90
	cfg.Users = []models.MUserConfig{
		{UserID: "user-001"},
		{UserID: "user-002"},
	}

	log := logger.NewLogger("ERROR", "test")
	source := &stubSource{
		name: "stub-primary",
		charts: map[string]*models.MNatalChart{
			"user-001": serverChart("chart-001", "user-001"),
			"user-002": serverChart("chart-002", "user-002"),
		},
	}
	manager := datasource.NewMultiSourceManager([]interfaces.IChartSource{source}, log)
	facade := insight.NewInsightFacade(cfg, log)
	db := &stubDB{}

	return NewAPIServer(cfg, log, facade, manager, nil, db), db
}

func doRequest(s *APIServer, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// -----------------------------------------------------------------------------

func TestGetHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

// -----------------------------------------------------------------------------

func TestGetConfig(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Users               []string `json:"users"`
		ForecastHorizonDays int      `json:"forecast_horizon_days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"user-001", "user-002"}, body.Users)
	assert.Equal(t, 90, body.ForecastHorizonDays)
}

// -----------------------------------------------------------------------------

func TestGetDashboard(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/dashboard/user-001", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.UpdateAllDatas(&models.MLatestData{
		Dashboards: map[string]models.MDashboardState{
			"user-001": {UserID: "user-001"},
		},
		Timestamp: 1749600000,
	})

	w = doRequest(s, http.MethodGet, "/api/dashboard/user-001", "")
	require.Equal(t, http.StatusOK, w.Code)

	var state models.MDashboardState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, "user-001", state.UserID)
}

// -----------------------------------------------------------------------------

func TestGetMetricsAfterUpdate(t *testing.T) {
	s, _ := newTestServer(t)

	s.UpdateAllDatas(&models.MLatestData{
		Dashboards: map[string]models.MDashboardState{},
		Timestamp:  1749600000,
		ProcessingMetrics: models.MProcessingMetrics{
			UsersProcessed: 2,
			TransitsScored: 7,
		},
	})

	w := doRequest(s, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	var metrics models.MProcessingMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	assert.Equal(t, 2, metrics.UsersProcessed)
	assert.Equal(t, 7, metrics.TransitsScored)
}

// -----------------------------------------------------------------------------

func TestGetSynastry(t *testing.T) {
	s, db := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/synastry/user-001/user-002", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result models.MSynthesisedSynastry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "chart-001", result.ChartAID)
	assert.Equal(t, "chart-002", result.ChartBID)
	assert.NotEmpty(t, result.ResultID)

	// The result was persisted
	require.Len(t, db.savedSynastry, 1)
	assert.Equal(t, result.ResultID, db.savedSynastry[0].ResultID)

	// Same pair yields the same result id
	w = doRequest(s, http.MethodGet, "/api/synastry/user-001/user-002", "")
	require.Equal(t, http.StatusOK, w.Code)
	var again models.MSynthesisedSynastry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	assert.Equal(t, result.ResultID, again.ResultID)
}

// -----------------------------------------------------------------------------

func TestGetSynastryUnknownUser(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/synastry/user-001/user-nope", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// -----------------------------------------------------------------------------

func TestGetSynastryIncompleteChart(t *testing.T) {
	s, _ := newTestServer(t)

	// A chart missing key planets is an input-contract violation
	broken := serverChart("chart-003", "user-003")
	broken.Placements = broken.Placements[:2]
	s.Sources.GetAllSources()[0].(*stubSource).charts["user-003"] = broken

	w := doRequest(s, http.MethodGet, "/api/synastry/user-001/user-003", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// -----------------------------------------------------------------------------

func TestAdminListSources(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/admin/sources", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sources []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"stub-primary"}, body.Sources)
}

// -----------------------------------------------------------------------------

func TestAdminAddSourceValidation(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/admin/sources", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s, http.MethodPost, "/api/admin/sources", `{"name": "", "base_url": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// -----------------------------------------------------------------------------

func TestAdminAddAndRemoveSource(t *testing.T) {
	s, _ := newTestServer(t)

	payload := `{"name": "astroapi-extra", "base_url": "https://ephemeris.test", "user_ids": ["user-001"]}`
	w := doRequest(s, http.MethodPost, "/api/admin/sources", payload)
	require.Equal(t, http.StatusOK, w.Code)

	// Snake_case payload keys must land in the source config, not default to zero
	src, err := s.Sources.GetSource("astroapi-extra")
	require.NoError(t, err)
	added := src.(*astroapi.AstroAPISource)
	assert.Equal(t, "https://ephemeris.test", added.SourceConfig.BaseURL)
	assert.Equal(t, []string{"user-001"}, added.SourceConfig.UserIDs)

	// Duplicate names conflict
	w = doRequest(s, http.MethodPost, "/api/admin/sources", payload)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(s, http.MethodDelete, "/api/admin/sources/astroapi-extra", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodDelete, "/api/admin/sources/astroapi-extra", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// -----------------------------------------------------------------------------

func TestUpdateAllDatasMerges(t *testing.T) {
	s, _ := newTestServer(t)

	s.UpdateAllDatas(&models.MLatestData{
		Dashboards: map[string]models.MDashboardState{"user-001": {UserID: "user-001"}},
		Timestamp:  100,
	})
	s.UpdateAllDatas(&models.MLatestData{
		Dashboards: map[string]models.MDashboardState{"user-002": {UserID: "user-002"}},
		Timestamp:  200,
	})
	s.UpdateAllDatas(nil) // ignored

	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	assert.Len(t, s.latestState.Dashboards, 2)
	assert.Equal(t, int64(200), s.latestState.Timestamp)
	assert.Equal(t, "UPDATE", s.latestState.Type)
}

// -----------------------------------------------------------------------------

func TestSubscribeResponseFiltering(t *testing.T) {
	s, _ := newTestServer(t)

	s.UpdateAllDatas(&models.MLatestData{
		Dashboards: map[string]models.MDashboardState{
			"user-001": {UserID: "user-001"},
			"user-002": {UserID: "user-002"},
		},
		Timestamp: 300,
	})

	// An empty list subscribes to everything
	all := s.subscribeResponse(nil)
	assert.Equal(t, "INITIAL", all.Type)
	assert.Len(t, all.Dashboards, 2)

	one := s.subscribeResponse([]string{"user-002", "user-nope"})
	assert.Len(t, one.Dashboards, 1)
	assert.Contains(t, one.Dashboards, "user-002")
	assert.Equal(t, int64(300), one.Timestamp)
}
