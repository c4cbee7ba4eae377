package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Storage   MStorageConfig   `yaml:"storage"`
	Network   MNetworkConfig   `yaml:"network"`
	Ephemeris MEphemerisConfig `yaml:"ephemeris"`
	Pipeline  MPipelineConfig  `yaml:"pipeline"`
	Users     []MUserConfig    `yaml:"users"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
}

type MEphemerisConfig struct {
	SignalRetentionDays   int             `yaml:"signal_retention_days"`
	ForecastHorizonDays   int             `yaml:"forecast_horizon_days"`
	UpdateIntervalSeconds int             `yaml:"update_interval_seconds"`
	Sources               []MSourceConfig `yaml:"sources"`
}

type MSourceConfig struct {
	Name    string   `yaml:"name" json:"name"`
	BaseURL string   `yaml:"base_url" json:"base_url"`
	APIKey  string   `yaml:"api_key" json:"api_key"` // Optional
	UserIDs []string `yaml:"user_ids" json:"user_ids"`
}

type MPipelineConfig struct {
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	StateCacheCapacity   int `yaml:"state_cache_capacity"`
}

// MUserConfig mirrors what the external settings storage would provide.
type MUserConfig struct {
	UserID          string   `yaml:"user_id"`
	FocusAreas      []string `yaml:"focus_areas"`
	CurrentLocation string   `yaml:"current_location"`
}

// -----------------------------------------------------------------------------

// Preferences converts a config user entry into engine preferences.
func (u MUserConfig) Preferences() MUserPreferences {
	return MUserPreferences{
		UserID:          u.UserID,
		FocusAreas:      u.FocusAreas,
		CurrentLocation: u.CurrentLocation,
	}
}
