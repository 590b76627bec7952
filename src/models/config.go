package models

// MConfig Structure
type MConfig struct {
	Name      string          `yaml:"name"`
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	LogLevel  string          `yaml:"log_level"`
	Calendar  MCalendarConfig `yaml:"calendar"`
	Network   MNetworkConfig  `yaml:"network"`
	Providers MProviderConfig `yaml:"providers"`
	Screener  MScreenerConfig `yaml:"screener"`
	Storage   MStorageConfig  `yaml:"storage"`
	Report    MReportConfig   `yaml:"report"`
}

type MCalendarConfig struct {
	HolidaysPath string `yaml:"holidays_path"`
	Market       string `yaml:"market"`   // MIC used when no CSV is configured, e.g. "xnys"
	Timezone     string `yaml:"timezone"` // exchange local time, e.g. "America/New_York"
}

type MNetworkConfig struct {
	RequestTimeout     int    `yaml:"timeout"`
	MaxRetries         int    `yaml:"retries"`
	ConcurrentRequests int    `yaml:"concurrent_requests"`
	UserAgent          string `yaml:"user_agent"`
}

type MProviderConfig struct {
	Market MSourceConfig `yaml:"market"`
	Trends MTrendsConfig `yaml:"trends"`
}

type MSourceConfig struct {
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the key, never the key itself
}

type MTrendsConfig struct {
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	BatchSize  int    `yaml:"batch_size"`
	TzOffset   int    `yaml:"tz_offset_minutes"` // provider analysis timezone, minutes west of UTC
	WindowDays int    `yaml:"window_days"`       // rolling fetch window length
	HourBucket []int  `yaml:"hour_buckets"`      // local hours compared day over day
}

type MScreenerConfig struct {
	MinPremarketVolume float64 `yaml:"min_premarket_volume"`
	MinPrice           float64 `yaml:"min_price"`
	MinGapUp           float64 `yaml:"min_gap_up"`
	MinMarketCap       float64 `yaml:"min_market_cap"`
	MinTrendsChange    float64 `yaml:"min_trends_change"`
	MaxParallelDates   int     `yaml:"max_parallel_dates"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}
