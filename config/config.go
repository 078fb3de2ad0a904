package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rent591/extract"
	"rent591/models"
	"rent591/scoring"
	"rent591/transit"
)

type Config struct {
	Scheduler SchedulerConfig
	Refresh   RefreshConfig
	Fetch     FetchConfig
	Storage   StorageConfig
	RedisURL  string
	HTTPAddr  string
	BaseURL   string
	LogLevel  string
	LogFile   string
	Workers   int
	Search    *SearchConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// RefreshConfig drives the background re-fetch of stale listings. A zero
// Interval disables it.
type RefreshConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
	Batch    int
}

type FetchConfig struct {
	DelayMS int
	Retries int
	Timeout time.Duration
}

type StorageConfig struct {
	DBPath      string
	DatabaseURL string
}

// SearchConfig is the user's search profile, read from SEARCH_CONFIG.
type SearchConfig struct {
	Reference transit.Reference `yaml:"reference_location"`
	Weights   scoring.Weights   `yaml:"scoring_weights"`
	Filters   SearchFilters     `yaml:"search_filters"`
	Rates     extract.Rates     `yaml:"rates"`
}

// SearchFilters narrow which listings are shown. Zero bounds are ignored.
type SearchFilters struct {
	Region    int      `yaml:"region"`
	Districts []string `yaml:"districts"`
	PriceMin  int      `yaml:"price_min"`
	PriceMax  int      `yaml:"price_max"`
	AreaMin   float64  `yaml:"area_min"`
}

// DefaultSearch is used when no search file exists. Fields missing from a
// search file keep these values.
func DefaultSearch() *SearchConfig {
	return &SearchConfig{
		Reference: transit.Reference{
			Name:               "Taipei Main Station",
			Coord:              transit.Coord{Lat: 25.0478, Lon: 121.5170},
			Station:            "台北車站",
			WalkFromStationMin: transit.DefaultWalkFromStationMin,
		},
		Weights: scoring.DefaultWeights(),
		Filters: SearchFilters{
			Region:    1,
			Districts: []string{"Da'an"},
			PriceMin:  15000,
			PriceMax:  50000,
			AreaMin:   10,
		},
		Rates: extract.DefaultRates(),
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scheduler: SchedulerConfig{
			Cron:     os.Getenv("SCORE_CRON"),
			Interval: getEnvDuration("SCORE_INTERVAL", 0),
		},
		Refresh: RefreshConfig{
			Interval: getEnvDuration("REFRESH_INTERVAL", 30*time.Minute),
			MaxAge:   getEnvDuration("REFRESH_MAX_AGE", 48*time.Hour),
			Batch:    getEnvInt("REFRESH_BATCH", 20),
		},
		Fetch: FetchConfig{
			DelayMS: getEnvInt("FETCH_DELAY_MS", 2000),
			Retries: getEnvInt("FETCH_RETRIES", 3),
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			DBPath:      getEnv("DB_PATH", "rent591.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		RedisURL: os.Getenv("REDIS_URL"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		BaseURL:  getEnv("BASE_URL", extract.DefaultBaseURL),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", "rent591.log"),
		Workers:  getEnvInt("WORKERS", 4),
	}

	search, err := LoadSearch(getEnv("SEARCH_CONFIG", "config/search.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.Search = search

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg, nil
}

// LoadSearch reads a search profile over the defaults. A missing file is not
// an error.
func LoadSearch(path string) (*SearchConfig, error) {
	search := DefaultSearch()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return search, nil
		}
		return nil, fmt.Errorf("read search config: %w", err)
	}

	if err := yaml.Unmarshal(data, search); err != nil {
		return nil, fmt.Errorf("parse search config %s: %w", path, err)
	}
	if err := search.Validate(); err != nil {
		return nil, fmt.Errorf("search config %s: %w", path, err)
	}

	return search, nil
}

func (s *SearchConfig) Validate() error {
	if err := s.Weights.Validate(); err != nil {
		return err
	}
	if s.Filters.PriceMin > 0 && s.Filters.PriceMax > 0 && s.Filters.PriceMin > s.Filters.PriceMax {
		return fmt.Errorf("price_min %d is above price_max %d", s.Filters.PriceMin, s.Filters.PriceMax)
	}
	for _, d := range s.Filters.Districts {
		if !knownDistrict(d) {
			return fmt.Errorf("unknown district %q", d)
		}
	}
	if s.Rates.NTToEUR <= 0 {
		return fmt.Errorf("rates.nt_to_eur must be positive")
	}
	return nil
}

// Match reports whether a listing passes the filters. A listing missing the
// filtered field passes, since the field may simply not have been extracted.
func (f SearchFilters) Match(l *models.Listing) bool {
	if len(f.Districts) > 0 && l.District != nil && !containsFold(f.Districts, *l.District) {
		return false
	}
	if l.BaseRentNT != nil {
		if f.PriceMin > 0 && *l.BaseRentNT < f.PriceMin {
			return false
		}
		if f.PriceMax > 0 && *l.BaseRentNT > f.PriceMax {
			return false
		}
	}
	if f.AreaMin > 0 && l.SizePing != nil && *l.SizePing < f.AreaMin {
		return false
	}
	return true
}

func knownDistrict(name string) bool {
	return containsFold(extract.DistrictNames(), name)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
