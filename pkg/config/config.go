package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

const envPrefix = "NAVIGATORX_"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Routing RoutingConfig `yaml:"routing"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr     string   `yaml:"listen-addr"`
	AllowedOrigins []string `yaml:"allowed-origins"`
}

type StorageConfig struct {
	// Dir of the badger tile store.
	Dir string `yaml:"dir"`
	// Snapshot file served instead of the badger store when set.
	Snapshot   string `yaml:"snapshot"`
	Resolution int    `yaml:"resolution"`
	// SearchRadiusKm around each checkpoint for the tiles of a route.
	SearchRadiusKm float64 `yaml:"search-radius-km"`
}

type CacheConfig struct {
	MaxCost     int64 `yaml:"max-cost"`
	NumCounters int64 `yaml:"num-counters"`
}

type RoutingConfig struct {
	UTurnPenalty       float64       `yaml:"u-turn-penalty"`
	OffroadSpeedKMH    float64       `yaml:"offroad-speed-kmh"`
	PedestrianSpeedKMH float64       `yaml:"pedestrian-speed-kmh"`
	TransitMaxSpeedKMH float64       `yaml:"transit-max-speed-kmh"`
	SnapRadius         float64       `yaml:"snap-radius"`
	GuidesRadius       float64       `yaml:"guides-radius"`
	Timeout            time.Duration `yaml:"timeout"`
	CheckInterval      int           `yaml:"check-interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:     ":5000",
			AllowedOrigins: []string{"https://*", "http://*"},
		},
		Storage: StorageConfig{
			Dir:            "./navigatorx_tiles",
			Resolution:     7,
			SearchRadiusKm: 1,
		},
		Cache: CacheConfig{
			MaxCost:     50_000_000,
			NumCounters: 10_000,
		},
		Routing: RoutingConfig{
			UTurnPenalty:       30,
			OffroadSpeedKMH:    10,
			PedestrianSpeedKMH: 5,
			TransitMaxSpeedKMH: 60,
			SnapRadius:         100,
			GuidesRadius:       30,
			Timeout:            10 * time.Second,
			CheckInterval:      100,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the yaml file at path over the defaults, then the .env file and the NAVIGATORX_*
// environment variables over that. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *float64) {
		if v, ok := lookup(envPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = f
		}
	}

	str("LISTEN_ADDR", &c.Server.ListenAddr)
	if v, ok := lookup(envPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	str("DB_DIR", &c.Storage.Dir)
	str("SNAPSHOT", &c.Storage.Snapshot)
	if v, ok := lookup(envPrefix + "RESOLUTION"); ok {
		res, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRESOLUTION: %w", envPrefix, err))
		} else {
			c.Storage.Resolution = res
		}
	}
	num("SEARCH_RADIUS_KM", &c.Storage.SearchRadiusKm)
	num("U_TURN_PENALTY", &c.Routing.UTurnPenalty)
	num("SNAP_RADIUS", &c.Routing.SnapRadius)
	if v, ok := lookup(envPrefix + "ROUTE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sROUTE_TIMEOUT: %w", envPrefix, err))
		} else {
			c.Routing.Timeout = d
		}
	}
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup(envPrefix + "LOG_JSON"); ok {
		c.Log.JSON = v == "true" || v == "1"
	}
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	switch {
	case c.Storage.Resolution < 0 || c.Storage.Resolution > 15:
		return fmt.Errorf("%w: h3 resolution %d out of [0, 15]", ErrInvalidConfig, c.Storage.Resolution)
	case c.Storage.Dir == "" && c.Storage.Snapshot == "":
		return fmt.Errorf("%w: storage needs a dir or a snapshot", ErrInvalidConfig)
	case c.Routing.PedestrianSpeedKMH <= 0 || c.Routing.OffroadSpeedKMH <= 0 || c.Routing.TransitMaxSpeedKMH <= 0:
		return fmt.Errorf("%w: speeds must be positive", ErrInvalidConfig)
	case c.Routing.SnapRadius <= 0:
		return fmt.Errorf("%w: snap radius must be positive", ErrInvalidConfig)
	case c.Routing.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	case c.Cache.MaxCost <= 0 || c.Cache.NumCounters <= 0:
		return fmt.Errorf("%w: cache sizes must be positive", ErrInvalidConfig)
	}
	return nil
}
