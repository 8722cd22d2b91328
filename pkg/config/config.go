package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Log     LogConfig
	Storage StorageConfig
	Solver  SolverConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects the object-store bucket used for solver artefacts.
type StorageConfig struct {
	Bucket string
}

// SolverConfig governs the external grounder/solver invocation.
type SolverConfig struct {
	ClingoPath string
	TimeBudget time.Duration
	// ShortTimeBudget replaces TimeBudget when ShortExecution is set.
	ShortTimeBudget time.Duration
	ShortExecution  bool
	// RoomDistanceConstraint enables the experimental travel-time encoding.
	RoomDistanceConstraint bool
}

// Budget resolves the effective wall-clock budget. An explicit override from
// the caller wins over both profiles.
func (c SolverConfig) Budget(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if c.ShortExecution {
		return c.ShortTimeBudget
	}
	return c.TimeBudget
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		Bucket: v.GetString("SOLVER_FILES_BUCKET"),
	}

	cfg.Solver = SolverConfig{
		ClingoPath:             v.GetString("CLINGO_PATH"),
		TimeBudget:             parseDuration(v.GetString("SOLVER_TIME_BUDGET"), time.Hour),
		ShortTimeBudget:        parseDuration(v.GetString("SOLVER_SHORT_TIME_BUDGET"), 15*time.Minute),
		ShortExecution:         v.GetBool("SHORT_EXECUTION_ENVIRONMENT"),
		RoomDistanceConstraint: v.GetBool("ENABLE_ROOM_DISTANCE_CONSTRAINT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_FILES_BUCKET", "")

	v.SetDefault("CLINGO_PATH", "clingo")
	v.SetDefault("SOLVER_TIME_BUDGET", "1h")
	v.SetDefault("SOLVER_SHORT_TIME_BUDGET", "15m")
	v.SetDefault("SHORT_EXECUTION_ENVIRONMENT", false)
	v.SetDefault("ENABLE_ROOM_DISTANCE_CONSTRAINT", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
