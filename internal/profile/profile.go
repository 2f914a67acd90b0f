package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the engine and its server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where the brain stores its state
	DSN string
	// Driver is the state driver (sqlite, postgres, redis or memory)
	Driver string
	// Version is the current version of server
	Version string

	// Engine tunables
	MaxMemory          int           // BRAIN_MAX_MEMORY (default: 5000)
	MemorySearchWindow int           // BRAIN_MEMORY_SEARCH_WINDOW (default: 1500)
	EssayTemperature   float64       // BRAIN_ESSAY_TEMPERATURE (default: 0.35)
	ImportBatchCap     int           // BRAIN_IMPORT_BATCH_CAP (default: 5000)
	ImportYieldEvery   int           // BRAIN_IMPORT_YIELD_EVERY (default: 400)
	TrainerBatch       int           // BRAIN_TRAINER_BATCH (default: 24)
	SaveInterval       time.Duration // BRAIN_SAVE_INTERVAL (default: 5s)

	// Transport tunables
	RateLimit float64 // BRAIN_RATE_LIMIT requests per second per client (default: 5)
	RateBurst int     // BRAIN_RATE_BURST (default: 10)
}

// Defaults for the engine tunables.
const (
	DefaultMaxMemory          = 5000
	DefaultMemorySearchWindow = 1500
	DefaultEssayTemperature   = 0.35
	DefaultImportBatchCap     = 5000
	DefaultImportYieldEvery   = 400
	DefaultTrainerBatch       = 24
	DefaultSaveInterval       = 5 * time.Second
	DefaultRateLimit          = 5
	DefaultRateBurst          = 10
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func getEnvInt(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("ignoring invalid integer setting", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("ignoring invalid number setting", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("ignoring invalid duration setting", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return v
}

// FromEnv loads the engine tunables from BRAIN_* environment variables.
// Invalid values are logged and replaced with defaults.
func (p *Profile) FromEnv() {
	p.MaxMemory = getEnvInt("BRAIN_MAX_MEMORY", DefaultMaxMemory)
	p.MemorySearchWindow = getEnvInt("BRAIN_MEMORY_SEARCH_WINDOW", DefaultMemorySearchWindow)
	p.EssayTemperature = getEnvFloat("BRAIN_ESSAY_TEMPERATURE", DefaultEssayTemperature)
	p.ImportBatchCap = getEnvInt("BRAIN_IMPORT_BATCH_CAP", DefaultImportBatchCap)
	p.ImportYieldEvery = getEnvInt("BRAIN_IMPORT_YIELD_EVERY", DefaultImportYieldEvery)
	p.TrainerBatch = getEnvInt("BRAIN_TRAINER_BATCH", DefaultTrainerBatch)
	p.SaveInterval = getEnvDuration("BRAIN_SAVE_INTERVAL", DefaultSaveInterval)
	p.RateLimit = getEnvFloat("BRAIN_RATE_LIMIT", DefaultRateLimit)
	p.RateBurst = getEnvInt("BRAIN_RATE_BURST", DefaultRateBurst)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and fills derived values such as the sqlite DSN.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.EssayTemperature < 0 || p.EssayTemperature > 1 {
		return errors.Errorf("essay temperature %v out of range [0, 1]", p.EssayTemperature)
	}
	if p.Driver != "sqlite" {
		if p.Driver != "memory" && p.DSN == "" {
			return errors.Errorf("driver %s requires a dsn", p.Driver)
		}
		return nil
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "brain")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/brain"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.DSN == "" {
		dbFile := fmt.Sprintf("brain_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
