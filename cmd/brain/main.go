package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/plugin/brain"
	"github.com/thenoname-gurl/Brain/store"
	"github.com/thenoname-gurl/Brain/store/db"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:          "brain",
	Short:        "A small self-learning conversation engine.",
	SilenceUsage: true,
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "state driver (sqlite, postgres, redis or memory)")
	rootCmd.PersistentFlags().String("dsn", "", "driver data source name")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("brain")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd(), chatCmd(), reprocessCmd(), lessonCmd())
}

// loadProfile builds the validated profile from flags, BRAIN_* variables and defaults.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	return p, nil
}

func newLogger(p *profile.Profile) *slog.Logger {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// openBrain connects the driver, loads the persisted state and builds the engine.
func openBrain(ctx context.Context, p *profile.Profile, logger *slog.Logger) (*brain.Brain, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	s := store.New(driver)
	if err := s.Load(ctx); err != nil {
		_ = driver.Close()
		return nil, err
	}
	return brain.New(s, brain.ConfigFromProfile(p), brain.WithLogger(logger)), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
