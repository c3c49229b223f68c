// Part of the bulkqr CLI - root command, configuration and shared wiring.
package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pv2447407/bulkqr/internal/domain/identifier"
	"github.com/pv2447407/bulkqr/internal/infrastructure/storage"
	"github.com/pv2447407/bulkqr/pkg/logger"
)

var (
	cfgFile string
	vi      = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "bulkqr",
	Short: "Bulk QR label sheets",
	Long: `bulkqr issues sequential identifiers per product variant, renders them
as QR symbols and lays them out on printable PDF sheets.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (BULKQR_*)
3. Configuration file (--config, ./bulkqr.yaml or ~/.bulkqr/bulkqr.yaml)

Examples:
  # Print 50 labels for the RE/L variant of widgets
  bulkqr generate --category widgets --product RE --size L --quantity 50

  # Same backend settings from the environment
  export BULKQR_BACKEND=postgres BULKQR_DATABASE_URL=postgres://...
  bulkqr sequences`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return vi.BindPFlags(cmd.Flags())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("backend", storage.BackendFile, "storage backend: memory, file, postgres, redis")
	rootCmd.PersistentFlags().String("data-dir", "data", "data directory for the file backend")
	rootCmd.PersistentFlags().String("database-url", "", "connection string for the postgres backend")
	rootCmd.PersistentFlags().String("redis-addr", "", "address for the redis backend")
	rootCmd.PersistentFlags().String("redis-password", "", "password for the redis backend")
	rootCmd.PersistentFlags().Int("redis-db", 0, "database number for the redis backend")
	rootCmd.PersistentFlags().String("prefix", "", "identifier prefix (default RMT)")
	rootCmd.PersistentFlags().Int("seq-width", 0, "zero padding width for sequence numbers (default 3)")
	rootCmd.PersistentFlags().String("templates-dir", "", "directory with sheet template YAML files")
	rootCmd.PersistentFlags().Bool("json", false, "print listings as JSON")
}

// initConfig wires Viper to flags, environment and the config file.
func initConfig() {
	if cfgFile != "" {
		vi.SetConfigFile(cfgFile)
	} else {
		vi.SetConfigName("bulkqr")
		vi.SetConfigType("yaml")
		vi.AddConfigPath(".")
		vi.AddConfigPath("$HOME/.bulkqr")
	}

	vi.AutomaticEnv()
	vi.SetEnvPrefix("BULKQR")
	vi.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file is optional.
	_ = vi.ReadInConfig()
}

// openStores opens the configured storage backend.
func openStores(ctx context.Context) (*storage.Stores, error) {
	return storage.Open(ctx, storage.Config{
		Backend:       vi.GetString("backend"),
		Dir:           vi.GetString("data-dir"),
		PostgresDSN:   vi.GetString("database-url"),
		RedisAddr:     vi.GetString("redis-addr"),
		RedisPassword: vi.GetString("redis-password"),
		RedisDB:       vi.GetInt("redis-db"),
	})
}

// newAllocator builds the identifier allocator with the configured format.
func newAllocator(stores *storage.Stores) *identifier.Allocator {
	format := identifier.DefaultFormat()
	if p := vi.GetString("prefix"); p != "" {
		format.Prefix = p
	}
	if w := vi.GetInt("seq-width"); w > 0 {
		format.SeqWidth = w
	}
	return identifier.NewAllocator(stores.Sequences, format)
}

// cliLogger keeps command output clean: warnings and errors only.
func cliLogger() *logger.Logger {
	log, err := logger.New(logger.Config{Level: "warn", Development: true})
	if err != nil {
		return logger.Nop()
	}
	return log
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
