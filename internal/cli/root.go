package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/truthweaver/internal/lexicon"
	"github.com/ppiankov/truthweaver/internal/logging"
	"github.com/ppiankov/truthweaver/internal/model"
	"github.com/ppiankov/truthweaver/internal/pipeline"
	"github.com/ppiankov/truthweaver/internal/store"
	"github.com/ppiankov/truthweaver/internal/transcribe"
	"github.com/ppiankov/truthweaver/internal/worker"
)

// version is overridden at build time with -ldflags "-X .../cli.version=..."
var version = "0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "truthweaver",
	Short: "Truth Weaver - cross-session testimony contradiction analysis",
	Long: `Truth Weaver analyzes several testimony recordings of the same subject.

Each recording is transcribed, claims are extracted per session
(experience durations, skills, confidence, leadership and team signals),
contradictions across sessions are detected, and a single reconciled
truth profile is written as JSON next to the combined transcript.

Recordings are transcribed by a remote speech engine (OpenAI Whisper) or
read from transcript files prepared next to each recording.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Truth Weaver.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "truthweaver v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.truthweaver/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console, json")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".truthweaver"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match TRUTHWEAVER_*
	viper.SetEnvPrefix("TRUTHWEAVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvKeys("", reflect.TypeOf(model.Config{}))
	_ = viper.BindEnv("transcription.api_key", "TRUTHWEAVER_TRANSCRIPTION_API_KEY", "OPENAI_API_KEY")

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config %s: %v\n", cfgFile, err)
	}
}

// bindEnvKeys registers every config key with viper so nested settings can
// come from the environment without a config file
func bindEnvKeys(prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindEnvKeys(key, field.Type)
			continue
		}
		_ = viper.BindEnv(key)
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// loadLexicon returns the configured vocabulary, or the built-in one
func loadLexicon(cfg *model.Config) (*lexicon.Lexicon, error) {
	if cfg.Analysis.LexiconFile == "" {
		return lexicon.Default(), nil
	}
	return lexicon.Load(cfg.Analysis.LexiconFile)
}

// newLogger builds the process logger; --verbose raises the level to info
func newLogger(cfg *model.Config) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if verbose && (level == "" || level == "warn" || level == "error") {
		level = "info"
	}
	return logging.New(level, cfg.Logging.Format)
}

// app holds everything a case-processing command needs
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	archive  *store.Store
}

// newLimiter builds the engine throttle with per-endpoint overrides
func newLimiter(cfg model.RateLimitConfig) (*worker.Limiter, error) {
	limiter := worker.NewLimiter(cfg.RequestsPerSecond, cfg.BurstSize)
	for i, r := range cfg.Endpoints {
		if err := limiter.SetEndpointRate(r.Endpoint, r.RequestsPerSecond, r.BurstSize); err != nil {
			return nil, fmt.Errorf("rate_limiting.endpoints[%d]: %w", i, err)
		}
	}
	return limiter, nil
}

// newApp wires the transcriber, pipeline and optional archive
func newApp(cfg *model.Config) (*app, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	lex, err := loadLexicon(cfg)
	if err != nil {
		return nil, err
	}

	limiter, err := newLimiter(cfg.RateLimiting)
	if err != nil {
		return nil, err
	}
	transcriber, err := transcribe.NewTranscriber(cfg, limiter, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline.NewPipeline(cfg, lex, transcriber, logger),
	}

	if cfg.Store.Enabled {
		archive, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		a.archive = archive
	}

	return a, nil
}

func (a *app) Close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.logger.Warn("failed to close archive", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
