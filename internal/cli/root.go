package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/truthguard/internal/history"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/metrics"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/pipeline"
)

// Version is set at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile     string
	verbose     bool
	logLevel    string
	logFormat   string
	metricsAddr string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "truthguard",
	Short: "TruthGuard - claim verification pipeline",
	Long: `TruthGuard extracts checkable factual claims from text, gathers evidence
from web search and a curated knowledge base, weighs each source by
credibility and asks a language-model judge for a verdict.

Every claim resolves to one of: true, false, misleading, unverified.
A claim without evidence is always unverified.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command; cancelling ctx aborts in-flight runs
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("truthguard %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.truthguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs (e.g. :9090)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".truthguard"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// TRUTHGUARD_LLM_MODEL overrides llm.model
	viper.SetEnvPrefix("TRUTHGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func configureLogging() {
	level := viper.GetString("log.level")
	if level == "" {
		level = model.DefaultConfig().Log.Level
	}
	if verbose && level != "debug" {
		level = "info"
	}
	logging.Configure(level, viper.GetString("log.format"))
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv reads secrets and endpoints that never live in the config file
func applyEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.Embedding.APIKey == "" && strings.EqualFold(cfg.Embedding.Provider, "openai") {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
		if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = base
		}
		if strings.EqualFold(cfg.Embedding.Provider, "ollama") && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = base
		}
	}
	if cfg.Search.APIKey == "" {
		switch strings.ToLower(cfg.Search.Provider) {
		case "serper":
			cfg.Search.APIKey = os.Getenv("SERPER_API_KEY")
		case "brave":
			cfg.Search.APIKey = os.Getenv("BRAVE_API_KEY")
		}
	}
	if dsn := os.Getenv("TRUTHGUARD_PG_DSN"); dsn != "" {
		if cfg.Knowledge.DSN == "" {
			cfg.Knowledge.DSN = dsn
		}
		if cfg.History.DSN == "" {
			cfg.History.DSN = dsn
		}
	}
	if addr := os.Getenv("TRUTHGUARD_REDIS_ADDR"); addr != "" && cfg.History.RedisAddr == "" {
		cfg.History.RedisAddr = addr
	}
}

// openPipeline builds the pipeline with history and metrics attached.
// The returned cleanup closes everything it opened.
func openPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Pipeline, func(), error) {
	var opts []pipeline.Option
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err := metrics.New(reg)
		if err != nil {
			return nil, nil, fmt.Errorf("metrics: %w", err)
		}
		opts = append(opts, pipeline.WithObserver(collector))
		cleanups = append(cleanups, serveMetrics(metricsAddr, reg))
	}

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, pipeline.WithRecorder(history.NewRecorder(store, cfg.History.Timeout)), pipeline.WithCloser(store))
	}

	p, err := pipeline.Build(ctx, cfg, opts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		cleanup()
		return nil, nil, err
	}

	cleanups = append(cleanups, func() { _ = p.Close() })
	return p, cleanup, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.WithComponent("metrics").Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
