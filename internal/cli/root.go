package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimrank/internal/model"
)

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// version is set at build time with -ldflags
var version = "v0.1.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimrank",
	Short: "claimrank - Rank decision options by weighted, propagated claims",
	Long: `claimrank ranks the alternatives of a decision by aggregating the claims
linked to each option.

Every claim contributes confidence x weight x effect multiplier, and that
influence spreads through the claim graph, halving with every hop. Live
evidence extracted from the option's documents is appended to the reasons
trail but never changes the score.

A score is a summary of the evidence you gave it, not a verdict.`,
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
	Long:  `Display the version number of claimrank.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimrank %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimrank/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper(), model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".claimrank"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAIMRANK_*, e.g. CLAIMRANK_LLM_PROVIDER
	viper.SetEnvPrefix("CLAIMRANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every configuration key so that environment
// variables can override keys absent from the config file
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("scoring.max_depth", d.Scoring.MaxDepth)

	v.SetDefault("augment.enabled", d.Augment.Enabled)
	v.SetDefault("augment.workers", d.Augment.Workers)
	v.SetDefault("augment.max_retries", d.Augment.MaxRetries)
	v.SetDefault("augment.backoff_base", d.Augment.BackoffBase)
	v.SetDefault("augment.call_timeout", d.Augment.CallTimeout)
	v.SetDefault("augment.requests_per_second", d.Augment.RequestsPerSecond)
	v.SetDefault("augment.burst", d.Augment.Burst)

	v.SetDefault("evaluate.option_workers", d.Evaluate.OptionWorkers)
	v.SetDefault("evaluate.timeout", d.Evaluate.Timeout)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)
	v.SetDefault("cache.disk_dir", d.Cache.DiskDir)
	v.SetDefault("cache.disk_ttl", d.Cache.DiskTTL)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.max_body_bytes", d.Fetch.MaxBodyBytes)
	v.SetDefault("fetch.respect_robots", d.Fetch.RespectRobots)
	v.SetDefault("fetch.requests_per_second", d.Fetch.RequestsPerSecond)
	v.SetDefault("fetch.http_proxy", d.Fetch.HTTPProxy)
	v.SetDefault("fetch.https_proxy", d.Fetch.HTTPSProxy)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig resolves the configuration from defaults, config file and
// environment, then fills provider credentials from their usual variables
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(&cfg.LLM)
	return cfg, nil
}

// applyProviderEnv reads the provider's conventional environment variables
func applyProviderEnv(llm *model.LLMConfig) {
	switch strings.ToLower(llm.Provider) {
	case "openai":
		if llm.APIKey == "" {
			llm.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if llm.APIKey == "" {
			llm.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "gemini":
		if llm.APIKey == "" {
			llm.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && llm.BaseURL == "" {
			llm.BaseURL = baseURL
		}
	}
}
