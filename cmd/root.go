package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-matcher/internal/api"
	"github.com/spigell/cv-matcher/internal/aspects"
	"github.com/spigell/cv-matcher/internal/cache"
	"github.com/spigell/cv-matcher/internal/ranking"
)

const (
	app       = "cv-matcher"
	envPrefix = "CV_MATCHER"
)

type Config struct {
	AI       *AIConfig          `mapstructure:"ai"`
	Cache    *CacheConfig       `mapstructure:"cache"`
	Database *DatabaseConfig    `mapstructure:"database"`
	Server   api.Config         `mapstructure:"server"`
	Weights  map[string]float64 `mapstructure:"weights"`
	Ranking  ranking.Config     `mapstructure:"ranking"`
}

type AIConfig struct {
	Provider     string            `mapstructure:"provider"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	MaxLogLength int               `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig     `mapstructure:"gemini"`
	OpenRouter   *OpenRouterConfig `mapstructure:"openrouter"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type OpenRouterConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type CacheConfig struct {
	Redis *RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	DSNFile string `mapstructure:"dsn-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-matcher scores how well a résumé fits a job posting",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("provider", "", "judgment provider: gemini, openrouter or none")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("ai.provider", rootCmd.PersistentFlags().Lookup("provider"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("ai.provider", "none")
	viper.SetDefault("ai.timeout", aspects.DefaultTimeout)
	viper.SetDefault("ai.max-log-length", 200)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.openrouter.model", "openai/gpt-4o-mini")
	viper.SetDefault("ai.openrouter.base-url", "https://openrouter.ai/api/v1")
	viper.SetDefault("ai.openrouter.max-retries", 2)
	viper.SetDefault("ai.openrouter.api-key", "")
	viper.SetDefault("ai.openrouter.api-key-file", "")
	viper.SetDefault("cache.redis.enabled", false)
	viper.SetDefault("cache.redis.addr", "localhost:6379")
	viper.SetDefault("cache.redis.password", "")
	viper.SetDefault("cache.redis.db", 0)
	viper.SetDefault("cache.redis.ttl", cache.DefaultTTL)
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.dsn-file", "")
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.rate-limit", 60)
	viper.SetDefault("ranking.minimum-score", 0.0)
	viper.SetDefault("ranking.allow-degraded", false)
	viper.SetDefault("ranking.max-ignored", -1)
	viper.SetDefault("ranking.top", 10)
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Defaults and environment are enough without a config file, unless one was asked for explicitly.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	return config, nil
}
