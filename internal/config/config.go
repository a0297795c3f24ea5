package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Logger     LoggerConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Classifier ClassifierConfig
	Paths      PathsConfig
	Assembly   AssemblyConfig
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig selects the classification cache backend.
// Backend is "redis" or "sqlite"; SQLitePath is only used by the sqlite backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

type ClassifierConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BatchSize int           `yaml:"batch_size"`
	MaxRounds int           `yaml:"max_rounds"`
	Workers   int           `yaml:"workers"`
	Timeout   time.Duration `yaml:"timeout"`
}

type PathsConfig struct {
	QuotaConfig    string `yaml:"quota_config"`
	Pool           string `yaml:"pool"`
	ClassifiedPool string `yaml:"classified_pool"`
	Quarantine     string `yaml:"quarantine"`
	ExamDir        string `yaml:"exam_dir"`
	VariantDir     string `yaml:"variant_dir"`
	TransformedDir string `yaml:"transformed_dir"`
	StatsDir       string `yaml:"stats_dir"`
}

type AssemblyConfig struct {
	SetNames        []string `yaml:"set_names"`
	Seed            int64    `yaml:"seed"`
	UniquenessScope string   `yaml:"uniqueness_scope"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("classifier.batch_size", 10)
	viper.SetDefault("classifier.max_rounds", 3)
	viper.SetDefault("classifier.workers", 4)
	viper.SetDefault("classifier.timeout", 60)
	viper.SetDefault("cache.backend", "redis")
	viper.SetDefault("assembly.set_names", []string{"1st", "2nd", "3rd", "4th", "5th"})
	viper.SetDefault("assembly.seed", 42)
	viper.SetDefault("assembly.uniqueness_scope", "global")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Backend:    viper.GetString("cache.backend"),
			SQLitePath: viper.GetString("cache.sqlite_path"),
		},
		Classifier: ClassifierConfig{
			BaseURL:   viper.GetString("classifier.base_url"),
			APIKey:    viper.GetString("classifier.api_key"),
			Model:     viper.GetString("classifier.model"),
			BatchSize: viper.GetInt("classifier.batch_size"),
			MaxRounds: viper.GetInt("classifier.max_rounds"),
			Workers:   viper.GetInt("classifier.workers"),
			Timeout:   viper.GetDuration("classifier.timeout") * time.Second,
		},
		Paths: PathsConfig{
			QuotaConfig:    viper.GetString("paths.quota_config"),
			Pool:           viper.GetString("paths.pool"),
			ClassifiedPool: viper.GetString("paths.classified_pool"),
			Quarantine:     viper.GetString("paths.quarantine"),
			ExamDir:        viper.GetString("paths.exam_dir"),
			VariantDir:     viper.GetString("paths.variant_dir"),
			TransformedDir: viper.GetString("paths.transformed_dir"),
			StatsDir:       viper.GetString("paths.stats_dir"),
		},
		Assembly: AssemblyConfig{
			SetNames:        viper.GetStringSlice("assembly.set_names"),
			Seed:            viper.GetInt64("assembly.seed"),
			UniquenessScope: viper.GetString("assembly.uniqueness_scope"),
		},
	}

	// Override with environment variables if set
	if apiKey := os.Getenv("OPENROUTER_API_KEY"); apiKey != "" {
		config.Classifier.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENROUTER_BASE_URL"); baseURL != "" {
		config.Classifier.BaseURL = baseURL
	}
	if model := os.Getenv("CLASSIFIER_MODEL"); model != "" {
		config.Classifier.Model = model
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if backend := os.Getenv("CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = backend
	}

	return config, nil
}
