package config

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Rating     RatingConfig     `validate:"required"`
	Payment    PaymentConfig    `validate:"required"`
}

type DeploymentConfig struct {
	Mode string `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"required"`
}

// RatingConfig controls the fee memoization cache. Rating is pure per
// (charge version, aggregate) so cached fees never go stale within a version.
type RatingConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// PaymentConfig controls the dispatch retry policy. MaxAttempts counts the
// initial try, so 6 means one try plus five retries.
type PaymentConfig struct {
	MaxAttempts     int           `validate:"required,min=1"`
	InitialInterval time.Duration `validate:"required"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/meterbill")

	v.SetEnvPrefix("METERBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "local")
	v.SetDefault("logging.level", "info")
	v.SetDefault("rating.cacheenabled", true)
	v.SetDefault("rating.cachettl", 30*time.Minute)
	v.SetDefault("payment.maxattempts", 6)
	v.SetDefault("payment.initialinterval", time.Second)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for tests and scripts
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "local"},
		Logging:    LoggingConfig{Level: "debug"},
		Rating: RatingConfig{
			CacheEnabled: true,
			CacheTTL:     30 * time.Minute,
		},
		Payment: PaymentConfig{
			MaxAttempts:     6,
			InitialInterval: time.Second,
		},
	}
}
