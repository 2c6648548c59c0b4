// Package config содержит логику чтения конфигурации прогона проверки и тестового стенда.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultBaseURL    = "https://qacandidatetest.ensek.io"
	defaultUsername   = "test"
	defaultPassword   = "testing"
	defaultInputPath  = "execution.csv"
	defaultResultsDir = "results"
	defaultTimeout    = 10 * time.Second
	defaultRunAddress = "localhost:8080"
)

// Config содержит параметры прогона проверки.
type Config struct {
	BaseURL        string        `env:"ENSEK_BASE_URL"`
	Username       string        `env:"ENSEK_USERNAME"`
	Password       string        `env:"ENSEK_PASSWORD"`
	InputPath      string        `env:"INPUT_PATH"`
	ResultsDir     string        `env:"RESULTS_DIR"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	ResetBeforeRun bool          `env:"RESET_BEFORE_RUN"`
	VerifyReset    bool          `env:"VERIFY_RESET"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	PushgatewayURL string        `env:"PUSHGATEWAY_URL"`
	S3             S3Config      `envPrefix:"REPORT_S3_"`
}

// S3Config содержит параметры публикации отчёта в S3.
type S3Config struct {
	Bucket    string `env:"BUCKET"`
	Prefix    string `env:"PREFIX"`
	Region    string `env:"REGION"`
	Endpoint  string `env:"ENDPOINT"`
	PathStyle bool   `env:"PATH_STYLE"`
}

// SandboxConfig содержит параметры тестового стенда.
type SandboxConfig struct {
	RunAddress string `env:"RUN_ADDRESS"`
	Username   string `env:"SANDBOX_USERNAME"`
	Password   string `env:"SANDBOX_PASSWORD"`
	Secret     string `env:"SANDBOX_SECRET"`
}

// Parse считывает конфигурацию прогона из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}
	flag.StringVar(&cfg.BaseURL, "u", defaultBaseURL, "base URL of the fuel purchasing service")
	flag.StringVar(&cfg.Username, "login", defaultUsername, "service username")
	flag.StringVar(&cfg.Password, "password", defaultPassword, "service password")
	flag.StringVar(&cfg.InputPath, "i", defaultInputPath, "input table with purchase intents")
	flag.StringVar(&cfg.ResultsDir, "o", defaultResultsDir, "directory for report files")
	flag.DurationVar(&cfg.RequestTimeout, "t", defaultTimeout, "timeout of a single request")
	flag.BoolVar(&cfg.ResetBeforeRun, "reset", false, "reset service data before purchasing")
	flag.BoolVar(&cfg.VerifyReset, "verify-reset", false, "reset service data after the run and check that no orders remain")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for the run archive")
	flag.StringVar(&cfg.PushgatewayURL, "push", "", "Prometheus Pushgateway URL")
	flag.StringVar(&cfg.S3.Bucket, "s3-bucket", "", "S3 bucket for report publication")

	flag.Parse()

	override(&cfg.BaseURL, envCfg.BaseURL)
	override(&cfg.Username, envCfg.Username)
	override(&cfg.Password, envCfg.Password)
	override(&cfg.InputPath, envCfg.InputPath)
	override(&cfg.ResultsDir, envCfg.ResultsDir)
	override(&cfg.DatabaseURI, envCfg.DatabaseURI)
	override(&cfg.PushgatewayURL, envCfg.PushgatewayURL)
	override(&cfg.S3.Bucket, envCfg.S3.Bucket)

	if envCfg.RequestTimeout > 0 {
		cfg.RequestTimeout = envCfg.RequestTimeout
	}
	if _, ok := os.LookupEnv("RESET_BEFORE_RUN"); ok {
		cfg.ResetBeforeRun = envCfg.ResetBeforeRun
	}
	if _, ok := os.LookupEnv("VERIFY_RESET"); ok {
		cfg.VerifyReset = envCfg.VerifyReset
	}

	cfg.S3.Prefix = envCfg.S3.Prefix
	cfg.S3.Region = envCfg.S3.Region
	cfg.S3.Endpoint = envCfg.S3.Endpoint
	cfg.S3.PathStyle = envCfg.S3.PathStyle

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}

	return cfg, nil
}

// ParseSandbox считывает конфигурацию тестового стенда.
func ParseSandbox() (*SandboxConfig, error) {
	cfg := &SandboxConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envUsername := cfg.Username
	envPassword := cfg.Password
	envSecret := cfg.Secret

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.Username, "login", defaultUsername, "accepted username")
	flag.StringVar(&cfg.Password, "password", defaultPassword, "accepted password")
	flag.StringVar(&cfg.Secret, "secret", "", "token signing secret")

	flag.Parse()

	override(&cfg.RunAddress, envRunAddress)
	override(&cfg.Username, envUsername)
	override(&cfg.Password, envPassword)
	override(&cfg.Secret, envSecret)

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}
