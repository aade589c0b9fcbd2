package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr               string
	DatabaseURL        string
	JWTSecret          string
	TokenTTL           time.Duration
	Environment        string
	LogLevel           string
	LogFormat          string
	MigrationsDir      string
	RunMigrations      bool
	RunSeed            bool
	SeedTenantName     string
	SeedAdminEmail     string
	SeedAdminPassword  string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CalcLockTTL        time.Duration
	CalcTimeout        time.Duration
	MaxBodyBytes       int64
	PayrollRulesFile   string
	PayslipCompanyName string
	MetricsEnabled     bool
	RateLimitPerMinute int
	Payroll            PayrollRules
}

// PayrollRules holds the business constants used by payroll and leave
// calculations. Values are plain floats here; the payroll package converts
// them to decimals.
type PayrollRules struct {
	StandardMonthlyHours        float64 `yaml:"standard_monthly_hours"`
	OvertimeMultiplier          float64 `yaml:"overtime_multiplier"`
	IntegrityBonusAmount        float64 `yaml:"integrity_bonus_amount"`
	IntegrityBonusThreshold     int     `yaml:"integrity_bonus_threshold"`
	IntegrityPenaltyAmount      float64 `yaml:"integrity_penalty_amount"`
	IntegrityPenaltyThreshold   int     `yaml:"integrity_penalty_threshold"`
	DefaultAnnualLeaveAllowance int     `yaml:"default_annual_leave_allowance"`
	CurrencyScale               int     `yaml:"currency_scale"`
}

// StorageCurrencyScale is the number of decimal places the database keeps for
// money.
const StorageCurrencyScale = 2

func DefaultPayrollRules() PayrollRules {
	return PayrollRules{
		StandardMonthlyHours:        160,
		OvertimeMultiplier:          1.5,
		IntegrityBonusAmount:        1000,
		IntegrityBonusThreshold:     95,
		IntegrityPenaltyAmount:      500,
		IntegrityPenaltyThreshold:   75,
		DefaultAnnualLeaveAllowance: 21,
		CurrencyScale:               StorageCurrencyScale,
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 12*time.Hour),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", "migrations"),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:            getEnvBool("RUN_SEED", true),
		SeedTenantName:     getEnv("SEED_TENANT_NAME", "Default Tenant"),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		CalcLockTTL:        getEnvDuration("PAYROLL_CALC_LOCK_TTL", time.Minute),
		CalcTimeout:        getEnvDuration("PAYROLL_CALC_TIMEOUT", 30*time.Second),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		PayrollRulesFile:   getEnv("PAYROLL_RULES_FILE", ""),
		PayslipCompanyName: getEnv("PAYSLIP_COMPANY_NAME", "HR Console"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	rules, err := LoadPayrollRules(cfg.PayrollRulesFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Payroll = applyRuleOverrides(rules)
	return cfg, nil
}

// LoadPayrollRules reads the YAML rules file on top of the defaults. An empty
// path returns the defaults.
func LoadPayrollRules(path string) (PayrollRules, error) {
	rules := DefaultPayrollRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return PayrollRules{}, fmt.Errorf("read payroll rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return PayrollRules{}, fmt.Errorf("parse payroll rules %s: %w", path, err)
	}
	return rules, nil
}

func applyRuleOverrides(rules PayrollRules) PayrollRules {
	rules.StandardMonthlyHours = getEnvFloat("PAYROLL_STANDARD_MONTHLY_HOURS", rules.StandardMonthlyHours)
	rules.OvertimeMultiplier = getEnvFloat("PAYROLL_OVERTIME_MULTIPLIER", rules.OvertimeMultiplier)
	rules.DefaultAnnualLeaveAllowance = getEnvInt("LEAVE_ANNUAL_ALLOWANCE", rules.DefaultAnnualLeaveAllowance)
	return rules
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return errors.New("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return errors.New("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return errors.New("MAX_BODY_BYTES must be at least 1024")
	}
	if c.CalcTimeout <= 0 {
		return errors.New("PAYROLL_CALC_TIMEOUT must be positive")
	}
	return c.Payroll.Validate()
}

func (r PayrollRules) Validate() error {
	if r.StandardMonthlyHours <= 0 {
		return errors.New("standard_monthly_hours must be positive")
	}
	if r.OvertimeMultiplier < 0 {
		return errors.New("overtime_multiplier must not be negative")
	}
	if r.IntegrityBonusAmount < 0 || r.IntegrityPenaltyAmount < 0 {
		return errors.New("integrity amounts must not be negative")
	}
	if r.IntegrityPenaltyThreshold > r.IntegrityBonusThreshold {
		return errors.New("integrity_penalty_threshold must not exceed integrity_bonus_threshold")
	}
	if r.DefaultAnnualLeaveAllowance < 0 {
		return errors.New("default_annual_leave_allowance must not be negative")
	}
	// money columns are NUMERIC(14,2)
	if r.CurrencyScale != StorageCurrencyScale {
		return fmt.Errorf("currency_scale must be %d to match stored amounts", StorageCurrencyScale)
	}
	return nil
}
