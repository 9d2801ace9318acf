package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Assess     AssessConfig
	Providers  ProvidersConfig
	ClickHouse ClickHouseConfig
	JWT        JWTConfig
}

type AppConfig struct {
	Env        string
	Port       int
	Host       string
	PolicyFile string
}

// AssessConfig bounds the fan-out orchestration.
type AssessConfig struct {
	PerCallTimeout time.Duration
	BatchDeadline  time.Duration
	MaxInFlight    int
}

// ProviderConfig is one provider's credential group. BaseURL overrides the
// default endpoint, mainly for tests and proxies.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
}

type ProvidersConfig struct {
	SafeBrowsing    ProviderConfig
	PhishTank       ProviderConfig
	URLhaus         ProviderConfig
	WebRep          ProviderConfig
	URLScore        ProviderConfig
	OTX             ProviderConfig
	IPRep           ProviderConfig
	BreachWatch     ProviderConfig
	RegionalMirrors []string
}

type ClickHouseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type JWTConfig struct {
	Secret            string
	Expiry            time.Duration
	AdminUser         string
	AdminPasswordHash string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/etc/linkshield")

	viper.AutomaticEnv()

	bindEnvVars()
	setDefaults()

	// Config file is optional
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("Error reading config file", "error", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Env:        viper.GetString("APP_ENV"),
			Port:       viper.GetInt("APP_PORT"),
			Host:       viper.GetString("APP_HOST"),
			PolicyFile: viper.GetString("APP_POLICY_FILE"),
		},
		Assess: AssessConfig{
			PerCallTimeout: viper.GetDuration("ASSESS_PER_CALL_TIMEOUT"),
			BatchDeadline:  viper.GetDuration("ASSESS_BATCH_DEADLINE"),
			MaxInFlight:    viper.GetInt("ASSESS_MAX_IN_FLIGHT"),
		},
		Providers: ProvidersConfig{
			SafeBrowsing: ProviderConfig{
				APIKey:  viper.GetString("SAFEBROWSING_API_KEY"),
				BaseURL: viper.GetString("SAFEBROWSING_BASE_URL"),
			},
			PhishTank: ProviderConfig{
				APIKey:  viper.GetString("PHISHTANK_API_KEY"),
				BaseURL: viper.GetString("PHISHTANK_BASE_URL"),
			},
			URLhaus: ProviderConfig{
				APIKey:  viper.GetString("URLHAUS_API_KEY"),
				BaseURL: viper.GetString("URLHAUS_BASE_URL"),
			},
			WebRep: ProviderConfig{
				APIKey:  viper.GetString("WEBREP_API_KEY"),
				BaseURL: viper.GetString("WEBREP_BASE_URL"),
			},
			URLScore: ProviderConfig{
				APIKey:  viper.GetString("URLSCORE_API_KEY"),
				BaseURL: viper.GetString("URLSCORE_BASE_URL"),
			},
			OTX: ProviderConfig{
				APIKey:  viper.GetString("OTX_API_KEY"),
				BaseURL: viper.GetString("OTX_BASE_URL"),
			},
			IPRep: ProviderConfig{
				APIKey:  viper.GetString("IPREP_API_KEY"),
				BaseURL: viper.GetString("IPREP_BASE_URL"),
			},
			BreachWatch: ProviderConfig{
				APIKey:  viper.GetString("BREACHWATCH_API_KEY"),
				BaseURL: viper.GetString("BREACHWATCH_BASE_URL"),
			},
			RegionalMirrors: splitList(viper.GetString("REGIONAL_MIRRORS")),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  viper.GetBool("CLICKHOUSE_ENABLED"),
			Host:     viper.GetString("CLICKHOUSE_HOST"),
			Port:     viper.GetInt("CLICKHOUSE_PORT"),
			User:     viper.GetString("CLICKHOUSE_USER"),
			Password: viper.GetString("CLICKHOUSE_PASSWORD"),
			Database: viper.GetString("CLICKHOUSE_DATABASE"),
		},
		JWT: JWTConfig{
			Secret:            viper.GetString("JWT_SECRET"),
			Expiry:            viper.GetDuration("JWT_EXPIRY"),
			AdminUser:         viper.GetString("ADMIN_USER"),
			AdminPasswordHash: viper.GetString("ADMIN_PASSWORD_HASH"),
		},
	}

	return config, nil
}

func bindEnvVars() {
	// App
	viper.BindEnv("APP_ENV")
	viper.BindEnv("APP_PORT")
	viper.BindEnv("APP_HOST")
	viper.BindEnv("APP_POLICY_FILE")

	// Orchestration
	viper.BindEnv("ASSESS_PER_CALL_TIMEOUT")
	viper.BindEnv("ASSESS_BATCH_DEADLINE")
	viper.BindEnv("ASSESS_MAX_IN_FLIGHT")

	// Providers: one key group per source
	viper.BindEnv("SAFEBROWSING_API_KEY")
	viper.BindEnv("SAFEBROWSING_BASE_URL")
	viper.BindEnv("PHISHTANK_API_KEY")
	viper.BindEnv("PHISHTANK_BASE_URL")
	viper.BindEnv("URLHAUS_API_KEY")
	viper.BindEnv("URLHAUS_BASE_URL")
	viper.BindEnv("WEBREP_API_KEY")
	viper.BindEnv("WEBREP_BASE_URL")
	viper.BindEnv("URLSCORE_API_KEY")
	viper.BindEnv("URLSCORE_BASE_URL")
	viper.BindEnv("OTX_API_KEY")
	viper.BindEnv("OTX_BASE_URL")
	viper.BindEnv("IPREP_API_KEY")
	viper.BindEnv("IPREP_BASE_URL")
	viper.BindEnv("BREACHWATCH_API_KEY")
	viper.BindEnv("BREACHWATCH_BASE_URL")
	viper.BindEnv("REGIONAL_MIRRORS")

	// ClickHouse
	viper.BindEnv("CLICKHOUSE_ENABLED")
	viper.BindEnv("CLICKHOUSE_HOST")
	viper.BindEnv("CLICKHOUSE_PORT")
	viper.BindEnv("CLICKHOUSE_USER")
	viper.BindEnv("CLICKHOUSE_PASSWORD")
	viper.BindEnv("CLICKHOUSE_DATABASE")

	// JWT
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("JWT_EXPIRY")
	viper.BindEnv("ADMIN_USER")
	viper.BindEnv("ADMIN_PASSWORD_HASH")
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_HOST", "0.0.0.0")

	viper.SetDefault("ASSESS_PER_CALL_TIMEOUT", 15*time.Second)
	viper.SetDefault("ASSESS_BATCH_DEADLINE", 45*time.Second)
	viper.SetDefault("ASSESS_MAX_IN_FLIGHT", 16)

	viper.SetDefault("CLICKHOUSE_ENABLED", false)
	viper.SetDefault("CLICKHOUSE_HOST", "localhost")
	viper.SetDefault("CLICKHOUSE_PORT", 9000)
	viper.SetDefault("CLICKHOUSE_USER", "linkshield")
	viper.SetDefault("CLICKHOUSE_DATABASE", "linkshield")

	viper.SetDefault("JWT_EXPIRY", 24*time.Hour)
	viper.SetDefault("ADMIN_USER", "admin")
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func SetupLogger(cfg *Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
