package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/bwbexpress/leadflow-backend/internal/domain/verification"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`

	Compliance   ComplianceConfig   `koanf:"compliance"`
	Verification VerificationConfig `koanf:"verification"`
	Twilio       TwilioConfig       `koanf:"twilio"`
	SMTP         SMTPConfig         `koanf:"smtp"`
	Prospect     ProspectConfig     `koanf:"prospect"`
	Branding     BrandingConfig     `koanf:"branding"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Enabled  bool   `koanf:"enabled"`
}

type ComplianceConfig struct {
	// QuietStartHour/QuietEndHour bound the permitted local-time window
	// [start, end) for real-time channels.
	QuietStartHour  int    `koanf:"quiet_start_hour"`
	QuietEndHour    int    `koanf:"quiet_end_hour"`
	DefaultTimezone string `koanf:"default_timezone"`
}

type VerificationConfig struct {
	ProbeHELODomain   string                        `koanf:"probe_helo_domain"`
	ProbeMailFrom     string                        `koanf:"probe_mail_from"`
	ProbePort         int                           `koanf:"probe_port"`
	ProbeTimeout      time.Duration                 `koanf:"probe_timeout"`
	ProbeReadTimeout  time.Duration                 `koanf:"probe_read_timeout"`
	ProbesPerSecond   float64                       `koanf:"probes_per_second"`
	DNSTimeout        time.Duration                 `koanf:"dns_timeout"`
	DisposableDomains []string                      `koanf:"disposable_domains"`
	CacheTTL          time.Duration                 `koanf:"cache_ttl"`
	Confidence        verification.ConfidencePolicy `koanf:"confidence"`
}

type TwilioConfig struct {
	AccountSID string        `koanf:"account_sid"`
	AuthToken  string        `koanf:"auth_token"`
	From       string        `koanf:"from"`
	LookupURL  string        `koanf:"lookup_url"`
	APIURL     string        `koanf:"api_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type ProspectConfig struct {
	GooglePlacesKey string        `koanf:"google_places_key"`
	YelpKey         string        `koanf:"yelp_key"`
	Timeout         time.Duration `koanf:"timeout"`
}

type BrandingConfig struct {
	PlatformName string `koanf:"platform_name"`
	CompanyName  string `koanf:"company_name"`
	CompanyPhone string `koanf:"company_phone"`
	CompanyEmail string `koanf:"company_email"`
	AgentName    string `koanf:"agent_name"`
	CalendarLink string `koanf:"calendar_link"`
}

// Load reads configuration from struct defaults, an optional YAML file and
// LEADFLOW_-prefixed environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Compliance: ComplianceConfig{
			QuietStartHour:  8,
			QuietEndHour:    21,
			DefaultTimezone: "America/New_York",
		},
		Verification: VerificationConfig{
			ProbeHELODomain:  "bwbexpress.com",
			ProbeMailFrom:    "verify@bwbexpress.com",
			ProbePort:        25,
			ProbeTimeout:     8 * time.Second,
			ProbeReadTimeout: 5 * time.Second,
			ProbesPerSecond:  2,
			DNSTimeout:       5 * time.Second,
			DisposableDomains: []string{
				"mailinator.com",
				"guerrillamail.com",
				"10minutemail.com",
			},
			CacheTTL:   6 * time.Hour,
			Confidence: verification.DefaultConfidencePolicy(),
		},
		Twilio: TwilioConfig{
			From:      "+15555555555",
			LookupURL: "https://lookups.twilio.com/v2/PhoneNumbers",
			APIURL:    "https://api.twilio.com/2010-04-01",
			Timeout:   20 * time.Second,
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "noreply@bwbexpress.com",
		},
		Prospect: ProspectConfig{
			Timeout: 20 * time.Second,
		},
		Branding: BrandingConfig{
			PlatformName: "LeadFlow",
			CompanyName:  "BWB Express",
			CompanyPhone: "+1-937-303-1701",
			CompanyEmail: "noreply@bwbexpress.com",
			AgentName:    "Kris",
			CalendarLink: "https://cal.com/yourname/intro",
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Config file is optional.
	if path == "" {
		path = "configs/config.yaml"
	}
	_ = k.Load(file.Provider(path), yaml.Parser())

	// Override with environment variables.
	if err := k.Load(env.Provider("LEADFLOW_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "LEADFLOW_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Compliance.QuietStartHour < 0 || c.Compliance.QuietStartHour > 23 {
		return fmt.Errorf("quiet start hour must be between 0 and 23")
	}
	if c.Compliance.QuietEndHour < 0 || c.Compliance.QuietEndHour > 24 {
		return fmt.Errorf("quiet end hour must be between 0 and 24")
	}
	if c.Compliance.QuietStartHour >= c.Compliance.QuietEndHour {
		return fmt.Errorf("quiet hours window is empty: start %d >= end %d",
			c.Compliance.QuietStartHour, c.Compliance.QuietEndHour)
	}
	return nil
}
