package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported transports
const (
	TransportSMTP     = "smtp"
	TransportGmailAPI = "gmail_api"
	TransportResend   = "resend"
	TransportLog      = "log"
)

// Config holds all configuration for the application
type Config struct {
	Outreach OutreachConfig `mapstructure:"outreach"`
	Email    EmailConfig    `mapstructure:"email"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Paths    PathConfig     `mapstructure:"paths"`
	Profile  ProfileConfig  `mapstructure:"profile"`
	Log      LogConfig      `mapstructure:"log"`
	Sender   SenderConfig   `mapstructure:"sender"`
}

// OutreachConfig holds batching and pacing settings
type OutreachConfig struct {
	// BatchSize is the intended upper bound on contacts per batch
	BatchSize int `mapstructure:"batch_size"`
	// CompanyQuota is the number of contacts per company in one batch
	CompanyQuota int `mapstructure:"company_quota"`
	// CompanyQuotas overrides CompanyQuota for individual companies
	CompanyQuotas map[string]int `mapstructure:"company_quotas"`
	// ReminderDelay is the number of days between a batch's initial and reminder pass
	ReminderDelay int `mapstructure:"reminder_delay"`
	// CoolingPeriod is the pause between consecutive sends, in hours
	CoolingPeriod float64 `mapstructure:"cooling_period"`
	// PollInterval is how often the send loop checks for due emails
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// SubjectTopic is the subject line text that precedes the company name
	SubjectTopic string `mapstructure:"subject_topic"`
}

// CoolingDuration returns the cooling period as a duration
func (c OutreachConfig) CoolingDuration() time.Duration {
	return time.Duration(c.CoolingPeriod * float64(time.Hour))
}

// EmailConfig holds email sending configuration
type EmailConfig struct {
	// Provider names the entry in Providers whose limits apply
	Provider string `mapstructure:"provider"`
	// Transport selects how mail is delivered: smtp, gmail_api, resend or log
	Transport string `mapstructure:"transport"`
	// Providers holds per-provider SMTP endpoints and limits
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	// GmailAPI holds Gmail API credentials, used when Transport is gmail_api
	GmailAPI GmailAPIConfig `mapstructure:"gmail_api"`
	// Resend holds the Resend API key, used when Transport is resend
	Resend ResendConfig `mapstructure:"resend"`
	// Timeout bounds a single SMTP session
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProviderConfig holds one mail provider's endpoint and limits
type ProviderConfig struct {
	SMTPServer string `mapstructure:"smtp_server"`
	SMTPPort   int    `mapstructure:"smtp_port"`
	DailyLimit int    `mapstructure:"daily_limit"`
	BatchLimit int    `mapstructure:"batch_limit"`
}

// GmailAPIConfig holds Gmail API configuration
type GmailAPIConfig struct {
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
}

// ResendConfig holds Resend API configuration
type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// RetryConfig controls re-queueing of failed sends. Disabled by default.
type RetryConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	Delay              time.Duration `mapstructure:"delay"`
	ExponentialBackoff bool          `mapstructure:"exponential_backoff"`
}

// PathConfig holds filesystem locations
type PathConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	LogsDir      string `mapstructure:"logs_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	ContactsFile string `mapstructure:"contacts_file"`
	Attachment   string `mapstructure:"attachment"`
}

// ContactsPath returns the contacts spreadsheet path, resolved against DataDir
func (p PathConfig) ContactsPath() string {
	return p.resolve(p.ContactsFile)
}

// AttachmentPath returns the attachment path, resolved against DataDir
func (p PathConfig) AttachmentPath() string {
	if p.Attachment == "" {
		return ""
	}
	return p.resolve(p.Attachment)
}

func (p PathConfig) resolve(name string) string {
	if filepath.IsAbs(name) || p.DataDir == "" {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// ProfileConfig holds the sender's signature details used by the templates
type ProfileConfig struct {
	Name     string `mapstructure:"name"`
	Headline string `mapstructure:"headline"`
	Phone    string `mapstructure:"phone"`
	LinkedIn string `mapstructure:"linkedin"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File is an optional log file; JSON lines are appended to it
	File string `mapstructure:"file"`
}

// SenderConfig holds the sending identity, sourced from the environment
type SenderConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// String never includes the password
func (s SenderConfig) String() string {
	if s.Password == "" {
		return s.Email
	}
	return s.Email + " (password set)"
}

// ActiveProvider returns the limits of the configured provider
func (c *Config) ActiveProvider() (ProviderConfig, error) {
	p, ok := c.Email.Providers[strings.ToLower(c.Email.Provider)]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	return p, nil
}

// Validate checks the configuration for values the system cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Outreach.BatchSize <= 0 {
		errs = append(errs, errors.New("outreach.batch_size must be positive"))
	}
	if c.Outreach.CompanyQuota <= 0 {
		errs = append(errs, errors.New("outreach.company_quota must be positive"))
	}
	if c.Outreach.ReminderDelay < 0 {
		errs = append(errs, errors.New("outreach.reminder_delay must not be negative"))
	}
	if c.Outreach.CoolingPeriod < 0 {
		errs = append(errs, errors.New("outreach.cooling_period must not be negative"))
	}
	if c.Outreach.PollInterval <= 0 {
		errs = append(errs, errors.New("outreach.poll_interval must be positive"))
	}

	switch c.Email.Transport {
	case TransportSMTP, TransportGmailAPI, TransportResend, TransportLog:
	default:
		errs = append(errs, fmt.Errorf("email.transport %q is not one of smtp, gmail_api, resend, log", c.Email.Transport))
	}

	if p, err := c.ActiveProvider(); err != nil {
		errs = append(errs, err)
	} else {
		if p.DailyLimit <= 0 {
			errs = append(errs, fmt.Errorf("email.providers.%s.daily_limit must be positive", c.Email.Provider))
		}
		if c.Email.Transport == TransportSMTP && (p.SMTPServer == "" || p.SMTPPort <= 0) {
			errs = append(errs, fmt.Errorf("email.providers.%s needs smtp_server and smtp_port", c.Email.Provider))
		}
	}

	if c.Retry.Enabled && (c.Retry.MaxAttempts <= 0 || c.Retry.Delay <= 0) {
		errs = append(errs, errors.New("retry.max_attempts and retry.delay must be positive when retry is enabled"))
	}

	return errors.Join(errs...)
}

// Load reads configuration from .env, an optional config file and environment variables.
// An empty path searches the default locations.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/outreach")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials keep their conventional names
	_ = v.BindEnv("sender.email", "SENDER_EMAIL", "OUTREACH_SENDER_EMAIL")
	_ = v.BindEnv("sender.password", "SENDER_PASSWORD", "OUTREACH_SENDER_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Sender.Email = strings.TrimSpace(cfg.Sender.Email)
	cfg.Sender.Password = strings.TrimSpace(cfg.Sender.Password)
	cfg.Email.Provider = strings.ToLower(cfg.Email.Provider)
	cfg.Email.Transport = strings.ToLower(cfg.Email.Transport)
	if cfg.Log.File == "" && cfg.Paths.LogsDir != "" {
		cfg.Log.File = filepath.Join(cfg.Paths.LogsDir, "outreach.log")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Outreach defaults
	v.SetDefault("outreach.batch_size", 40)
	v.SetDefault("outreach.company_quota", 10)
	v.SetDefault("outreach.company_quotas", map[string]int{})
	v.SetDefault("outreach.reminder_delay", 2)
	v.SetDefault("outreach.cooling_period", 1.0)
	v.SetDefault("outreach.poll_interval", "30s")
	v.SetDefault("outreach.subject_topic", "Data Science Opportunities")

	// Email defaults
	v.SetDefault("email.provider", "gmail")
	v.SetDefault("email.transport", TransportSMTP)
	v.SetDefault("email.timeout", "30s")
	v.SetDefault("email.providers.gmail.smtp_server", "smtp.gmail.com")
	v.SetDefault("email.providers.gmail.smtp_port", 587)
	v.SetDefault("email.providers.gmail.daily_limit", 500)
	v.SetDefault("email.providers.gmail.batch_limit", 100)
	v.SetDefault("email.providers.outlook.smtp_server", "smtp.office365.com")
	v.SetDefault("email.providers.outlook.smtp_port", 587)
	v.SetDefault("email.providers.outlook.daily_limit", 300)
	v.SetDefault("email.providers.outlook.batch_limit", 75)
	v.SetDefault("email.gmail_api.credentials_json", "")
	v.SetDefault("email.gmail_api.client_id", "")
	v.SetDefault("email.gmail_api.client_secret", "")
	v.SetDefault("email.gmail_api.refresh_token", "")
	v.SetDefault("email.resend.api_key", "")

	// Retry defaults
	v.SetDefault("retry.enabled", false)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay", "30m")
	v.SetDefault("retry.exponential_backoff", true)

	// Path defaults
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.logs_dir", "logs")
	v.SetDefault("paths.templates_dir", "templates")
	v.SetDefault("paths.contacts_file", "contacts.xlsx")
	v.SetDefault("paths.attachment", "resume.pdf")

	// Profile defaults
	v.SetDefault("profile.name", "")
	v.SetDefault("profile.headline", "")
	v.SetDefault("profile.phone", "")
	v.SetDefault("profile.linkedin", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("sender.email", "")
	v.SetDefault("sender.password", "")
}
