package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dannyswat/outreach/internal/company"
	"github.com/dannyswat/outreach/internal/config"
	"github.com/dannyswat/outreach/internal/email"
	"github.com/dannyswat/outreach/internal/ingest"
	"github.com/dannyswat/outreach/internal/logger"
	"github.com/dannyswat/outreach/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

var (
	configPath   string
	contactsPath string
)

var rootCmd = &cobra.Command{
	Use:           "outreach",
	Short:         "Batched, templated outreach emails with follow-up reminders",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/outreach/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&contactsPath, "contacts", "", "contacts spreadsheet (.xlsx or .csv), overrides paths.contacts_file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(smtpTestCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the components every command shares
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	closeLog  func() error
	matcher   *company.Matcher
	ingester  *ingest.Ingester
	planner   *service.BatchPlanner
	templates *email.TemplateManager
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(cfg)
}

// loadConfig reads the configuration and applies the --contacts override
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if contactsPath != "" {
		abs, err := filepath.Abs(contactsPath)
		if err != nil {
			return nil, fmt.Errorf("invalid contacts path: %w", err)
		}
		cfg.Paths.ContactsFile = abs
	}
	return cfg, nil
}

func newAppWithConfig(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}

	matcher := company.NewMatcher(cfg.Outreach.CompanyQuotas)

	templates, err := email.NewTemplateManager(email.TemplateOptions{
		Companies: matcher.Companies(),
		Profile: email.Profile{
			Name:     cfg.Profile.Name,
			Headline: cfg.Profile.Headline,
			Phone:    cfg.Profile.Phone,
			LinkedIn: cfg.Profile.LinkedIn,
		},
		Dir: cfg.Paths.TemplatesDir,
	})
	if err != nil {
		closeLog()
		return nil, err
	}

	maxSize := cfg.Outreach.BatchSize
	if p, err := cfg.ActiveProvider(); err == nil && p.BatchLimit > 0 && p.BatchLimit < maxSize {
		log.Warn().
			Int("batch_size", cfg.Outreach.BatchSize).
			Int("batch_limit", p.BatchLimit).
			Str("provider", cfg.Email.Provider).
			Msg("batch size exceeds provider batch limit")
		maxSize = p.BatchLimit
	}

	return &app{
		cfg:       cfg,
		log:       log,
		closeLog:  closeLog,
		matcher:   matcher,
		ingester:  ingest.NewIngester(matcher, log),
		planner:   service.NewBatchPlanner(matcher, maxSize, log),
		templates: templates,
	}, nil
}

func (a *app) newService(sender email.Sender) (*service.OutreachService, error) {
	return service.NewOutreachService(a.cfg, a.ingester, a.planner, a.templates, sender, a.log)
}

// buildSender returns the transport selected by email.transport
func buildSender(ctx context.Context, cfg *config.Config, log *logger.Logger) (email.Sender, error) {
	switch cfg.Email.Transport {
	case config.TransportSMTP:
		p, err := cfg.ActiveProvider()
		if err != nil {
			return nil, err
		}
		return email.NewSMTPSender(email.SMTPConfig{
			Host:       p.SMTPServer,
			Port:       p.SMTPPort,
			Username:   cfg.Sender.Email,
			Password:   cfg.Sender.Password,
			SenderName: cfg.Profile.Name,
			Timeout:    cfg.Email.Timeout,
		})

	case config.TransportGmailAPI:
		g := cfg.Email.GmailAPI
		if g.CredentialsJSON != "" {
			return email.NewGmailSender(ctx, email.GmailConfig{
				CredentialsJSON: g.CredentialsJSON,
				SenderAddress:   cfg.Sender.Email,
				SenderName:      cfg.Profile.Name,
			})
		}
		return email.NewGmailSenderWithToken(ctx, g.ClientID, g.ClientSecret, g.RefreshToken, cfg.Sender.Email, cfg.Profile.Name)

	case config.TransportResend:
		from := cfg.Sender.Email
		if from != "" && cfg.Profile.Name != "" {
			from = fmt.Sprintf("%s <%s>", cfg.Profile.Name, cfg.Sender.Email)
		}
		return email.NewResendSender(cfg.Email.Resend.APIKey, from)

	case config.TransportLog:
		return email.NewLogSender(log), nil

	default:
		return nil, fmt.Errorf("unsupported email transport %q", cfg.Email.Transport)
	}
}
