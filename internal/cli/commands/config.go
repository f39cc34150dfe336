package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/partyline-dev/partyline/internal/config"
)

// configView is the printable configuration. Secrets are reported as
// set or unset, never echoed.
type configView struct {
	Environment string                `yaml:"environment"`
	Port        string                `yaml:"port"`
	Auth        authView              `yaml:"auth"`
	Database    config.DatabaseConfig `yaml:"database"`
	Redis       string                `yaml:"redis"`
	Worker      config.WorkerConfig   `yaml:"worker"`
	Logging     config.LoggingConfig  `yaml:"logging"`
}

type authView struct {
	BaseURL        string   `yaml:"base_url"`
	TrustedOrigins []string `yaml:"trusted_origins"`
	Secret         string   `yaml:"secret"`
	CookieSecure   bool     `yaml:"cookie_secure"`
	SessionTTL     string   `yaml:"session_ttl"`
	SessionRefresh string   `yaml:"session_update_age"`
}

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func writeConfig(out io.Writer, cfg *config.Config) error {
	secret := "unset (generated and stored in the config table)"
	if cfg.Auth.Secret != "" {
		secret = "set"
	}

	view := configView{
		Environment: cfg.Environment,
		Port:        cfg.Server.Port,
		Auth: authView{
			BaseURL:        cfg.Auth.BaseURL,
			TrustedOrigins: cfg.Auth.TrustedOrigins,
			Secret:         secret,
			CookieSecure:   cfg.Auth.CookieSecure,
			SessionTTL:     cfg.Auth.SessionTTL.String(),
			SessionRefresh: cfg.Auth.SessionRefresh.String(),
		},
		Database: cfg.Database,
		Redis:    cfg.Redis.Address,
		Worker:   cfg.Worker,
		Logging:  cfg.Logging,
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
