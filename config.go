package authflow

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config holds the process-wide knobs of the identity layer, loaded from the
// environment. See LoadConfig.
type Config struct {
	// AdminEmails is the allow-list compared case-insensitively against the
	// authenticated identity's email to derive the admin role.
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	// PopupProvider is the provider offered by the gate's sign-in prompt.
	PopupProvider ProviderKind `env:"POPUP_PROVIDER" envDefault:"google"`

	// ErrorTTL is how long errors surfaced outside the modal stay visible.
	ErrorTTL time.Duration `env:"ERROR_TTL" envDefault:"5s"`
}

// LoadConfig reads configuration from the environment, after loading a .env
// file when one is present. Values pass through Sanitize.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "AUTHFLOW_"}); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse authflow configuration")
	}

	cfg.Sanitize()

	return cfg, nil
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *Config) Sanitize() {
	admins := make([]string, 0, len(c.AdminEmails))
	for _, email := range c.AdminEmails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			admins = append(admins, email)
		}
	}
	c.AdminEmails = admins

	if c.PopupProvider == "" {
		c.PopupProvider = ProviderGoogle
	}

	if c.ErrorTTL <= 0 {
		c.ErrorTTL = defaultGateErrorTTL
	}
}

// RoleResolver builds the resolver configured by the allow-list.
func (c *Config) RoleResolver() *RoleResolver {
	return NewRoleResolver(c.AdminEmails)
}
