package passage

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the environment-variable surface of a passage deployment.
// It covers everything a host process needs to hand to New plus the pieces
// the adapters want (listen address, staging dir, SMTP credentials).
type EnvConfig struct {
	Secret      string `env:"PASSAGE_SECRET,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	Addr        string `env:"PASSAGE_ADDR" envDefault:":3000"`
	BaseURL     string `env:"PASSAGE_BASE_URL" envDefault:"http://localhost:3000"`
	BasePath    string `env:"PASSAGE_BASE_PATH" envDefault:"/api/auth"`
	AvatarDir   string `env:"PASSAGE_AVATAR_DIR" envDefault:"public/avatars"`
	TmpDir      string `env:"PASSAGE_TMP_DIR" envDefault:"tmp"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"MAIL_FROM"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
