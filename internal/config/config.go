package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config command line tool configuration
type Config struct {
	// ServerURL base address of the ComfyUI instance
	ServerURL string `env:"COMFY_SERVER_URL" envDefault:"http://127.0.0.1:8188"`
	// ClientID session identifier; a random UUID when empty
	ClientID string `env:"COMFY_CLIENT_ID"`
	// Token optional bearer token for authenticated instances
	Token string `env:"COMFY_TOKEN"`
	// OutputDir directory generated images are saved into
	OutputDir string `env:"COMFY_OUTPUT_DIR" envDefault:"output"`
	// WaitTimeout upper bound on waiting for a prompt to complete
	WaitTimeout time.Duration `env:"COMFY_WAIT_TIMEOUT" envDefault:"10m"`
}

// configuration validation errors
var (
	ErrServerURLRequired = fmt.Errorf("server URL is required")
)

// Load loads configuration from the environment, honoring a .env file if present
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.ServerURL == "" {
		return nil, ErrServerURLRequired
	}

	return cfg, nil
}
