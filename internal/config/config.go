package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"jsm-form-agent/internal/entity"
)

type Config struct {
	AppConfig     *AppConfig
	JsmConfig     *JsmConfig
	AuthConfig    *AuthConfig
	BrowserConfig *BrowserConfig
	StepConfig    *StepConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type JsmConfig struct {
	Org           string `envconfig:"JSM_ORG"`
	BaseURL       string `envconfig:"JSM_BASE_URL"`
	PortalID      int    `envconfig:"JSM_PORTAL_ID" default:"6"`
	RequestTypeID int    `envconfig:"JSM_REQUEST_TYPE_ID" default:"73"`
}

type AuthConfig struct {
	Username          string `envconfig:"JSM_USERNAME"`
	AtlassianAPIToken string `envconfig:"JSM_ATLASSIAN_API_TOKEN"`
	MicrosoftPassword string `envconfig:"JSM_MICROSOFT_PASSWORD"`
}

type BrowserConfig struct {
	Headless     bool   `envconfig:"BROWSER_HEADLESS" default:"false"`
	SlowMo       int    `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout      int    `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	UserDataDir  string `envconfig:"BROWSER_USER_DATA_DIR" default:"./browser-session-data"`
	LoginTimeout int    `envconfig:"LOGIN_TIMEOUT_SECONDS" default:"45"`
}

type StepConfig struct {
	Enabled   bool  `envconfig:"STEP_THROUGH" default:"false"`
	SkipSteps []int `envconfig:"STEP_SKIP"`
}

// GetConfig reads configuration from the environment, loading a local .env
// file first when present.
func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}

// ApplyFile overlays values from a TOML config file on top of the
// environment-derived configuration. Missing file keys keep their env values.
func (c *Config) ApplyFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	overlayString(v, "org", &c.JsmConfig.Org)
	overlayString(v, "base_url", &c.JsmConfig.BaseURL)
	overlayInt(v, "portal_id", &c.JsmConfig.PortalID)
	overlayInt(v, "request_type_id", &c.JsmConfig.RequestTypeID)
	overlayString(v, "auth.username", &c.AuthConfig.Username)
	overlayString(v, "auth.token_atlassian_api", &c.AuthConfig.AtlassianAPIToken)
	overlayString(v, "auth.microsoft_password", &c.AuthConfig.MicrosoftPassword)

	return nil
}

func overlayString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) && strings.TrimSpace(v.GetString(key)) != "" {
		*dst = v.GetString(key)
	}
}

func overlayInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) && v.GetInt(key) != 0 {
		*dst = v.GetInt(key)
	}
}

// LoadRiskAssessment reads the risk_assessment section of a TOML values file.
func LoadRiskAssessment(path string) (*entity.RiskAssessmentConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read risk assessment file %s: %w", path, err)
	}

	if !v.IsSet("risk_assessment") {
		return nil, fmt.Errorf("missing 'risk_assessment' section in %s", path)
	}

	var risk entity.RiskAssessmentConfig
	if err := v.UnmarshalKey("risk_assessment", &risk); err != nil {
		return nil, fmt.Errorf("parse risk assessment configuration from %s: %w", path, err)
	}

	return &risk, nil
}

// WriteDefault creates a config file template for the init command.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	template := `org = "your-organization"
base_url = "https://your-organization.atlassian.net"
portal_id = 6
request_type_id = 73

[auth]
username = ""
token_atlassian_api = ""
microsoft_password = ""
`

	return os.WriteFile(path, []byte(template), 0o600)
}
