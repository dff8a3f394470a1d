package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"jsm-form-agent/internal/config"
)

// loadConfig assembles the effective configuration: environment first, then
// the TOML config file overlay when it exists. A missing file is only an
// error when the operator pointed at it explicitly.
func loadConfig(explicit bool) (*config.Config, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(cfgFile); statErr == nil {
		if err := cfg.ApplyFile(cfgFile); err != nil {
			return nil, fmt.Errorf("apply config file %s: %w", cfgFile, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", cfgFile, statErr)
	}

	return cfg, nil
}

// ensureCredentials prompts for the Atlassian username and API token when the
// config carries none (or only the init placeholders). The token is read
// without echo when stdin is a terminal.
func ensureCredentials(cfg *config.Config) error {
	reader := bufio.NewReader(os.Stdin)

	if isPlaceholder(cfg.AuthConfig.Username, "your-username") {
		fmt.Print("Enter Atlassian username (email): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		cfg.AuthConfig.Username = strings.TrimSpace(line)
	}

	if isPlaceholder(cfg.AuthConfig.AtlassianAPIToken, "your-api-token") {
		fmt.Print("Enter Atlassian API token: ")
		token, err := readSecret(reader)
		if err != nil {
			return fmt.Errorf("read api token: %w", err)
		}
		cfg.AuthConfig.AtlassianAPIToken = token
	}

	fmt.Printf("Using Atlassian account %s\n", cfg.AuthConfig.Username)
	return nil
}

func isPlaceholder(value, placeholder string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || trimmed == placeholder
}

func readSecret(fallback *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := fallback.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
