package common

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// KeyPrompter asks the operator for a secret. A nil prompter disables prompting.
type KeyPrompter interface {
	PromptSecret(label string) (string, error)
}

// TerminalPrompter reads a hidden value from stdin when stdin is a terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

func (p TerminalPrompter) PromptSecret(label string) (string, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}
	_, _ = fmt.Fprintf(out, "%s: ", label)
	b, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// LoadSecretsFile reads a flat YAML map of secret name -> value.
func LoadSecretsFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	secrets := map[string]string{}
	if err := yaml.Unmarshal(b, &secrets); err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", path, err)
	}
	return secrets, nil
}

// ResolveAPIKey returns the provider key from the environment, then the secrets file,
// then the prompter. No key is a fatal configuration error.
func ResolveAPIKey(cfg LLMConfig, prompter KeyPrompter, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.APIKeyEnvName()
	if k := strings.TrimSpace(cfg.APIKey); k != "" {
		logger.Debug("config.api_key.resolved", "source", "env", "name", name)
		return k, nil
	}

	if cfg.SecretsFile != "" {
		secrets, err := LoadSecretsFile(cfg.SecretsFile)
		switch {
		case err == nil:
			if k := strings.TrimSpace(secrets[name]); k != "" {
				logger.Debug("config.api_key.resolved", "source", "secrets_file", "name", name)
				return k, nil
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			logger.Warn("config.secrets_file.unreadable", "path", cfg.SecretsFile, "error", err)
		}
	}

	if prompter != nil {
		logger.Warn("config.api_key.missing", "name", name, "hint", "enter it manually for local use")
		k, err := prompter.PromptSecret("Enter " + name)
		if err == nil && k != "" {
			return k, nil
		}
		if err != nil {
			logger.Debug("config.api_key.prompt_failed", "error", err)
		}
	}
	return "", NewAppError("CONFIG_ERROR", name+" not found in environment, secrets file or prompt", ErrMissingAPIKey)
}
