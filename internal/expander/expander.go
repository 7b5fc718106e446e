// Package expander resolves the variables embedded in configured paths.
//
// Expansion runs in two passes. The base pass replaces every @{name} token,
// for each name the config declares in its variables list, with the user
// setting of that name (empty if unset). The platform strategy selected at
// startup then substitutes a closed allow-list of environment tokens. Only
// allow-listed tokens are eligible so that a shared sync config cannot read
// arbitrary environment variables of the host.
package expander

import (
	"fmt"
	"strings"

	"github.com/kurum-rebirth/kurum-sync/internal/syncconfig"
)

// SettingsReader resolves a user setting of a config as a string
type SettingsReader interface {
	GetString(key, name string) (string, error)
}

//go:generate mockgen -destination=mocks/mock_expander.go -package=mocks -source=expander.go Expander

// Expander turns a configured path into a concrete filesystem path
type Expander interface {
	Expand(cfg *syncconfig.SyncConfig, raw string) (string, error)
}

// Strategy is the platform-specific second expansion pass
type Strategy func(path string) string

// pathExpander implements Expander
type pathExpander struct {
	settings SettingsReader
	strategy Strategy
}

// New creates an Expander running only the base pass followed by strategy.
// A nil strategy skips the second pass.
func New(settings SettingsReader, strategy Strategy) Expander {
	return &pathExpander{
		settings: settings,
		strategy: strategy,
	}
}

// Expand resolves raw for cfg. Strings without recognized tokens are
// returned unchanged.
func (e *pathExpander) Expand(cfg *syncconfig.SyncConfig, raw string) (string, error) {
	path, err := e.expandVariables(cfg, raw)
	if err != nil {
		return "", err
	}
	if e.strategy != nil {
		path = e.strategy(path)
	}
	return path, nil
}

// expandVariables is the base pass. All tokens are replaced in a single
// scan, so a substituted value is never expanded again.
func (e *pathExpander) expandVariables(cfg *syncconfig.SyncConfig, raw string) (string, error) {
	var pairs []string
	for _, name := range cfg.Variables {
		token := Token(name)
		if !strings.Contains(raw, token) {
			continue
		}

		value, err := e.settings.GetString(cfg.Key, name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve variable '%s' of config '%s': %w", name, cfg.Key, err)
		}
		pairs = append(pairs, token, value)
	}

	if len(pairs) == 0 {
		return raw, nil
	}
	return strings.NewReplacer(pairs...).Replace(raw), nil
}

// Token returns the placeholder text for a variable name
func Token(name string) string {
	return "@{" + name + "}"
}
