package expander

import (
	"os"
	"strings"

	"github.com/adrg/xdg"
)

// Platform identifiers with a dedicated strategy
const (
	PlatformWindows = "windows"
	PlatformLinux   = "linux"
	PlatformDarwin  = "darwin"
)

// WindowsSafeVars are the environment tokens expanded on Windows
var WindowsSafeVars = []string{
	"%AppData%",
	"%LocalAppData%",
	"%UserProfile%",
	"%ProgramFiles%",
	"%ProgramFiles(x86)%",
}

// WindowsStrategy substitutes WindowsSafeVars with values from getenv
func WindowsStrategy(getenv func(string) string) Strategy {
	return func(path string) string {
		pairs := make([]string, 0, 2*len(WindowsSafeVars))
		for _, token := range WindowsSafeVars {
			if !strings.Contains(path, token) {
				continue
			}
			pairs = append(pairs, token, getenv(strings.Trim(token, "%")))
		}
		if len(pairs) == 0 {
			return path
		}
		return strings.NewReplacer(pairs...).Replace(path)
	}
}

// UnixStrategy substitutes each token of dirs with its value
func UnixStrategy(dirs map[string]string) Strategy {
	pairs := make([]string, 0, 2*len(dirs))
	for token, value := range dirs {
		pairs = append(pairs, token, value)
	}
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace
}

// DefaultUnixDirs returns the allow-listed tokens for Linux and macOS,
// resolved through the XDG base directory specification
func DefaultUnixDirs() map[string]string {
	return map[string]string{
		"${HOME}":            xdg.Home,
		"${XDG_CONFIG_HOME}": xdg.ConfigHome,
		"${XDG_DATA_HOME}":   xdg.DataHome,
		"${XDG_STATE_HOME}":  xdg.StateHome,
		"${XDG_CACHE_HOME}":  xdg.CacheHome,
	}
}

// StrategyFor returns the second pass for platform, or nil when the platform
// has none
func StrategyFor(platform string) Strategy {
	switch platform {
	case PlatformWindows:
		return WindowsStrategy(os.Getenv)
	case PlatformLinux, PlatformDarwin:
		return UnixStrategy(DefaultUnixDirs())
	default:
		return nil
	}
}

// ForPlatform creates the Expander for platform
func ForPlatform(platform string, settings SettingsReader) Expander {
	return New(settings, StrategyFor(platform))
}
