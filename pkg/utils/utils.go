package utils

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// ExtractHost extracts the host (with port, if any) from a repository URL.
// Example: https://nexus.example.com:8443/repository/php -> nexus.example.com:8443
func ExtractHost(repoURL string) string {
	if !strings.Contains(repoURL, "://") {
		repoURL = "https://" + repoURL
	}

	parsedURL, err := url.Parse(repoURL)
	if err != nil {
		host := strings.SplitN(repoURL, "://", 2)[1]
		return strings.SplitN(host, "/", 2)[0]
	}

	return parsedURL.Host
}

// ComposerHome returns the user-level Composer directory: $COMPOSER_HOME,
// else $XDG_CONFIG_HOME/composer (or ~/.config/composer) when it exists,
// else ~/.composer.
func ComposerHome() string {
	if home := os.Getenv("COMPOSER_HOME"); home != "" {
		return home
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = filepath.Join(userHome, ".config")
	}
	if info, err := os.Stat(filepath.Join(xdg, "composer")); err == nil && info.IsDir() {
		return filepath.Join(xdg, "composer")
	}

	return filepath.Join(userHome, ".composer")
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
