package infrastructure

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/yourusername/vimeograb-go/internal/domain"
)

// browserPreference is the fixed order credential candidates are tried in.
var browserPreference = []string{"chrome", "edge", "firefox"}

// CookieFilePath returns the configured cookie file if it exists, otherwise
// an empty string.
func CookieFilePath(configured string) string {
	if configured == "" {
		return ""
	}
	if info, err := os.Stat(configured); err == nil && !info.IsDir() {
		return configured
	}
	return ""
}

// DetectBrowserCookieSources returns the locally-installed browsers whose
// cookie stores the extraction tool can read, in preference order. When no
// profile directory is found the full preference list is returned so the
// tool itself gets a chance on layouts we do not know about.
func DetectBrowserCookieSources() []string {
	return detectBrowserCookieSources(runtime.GOOS, os.Getenv, os.UserHomeDir)
}

func detectBrowserCookieSources(goos string, getenv func(string) string, homeDir func() (string, error)) []string {
	profiles := map[string]string{}

	switch goos {
	case "windows":
		local := getenv("LOCALAPPDATA")
		roaming := getenv("APPDATA")
		if local != "" {
			profiles["chrome"] = filepath.Join(local, "Google", "Chrome", "User Data")
			profiles["edge"] = filepath.Join(local, "Microsoft", "Edge", "User Data")
		}
		if roaming != "" {
			profiles["firefox"] = filepath.Join(roaming, "Mozilla", "Firefox", "Profiles")
		}
	case "darwin":
		if home, err := homeDir(); err == nil {
			support := filepath.Join(home, "Library", "Application Support")
			profiles["chrome"] = filepath.Join(support, "Google", "Chrome")
			profiles["edge"] = filepath.Join(support, "Microsoft Edge")
			profiles["firefox"] = filepath.Join(support, "Firefox", "Profiles")
		}
	default:
		if home, err := homeDir(); err == nil {
			profiles["chrome"] = filepath.Join(home, ".config", "google-chrome")
			profiles["edge"] = filepath.Join(home, ".config", "microsoft-edge")
			profiles["firefox"] = filepath.Join(home, ".mozilla", "firefox")
		}
	}

	var detected []string
	for _, browser := range browserPreference {
		path, ok := profiles[browser]
		if !ok {
			continue
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			detected = append(detected, browser)
		}
	}

	if len(detected) == 0 {
		return append([]string(nil), browserPreference...)
	}
	return detected
}

// AuthCandidates builds the ordered credential candidates: the local cookie
// file first when present, then each detected browser cookie store.
func AuthCandidates(cookieFile string) []domain.AuthCandidate {
	var candidates []domain.AuthCandidate

	if path := CookieFilePath(cookieFile); path != "" {
		candidates = append(candidates, domain.AuthCandidate{
			Args:   []string{"--cookies", path},
			Source: "cookies_file",
		})
	}

	for _, browser := range DetectBrowserCookieSources() {
		candidates = append(candidates, domain.AuthCandidate{
			Args:   []string{"--cookies-from-browser", browser},
			Source: "browser:" + browser,
		})
	}

	return candidates
}
