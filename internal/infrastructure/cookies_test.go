package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieFilePath(t *testing.T) {
	dir := t.TempDir()

	existing := filepath.Join(dir, "cookies.txt")
	require.NoError(t, os.WriteFile(existing, []byte("# Netscape HTTP Cookie File\n"), 0644))

	assert.Equal(t, existing, CookieFilePath(existing))
	assert.Equal(t, "", CookieFilePath(filepath.Join(dir, "missing.txt")))
	assert.Equal(t, "", CookieFilePath(dir)) // directories do not count
	assert.Equal(t, "", CookieFilePath(""))
}

func TestDetectBrowserCookieSources_Linux(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "google-chrome"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".mozilla", "firefox"), 0755))

	sources := detectBrowserCookieSources("linux",
		func(string) string { return "" },
		func() (string, error) { return home, nil })

	assert.Equal(t, []string{"chrome", "firefox"}, sources)
}

func TestDetectBrowserCookieSources_PreferenceOrder(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".mozilla", "firefox"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "microsoft-edge"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "google-chrome"), 0755))

	sources := detectBrowserCookieSources("linux",
		func(string) string { return "" },
		func() (string, error) { return home, nil })

	// chrome, edge, firefox regardless of creation order
	assert.Equal(t, []string{"chrome", "edge", "firefox"}, sources)
}

func TestDetectBrowserCookieSources_FallbackWhenNoneFound(t *testing.T) {
	home := t.TempDir()

	sources := detectBrowserCookieSources("linux",
		func(string) string { return "" },
		func() (string, error) { return home, nil })

	assert.Equal(t, []string{"chrome", "edge", "firefox"}, sources)
}

func TestDetectBrowserCookieSources_Windows(t *testing.T) {
	base := t.TempDir()
	local := filepath.Join(base, "local")
	roaming := filepath.Join(base, "roaming")
	require.NoError(t, os.MkdirAll(filepath.Join(local, "Microsoft", "Edge", "User Data"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(roaming, "Mozilla", "Firefox", "Profiles"), 0755))

	env := map[string]string{
		"LOCALAPPDATA": local,
		"APPDATA":      roaming,
	}

	sources := detectBrowserCookieSources("windows",
		func(key string) string { return env[key] },
		func() (string, error) { return base, nil })

	assert.Equal(t, []string{"edge", "firefox"}, sources)
}

func TestAuthCandidates_CookieFileFirst(t *testing.T) {
	dir := t.TempDir()
	cookieFile := filepath.Join(dir, "cookies.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("# cookies\n"), 0644))

	candidates := AuthCandidates(cookieFile)
	require.NotEmpty(t, candidates)

	assert.Equal(t, "cookies_file", candidates[0].Source)
	assert.Equal(t, []string{"--cookies", cookieFile}, candidates[0].Args)

	// Browser candidates follow, each labelled by source
	for _, c := range candidates[1:] {
		assert.Len(t, c.Args, 2)
		assert.Equal(t, "--cookies-from-browser", c.Args[0])
		assert.Equal(t, "browser:"+c.Args[1], c.Source)
	}
}

func TestAuthCandidates_NoCookieFile(t *testing.T) {
	candidates := AuthCandidates(filepath.Join(t.TempDir(), "missing.txt"))
	require.NotEmpty(t, candidates)

	for _, c := range candidates {
		assert.NotEqual(t, "cookies_file", c.Source)
	}
}
