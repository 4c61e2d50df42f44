package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemedia/internal/config"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("passthrough: []\n"))
	require.NoError(t, err)
	return cfg
}

func TestFromConfig(t *testing.T) {
	env := map[string]string{"LHCI_GITHUB_APP_TOKEN": "secret"}

	lc := FromConfig(defaultConfig(t), func(k string) string { return env[k] })
	assert.Equal(t, LighthouseConfig{CI: CI{
		Collect: Collect{StaticDistDir: "./_site", NumberOfRuns: 2},
		Upload:  Upload{Target: "temporary-public-storage", GitHubAppToken: "secret"},
	}}, lc)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lighthouserc.yml")
	lc := FromConfig(defaultConfig(t), func(string) string { return "" })

	require.NoError(t, Write(path, lc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ci:\n    collect:\n        staticDistDir: ./_site\n        numberOfRuns: 2\n    upload:\n        target: temporary-public-storage\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWrite_TokenIncludedWhenSet(t *testing.T) {
	t.Setenv("LHCI_GITHUB_APP_TOKEN", "abc123")
	path := filepath.Join(t.TempDir(), "lighthouserc.yml")

	require.NoError(t, Write(path, FromConfig(defaultConfig(t), nil)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "githubAppToken: abc123")
}

func TestDistDir(t *testing.T) {
	assert.Equal(t, "./_site", distDir("_site"))
	assert.Equal(t, "./public/site", distDir("public/site/"))
	assert.Equal(t, "../out", distDir("../out"))
	assert.Equal(t, "/srv/www", distDir("/srv/www"))
}
