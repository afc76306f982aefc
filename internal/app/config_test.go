package app

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the env layer reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LMS_BASE_URL", "LMS_USERNAME", "LMS_PASSWORD", "CACHE_DIR", "CACHE_MAX_AGE",
		"CACHE_CLEAR", "CACHE_STRICT_PERMS", "WORKERS", "VERBOSE", "HTTP_ADDR",
		"CORS_ORIGINS", "SESSION_SECRET", "SESSION_TTL",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadConfigFile_YAMLAndJSON(t *testing.T) {
	y := writeFile(t, "c.yaml", `
urls: ["https://lms/a, https://lms/b"]
lms:
  baseURL: https://lms.example.com
  username: alice
cache:
  maxAge: 24h
  strictPerms: false
extract:
  workers: 4
server:
  corsOrigins: [https://app.example.com]
`)
	fc, err := LoadConfigFile(y)
	require.NoError(t, err)
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	assert.Equal(t, []string{"https://lms/a", "https://lms/b"}, cfg.URLs)
	assert.Equal(t, "https://lms.example.com", cfg.BaseURL)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, 24*time.Hour, cfg.CacheMaxAge)
	assert.False(t, cfg.CacheStrictPerms)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "-", cfg.OutputPath, "absent keys keep defaults")

	j := writeFile(t, "c.json", `{"input":"page.html","lms":{"password":"pw"}}`)
	fc, err = LoadConfigFile(j)
	require.NoError(t, err)
	cfg = DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	assert.Equal(t, "page.html", cfg.InputPath)
	assert.Equal(t, "pw", cfg.Password)
	assert.True(t, cfg.CacheStrictPerms)

	_, err = LoadConfigFile(writeFile(t, "bad.json", `{`))
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LMS_USERNAME", "bob")
	t.Setenv("CACHE_MAX_AGE", "2h")
	t.Setenv("CACHE_STRICT_PERMS", "off")
	t.Setenv("WORKERS", "3")
	t.Setenv("CORS_ORIGINS", "https://a, https://b")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg := DefaultConfig()
	cfg.Username = "from-file"
	ApplyEnvOverrides(&cfg)
	assert.Equal(t, "bob", cfg.Username)
	assert.Equal(t, 2*time.Hour, cfg.CacheMaxAge)
	assert.False(t, cfg.CacheStrictPerms)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"https://a", "https://b"}, cfg.CORSOrigins)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL, "unparsable values are ignored")
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "c.yaml", "lms:\n  username: file-user\n  baseURL: https://file.example.com\nextract:\n  workers: 2\n")
	t.Setenv("LMS_USERNAME", "env-user")
	t.Setenv("WORKERS", "5")

	f := NewFlags("lmsquiz", false)
	f.SetOutput(io.Discard)
	cfg, err := Load(f, []string{"-config", path, "-workers", "7", "-url", "https://x/1,https://x/2", "-url", "https://x/3"})
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com", cfg.BaseURL, "file beats default")
	assert.Equal(t, "env-user", cfg.Username, "env beats file")
	assert.Equal(t, 7, cfg.Workers, "flag beats env")
	assert.Equal(t, []string{"https://x/1", "https://x/2", "https://x/3"}, cfg.URLs)
	assert.Equal(t, ".lmsquiz-cache", cfg.CacheDir, "unset flag keeps lower layers")
}

func TestLoad_ServerFlags(t *testing.T) {
	clearEnv(t)
	f := NewFlags("lmsquizd", true)
	f.SetOutput(io.Discard)
	cfg, err := Load(f, []string{"-http.addr", "127.0.0.1:9000", "-cors.origins", "https://a", "-session.ttl", "1h"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"https://a"}, cfg.CORSOrigins)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.NoError(t, ValidateServerConfig(cfg))

	_, err = Load(NewFlags("lmsquizd", true), []string{"-input", "x.html"})
	assert.Error(t, err, "cli-only flags are not registered on the server")
}

func TestValidateConfig(t *testing.T) {
	base := DefaultConfig()

	cfg := base
	assert.Error(t, ValidateConfig(cfg))

	cfg = base
	cfg.InputPath = "page.html"
	assert.NoError(t, ValidateConfig(cfg))

	cfg.URLs = []string{"https://lms/x"}
	assert.Error(t, ValidateConfig(cfg), "input and urls together")

	cfg = base
	cfg.URLs = []string{"https://lms/x"}
	assert.Error(t, ValidateConfig(cfg), "urls without credentials")
	cfg.Username, cfg.Password = "u", "p"
	assert.NoError(t, ValidateConfig(cfg))

	cfg.Workers = -1
	assert.Error(t, ValidateConfig(cfg))
}

func TestLoad_MatchingToleranceZero(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(NewFlags("lmsquiz", false), nil)
	require.NoError(t, err)
	assert.Nil(t, cfg.extraction().MatchingItemTolerance, "unset keeps the extractor default")

	cfg, err = Load(NewFlags("lmsquiz", false), []string{"-matching.tolerance", "0"})
	require.NoError(t, err)
	require.NotNil(t, cfg.extraction().MatchingItemTolerance)
	assert.Equal(t, 0, *cfg.extraction().MatchingItemTolerance)

	path := writeFile(t, "c.yaml", "extract:\n  matchingItemTolerance: 0\n")
	cfg, err = Load(NewFlags("lmsquiz", false), []string{"-config", path})
	require.NoError(t, err)
	require.NotNil(t, cfg.extraction().MatchingItemTolerance)
	assert.Equal(t, 0, *cfg.extraction().MatchingItemTolerance)

	cfg.InputPath = "page.html"
	assert.NoError(t, ValidateConfig(cfg))
	cfg.MatchingItemTolerance = -2
	assert.Error(t, ValidateConfig(cfg))
}
