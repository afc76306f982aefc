package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCache_SaveAndLoad(t *testing.T) {
	t.Parallel()
	c := &PageCache{Dir: t.TempDir()}
	ctx := context.Background()
	url := "https://lms.example.com/mod/quiz/review.php?attempt=1"

	require.NoError(t, c.Save(ctx, url, "text/html", `"v1"`, "Mon, 01 Jan 2024 00:00:00 GMT", []byte("<html>1</html>")))

	meta, err := c.LoadMeta(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, url, meta.URL)
	assert.Equal(t, `"v1"`, meta.ETag)
	assert.False(t, meta.SavedAt.IsZero())

	body, err := c.LoadBody(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "<html>1</html>", string(body))

	_, err = c.LoadBody(ctx, url+"&page=2")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPageCache_StrictPerms(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "pages")
	c := &PageCache{Dir: dir, StrictPerms: true}
	url := "https://lms.example.com/x"
	require.NoError(t, c.Save(context.Background(), url, "text/html", "", "", []byte("hello")))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode()&0o777)

	key := c.key(url)
	for _, f := range []string{key + ".body", key + ".meta.json"} {
		finfo, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), finfo.Mode()&0o777, f)
	}
}

func TestPageCache_NotConfigured(t *testing.T) {
	var c *PageCache
	_, err := c.LoadBody(context.Background(), "https://x")
	assert.Error(t, err)
}

func TestPurgeByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &PageCache{Dir: dir}
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, "https://a/old", "text/html", "", "", []byte("old")))
	require.NoError(t, c.Save(ctx, "https://a/new", "text/html", "", "", []byte("new")))

	// Backdate the first entry.
	metaPath := c.metaPath(c.key("https://a/old"))
	stale := PageEntry{URL: "https://a/old", SavedAt: time.Now().Add(-48 * time.Hour)}
	b, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(metaPath, b, 0o644))

	removed, err := PurgeByAge(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = c.LoadBody(ctx, "https://a/old")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = c.LoadBody(ctx, "https://a/new")
	assert.NoError(t, err)

	n, err := PurgeByAge(filepath.Join(dir, "missing"), time.Hour)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestClearDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.body"), []byte("x"), 0o644))

	require.NoError(t, ClearDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Error(t, ClearDir("  "))
}
