package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateDir = ".wrangler/state/v3/d1/miniflare-D1DatabaseObject"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaultsToLocalMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, stateDir, "abc123.sqlite"), "")

	cfg, err := LoadEnvironment(map[string]string{}, dir)
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Database.Mode)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5173", cfg.Auth.BaseURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Auth.TrustedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionRefresh)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadParsesTrustedOrigins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, stateDir, "abc123.sqlite"), "")

	cfg, err := LoadEnvironment(map[string]string{
		"BA_TRUSTED_ORIGINS": "https://a.example,https://b.example",
		"BETTER_AUTH_URL":    "https://a.example",
	}, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Auth.TrustedOrigins)
	assert.Equal(t, "https://a.example", cfg.Auth.BaseURL)
}

func TestLoadRemoteMissingAccountFails(t *testing.T) {
	_, err := LoadEnvironment(map[string]string{
		"CLOUDFLARE_D1_TOKEN":    "tok",
		"CLOUDFLARE_DATABASE_ID": "db",
	}, t.TempDir())

	require.ErrorIs(t, err, ErrMissingD1Credentials)
	assert.Contains(t, err.Error(), "CLOUDFLARE_ACCOUNT_ID")
}

func TestLoadRemoteMode(t *testing.T) {
	cfg, err := LoadEnvironment(map[string]string{
		"CLOUDFLARE_D1_TOKEN":    "tok",
		"CLOUDFLARE_ACCOUNT_ID":  "acct",
		"CLOUDFLARE_DATABASE_ID": "db",
	}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ModeRemote, cfg.Database.Mode)
	assert.Equal(t, "acct", cfg.Database.AccountID)
	assert.Equal(t, "db", cfg.Database.DatabaseID)
	assert.Equal(t, "tok", cfg.Database.Token)
	assert.Equal(t, "https://api.cloudflare.com/client/v4", cfg.Database.APIURL)
}

func TestDevelopmentForcesLocalEvenWithToken(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, stateDir, "abc123.sqlite"), "")

	cfg, err := LoadEnvironment(map[string]string{
		"NODE_ENV":            "development",
		"CLOUDFLARE_D1_TOKEN": "tok",
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, cfg.Database.Mode)
}

func TestDatabaseURLOverride(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadEnvironment(map[string]string{"DATABASE_URL": "file://data/app.sqlite"}, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data", "app.sqlite"), cfg.Database.Path)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(dir, "data", "app.sqlite")), cfg.Database.URL)
}

func TestResolveLocalDatabaseFindsExistingFile(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, stateDir)
	writeFile(t, filepath.Join(state, "abc123.sqlite"), "")
	writeFile(t, filepath.Join(state, "abc123.sqlite-wal"), "")

	db, err := ResolveLocalDatabase(state, filepath.Join(dir, "wrangler.jsonc"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(state, "abc123.sqlite"), db.Path)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(state, "abc123.sqlite")), db.URL)
	assert.Empty(t, db.Diagnostics)
}

func TestResolveLocalDatabaseUsesFirstOfSeveral(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.sqlite"), "")
	writeFile(t, filepath.Join(dir, "a.sqlite"), "")

	db, err := ResolveLocalDatabase(dir, filepath.Join(dir, "wrangler.jsonc"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a.sqlite"), db.Path)
	assert.Len(t, db.Diagnostics, 1)
}

func TestResolveLocalDatabasePredictsPathFromWranglerConfig(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, stateDir)
	writeFile(t, filepath.Join(dir, "wrangler.jsonc"), `{
		// worker settings
		"name": "partyline",
		/* bindings */
		"d1_databases": [
			{
				"binding": "DB",
				"database_name": "partyline-db",
				"database_id": "abc123", // local + remote
			},
		],
	}`)

	db, err := ResolveLocalDatabase(state, filepath.Join(dir, "wrangler.jsonc"))
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, db.Mode)
	assert.Equal(t, filepath.Join(state, "abc123.sqlite"), db.Path)
	assert.Contains(t, db.Diagnostics[len(db.Diagnostics)-1], "wrangler d1 migrations apply DB --local")
}

func TestResolveLocalDatabaseWithoutAnySourceFails(t *testing.T) {
	dir := t.TempDir()

	_, err := ResolveLocalDatabase(filepath.Join(dir, stateDir), filepath.Join(dir, "wrangler.jsonc"))
	assert.ErrorIs(t, err, ErrNoLocalDatabase)

	writeFile(t, filepath.Join(dir, "wrangler.jsonc"), `{"name": "partyline"}`)
	_, err = ResolveLocalDatabase(filepath.Join(dir, stateDir), filepath.Join(dir, "wrangler.jsonc"))
	assert.ErrorIs(t, err, ErrNoLocalDatabase)
}
