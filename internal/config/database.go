package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// DatabaseMode selects where the database lives
type DatabaseMode string

const (
	// ModeLocal uses the SQLite file wrangler keeps for local D1 emulation
	ModeLocal DatabaseMode = "local"
	// ModeRemote uses the D1 HTTP API
	ModeRemote DatabaseMode = "remote"
)

var (
	// ErrMissingD1Credentials means remote mode was selected without full credentials
	ErrMissingD1Credentials = errors.New("missing Cloudflare D1 credentials for production")
	// ErrNoLocalDatabase means neither a state file nor a database_id was found
	ErrNoLocalDatabase = errors.New("unable to determine local D1 database path")
)

// DatabaseConfig is the resolved database binding
type DatabaseConfig struct {
	Mode DatabaseMode `yaml:"mode"`

	// Local mode
	URL  string `yaml:"url,omitempty"`  // file:// URL
	Path string `yaml:"path,omitempty"` // filesystem path behind URL

	// Remote mode
	APIURL     string `yaml:"api_url,omitempty"`
	AccountID  string `yaml:"account_id,omitempty"`
	DatabaseID string `yaml:"database_id,omitempty"`
	Token      string `yaml:"-"`

	// Diagnostics are operator notes gathered during resolution, logged once
	// the logger is up
	Diagnostics []string `yaml:"-"`
}

// wranglerFile is the subset of wrangler.jsonc needed to predict the local path
type wranglerFile struct {
	D1Databases []struct {
		Binding      string `json:"binding"`
		DatabaseName string `json:"database_name"`
		DatabaseID   string `json:"database_id"`
	} `json:"d1_databases"`
}

// ResolveDatabase picks local or remote mode. Local is chosen in development
// or whenever no D1 token is set; remote needs account, database and token.
func ResolveDatabase(cfg *Config, workDir string) (DatabaseConfig, error) {
	cf := cfg.Cloudflare
	isLocal := cfg.IsDevelopment() || cf.Token == ""

	if !isLocal {
		var missing []string
		if cf.AccountID == "" {
			missing = append(missing, "CLOUDFLARE_ACCOUNT_ID")
		}
		if cf.DatabaseID == "" {
			missing = append(missing, "CLOUDFLARE_DATABASE_ID")
		}
		if cf.Token == "" {
			missing = append(missing, "CLOUDFLARE_D1_TOKEN")
		}
		if len(missing) > 0 {
			return DatabaseConfig{}, fmt.Errorf("%w: %s", ErrMissingD1Credentials, strings.Join(missing, ", "))
		}

		return DatabaseConfig{
			Mode:       ModeRemote,
			APIURL:     cf.APIURL,
			AccountID:  cf.AccountID,
			DatabaseID: cf.DatabaseID,
			Token:      cf.Token,
		}, nil
	}

	if url := cfg.Wrangler.DatabaseURL; url != "" {
		path := absPath(workDir, strings.TrimPrefix(url, "file://"))
		return DatabaseConfig{Mode: ModeLocal, URL: fileURL(path), Path: path}, nil
	}

	return ResolveLocalDatabase(
		absPath(workDir, cfg.Wrangler.StateDir),
		absPath(workDir, cfg.Wrangler.ConfigPath),
	)
}

// ResolveLocalDatabase finds the local D1 SQLite file in stateDir. With no
// file present it predicts the path from the database_id in the wrangler
// config and returns it with a diagnostic; the file appears once migrations
// run or the dev server starts.
func ResolveLocalDatabase(stateDir, wranglerConfigPath string) (DatabaseConfig, error) {
	matches, err := filepath.Glob(filepath.Join(stateDir, "*.sqlite"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("failed to scan %s: %w", stateDir, err)
	}

	if len(matches) > 0 {
		path := matches[0]
		db := DatabaseConfig{Mode: ModeLocal, URL: fileURL(path), Path: path}
		if len(matches) > 1 {
			db.Diagnostics = append(db.Diagnostics,
				fmt.Sprintf("Found %d .sqlite files in %s, using %s", len(matches), stateDir, filepath.Base(path)))
		}
		return db, nil
	}

	databaseID, err := wranglerDatabaseID(wranglerConfigPath)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("%w: %v", ErrNoLocalDatabase, err)
	}
	if databaseID == "" {
		return DatabaseConfig{}, fmt.Errorf("%w: no d1_databases[0].database_id in %s", ErrNoLocalDatabase, wranglerConfigPath)
	}

	path := filepath.Join(stateDir, databaseID+".sqlite")
	return DatabaseConfig{
		Mode: ModeLocal,
		URL:  fileURL(path),
		Path: path,
		Diagnostics: []string{
			fmt.Sprintf("No .sqlite file found in %s", stateDir),
			fmt.Sprintf("Local D1 database will be created at: %s", fileURL(path)),
			`Run "wrangler d1 migrations apply DB --local" or start the dev server to create it.`,
		},
	}, nil
}

func wranglerDatabaseID(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read wrangler config: %w", err)
	}

	// Strip comments and trailing commas
	clean, err := hujson.Standardize(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var wf wranglerFile
	if err := json.Unmarshal(clean, &wf); err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if len(wf.D1Databases) == 0 {
		return "", nil
	}
	return wf.D1Databases[0].DatabaseID, nil
}

func absPath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(workDir, path)
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}
