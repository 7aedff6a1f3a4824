package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mesh-intelligence/pocketbook/internal/paths"
	"github.com/mesh-intelligence/pocketbook/internal/sqlite"
	"github.com/mesh-intelligence/pocketbook/pkg/types"
)

// dataDir resolves the data directory: flag, then config, then environment,
// then the platform default.
func (a *app) dataDir() (string, error) {
	dir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return "", sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	return dir, nil
}

// openStore opens and migrates the database. Seeding runs for userID when it
// is set.
func (a *app) openStore(userID string) (*sqlite.Backend, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, err
	}

	b := sqlite.NewBackend(sqlite.WithLogger(a.log))
	cfg := types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dir,
		UserID:  userID,
	}
	if err := cfg.Validate(); err != nil {
		return nil, userError(fmt.Errorf("config: %w", err))
	}
	if err := b.Open(cfg); err != nil {
		return nil, classify(fmt.Errorf("open store: %w", err))
	}
	return b, nil
}

// userID returns the --user flag value, falling back to the configured user.
func (a *app) userID(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if id := a.cfg.GetString(cfgKeyUserID); id != "" {
		return id, nil
	}
	return "", userError(errors.New("no user: pass --user or set user_id in config"))
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}
