package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgeraudit/internal/commands"
	"github.com/cleared-dev/ledgeraudit/internal/config"
)

// runLedgeraudit executes the CLI in-process and returns stdout and stderr.
func runLedgeraudit(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// newProject initializes a project in a temp dir and returns its config path.
func newProject(t *testing.T, initArgs ...string) string {
	t.Helper()
	dir := t.TempDir()
	_, _, err := runLedgeraudit(t, "", append([]string{"init", dir}, initArgs...)...)
	require.NoError(t, err)
	return filepath.Join(dir, config.FileName)
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runLedgeraudit(t, "", "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized ledgeraudit project")

	for _, d := range []string{"logs", "import"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	data, err := os.ReadFile(filepath.Join(dir, "import", "movements.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,entity_type,entity_id,kind,amount,reference\n", string(data))
}

func TestInit_Config(t *testing.T) {
	cfgPath := newProject(t)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInit_SQLiteStore(t *testing.T) {
	cfgPath := newProject(t, "--store", "sqlite")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "logs/audit.db", cfg.Store.Path)
}

func TestInit_RejectsUnknownStore(t *testing.T) {
	_, _, err := runLedgeraudit(t, "", "init", t.TempDir(), "--store", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestInit_RefusesOverwrite(t *testing.T) {
	cfgPath := newProject(t)
	dir := filepath.Dir(cfgPath)

	_, _, err := runLedgeraudit(t, "", "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runLedgeraudit(t, "", "init", dir, "--force", "--store", "none")
	require.NoError(t, err)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Store.Driver)
}

func TestInit_Gitignore(t *testing.T) {
	cfgPath := newProject(t)

	data, err := os.ReadFile(filepath.Join(filepath.Dir(cfgPath), ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "logs/")
	assert.Contains(t, string(data), ".env")
}

func TestRoot_Version(t *testing.T) {
	out, _, err := runLedgeraudit(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none, built: unknown)")
}

func TestRoot_ExplicitConfigMissing(t *testing.T) {
	_, _, err := runLedgeraudit(t, "", "summary", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRoot_InvalidConfig(t *testing.T) {
	cfgPath := newProject(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  format: xml\n"), 0o644))

	_, _, err := runLedgeraudit(t, "", "summary", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
