package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type harness struct {
	dir      string
	settings string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.toml")
	body := "[storage]\n" +
		"sync_path = \"" + filepath.ToSlash(filepath.Join(dir, "sync.json")) + "\"\n" +
		"backup_path = \"" + filepath.ToSlash(filepath.Join(dir, "backup.db")) + "\"\n" +
		"[runtime]\nplatform = \"other\"\n" +
		"[log]\nlevel = \"error\"\n"
	require.NoError(t, os.WriteFile(settings, []byte(body), 0o644))
	return &harness{dir: dir, settings: settings}
}

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--settings", h.settings}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := h.run(t, args...)
	require.NoError(t, err, "keymapper %s\nstderr: %s", strings.Join(args, " "), errOut)
	return out
}

func TestSiteCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "site", "add", "https://Example.com/path", "docs.test")
	assert.Equal(t, "example.com\ndocs.test\n", h.mustRun(t, "site", "list"))

	_, errOut, err := h.run(t, "site", "add", "example.com")
	assert.Error(t, err)
	assert.Contains(t, errOut, "already configured")

	h.mustRun(t, "site", "remove", "docs.test")
	assert.Equal(t, "example.com\n", h.mustRun(t, "site", "list"))

	_, _, err = h.run(t, "site", "remove", "docs.test")
	assert.Error(t, err)
}

func TestMapAndSeqCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "map", "add", "Ctrl+Shift+k", "a")
	h.mustRun(t, "seq", "add", "Alt+s", "g", "i@0")

	out := h.mustRun(t, "map", "list")
	assert.Contains(t, out, "Alt+S")
	assert.Contains(t, out, "[1. G → 2. I]")
	assert.Contains(t, out, "Ctrl+Shift+K")

	_, _, err := h.run(t, "map", "add", "Ctrl+w", "a")
	assert.Error(t, err, "reserved source")

	h.mustRun(t, "map", "remove", "Alt+S")
	assert.NotContains(t, h.mustRun(t, "map", "list"), "Alt+S")
}

func TestIdentify(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "identify", "Ctrl+Shift+k", "F5")
	assert.Equal(t, "Ctrl+Shift+K\nF5\t(reserved by the browser)\n", out)
}

func TestExportImportValidate(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "site", "add", "example.com")
	h.mustRun(t, "map", "add", "Ctrl+k", "ArrowUp")

	file := filepath.Join(h.dir, "export.yaml")
	h.mustRun(t, "export", "--format", "yaml", "-o", file)
	assert.Contains(t, h.mustRun(t, "validate", file), "valid: 1 site(s), 1 mapping(s)")
	assert.Contains(t, h.mustRun(t, "validate"), "valid: 1 site(s), 1 mapping(s)")

	other := newHarness(t)
	other.mustRun(t, "import", file)
	assert.Equal(t, "example.com\n", other.mustRun(t, "site", "list"))

	jsonOut := h.mustRun(t, "export")
	assert.True(t, strings.HasPrefix(jsonOut, "{"))
	assert.Contains(t, jsonOut, `"websites"`)

	bad := filepath.Join(h.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"websites":[]}`), 0o644))
	_, _, err := h.run(t, "validate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-config")
}

func TestValidatePrintsSchema(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "validate", "--schema")
	assert.True(t, gjson.Valid(out))
	assert.Equal(t, "keymap.schema.json", gjson.Get(out, "$id").String())
}

func TestBackupCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "site", "add", "first.com")
	h.mustRun(t, "site", "add", "second.com")
	h.mustRun(t, "backup", "snapshot")

	// Each saving command snapshots once.
	list := h.mustRun(t, "backup", "list")
	lines := strings.Split(strings.TrimSpace(list), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))

	h.mustRun(t, "backup", "restore")
	assert.Equal(t, "first.com\nsecond.com\n", h.mustRun(t, "site", "list"))

	oldestID := strings.Fields(lines[3])[0]
	h.mustRun(t, "backup", "restore", "--id", oldestID)
	assert.Equal(t, "first.com\n", h.mustRun(t, "site", "list"))

	assert.Equal(t, "removed 3 snapshot(s)\n", h.mustRun(t, "backup", "prune", "--keep", "1"))
}

func TestCorruptSyncFileRestoresBackup(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "site", "add", "a.com")
	h.mustRun(t, "map", "add", "Ctrl+k", "ArrowUp")
	h.mustRun(t, "site", "add", "b.com")

	corrupt := `{"keyMapperConfig": "not a config"}`
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "sync.json"), []byte(corrupt), 0o644))

	out, errOut, err := h.run(t, "site", "list")
	require.NoError(t, err)
	assert.Equal(t, "a.com\nb.com\n", out)
	assert.Contains(t, errOut, "restored from backup")

	out, errOut, err = h.run(t, "site", "list")
	require.NoError(t, err)
	assert.Equal(t, "a.com\nb.com\n", out)
	assert.NotContains(t, errOut, "restored")
}

func TestMemoryStores(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "--memory", "site", "add", "example.com")
	assert.Empty(t, h.mustRun(t, "--memory", "site", "list"))

	_, _, err := h.run(t, "--memory", "backup", "list")
	assert.ErrorIs(t, err, errNoBackupDB)
}

func TestInvalidSettings(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "--log-level", "loud", "site", "list")
	assert.Error(t, err)
}
