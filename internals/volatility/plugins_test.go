package volatility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPluginTable(t *testing.T) {
	table := DefaultPluginTable()

	specs, ok := table.Lookup(OSGroupWindows)
	require.True(t, ok)
	assert.Equal(t, []PluginSpec{
		{Name: "windows.info"},
		{Name: "windows.pslist", Params: []string{"--dump"}},
		{Name: "windows.pstree"},
	}, specs)

	_, ok = table.Lookup(OSGroupLinux)
	assert.False(t, ok)
	_, ok = table.Lookup(OSGroupMacOS)
	assert.False(t, ok)
}

func TestLookupReturnsFreshCopy(t *testing.T) {
	table := DefaultPluginTable()

	specs, ok := table.Lookup(OSGroupWindows)
	require.True(t, ok)

	specs[0].Name = "mutated"
	specs[1].Params[0] = "--mutated"

	again, ok := table.Lookup(OSGroupWindows)
	require.True(t, ok)
	assert.Equal(t, []PluginSpec{
		{Name: "windows.info"},
		{Name: "windows.pslist", Params: []string{"--dump"}},
		{Name: "windows.pstree"},
	}, again)
}

func TestLoadPluginTable(t *testing.T) {
	config := `
[win]
[[win.plugin]]
name = "windows.info"

[[win.plugin]]
name = "windows.pslist"
params = ["--dump"]

[lin]
[[lin.plugin]]
name = "linux.pslist"
`
	path := filepath.Join(t.TempDir(), "plugins.toml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))

	table, err := LoadPluginTable(path)
	require.NoError(t, err)

	win, ok := table.Lookup(OSGroupWindows)
	require.True(t, ok)
	assert.Equal(t, []PluginSpec{
		{Name: "windows.info"},
		{Name: "windows.pslist", Params: []string{"--dump"}},
	}, win)

	lin, ok := table.Lookup(OSGroupLinux)
	require.True(t, ok)
	assert.Equal(t, []PluginSpec{{Name: "linux.pslist"}}, lin)
}

func TestLoadPluginTableRejectsNamelessPlugin(t *testing.T) {
	config := `
[win]
[[win.plugin]]
params = ["--dump"]
`
	path := filepath.Join(t.TempDir(), "plugins.toml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))

	_, err := LoadPluginTable(path)
	require.Error(t, err)
}

func TestLoadPluginTableMissingFile(t *testing.T) {
	_, err := LoadPluginTable(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
