package volatility

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type OSGroup string

const (
	OSGroupWindows OSGroup = "win"
	OSGroupLinux   OSGroup = "lin"
	OSGroupMacOS   OSGroup = "macos"
)

// YaraScanPlugin only runs when rule text is supplied; it is never part of
// the static table.
const YaraScanPlugin = "windows.vadyarascan.VadYaraScan"

// PluginSpec is one plugin invocation: the dotted plugin path and the extra
// arguments appended verbatim after it.
type PluginSpec struct {
	Name   string
	Params []string
}

// PluginTable maps an OS group to its ordered plugin list. Groups without an
// entry (or with an empty list) have no plugins registered.
type PluginTable map[OSGroup][]PluginSpec

func DefaultPluginTable() PluginTable {
	return PluginTable{
		OSGroupWindows: {
			{Name: "windows.info"},
			{Name: "windows.pslist", Params: []string{"--dump"}},
			{Name: "windows.pstree"},
		},
	}
}

// Lookup returns a fresh copy of the group's plugin list, so run-specific
// parameters injected later never leak back into the shared table.
func (t PluginTable) Lookup(group OSGroup) ([]PluginSpec, bool) {
	specs, ok := t[group]
	if !ok || len(specs) == 0 {
		return nil, false
	}

	out := make([]PluginSpec, len(specs))
	for i, spec := range specs {
		out[i] = PluginSpec{Name: spec.Name}
		if len(spec.Params) > 0 {
			out[i].Params = append([]string(nil), spec.Params...)
		}
	}
	return out, true
}

// LoadPluginTable reads a plugin table from a TOML file:
//
//	[win]
//	[[win.plugin]]
//	name = "windows.info"
//
//	[[win.plugin]]
//	name = "windows.pslist"
//	params = ["--dump"]
//
// The file replaces the built-in table entirely.
func LoadPluginTable(configPath string) (PluginTable, error) {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin config: %w", err)
	}

	tree, err := toml.LoadBytes(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plugin config: %w", err)
	}

	table := PluginTable{}
	for _, key := range tree.Keys() {
		group, ok := tree.Get(key).(*toml.Tree)
		if !ok {
			return nil, fmt.Errorf("invalid group entry %q", key)
		}

		entries, ok := group.Get("plugin").([]*toml.Tree)
		if !ok {
			return nil, fmt.Errorf("group %q has no plugin entries", key)
		}

		specs := make([]PluginSpec, 0, len(entries))
		for _, entry := range entries {
			name, ok := entry.Get("name").(string)
			if !ok || name == "" {
				return nil, fmt.Errorf("group %q has a plugin entry without a name", key)
			}

			spec := PluginSpec{Name: name}
			if raw, ok := entry.Get("params").([]interface{}); ok {
				for _, p := range raw {
					param, ok := p.(string)
					if !ok {
						return nil, fmt.Errorf("plugin %q has a non-string param", name)
					}
					spec.Params = append(spec.Params, param)
				}
			}
			specs = append(specs, spec)
		}
		table[OSGroup(key)] = specs
	}
	return table, nil
}
