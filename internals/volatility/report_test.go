package volatility

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	p1 := filepath.Join(dir, "p1.out")
	require.NoError(t, os.WriteFile(p1, []byte("hello"), 0o644))

	reportFile, err := WriteReport([]PluginOutput{{Name: "P1", Path: p1}}, dir, "image.raw")
	require.NoError(t, err)

	assert.Equal(t, "image.raw-volatility-report.md", reportFile.DisplayName)
	assert.Equal(t, ReportDataType, reportFile.DataType)

	content, err := os.ReadFile(reportFile.Path)
	require.NoError(t, err)

	report := string(content)
	assert.Contains(t, report, "# Volatility3 Plugin Execution\n")
	assert.Contains(t, report, "The following plugins were executed: P1\n")
	assert.Contains(t, report, "## Plugin: P1\n\n```\nhello\n```\n")
}

func TestWriteReportPluginOrder(t *testing.T) {
	dir := t.TempDir()

	var outputs []PluginOutput
	for _, name := range []string{"windows.info", "windows.pslist", "windows.pstree"} {
		path := filepath.Join(dir, name+".out")
		require.NoError(t, os.WriteFile(path, []byte("out of "+name+"\n"), 0o644))
		outputs = append(outputs, PluginOutput{Name: name, Path: path})
	}

	reportFile, err := WriteReport(outputs, dir, "mem")
	require.NoError(t, err)

	content, err := os.ReadFile(reportFile.Path)
	require.NoError(t, err)
	report := string(content)

	assert.Contains(t, report,
		"The following plugins were executed: windows.info, windows.pslist, windows.pstree")

	// Sections appear in execution order.
	posInfo := indexOf(t, report, "## Plugin: windows.info")
	posPslist := indexOf(t, report, "## Plugin: windows.pslist")
	posPstree := indexOf(t, report, "## Plugin: windows.pstree")
	assert.Less(t, posInfo, posPslist)
	assert.Less(t, posPslist, posPstree)
}

func TestWriteReportMissingPluginOutput(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteReport([]PluginOutput{{Name: "P1", Path: filepath.Join(dir, "gone")}}, dir, "x")
	require.Error(t, err)
}

func indexOf(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	require.GreaterOrEqual(t, idx, 0, "missing %q", sub)
	return idx
}
