package volatility

import (
	"fmt"
	"os"
	"strings"

	"MemForge/internals/worker"
)

// ReportDataType tags the assembled report in the output set.
const ReportDataType = "worker:memforge:volatility:report"

// PluginOutput records where one plugin's captured stdout landed.
type PluginOutput struct {
	Name string
	Path string
}

// WriteReport assembles one Markdown document from the captured plugin
// outputs, in execution order: a title, a paragraph listing the executed
// plugins, then a heading and verbatim code block per plugin.
func WriteReport(pluginOutputs []PluginOutput, outputPath, prefix string) (worker.OutputFile, error) {
	var b strings.Builder
	b.WriteString("# Volatility3 Plugin Execution\n\n")

	names := make([]string, len(pluginOutputs))
	for i, po := range pluginOutputs {
		names[i] = po.Name
	}
	fmt.Fprintf(&b, "The following plugins were executed: %s\n\n", strings.Join(names, ", "))

	for _, po := range pluginOutputs {
		content, err := os.ReadFile(po.Path)
		if err != nil {
			return worker.OutputFile{}, fmt.Errorf("failed to read output of plugin %s: %w", po.Name, err)
		}

		fmt.Fprintf(&b, "## Plugin: %s\n\n```\n", po.Name)
		b.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteString("```\n\n")
	}

	reportFile := worker.CreateOutputFile(outputPath, prefix+"-volatility-report.md", ReportDataType)
	if err := os.WriteFile(reportFile.Path, []byte(b.String()), 0o644); err != nil {
		return worker.OutputFile{}, fmt.Errorf("failed to write report: %w", err)
	}
	return reportFile, nil
}
