package volatility

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"MemForge/internals/worker"

	"github.com/sirupsen/logrus"
)

const defaultTool = "vol"

var (
	// ErrNoPlugins: the selected OS group has no registered plugin list.
	ErrNoPlugins = errors.New("no plugins registered for OS group")
	// ErrNoInputFiles: the task message carried zero input files.
	ErrNoInputFiles = errors.New("no input files provided")
	// ErrNoOutputFiles: the whole run produced nothing, treated as total failure.
	ErrNoOutputFiles = errors.New("no output files generated")
)

// Config drives one task run. Zero values fall back to the platform defaults
// (vol binary, txt output, win plugin group, built-in table, no timeout).
type Config struct {
	OutputPath   string
	OSGroup      OSGroup
	OutputFormat string
	YaraRules    string

	// Tool is the external analysis binary.
	Tool string

	// PluginTimeout caps each plugin process. Zero means no deadline; a
	// hung process then blocks the task indefinitely.
	PluginTimeout time.Duration

	Plugins PluginTable
}

// Task runs the configured plugin set against memory images as concurrent
// external processes and collects everything produced.
type Task struct {
	cfg        Config
	logger     *logrus.Logger
	onProgress worker.ProgressFunc
}

func New(cfg Config, logger *logrus.Logger, onProgress worker.ProgressFunc) *Task {
	if cfg.Tool == "" {
		cfg.Tool = defaultTool
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "txt"
	}
	if cfg.OSGroup == "" {
		cfg.OSGroup = OSGroupWindows
	}
	if cfg.Plugins == nil {
		cfg.Plugins = DefaultPluginTable()
	}
	if onProgress == nil {
		onProgress = func(worker.ProgressEvent) {}
	}
	return &Task{cfg: cfg, logger: logger, onProgress: onProgress}
}

// RunStats are the per-image counters. Completed and Failed only ever grow
// during the wait loop; Completed+Failed never exceeds TotalPlugins.
type RunStats struct {
	InputDisplayName string
	TotalPlugins     int
	Completed        int
	Failed           int
}

type Result struct {
	OutputFiles []worker.OutputFile
	Command     string
	Runs        []RunStats
}

// baseCommand is the invocation prefix shared by every plugin. The json/md
// output formats add `-r json` before `-f`; flag order matters to the tool.
func baseCommand(tool, outputPath, format string) []string {
	if format == "json" || format == "md" {
		return []string{tool, "-o", outputPath, "-r", "json", "-f"}
	}
	return []string{tool, "-o", outputPath, "-f"}
}

// buildInvocation appends the image path, the plugin name, then the plugin's
// own params to the base prefix.
func buildInvocation(base []string, imagePath string, spec PluginSpec) []string {
	argv := make([]string, 0, len(base)+2+len(spec.Params))
	argv = append(argv, base...)
	argv = append(argv, imagePath, spec.Name)
	argv = append(argv, spec.Params...)
	return argv
}

// Run executes the plugin set for every input file, sequentially across
// files. It fails fast on the three fatal conditions (unknown OS group, no
// inputs, empty output set); individual plugin failures are counted and the
// run continues.
func (t *Task) Run(ctx context.Context, inputFiles []worker.InputFile) (*Result, error) {
	plugins, ok := t.cfg.Plugins.Lookup(t.cfg.OSGroup)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPlugins, t.cfg.OSGroup)
	}
	if len(inputFiles) == 0 {
		return nil, ErrNoInputFiles
	}

	var outputFiles []worker.OutputFile

	// Rule-based scanning only exists for the Windows group. Without rule
	// text the scan plugin does not run at all.
	if t.cfg.YaraRules != "" && t.cfg.OSGroup == OSGroupWindows {
		rulesFile, err := t.writeRulesFile()
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, PluginSpec{
			Name:   YaraScanPlugin,
			Params: []string{"--yara-file", rulesFile.Path},
		})
		outputFiles = append(outputFiles, rulesFile)
	}

	base := baseCommand(t.cfg.Tool, t.cfg.OutputPath, t.cfg.OutputFormat)

	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	t.logger.WithField("plugins", names).Info("Running Volatility3 plugins")

	result := &Result{Command: strings.Join(base, " ")}

	for _, inputFile := range inputFiles {
		stats, pluginOutputs, files, err := t.runImage(ctx, base, inputFile, plugins)
		if err != nil {
			return nil, err
		}
		outputFiles = append(outputFiles, files...)

		reportFile, err := WriteReport(pluginOutputs, t.cfg.OutputPath, inputFile.DisplayName)
		if err != nil {
			return nil, err
		}
		outputFiles = append(outputFiles, reportFile)

		// Plugins like pslist --dump drop memory fragments next to their
		// redirected stdout; sweep them into the output set.
		harvested, err := HarvestGlob(t.cfg.OutputPath, "*.dmp", t.cfg.OutputPath)
		if err != nil {
			return nil, err
		}
		outputFiles = append(outputFiles, harvested...)

		result.Runs = append(result.Runs, stats)
	}

	if len(outputFiles) == 0 {
		return nil, ErrNoOutputFiles
	}
	result.OutputFiles = outputFiles
	return result, nil
}

func (t *Task) writeRulesFile() (worker.OutputFile, error) {
	rulesFile := worker.CreateOutputFile(t.cfg.OutputPath, "yara_rules.yar", "")
	if err := os.WriteFile(rulesFile.Path, []byte(t.cfg.YaraRules), 0o644); err != nil {
		return worker.OutputFile{}, fmt.Errorf("failed to write yara rules file: %w", err)
	}
	return rulesFile, nil
}

type launchedPlugin struct {
	spec   PluginSpec
	cmd    *exec.Cmd
	stdout *os.File
	cancel context.CancelFunc
}

// runImage launches one process per plugin without waiting between starts,
// then joins them in launch order.
func (t *Task) runImage(ctx context.Context, base []string, inputFile worker.InputFile, plugins []PluginSpec) (RunStats, []PluginOutput, []worker.OutputFile, error) {
	stats := RunStats{
		InputDisplayName: inputFile.DisplayName,
		TotalPlugins:     len(plugins),
	}
	t.onProgress(worker.ProgressEvent{TotalPlugins: stats.TotalPlugins, PluginsCompleted: 0})

	var (
		launched      []launchedPlugin
		outputFiles   []worker.OutputFile
		pluginOutputs []PluginOutput
	)

	for _, spec := range plugins {
		t.logger.WithField("plugin", spec.Name).Info("Running plugin")

		displayName := fmt.Sprintf("%s_%s.%s", inputFile.DisplayName, spec.Name, t.cfg.OutputFormat)
		outputFile := worker.CreateOutputFile(t.cfg.OutputPath, displayName, "")

		argv := buildInvocation(base, inputFile.Path, spec)
		t.logger.WithField("command", strings.Join(argv, " ")).Info("Running command")

		stdout, err := os.Create(outputFile.Path)
		if err != nil {
			t.waitLaunched(launched, &stats)
			return stats, nil, nil, fmt.Errorf("failed to create output file for %s: %w", spec.Name, err)
		}

		runCtx := ctx
		cancel := context.CancelFunc(func() {})
		if t.cfg.PluginTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, t.cfg.PluginTimeout)
		}

		cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
		cmd.Stdout = stdout

		if err := cmd.Start(); err != nil {
			stdout.Close()
			cancel()
			t.waitLaunched(launched, &stats)
			return stats, nil, nil, fmt.Errorf("failed to start plugin %s: %w", spec.Name, err)
		}

		launched = append(launched, launchedPlugin{spec: spec, cmd: cmd, stdout: stdout, cancel: cancel})
		outputFiles = append(outputFiles, outputFile)
		pluginOutputs = append(pluginOutputs, PluginOutput{Name: spec.Name, Path: outputFile.Path})
	}

	t.waitLaunched(launched, &stats)
	return stats, pluginOutputs, outputFiles, nil
}

// waitLaunched joins processes in the order they were launched, not in
// completion order, updating the cumulative counters and emitting a progress
// event per exit. A non-zero exit is counted and logged, never fatal.
func (t *Task) waitLaunched(launched []launchedPlugin, stats *RunStats) {
	for _, lp := range launched {
		err := lp.cmd.Wait()
		lp.stdout.Close()
		lp.cancel()

		if err == nil {
			stats.Completed++
			t.onProgress(worker.ProgressEvent{
				TotalPlugins:     stats.TotalPlugins,
				PluginsCompleted: stats.Completed,
			})
			continue
		}

		stats.Failed++
		t.logger.WithError(err).WithField("plugin", lp.spec.Name).Warn("Plugin exited with error")
		t.onProgress(worker.ProgressEvent{
			TotalPlugins:     stats.TotalPlugins,
			PluginsCompleted: stats.Completed,
			PluginsFailed:    stats.Failed,
		})
	}
}
