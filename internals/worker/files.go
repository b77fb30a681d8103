package worker

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CreateOutputFile allocates an output record under outputPath. The on-disk
// name is a 32-hex uuid keeping the display name's extension, so files from
// concurrent tasks sharing a volume never collide. The file itself is not
// created; the caller opens it when it has something to write.
func CreateOutputFile(outputPath, displayName, dataType string) OutputFile {
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	if ext := filepath.Ext(displayName); ext != "" {
		name += ext
	}
	return OutputFile{
		DisplayName: displayName,
		Path:        filepath.Join(outputPath, name),
		DataType:    dataType,
	}
}

// GetInputFiles resolves the files a task should operate on. A pipe result
// from an upstream task takes precedence over the explicit list: its output
// files become this task's input files.
func GetInputFiles(pipeResult string, inputFiles []InputFile) ([]InputFile, error) {
	if pipeResult == "" {
		return inputFiles, nil
	}

	result, err := DecodeTaskResult(pipeResult)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pipe result: %w", err)
	}

	files := make([]InputFile, 0, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		files = append(files, InputFile{
			Path:        f.Path,
			DisplayName: f.DisplayName,
			DataType:    f.DataType,
		})
	}
	return files, nil
}

// CreateTaskResult builds the base64-encoded result envelope handed back to
// the platform.
func CreateTaskResult(outputFiles []OutputFile, workflowID, command string, meta map[string]interface{}) (string, error) {
	result := TaskResult{
		OutputFiles: outputFiles,
		WorkflowID:  workflowID,
		Command:     command,
		Meta:        meta,
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task result: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func DecodeTaskResult(encoded string) (*TaskResult, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode task result: %w", err)
	}
	result := &TaskResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("failed to parse task result: %w", err)
	}
	return result, nil
}
