package worker

// TaskMessage is one unit of work pulled off the broker. The shape mirrors
// what the platform's workflow engine enqueues for every worker kind.
type TaskMessage struct {
	TaskID      string            `json:"task_id"`
	WorkflowID  string            `json:"workflow_id"`
	PipeResult  string            `json:"pipe_result,omitempty"`
	InputFiles  []InputFile       `json:"input_files,omitempty"`
	OutputPath  string            `json:"output_path"`
	TaskConfig  map[string]string `json:"task_config,omitempty"`
	ProgressURL string            `json:"progress_url,omitempty"`
}

// InputFile is supplied by the caller and never modified by the worker.
type InputFile struct {
	ID          string `json:"id,omitempty"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	DataType    string `json:"data_type,omitempty"`
}

// OutputFile records one artifact produced by a task run. DisplayName is the
// human label; Path is the uuid-named location on the shared output volume.
type OutputFile struct {
	DisplayName string `json:"display_name"`
	Path        string `json:"path"`
	DataType    string `json:"data_type,omitempty"`
}

// TaskResult is the envelope returned to the platform, base64-encoded so it
// can be piped verbatim into a downstream task.
type TaskResult struct {
	OutputFiles []OutputFile           `json:"output_files"`
	WorkflowID  string                 `json:"workflow_id"`
	Command     string                 `json:"command"`
	Meta        map[string]interface{} `json:"meta"`
}

// ProgressEvent is emitted after each plugin process exits. PluginsFailed is
// only present on events reporting a failure.
type ProgressEvent struct {
	TotalPlugins     int `json:"total_plugins"`
	PluginsCompleted int `json:"plugins_completed"`
	PluginsFailed    int `json:"plugins_failed,omitempty"`
}
