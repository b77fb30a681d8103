package volatility

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MemForge/internals/worker"

	"github.com/sirupsen/logrus"
)

// Handler executes volatility task messages pulled off a broker and replies
// with the encoded result envelope.
type Handler struct {
	Broker worker.Broker
	Logger *logrus.Logger

	// Plugins overrides the built-in table when non-nil.
	Plugins PluginTable
	// Tool overrides the analysis binary; empty means the default.
	Tool string
	// Timeout caps each plugin process; zero means none.
	Timeout time.Duration
	// Uploader mirrors outputs to S3 when non-nil.
	Uploader *worker.Uploader
}

func (h *Handler) Handle(ctx context.Context, msg *worker.Message) error {
	var task worker.TaskMessage
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		return fmt.Errorf("failed to parse task message: %w", err)
	}

	logger := h.Logger.WithFields(logrus.Fields{
		"task_id":     task.TaskID,
		"workflow_id": task.WorkflowID,
	})
	logger.Info("Processing task")

	inputFiles, err := worker.GetInputFiles(task.PipeResult, task.InputFiles)
	if err != nil {
		return err
	}

	progress := worker.BrokerProgress(ctx, h.Broker, task.TaskID, h.Logger)
	if task.ProgressURL != "" {
		wsProgress, closeWS := worker.WebSocketProgress(task.ProgressURL, h.Logger)
		defer closeWS()
		progress = worker.CombineProgress(progress, wsProgress)
	}

	cfg := Config{
		OutputPath:    task.OutputPath,
		OSGroup:       OSGroup(task.TaskConfig[ConfigKeyOSGroup]),
		OutputFormat:  task.TaskConfig[ConfigKeyOutputFormat],
		YaraRules:     task.TaskConfig[ConfigKeyYaraRules],
		Tool:          h.Tool,
		PluginTimeout: h.Timeout,
		Plugins:       h.Plugins,
	}

	result, err := New(cfg, h.Logger, progress).Run(ctx, inputFiles)
	if err != nil {
		return err
	}

	if h.Uploader != nil {
		if err := h.Uploader.UploadOutputs(ctx, task.WorkflowID, result.OutputFiles); err != nil {
			logger.WithError(err).Error("Failed to upload output files")
		}
	}

	encoded, err := worker.CreateTaskResult(result.OutputFiles, task.WorkflowID, result.Command, map[string]interface{}{})
	if err != nil {
		return err
	}

	logger.WithField("output_files", len(result.OutputFiles)).Info("Task completed")
	return h.Broker.Reply(ctx, task.TaskID, encoded)
}
