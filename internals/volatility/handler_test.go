package volatility

import (
	"context"
	"encoding/json"
	"testing"

	"MemForge/internals/worker"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	progress []worker.ProgressEvent
	replies  map[string]string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{replies: map[string]string{}}
}

func (b *fakeBroker) Receive(ctx context.Context) (*worker.Message, error) { return nil, nil }
func (b *fakeBroker) Ack(ctx context.Context, msg *worker.Message) error   { return nil }

func (b *fakeBroker) Reply(ctx context.Context, taskID, result string) error {
	b.replies[taskID] = result
	return nil
}

func (b *fakeBroker) PublishProgress(ctx context.Context, taskID string, event worker.ProgressEvent) error {
	b.progress = append(b.progress, event)
	return nil
}

func TestHandlerHandle(t *testing.T) {
	outputPath := t.TempDir()
	tool := writeFakeTool(t, t.TempDir())
	broker := newFakeBroker()

	handler := &Handler{
		Broker: broker,
		Logger: logrus.New(),
		Tool:   tool,
		Plugins: PluginTable{
			OSGroupWindows: {
				{Name: "good.one"},
				{Name: "bad.one"},
			},
		},
	}

	task := worker.TaskMessage{
		TaskID:     "task-1",
		WorkflowID: "wf-1",
		OutputPath: outputPath,
		InputFiles: []worker.InputFile{
			{Path: "image.raw", DisplayName: "image.raw"},
		},
		TaskConfig: map[string]string{
			ConfigKeyOSGroup:      "win",
			ConfigKeyOutputFormat: "txt",
		},
	}
	body, err := json.Marshal(task)
	require.NoError(t, err)

	err = handler.Handle(context.Background(), &worker.Message{ID: "m1", Body: body})
	require.NoError(t, err)

	encoded, ok := broker.replies["task-1"]
	require.True(t, ok, "no reply sent")

	result, err := worker.DecodeTaskResult(encoded)
	require.NoError(t, err)
	assert.Equal(t, "wf-1", result.WorkflowID)
	assert.Contains(t, result.Command, "-o "+outputPath)

	var displayNames []string
	for _, f := range result.OutputFiles {
		displayNames = append(displayNames, f.DisplayName)
	}
	assert.Contains(t, displayNames, "image.raw_good.one.txt")
	assert.Contains(t, displayNames, "image.raw_bad.one.txt")
	assert.Contains(t, displayNames, "image.raw-volatility-report.md")

	// Initial event plus one per plugin exit, routed through the broker.
	require.Len(t, broker.progress, 3)
	assert.Equal(t, worker.ProgressEvent{TotalPlugins: 2, PluginsCompleted: 0}, broker.progress[0])
}

func TestHandlerBadMessage(t *testing.T) {
	handler := &Handler{
		Broker: newFakeBroker(),
		Logger: logrus.New(),
	}

	err := handler.Handle(context.Background(), &worker.Message{ID: "m1", Body: []byte("not json")})
	require.Error(t, err)
}

func TestHandlerNoInputFiles(t *testing.T) {
	broker := newFakeBroker()
	handler := &Handler{
		Broker: broker,
		Logger: logrus.New(),
	}

	task := worker.TaskMessage{
		TaskID:     "task-2",
		WorkflowID: "wf-2",
		OutputPath: t.TempDir(),
	}
	body, err := json.Marshal(task)
	require.NoError(t, err)

	err = handler.Handle(context.Background(), &worker.Message{ID: "m2", Body: body})
	require.ErrorIs(t, err, ErrNoInputFiles)
	assert.Empty(t, broker.replies)
}
