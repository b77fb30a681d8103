package worker

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ProgressFunc delivers one progress event. Delivery is best effort:
// implementations log failures and never surface them to the run.
type ProgressFunc func(event ProgressEvent)

// BrokerProgress routes progress events through the broker's progress
// channel for the given task.
func BrokerProgress(ctx context.Context, broker Broker, taskID string, logger *logrus.Logger) ProgressFunc {
	return func(event ProgressEvent) {
		if err := broker.PublishProgress(ctx, taskID, event); err != nil {
			logger.WithError(err).WithField("task_id", taskID).Warn("Failed to publish progress event")
		}
	}
}

// WebSocketProgress dials the task's progress URL and pushes events as JSON
// frames, for live monitoring UIs. The returned close func must be called
// when the task finishes. On dial failure progress is dropped.
func WebSocketProgress(progressURL string, logger *logrus.Logger) (ProgressFunc, func()) {
	conn, _, err := websocket.DefaultDialer.Dial(progressURL, nil)
	if err != nil {
		logger.WithError(err).WithField("url", progressURL).Warn("Failed to dial progress endpoint")
		return func(ProgressEvent) {}, func() {}
	}

	send := func(event ProgressEvent) {
		if err := conn.WriteJSON(event); err != nil {
			logger.WithError(err).Warn("Failed to write progress event")
		}
	}
	return send, func() { conn.Close() }
}

// CombineProgress fans one event out to every sink.
func CombineProgress(sinks ...ProgressFunc) ProgressFunc {
	return func(event ProgressEvent) {
		for _, sink := range sinks {
			sink(event)
		}
	}
}
